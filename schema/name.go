package schema

import "strings"

// Name is the identity of a named schema.
type Name struct {
	Name      string
	Namespace string
}

// NewName resolves name against an explicit namespace and the enclosing one.
// A dotted name carries its own namespace and ignores both.
func NewName(name, namespace, enclosing string) Name {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return Name{Name: name[i+1:], Namespace: name[:i]}
	}
	if namespace == "" {
		namespace = enclosing
	}
	return Name{Name: name, Namespace: namespace}
}

// Full returns the dotted namespace-qualified name.
func (n Name) Full() string {
	if n.Namespace == "" {
		return n.Name
	}
	return n.Namespace + "." + n.Name
}

func (n Name) String() string { return n.Full() }

// named is embedded by record and enum schemas.
type named struct {
	base
	name    Name
	aliases []Name
	doc     string
}

func (n *named) SchemaName() Name { return n.name }
func (n *named) FullName() string { return n.name.Full() }
func (n *named) Aliases() []Name  { return n.aliases }
func (n *named) Doc() string      { return n.doc }
