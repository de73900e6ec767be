package engine

import (
	"io"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// NodeKind identifies the JSON value held by a Node.
type NodeKind int

const (
	NodeNull NodeKind = iota
	NodeBool
	NodeNumber
	NodeString
	NodeArray
	NodeObject
)

// Node is an ordered JSON tree. Object keys keep document order so that
// schema properties and field lists round-trip in the order they were written.
type Node struct {
	Kind   NodeKind
	Str    string // string value, or number text for NodeNumber
	Bool   bool
	Keys   []string
	Values []*Node // object values, parallel to Keys
	Elems  []*Node
	Offset int64
}

// Get returns the value stored under key, or nil.
func (n *Node) Get(key string) *Node {
	if n == nil || n.Kind != NodeObject {
		return nil
	}
	for i, k := range n.Keys {
		if k == key {
			return n.Values[i]
		}
	}
	return nil
}

// BuildTree consumes exactly one JSON value from src and returns it as a tree.
func BuildTree(src TokenSource) (*Node, error) {
	tok, err := src.NextToken()
	if err != nil {
		return nil, err
	}
	return buildValue(src, tok)
}

func buildValue(src TokenSource, tok Token) (*Node, error) {
	switch tok.Kind {
	case KindBeginObject:
		return buildObject(src, tok.Offset)
	case KindBeginArray:
		return buildArray(src, tok.Offset)
	case KindString:
		return &Node{Kind: NodeString, Str: tok.String, Offset: tok.Offset}, nil
	case KindNumber:
		return &Node{Kind: NodeNumber, Str: tok.Number, Offset: tok.Offset}, nil
	case KindBool:
		return &Node{Kind: NodeBool, Bool: tok.Bool, Offset: tok.Offset}, nil
	case KindNull:
		return &Node{Kind: NodeNull, Offset: tok.Offset}, nil
	default:
		return nil, io.ErrUnexpectedEOF
	}
}

func buildObject(src TokenSource, off int64) (*Node, error) {
	n := &Node{Kind: NodeObject, Offset: off}
	for {
		tok, err := src.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndObject {
			return n, nil
		}
		if tok.Kind != KindKey {
			return nil, io.ErrUnexpectedEOF
		}
		vt, err := src.NextToken()
		if err != nil {
			return nil, err
		}
		v, err := buildValue(src, vt)
		if err != nil {
			return nil, err
		}
		// Last write wins when duplicates are tolerated.
		replaced := false
		for i, k := range n.Keys {
			if k == tok.String {
				n.Values[i] = v
				replaced = true
				break
			}
		}
		if !replaced {
			n.Keys = append(n.Keys, tok.String)
			n.Values = append(n.Values, v)
		}
	}
}

func buildArray(src TokenSource, off int64) (*Node, error) {
	n := &Node{Kind: NodeArray, Offset: off}
	for {
		tok, err := src.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndArray {
			return n, nil
		}
		v, err := buildValue(src, tok)
		if err != nil {
			return nil, err
		}
		n.Elems = append(n.Elems, v)
	}
}
