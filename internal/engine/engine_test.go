package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildTree_KeepsKeyOrder(t *testing.T) {
	n, err := BuildTree(NewBytes([]byte(`{"z": 1, "a": [true, null, "s"], "m": {"k": 1.5e3}}`)))
	require.NoError(t, err)
	require.Equal(t, NodeObject, n.Kind)
	require.Equal(t, []string{"z", "a", "m"}, n.Keys)

	require.Equal(t, NodeNumber, n.Get("z").Kind)
	require.Equal(t, "1", n.Get("z").Str)

	a := n.Get("a")
	require.Len(t, a.Elems, 3)
	require.Equal(t, NodeBool, a.Elems[0].Kind)
	require.True(t, a.Elems[0].Bool)
	require.Equal(t, NodeNull, a.Elems[1].Kind)
	require.Equal(t, "s", a.Elems[2].Str)

	require.Equal(t, "1.5e3", n.Get("m").Get("k").Str)
	require.Nil(t, n.Get("missing"))
	require.Nil(t, a.Get("z"))
}

func TestBuildTree_StringValueAfterKey(t *testing.T) {
	n, err := BuildTree(NewBytes([]byte(`{"type": "record", "name": "R"}`)))
	require.NoError(t, err)
	require.Equal(t, "record", n.Get("type").Str)
	require.Equal(t, "R", n.Get("name").Str)
}

func TestBuildTree_Malformed(t *testing.T) {
	for _, doc := range []string{`{"a": `, `[1, 2`, `{"a" 1}`, ``} {
		_, err := BuildTree(NewBytes([]byte(doc)))
		require.Error(t, err, doc)
	}
}

func TestEnforcement_Duplicates(t *testing.T) {
	doc := []byte(`{"fields": [{"name": "a", "name": "b"}]}`)

	_, err := BuildTree(WrapWithEnforcement(NewBytes(doc), EnforceOptions{OnDuplicate: DupError}))
	var ie IssueError
	require.ErrorAs(t, err, &ie)
	require.Equal(t, "duplicate_key", ie.Code)
	require.Equal(t, "/fields/0/name", ie.Path)

	var warned []SimpleIssue
	n, err := BuildTree(WrapWithEnforcement(NewBytes(doc), EnforceOptions{
		OnDuplicate: DupWarn,
		IssueSink:   func(si SimpleIssue) { warned = append(warned, si) },
	}))
	require.NoError(t, err)
	require.Len(t, warned, 1)
	require.Equal(t, "b", n.Get("fields").Elems[0].Get("name").Str, "last value wins")
	require.Equal(t, []string{"name"}, n.Get("fields").Elems[0].Keys)

	n, err = BuildTree(WrapWithEnforcement(NewBytes(doc), EnforceOptions{}))
	require.NoError(t, err)
	require.Equal(t, "b", n.Get("fields").Elems[0].Get("name").Str)
}

func TestEnforcement_SiblingObjectsDoNotShareKeys(t *testing.T) {
	doc := []byte(`[{"name": "a"}, {"name": "b"}]`)
	_, err := BuildTree(WrapWithEnforcement(NewBytes(doc), EnforceOptions{OnDuplicate: DupError}))
	require.NoError(t, err)
}

func TestEnforcement_MaxDepth(t *testing.T) {
	doc := []byte(`{"a": {"b": {"c": 1}}}`)
	_, err := BuildTree(WrapWithEnforcement(NewBytes(doc), EnforceOptions{MaxDepth: 3}))
	require.NoError(t, err)

	_, err = BuildTree(WrapWithEnforcement(NewBytes(doc), EnforceOptions{MaxDepth: 2}))
	var ie IssueError
	require.ErrorAs(t, err, &ie)
	require.Equal(t, "parse_error", ie.Code)
	require.Equal(t, "/a/b", ie.Path)
}

func TestJoinPointer_Escapes(t *testing.T) {
	require.Equal(t, "/a~1b/c~0d", joinPointer(joinPointer("", "a/b"), "c~d"))
	require.Equal(t, "/", pointer(""))
}
