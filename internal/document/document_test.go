package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/kinship/relational"
)

const familyDoc = `
name: GrandPa
id: gp
kind: person
labels: [elder]
children:
  mom:
    name: Mom
    kind: person
    children:
      you:
        name: You
        kind: person
        attrs: { team: core }
        children:
          son: { name: Son, kind: person }
      sister:
        name: Sister
        kind: person
  uncle:
    name: Uncle
    kind: person
    labels: [elder, travels]
  house:
    name: House
    kind: place
`

func parseFamily(t *testing.T) *Entry {
	t.Helper()
	root, err := Parse([]byte(familyDoc))
	require.NoError(t, err)
	return root
}

func TestParse_Structure(t *testing.T) {
	root := parseFamily(t)

	require.Equal(t, "GrandPa", root.Name())
	require.Equal(t, "gp", root.ID)
	require.Equal(t, []string{"elder"}, root.Labels)
	require.Equal(t, []string{"mom", "uncle", "house"}, root.Keys())
	require.Nil(t, relational.GetParent(root))

	you, err := Lookup(root, "mom/you")
	require.NoError(t, err)
	require.Equal(t, "You", you.Name())
	require.Equal(t, "core", you.Attrs["team"])
	require.Equal(t, "mom/you", you.Path())
	require.Same(t, root, relational.GetRoot(you))
}

func TestParse_GeneratesIDs(t *testing.T) {
	root := parseFamily(t)

	mom, err := Lookup(root, "mom")
	require.NoError(t, err)
	_, err = uuid.Parse(mom.ID)
	require.NoError(t, err)
	require.Same(t, mom, FindByID(root, mom.ID))
	require.Nil(t, FindByID(root, "missing"))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "document is empty"},
		{"not a mapping", "- a\n- b\n", "entry must be a mapping"},
		{"children list", "name: x\nchildren: [a, b]\n", "children must be a mapping"},
		{"duplicate key", "name: x\nchildren:\n  a: {name: A}\n  a: {name: B}\n", `duplicate child key "a"`},
		{"slash key", "name: x\nchildren:\n  a/b: {name: A}\n", `contains "/"`},
		{"duplicate id", "id: one\nchildren:\n  a: {id: one}\n", `id "one" already used`},
		{"bad labels", "labels: {a: b}\n", "line 1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.input))
			require.Error(t, err)
			require.ErrorIs(t, err, ErrInvalid)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParse_NullChildren(t *testing.T) {
	root, err := Parse([]byte("name: Leaf\nchildren:\n"))
	require.NoError(t, err)
	require.Empty(t, root.Children())
}

func TestLookup(t *testing.T) {
	root := parseFamily(t)

	got, err := Lookup(root, "")
	require.NoError(t, err)
	require.Same(t, root, got)

	got, err = Lookup(root, "/mom/you/son/")
	require.NoError(t, err)
	require.Equal(t, "Son", got.Name())

	_, err = Lookup(root, "mom/aunt")
	require.ErrorIs(t, err, ErrNoEntry)
	require.Contains(t, err.Error(), `no "aunt" under "mom"`)
}

func TestField(t *testing.T) {
	root := parseFamily(t)
	you, err := Lookup(root, "mom/you")
	require.NoError(t, err)
	uncle, err := Lookup(root, "uncle")
	require.NoError(t, err)

	require.Equal(t, []string{"You"}, you.Field("name"))
	require.Equal(t, []string{"person"}, you.Field("kind"))
	require.Equal(t, []string{"you"}, you.Field("key"))
	require.Equal(t, []string{"mom/you"}, you.Field("path"))
	require.Equal(t, []string{"core"}, you.Field("attr.team"))
	require.Nil(t, you.Field("attr.missing"))
	require.Equal(t, []string{"elder", "travels"}, uncle.Field("label"))
	require.Nil(t, root.Field("key"))
	require.Nil(t, root.Field("bogus"))
}

func TestMarshal_RoundTrip(t *testing.T) {
	root := parseFamily(t)

	data, err := Marshal(root)
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)

	want := Flatten(root)
	got := Flatten(again)
	require.Len(t, got, len(want))
	for i := range want {
		require.Equal(t, want[i].Path(), got[i].Path())
		require.Equal(t, want[i].ID, got[i].ID)
		require.Equal(t, want[i].Name(), got[i].Name())
		require.Equal(t, want[i].Kind, got[i].Kind)
		require.Equal(t, want[i].Labels, got[i].Labels)
		require.Equal(t, want[i].Attrs, got[i].Attrs)
	}
}

func TestMarshal_QuotesAmbiguousScalars(t *testing.T) {
	e := NewEntry("007", "true", "")
	data, err := Marshal(e)
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, "007", again.ID)
	require.Equal(t, "true", again.Name())
}

func TestSaveAndLoad(t *testing.T) {
	root := parseFamily(t)
	path := filepath.Join(t.TempDir(), "nested", "family.yaml")

	require.NoError(t, Save(path, root))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, root.Keys(), loaded.Keys())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file should be renamed away")
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "reading document")
}

func TestMove(t *testing.T) {
	root := parseFamily(t)

	moved, err := Move(root, "mom/sister", "uncle", "")
	require.NoError(t, err)
	require.Equal(t, "uncle/sister", moved.Path())

	mom, _ := Lookup(root, "mom")
	require.Equal(t, []string{"you"}, mom.Keys())

	moved, err = Move(root, "uncle/sister", "", "aunt")
	require.NoError(t, err)
	require.Equal(t, "aunt", moved.Path())
	require.Equal(t, []string{"mom", "uncle", "house", "aunt"}, root.Keys())
}

func TestMove_Rejected(t *testing.T) {
	root := parseFamily(t)

	_, err := Move(root, "", "mom", "")
	require.ErrorContains(t, err, "root entry")

	_, err = Move(root, "mom", "mom/you", "")
	require.ErrorContains(t, err, "own subtree")

	_, err = Move(root, "mom", "mom", "")
	require.ErrorContains(t, err, "own subtree")

	_, err = Move(root, "house", "", "uncle")
	require.ErrorContains(t, err, `already has a child "uncle"`)

	_, err = Move(root, "mom/you", "mom/nope", "")
	require.ErrorIs(t, err, ErrNoEntry)

	// Failed moves leave the tree untouched.
	you, err := Lookup(root, "mom/you")
	require.NoError(t, err)
	require.Equal(t, "mom/you", you.Path())
}

func TestDiffLines(t *testing.T) {
	lines := DiffLines("a\nb\nc\n", "a\nc\nd\n")
	require.Equal(t, []DiffLine{
		{Type: LineContext, Text: "a"},
		{Type: LineDeleted, Text: "b"},
		{Type: LineContext, Text: "c"},
		{Type: LineAdded, Text: "d"},
	}, lines)
	require.True(t, Changed(lines))
	require.Equal(t, "-", lines[1].Prefix())
	require.Equal(t, "+", lines[3].Prefix())
	require.Equal(t, " ", lines[0].Prefix())

	require.False(t, Changed(DiffLines("same\n", "same\n")))
	require.Empty(t, DiffLines("", ""))
}

func TestDiffLines_Move(t *testing.T) {
	root := parseFamily(t)
	before, err := Marshal(root)
	require.NoError(t, err)

	_, err = Move(root, "mom/sister", "uncle", "")
	require.NoError(t, err)
	after, err := Marshal(root)
	require.NoError(t, err)

	var added, deleted int
	for _, l := range DiffLines(string(before), string(after)) {
		switch l.Type {
		case LineAdded:
			added++
		case LineDeleted:
			deleted++
		}
	}
	require.Positive(t, added)
	require.Positive(t, deleted)
}
