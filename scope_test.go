// FILE: lixenwraith/blockconf/scope_test.go
package blockconf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeEntries(t *testing.T) {
	t.Run("NormalizedKeysShareSequence", func(t *testing.T) {
		s := NewScope()
		s.InsertEntry("Foo", "a")
		s.InsertEntry("  FOO\t", "b")
		s.InsertEntry("foo", "c")

		assert.Equal(t, []string{"a", "b", "c"}, s.Entries("fOo"))
		assert.Equal(t, []string{"foo"}, s.Keys())
	})

	t.Run("ValuesKeptVerbatim", func(t *testing.T) {
		s := NewScope()
		s.InsertEntry("key", "  Mixed Case  ")
		v, ok := s.Value("KEY")
		require.True(t, ok)
		assert.Equal(t, "  Mixed Case  ", v)
	})

	t.Run("MissingKey", func(t *testing.T) {
		s := NewScope()
		assert.Nil(t, s.Entries("nope"))
		_, ok := s.Value("nope")
		assert.False(t, ok)
		assert.False(t, s.HasEntry("nope"))
	})

	t.Run("EntriesReturnsCopy", func(t *testing.T) {
		s := NewScope()
		s.InsertEntry("k", "v")
		values := s.Entries("k")
		values[0] = "changed"
		assert.Equal(t, []string{"v"}, s.Entries("k"))
	})

	t.Run("NonASCIIUntouched", func(t *testing.T) {
		s := NewScope()
		s.InsertEntry("ÄBC", "x")
		assert.Equal(t, []string{"Äbc"}, s.Keys())
	})
}

func TestScopeChildren(t *testing.T) {
	t.Run("InsertAndLookup", func(t *testing.T) {
		s := NewScope()
		child, err := s.InsertChild("User", "Alice")
		require.NoError(t, err)
		child.InsertEntry("nick", "al")

		got, ok := s.Child("USER", "Alice")
		require.True(t, ok)
		assert.Same(t, child, got)

		_, ok = s.Child("user", "alice")
		assert.False(t, ok, "names are case-sensitive")
	})

	t.Run("DuplicatePair", func(t *testing.T) {
		s := NewScope()
		_, err := s.InsertChild("foo", "1")
		require.NoError(t, err)
		_, err = s.InsertChild("FOO", "1")
		assert.ErrorIs(t, err, ErrDuplicateBlock)
		assert.Len(t, s.Children("foo"), 1)
	})

	t.Run("OrderPreserved", func(t *testing.T) {
		s := NewScope()
		for _, name := range []string{"b", "a", "c"} {
			_, err := s.InsertChild("foo", name)
			require.NoError(t, err)
		}
		_, err := s.InsertChild("bar", "x")
		require.NoError(t, err)

		var names []string
		for _, c := range s.Children("foo") {
			names = append(names, c.Name)
		}
		assert.Equal(t, []string{"b", "a", "c"}, names)
		assert.Equal(t, []string{"foo", "bar"}, s.Tags())
		assert.Equal(t, 4, s.Len())
	})
}

func TestScopeTreeHelpers(t *testing.T) {
	root, err := ParseString("a = 1\n<x one>\nb = 2\n<y two>\nc = 3\n</y>\n</x>\n<x other>\n</x>\n")
	require.NoError(t, err)

	t.Run("Walk", func(t *testing.T) {
		var visited []string
		root.Walk(func(path []BlockRef, _ *Scope) bool {
			visited = append(visited, joinPath(path))
			return true
		})
		assert.Equal(t, []string{"", "x/one/", "x/one/y/two/", "x/other/"}, visited)
	})

	t.Run("WalkStopsDescent", func(t *testing.T) {
		count := 0
		root.Walk(func(path []BlockRef, _ *Scope) bool {
			count++
			return len(path) == 0
		})
		assert.Equal(t, 3, count)
	})

	t.Run("CloneIsDeep", func(t *testing.T) {
		clone := root.Clone()
		assert.True(t, clone.Equal(root))

		x, _ := clone.Child("x", "one")
		x.InsertEntry("b", "changed")
		assert.False(t, clone.Equal(root))
		assert.Equal(t, []string{"2"}, mustChild(t, root, "x", "one").Entries("b"))
	})

	t.Run("Equal", func(t *testing.T) {
		other, err := ParseString("a = 1\n<x other>\n</x>\n<x one>\nb = 2\n<y two>\nc = 3\n</y>\n</x>\n")
		require.NoError(t, err)
		assert.False(t, root.Equal(other), "sibling order matters")
		assert.True(t, (*Scope)(nil).Equal(nil))
		assert.False(t, root.Equal(nil))
	})

	t.Run("Flatten", func(t *testing.T) {
		assert.Equal(t, map[string][]string{
			"a":             {"1"},
			"x/one/b":       {"2"},
			"x/one/y/two/c": {"3"},
		}, root.Flatten())
	})

	t.Run("Lookup", func(t *testing.T) {
		values, ok := root.Lookup("X/one/y/two/C")
		require.True(t, ok)
		assert.Equal(t, []string{"3"}, values)

		_, ok = root.Lookup("x/one")
		assert.False(t, ok)
		_, ok = root.Lookup("x/missing/b")
		assert.False(t, ok)
	})

	t.Run("Block", func(t *testing.T) {
		block, err := root.Block("x/one/y/two")
		require.NoError(t, err)
		assert.Equal(t, []string{"3"}, block.Entries("c"))

		self, err := root.Block("")
		require.NoError(t, err)
		assert.Same(t, root, self)

		_, err = root.Block("x")
		assert.Error(t, err)
		_, err = root.Block("x/none")
		assert.Error(t, err)
	})
}

func mustChild(t *testing.T, s *Scope, tag, name string) *Scope {
	t.Helper()
	child, ok := s.Child(tag, name)
	require.True(t, ok)
	return child
}
