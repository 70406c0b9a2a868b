package gate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternSet_Classify(t *testing.T) {
	ps, err := NewPatternSet(
		[]string{"/riddles/create", "/admin/*", "/teams/:slug/manage", "/files/:owner/:name"},
		[]string{"/", "/riddles", "/riddles/:id", "/about/*"},
	)
	require.NoError(t, err)

	tests := []struct {
		name      string
		path      string
		protected bool
		public    bool
	}{
		{"Root is public", "/", false, true},
		{"Exact protected", "/riddles/create", true, false},
		{"Subtree wildcard matches prefix itself", "/admin", true, false},
		{"Subtree wildcard matches deeper paths", "/admin/users/5/promote", true, false},
		{"Segment wildcard", "/teams/puzzlers/manage", true, false},
		{"Segment wildcard wrong depth", "/teams/puzzlers", false, false},
		{"Multiple segment wildcards", "/files/alice/crossword", true, false},
		{"Public exact", "/riddles", false, true},
		{"Public with segment wildcard", "/riddles/42", false, true},
		{"Public subtree", "/about/contact/email", false, true},
		{"Unmatched path", "/nowhere", false, false},
		{"Query string stripped", "/riddles?page=2", false, true},
		{"Trailing slash normalized", "/riddles/", false, true},
		{"Case sensitive", "/Riddles", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ps.Classify(tt.path)
			assert.Equal(t, tt.protected, c.Protected, "protected flag for %s", tt.path)
			assert.Equal(t, tt.public, c.Public, "public flag for %s", tt.path)
		})
	}
}

func TestPatternSet_CollisionReportsBoth(t *testing.T) {
	ps, err := NewPatternSet([]string{"/mixed/*"}, []string{"/mixed/landing"})
	require.NoError(t, err)

	c := ps.Classify("/mixed/landing")
	assert.True(t, c.Protected)
	assert.True(t, c.Public)
}

func TestNewPatternSet_Invalid(t *testing.T) {
	_, err := NewPatternSet([]string{"no-leading-slash"}, nil)
	assert.Error(t, err)

	_, err = NewPatternSet([]string{"/a/*/b"}, nil)
	assert.Error(t, err)
}

func TestDefaultPatternSet(t *testing.T) {
	ps := DefaultPatternSet()

	assert.True(t, ps.Classify("/api/admin/riddles/pending").Protected)
	assert.True(t, ps.Classify("/api/users/me").Protected)
	assert.True(t, ps.Classify("/riddles/create").Protected)
	assert.True(t, ps.Classify("/api/riddles").Public)
	assert.True(t, ps.Classify("/login").Public)
	assert.False(t, ps.Classify("/api/riddles").Protected)
}

func TestLoadPatternSet(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "patterns.yml")
	content := []byte("protected:\n  - /secret/*\npublic:\n  - /open\n")
	require.NoError(t, os.WriteFile(file, content, 0o600))

	ps, err := LoadPatternSet(file)
	require.NoError(t, err)
	assert.True(t, ps.Classify("/secret/deep/path").Protected)
	assert.True(t, ps.Classify("/open").Public)

	_, err = LoadPatternSet(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)
}
