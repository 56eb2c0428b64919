/*
File: tokens_test.go
Description: Tests for the mutation dictionary. Verifies deduplication, the
AFL dictionary format with named and bare tokens, and escape handling.
*/

package strategies

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokensDeduplicate(t *testing.T) {
	tok := NewTokens()
	tok.Add([]byte("one"))
	tok.Add([]byte("one"))
	tok.Add([]byte("two"))
	tok.Add(nil)
	assert.Equal(t, 2, tok.Len())
}

func TestTokensAddAll(t *testing.T) {
	tok := NewTokens()
	tok.AddAll([][]byte{[]byte("a"), []byte("b"), []byte("a")})
	assert.Equal(t, 2, tok.Len())
}

func writeDict(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokens.dict")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestTokensFromFileNamedEntries(t *testing.T) {
	dict := `# comment line
keyword_select="SELECT"
keyword_from="FROM"

"bare_quoted"
`
	tok := NewTokens()
	require.NoError(t, tok.AddFromFile(writeDict(t, dict)))

	got := make(map[string]bool)
	for _, v := range tok.List() {
		got[string(v)] = true
	}
	assert.True(t, got["SELECT"])
	assert.True(t, got["FROM"])
	assert.True(t, got["bare_quoted"])
	assert.Equal(t, 3, tok.Len())
}

func TestTokensFromFileEscapes(t *testing.T) {
	dict := `magic="\x52\x56\x4e\x31"
quoted="say \"hi\""
backslash="a\\b"
`
	tok := NewTokens()
	require.NoError(t, tok.AddFromFile(writeDict(t, dict)))

	got := make(map[string]bool)
	for _, v := range tok.List() {
		got[string(v)] = true
	}
	assert.True(t, got["RVN1"])
	assert.True(t, got[`say "hi"`])
	assert.True(t, got[`a\b`])
}

func TestTokensFromFileBadEscape(t *testing.T) {
	tok := NewTokens()
	err := tok.AddFromFile(writeDict(t, `bad="\q"`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestTokensFromFileMissing(t *testing.T) {
	tok := NewTokens()
	require.Error(t, tok.AddFromFile(filepath.Join(t.TempDir(), "absent.dict")))
}
