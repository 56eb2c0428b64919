/*
File: tokens.go
Description: Mutation dictionary for the Riven Fuzzer. Tokens are byte strings
used as splice vocabulary by the havoc and grimoire stages. They are loaded
once at startup from an AFL-style dictionary file and merged with any static
tokens supplied by the harness; the set is immutable during a run.
*/

package strategies

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Tokens is the mutation dictionary.
type Tokens struct {
	list [][]byte
	seen map[string]struct{}
}

// NewTokens creates an empty dictionary.
func NewTokens() *Tokens {
	return &Tokens{seen: make(map[string]struct{})}
}

// Add unions one token into the set. Duplicates and empty tokens are ignored.
func (t *Tokens) Add(tok []byte) {
	if len(tok) == 0 {
		return
	}
	key := string(tok)
	if _, dup := t.seen[key]; dup {
		return
	}
	t.seen[key] = struct{}{}
	t.list = append(t.list, append([]byte(nil), tok...))
}

// AddAll unions a batch of tokens.
func (t *Tokens) AddAll(toks [][]byte) {
	for _, tok := range toks {
		t.Add(tok)
	}
}

// Len returns the number of distinct tokens.
func (t *Tokens) Len() int { return len(t.list) }

// List returns the token slice. Callers must not mutate it.
func (t *Tokens) List() [][]byte { return t.list }

// AddFromFile loads an AFL-style dictionary: one token per line, either a
// bare string or name="value" with \\, \", and \xNN escapes in the value.
// Comment lines starting with # and blank lines are skipped.
func (t *Tokens) AddFromFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open dictionary file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tok, err := parseDictLine(line)
		if err != nil {
			return fmt.Errorf("dictionary line %d: %w", lineno, err)
		}
		t.Add(tok)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read dictionary file: %w", err)
	}
	return nil
}

// parseDictLine extracts the token from one dictionary line.
func parseDictLine(line string) ([]byte, error) {
	// name="value" form: everything after the first '=' must be quoted.
	if eq := strings.Index(line, "="); eq >= 0 {
		val := strings.TrimSpace(line[eq+1:])
		if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
			return unescapeDictValue(val[1 : len(val)-1])
		}
	}
	// Bare quoted token.
	if len(line) >= 2 && line[0] == '"' && line[len(line)-1] == '"' {
		return unescapeDictValue(line[1 : len(line)-1])
	}
	// Raw line fallback.
	return []byte(line), nil
}

// unescapeDictValue resolves \\, \", and \xNN escapes.
func unescapeDictValue(s string) ([]byte, error) {
	var out bytes.Buffer
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			out.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			return nil, fmt.Errorf("dangling escape")
		}
		i++
		switch s[i] {
		case '\\':
			out.WriteByte('\\')
		case '"':
			out.WriteByte('"')
		case 'x':
			if i+2 >= len(s) {
				return nil, fmt.Errorf("truncated hex escape")
			}
			v, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err != nil {
				return nil, fmt.Errorf("bad hex escape: %w", err)
			}
			out.WriteByte(byte(v))
			i += 2
		default:
			return nil, fmt.Errorf("unknown escape \\%c", s[i])
		}
	}
	return out.Bytes(), nil
}
