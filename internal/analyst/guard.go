package analyst

import (
	"errors"
	"strings"
	"unicode"
)

// ErrNotReadOnly is returned for statements that could modify data
var ErrNotReadOnly = errors.New("only read-only queries (SELECT, WITH, SHOW, EXPLAIN) are allowed")

var readOnlyKeywords = map[string]bool{
	"select":  true,
	"with":    true,
	"show":    true,
	"explain": true,
}

// writeKeywords may not appear anywhere in a read-only statement, so a CTE
// cannot wrap an UPDATE or an INSERT ... SELECT
var writeKeywords = map[string]bool{
	"insert":   true,
	"update":   true,
	"delete":   true,
	"drop":     true,
	"alter":    true,
	"truncate": true,
	"create":   true,
	"copy":     true,
	"rename":   true,
	"vacuum":   true,
	"reindex":  true,
	"backup":   true,
	"snapshot": true,
}

// IsReadOnly reports whether query is a single read-only statement. The check
// is lexical: keywords are read outside string literals, quoted identifiers
// and comments, and a trailing semicolon is allowed.
func IsReadOnly(query string) bool {
	words, ok := sqlWords(query)
	if !ok || len(words) == 0 || !readOnlyKeywords[words[0]] {
		return false
	}
	for _, w := range words {
		if writeKeywords[w] {
			return false
		}
	}
	return true
}

// sqlWords returns the lower-cased bare words of query. ok is false when a
// literal is unterminated or a second statement follows a semicolon.
func sqlWords(query string) (words []string, ok bool) {
	rs := []rune(query)
	terminated := false
	var word strings.Builder

	flush := func() {
		if word.Len() > 0 {
			words = append(words, strings.ToLower(word.String()))
			word.Reset()
		}
	}

	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case r == '-' && i+1 < len(rs) && rs[i+1] == '-':
			flush()
			for i < len(rs) && rs[i] != '\n' {
				i++
			}
		case r == '/' && i+1 < len(rs) && rs[i+1] == '*':
			flush()
			closed := false
			for i += 2; i+1 < len(rs); i++ {
				if rs[i] == '*' && rs[i+1] == '/' {
					i++
					closed = true
					break
				}
			}
			if !closed {
				return words, true
			}
		case r == '\'' || r == '"':
			flush()
			closed := false
			for i++; i < len(rs); i++ {
				if rs[i] != r {
					continue
				}
				if i+1 < len(rs) && rs[i+1] == r {
					i++
					continue
				}
				closed = true
				break
			}
			if !closed {
				return nil, false
			}
			if terminated {
				return nil, false
			}
		case r == ';':
			flush()
			terminated = true
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			if terminated {
				return nil, false
			}
			word.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return words, true
}
