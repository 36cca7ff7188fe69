// Package docs checks that the repository's Markdown documents are
// well formed.
package docs

import (
	"bufio"
	"bytes"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Problem is one defect found in a document
type Problem struct {
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	if p.Line > 0 {
		return fmt.Sprintf("line %d: %s", p.Line, p.Message)
	}
	return p.Message
}

// Report is the outcome of checking one document
type Report struct {
	Path     string    `json:"path"`
	Links    []string  `json:"links"`
	Problems []Problem `json:"problems,omitempty"`
}

// OK reports whether the document has no problems
func (r *Report) OK() bool {
	return len(r.Problems) == 0
}

// CheckMarkdown reads and checks the document at path
func CheckMarkdown(path string) (*Report, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	r := Check(src)
	r.Path = path
	return r, nil
}

// Check verifies that every link target is an absolute http(s) URL and
// that fenced code blocks are closed
func Check(src []byte) *Report {
	r := &Report{}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		var dest string
		switch node := n.(type) {
		case *ast.Link:
			dest = string(node.Destination)
		case *ast.AutoLink:
			if node.AutoLinkType != ast.AutoLinkURL {
				return ast.WalkContinue, nil
			}
			dest = string(node.URL(src))
		case *ast.Image:
			dest = string(node.Destination)
		default:
			return ast.WalkContinue, nil
		}
		r.Links = append(r.Links, dest)
		if err := validateURL(dest); err != nil {
			r.Problems = append(r.Problems, Problem{Message: err.Error()})
		}
		return ast.WalkContinue, nil
	})

	if line := unclosedFence(src); line > 0 {
		r.Problems = append(r.Problems, Problem{Line: line, Message: "code fence is never closed"})
	}
	return r
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("link %q does not parse: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("link %q is not an absolute http(s) URL", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("link %q has no host", raw)
	}
	return nil
}

// unclosedFence returns the line of a fence left open at end of input, or 0
func unclosedFence(src []byte) int {
	var (
		open     byte
		openLen  int
		openLine int
	)
	sc := bufio.NewScanner(bytes.NewReader(src))
	for line := 1; sc.Scan(); line++ {
		s := sc.Text()
		trimmed := strings.TrimLeft(s, " ")
		if len(s)-len(trimmed) > 3 || trimmed == "" {
			continue
		}
		c := trimmed[0]
		if c != '`' && c != '~' {
			continue
		}
		n := len(trimmed) - len(strings.TrimLeft(trimmed, string(c)))
		if n < 3 {
			continue
		}
		switch {
		case open == 0:
			open, openLen, openLine = c, n, line
		case c == open && n >= openLen && strings.TrimSpace(trimmed[n:]) == "":
			open, openLen, openLine = 0, 0, 0
		}
	}
	return openLine
}
