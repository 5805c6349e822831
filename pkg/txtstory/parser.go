// Package txtstory reads stories written in the plain .story.txt format:
//
//	// comments start with two slashes
//	title = The Cave
//	author = Anon
//	initialNode = entrance
//
//	[entrance]
//	You stand at the mouth of a cave.
//	{Go in} inside
//
//	[inside]
//	It is dark.
//
// Properties are only read before the first node. Every other line belongs
// to the current node: "{text} target" adds an option, anything else is
// appended to the node body.
package txtstory

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/storytree/pkg/dsl/ast"
	"github.com/aretw0/storytree/pkg/story"
)

// Extension is the file suffix of plain text stories.
const Extension = ".story.txt"

// ErrInvalidEncoding is reported for lines that are not valid UTF-8.
var ErrInvalidEncoding = errors.New("invalid UTF-8 encoding")

var (
	optionPattern  = regexp.MustCompile(`^\{(.+?)\}\s*(.+?)\s*$`)
	nodeDefPattern = regexp.MustCompile(`^\[(.+)\]$`)
)

// IsTextStory reports whether path names a plain text story.
func IsTextStory(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), Extension) || strings.EqualFold(filepath.Ext(path), ".txt")
}

// StoryID derives a story ID from a file name: "tales/cave.story.txt" gives "cave".
func StoryID(name string) string {
	base := filepath.Base(name)
	lower := strings.ToLower(base)
	switch {
	case strings.HasSuffix(lower, Extension):
		return base[:len(base)-len(Extension)]
	case strings.HasSuffix(lower, ".txt"):
		return base[:len(base)-len(".txt")]
	}
	return base
}

type pendingOption struct {
	node   *story.Node
	target string
	line   int
}

// Parse reads a plain text story. name is used for the story ID and in errors.
func Parse(name string, r io.Reader) (*story.Story, error) {
	s := story.New(StoryID(name))
	var (
		current *story.Node
		body    []string
		options []pendingOption
		diags   []story.Diagnostic
		lineNo  int
		start   int
		cause   error
	)

	finish := func() {
		if current == nil {
			return
		}
		text := strings.Trim(strings.Join(body, "\n"), "\n")
		current.Body = &ast.StringLit{Pos: current.Pos, Value: text}
		body = nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if !utf8.ValidString(line) {
			diags = append(diags, errorAt(lineNo, ErrInvalidEncoding.Error()))
			if cause == nil {
				cause = ErrInvalidEncoding
			}
			continue
		}
		if strings.HasPrefix(line, "//") {
			continue
		}
		if current == nil {
			if key, value, ok := strings.Cut(line, "="); ok {
				switch strings.TrimSpace(key) {
				case "title":
					s.Title = strings.TrimSpace(value)
				case "author":
					s.Author = strings.TrimSpace(value)
				case "initialNode":
					s.Start = strings.TrimSpace(value)
					start = lineNo
				}
				continue
			}
		}
		if m := nodeDefPattern.FindStringSubmatch(line); m != nil {
			finish()
			current = &story.Node{ID: m[1], Pos: ast.Pos{Line: lineNo, Col: 1}}
			if err := s.AddNode(current); err != nil {
				diags = append(diags, errorAt(lineNo, err.Error()))
				cause = err
			}
			continue
		}
		if current == nil {
			continue
		}
		if m := optionPattern.FindStringSubmatch(line); m != nil {
			opt := &story.Option{
				Text:   &ast.StringLit{Pos: ast.Pos{Line: lineNo, Col: 1}, Value: m[1]},
				Target: m[2],
				Pos:    ast.Pos{Line: lineNo, Col: 1},
			}
			current.Options = append(current.Options, opt)
			options = append(options, pendingOption{node: current, target: m[2], line: lineNo})
			continue
		}
		body = append(body, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, story.NewEvaluationError(story.PhaseParse, name, ast.Pos{}, fmt.Errorf("read story: %w", err))
	}
	finish()

	for _, o := range options {
		if _, ok := s.Node(o.target); !ok {
			diags = append(diags, errorAt(o.line, fmt.Sprintf("node %q has an option leading to unknown node %q", o.node.ID, o.target)))
			if cause == nil {
				cause = story.ErrUnknownNode
			}
		}
	}
	if s.Start != "" {
		if _, ok := s.Node(s.Start); !ok {
			diags = append(diags, errorAt(start, fmt.Sprintf("initial node %q does not exist", s.Start)))
			if cause == nil {
				cause = story.ErrNoInitialNode
			}
		}
	}
	if len(diags) > 0 {
		return nil, &story.EvaluationError{
			Phase:       story.PhaseBuild,
			Source:      name,
			Diagnostics: diags,
			Err:         cause,
		}
	}
	return s, nil
}

func errorAt(line int, msg string) story.Diagnostic {
	return story.Diagnostic{Severity: story.SeverityError, Message: msg, Pos: ast.Pos{Line: line, Col: 1}}
}
