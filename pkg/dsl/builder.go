package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/storytree/pkg/story"
)

// Builder constructs stories in Go code, without DSL source text.
type Builder struct {
	stories []*StoryBuilder
	errs    []error
}

// New creates a new story builder.
func New() *Builder {
	return &Builder{}
}

// Story starts a new story. Calling it twice with the same ID returns the
// existing builder.
func (b *Builder) Story(id string) *StoryBuilder {
	for _, sb := range b.stories {
		if sb.story.ID == id {
			return sb
		}
	}
	sb := &StoryBuilder{story: story.New(id), builder: b}
	b.stories = append(b.stories, sb)
	return sb
}

func (b *Builder) fail(err error) {
	b.errs = append(b.errs, err)
}

// Build materializes and validates every story.
func (b *Builder) Build() ([]*story.Story, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("invalid story definition: %w", errors.Join(b.errs...))
	}
	out := make([]*story.Story, 0, len(b.stories))
	for _, sb := range b.stories {
		s := sb.story
		for _, nb := range sb.nodes {
			for _, ob := range nb.options {
				nb.node.Options = append(nb.node.Options, ob.option)
			}
			if err := s.AddNode(nb.node); err != nil {
				return nil, fmt.Errorf("story %q: %w", s.ID, err)
			}
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("story %q: %w", s.ID, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// StoryBuilder configures one story.
type StoryBuilder struct {
	story   *story.Story
	nodes   []*NodeBuilder
	builder *Builder
}

// Title sets the story title.
func (s *StoryBuilder) Title(title string) *StoryBuilder {
	s.story.Title = title
	return s
}

// Author sets the story author.
func (s *StoryBuilder) Author(author string) *StoryBuilder {
	s.story.Author = author
	return s
}

// Start sets the initial node.
func (s *StoryBuilder) Start(nodeID string) *StoryBuilder {
	s.story.Start = nodeID
	return s
}

// Var declares a story variable with its initial value.
func (s *StoryBuilder) Var(name string, value any) *StoryBuilder {
	s.story.Vars[name] = normalizeValue(value)
	return s
}

// Node adds a node to the story. Calling it twice with the same ID returns
// the existing builder.
func (s *StoryBuilder) Node(id string) *NodeBuilder {
	for _, nb := range s.nodes {
		if nb.node.ID == id {
			return nb
		}
	}
	nb := &NodeBuilder{node: &story.Node{ID: id}, story: s}
	s.nodes = append(s.nodes, nb)
	return nb
}

// normalizeValue converts Go integers to float64, the only number type scripts know.
func normalizeValue(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case float32:
		return float64(n)
	}
	return v
}
