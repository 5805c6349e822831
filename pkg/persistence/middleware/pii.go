package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/storytree/pkg/domain"
	"github.com/aretw0/storytree/pkg/ports"
)

// Mask replaces the value of a masked variable.
const Mask = "***"

type piiMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware masks, before saving, every story variable or shared
// property whose name matches one of the patterns (e.g. the reader's name
// collected by ask).
// The state held by the caller is not modified.
func NewPIIMiddleware(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("pii pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return func(next ports.StateStore) ports.StateStore {
		return &piiMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, state *domain.State) error {
	masked := state.Snapshot()
	for _, vars := range []map[string]any{masked.Vars, masked.Shared} {
		for k := range vars {
			if m.sensitive(k) {
				vars[k] = Mask
			}
		}
	}
	return m.next.Save(ctx, sessionID, masked)
}

func (m *piiMiddleware) sensitive(name string) bool {
	for _, p := range m.patterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
