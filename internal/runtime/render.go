package runtime

import (
	"context"
	"strings"

	"github.com/aretw0/storytree/pkg/domain"
	"github.com/aretw0/storytree/pkg/dsl"
	"github.com/aretw0/storytree/pkg/story"
)

// Render calculates what the reader sees for a state. It never changes the
// state. The boolean is true when the reading is over.
func (p *Player) Render(ctx context.Context, state *domain.State) ([]domain.ActionRequest, bool, error) {
	n, err := p.node(state)
	if err != nil {
		return nil, false, err
	}

	var actions []domain.ActionRequest
	for _, m := range state.Messages {
		actions = append(actions, domain.ActionRequest{Type: domain.ActionSystemMessage, Payload: m})
	}

	// Rendering evaluates against a private copy so templates cannot leak writes.
	view := state.Snapshot()
	body, err := p.renderBody(ctx, n, view)
	if err != nil {
		return nil, false, p.runtimeError(err)
	}
	actions = append(actions, domain.ActionRequest{Type: domain.ActionRenderContent, Payload: body})

	if state.Status == domain.StatusClosed {
		return actions, true, nil
	}

	options, err := p.options(ctx, n, view)
	if err != nil {
		return nil, false, p.runtimeError(err)
	}
	if len(options) == 0 {
		return actions, true, nil
	}

	actions = append(actions, domain.ActionRequest{
		Type:    domain.ActionRequestChoice,
		Payload: domain.ChoiceRequest{NodeID: n.ID, Options: options},
	})
	return actions, false, nil
}

// renderBody evaluates the node text and applies its bindings.
func (p *Player) renderBody(ctx context.Context, n *story.Node, state *domain.State) (string, error) {
	s := p.session(state)
	body, err := p.interp.EvalString(ctx, n.Body, s)
	if err != nil {
		return "", err
	}
	for _, b := range n.Bindings {
		v, err := p.interp.EvalString(ctx, b.Value, s)
		if err != nil {
			return "", err
		}
		body = strings.ReplaceAll(body, b.Key, v)
	}
	return dsl.TrimIndent(body), nil
}

// options lists the visible options of a node. Index is the 1-based
// position among all declared options.
func (p *Player) options(ctx context.Context, n *story.Node, state *domain.State) ([]domain.OptionView, error) {
	s := p.session(state)
	var views []domain.OptionView
	for i, o := range n.Options {
		available, err := p.interp.EvalBool(ctx, o.Available, s, true)
		if err != nil {
			return nil, err
		}
		visible := available
		if o.Visible != nil {
			if visible, err = p.interp.EvalBool(ctx, o.Visible, s, true); err != nil {
				return nil, err
			}
		}
		if !visible {
			continue
		}
		text, err := p.interp.EvalString(ctx, o.Text, s)
		if err != nil {
			return nil, err
		}
		views = append(views, domain.OptionView{Index: i + 1, Text: text, Available: available})
	}
	return views, nil
}
