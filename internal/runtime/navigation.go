package runtime

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/storytree/pkg/domain"
	"github.com/aretw0/storytree/pkg/story"
)

// Navigate selects an option of the current node and returns the new state.
//
// input is a 1-based option index (int, float64 or a numeric string) or the
// option text. The input state is never modified.
func (p *Player) Navigate(ctx context.Context, state *domain.State, input any) (*domain.State, error) {
	if state.Done() {
		return nil, domain.ErrSessionDone
	}
	n, err := p.node(state)
	if err != nil {
		return nil, err
	}

	next := state.Snapshot()
	next.Messages = nil

	views, err := p.options(ctx, n, next)
	if err != nil {
		return nil, p.runtimeError(err)
	}
	view, err := resolveOption(views, input)
	if err != nil {
		return nil, err
	}
	opt := n.Options[view.Index-1]

	s := p.session(next)
	out, err := p.interp.Exec(ctx, opt.Action, s, true)
	if err != nil {
		return nil, p.runtimeError(err)
	}
	next.Vars, next.Shared = s.Vars, s.Shared
	next.Messages = append(next.Messages, messages(out)...)

	target := n.ID
	switch {
	case out.Goto != "":
		target = out.Goto
	case opt.Target != "":
		target = opt.Target
	}

	p.emitChoice(ctx, next, domain.ChoiceEvent{NodeID: n.ID, Option: view.Index, Text: view.Text, Next: target})

	if out.Closed {
		next.Status = domain.StatusClosed
		p.emitNodeLeave(ctx, next, n.ID)
		return next, nil
	}

	dest, ok := p.story.Node(target)
	if !ok {
		return nil, p.runtimeError(fmt.Errorf("%w: %q", story.ErrUnknownNode, target))
	}

	p.logger.Debug("option selected", "story", p.story.ID, "session", next.SessionID,
		"node", n.ID, "option", view.Index, "next", target)

	p.emitNodeLeave(ctx, next, n.ID)
	return p.enter(ctx, next, dest)
}

// enter moves state onto n and runs its entry code.
func (p *Player) enter(ctx context.Context, state *domain.State, n *story.Node) (*domain.State, error) {
	state.CurrentNodeID = n.ID
	state.History = append(state.History, n.ID)

	s := p.session(state)
	out, err := p.interp.Exec(ctx, n.OnReach, s, false)
	if err != nil {
		return nil, p.runtimeError(err)
	}
	state.Vars, state.Shared = s.Vars, s.Shared
	state.Messages = append(state.Messages, messages(out)...)
	p.emitNodeEnter(ctx, state, n.ID)

	switch {
	case out.Closed:
		state.Status = domain.StatusClosed
	default:
		views, err := p.options(ctx, n, state)
		if err != nil {
			return nil, p.runtimeError(err)
		}
		if len(views) == 0 {
			state.Status = domain.StatusTerminated
		} else {
			state.Status = domain.StatusActive
		}
	}
	state.UpdatedAt = time.Now().UTC()
	return state, nil
}

// resolveOption maps reader input to a visible, available option.
func resolveOption(views []domain.OptionView, input any) (domain.OptionView, error) {
	index := 0
	switch v := input.(type) {
	case int:
		index = v
	case int64:
		index = int(v)
	case float64:
		if v != math.Trunc(v) {
			return domain.OptionView{}, fmt.Errorf("%w: %v", domain.ErrInvalidChoice, v)
		}
		index = int(v)
	case string:
		text := strings.TrimSpace(v)
		if i, err := strconv.Atoi(text); err == nil {
			index = i
			break
		}
		for _, o := range views {
			if strings.EqualFold(o.Text, text) {
				return checkAvailable(o)
			}
		}
		return domain.OptionView{}, fmt.Errorf("%w: %q", domain.ErrInvalidChoice, text)
	default:
		return domain.OptionView{}, fmt.Errorf("%w: unsupported input %T", domain.ErrInvalidChoice, input)
	}

	o, ok := domain.ChoiceRequest{Options: views}.Find(index)
	if !ok {
		return domain.OptionView{}, fmt.Errorf("%w: option %d", domain.ErrInvalidChoice, index)
	}
	return checkAvailable(o)
}

func checkAvailable(o domain.OptionView) (domain.OptionView, error) {
	if !o.Available {
		return domain.OptionView{}, fmt.Errorf("%w: option %q is not available", domain.ErrInvalidChoice, o.Text)
	}
	return o, nil
}
