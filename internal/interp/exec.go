package interp

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/storytree/pkg/dsl"
	"github.com/aretw0/storytree/pkg/dsl/ast"
	"github.com/aretw0/storytree/pkg/story"
)

// Exec runs a block against a session. allowGoto is true only for option
// actions. The session variables are updated in place.
func (in *Interpreter) Exec(ctx context.Context, b *ast.Block, s *Session, allowGoto bool) (*Outcome, error) {
	f := in.sessionFrame(ctx, s, allowGoto)
	if b == nil {
		return f.out, nil
	}
	_, err := f.block(b)
	return f.out, err
}

// block runs statements until one of them stops the flow (goto, close).
func (f *frame) block(b *ast.Block) (stop bool, err error) {
	for _, s := range b.Stmts {
		if stop, err = f.exec(s); stop || err != nil {
			return stop, err
		}
	}
	return false, nil
}

func (f *frame) exec(s ast.Stmt) (bool, error) {
	if err := f.ctx.Err(); err != nil {
		return true, err
	}

	switch s := s.(type) {
	case *ast.Block:
		return f.block(s)

	case *ast.Assign:
		v, err := f.eval(s.Value)
		if err != nil {
			return true, err
		}
		f.scope.Assign(s.Name, v)

	case *ast.If:
		v, err := f.eval(s.Cond)
		if err != nil {
			return true, err
		}
		if Truthy(v) {
			return f.block(s.Then)
		}
		if s.Else != nil {
			return f.exec(s.Else)
		}

	case *ast.Goto:
		if !f.allowGoto {
			return true, errorf(s.Pos, "goto is only allowed inside option actions")
		}
		target, err := f.evalString(s.Target)
		if err != nil {
			return true, err
		}
		if f.story != nil {
			if _, ok := f.story.Node(target); !ok {
				return true, at(s.Pos, fmt.Errorf("%w: goto %q", story.ErrUnknownNode, target))
			}
		}
		f.out.Goto = target
		return true, nil

	case *ast.Message:
		text, err := f.evalString(s.Text)
		if err != nil {
			return true, err
		}
		if s.Kind == "error" {
			f.in.engine.Error(text)
		} else {
			f.in.engine.Warn(text)
		}
		f.out.Messages = append(f.out.Messages, Message{Level: s.Kind, Text: text})

	case *ast.Print:
		text, err := f.evalString(s.Text)
		if err != nil {
			return true, err
		}
		f.in.logger.Info("story print", "text", text, "line", s.Pos.Line)

	case *ast.Fail:
		if s.Reason == nil {
			return true, at(s.Pos, story.ErrForcedFailure)
		}
		reason, err := f.evalString(s.Reason)
		if err != nil {
			return true, err
		}
		return true, at(s.Pos, fmt.Errorf("%w: %s", story.ErrForcedFailure, reason))

	case *ast.Require:
		switch s.Capability {
		case story.CapabilityBase, story.CapabilityResource, story.CapabilityCommon:
		default:
			return true, errorf(s.Pos, "unknown capability %q (want base, resource or common)", s.Capability)
		}
		if !story.Supports(f.in.engine, s.Capability) {
			return true, at(s.Pos, &story.IncompatibleEngineError{Required: s.Capability})
		}

	case *ast.Ask:
		eng, err := f.common(s.Pos)
		if err != nil {
			return true, err
		}
		q, err := f.evalString(s.Question)
		if err != nil {
			return true, err
		}
		answer, err := eng.AskInput(f.ctx, q)
		if err != nil {
			return true, at(s.Pos, err)
		}
		f.scope.Assign(s.Var, answer)

	case *ast.Choose:
		return f.choose(s)

	case *ast.Background:
		if err := f.background(s); err != nil {
			return true, err
		}

	case *ast.Font:
		eng, err := f.common(s.Pos)
		if err != nil {
			return true, err
		}
		name, err := f.evalString(s.Name)
		if err != nil {
			return true, err
		}
		switch {
		case strings.EqualFold(name, story.FontMuli.Name):
			eng.SetFont(story.FontMuli)
		case strings.EqualFold(name, story.FontMerriweather.Name):
			eng.SetFont(story.FontMerriweather)
		default:
			return true, errorf(s.Pos, "unknown font %q (want Muli or Merriweather)", name)
		}

	case *ast.LoadResources:
		eng, ok := f.in.engine.(story.ResourceEngine)
		if !ok {
			return true, at(s.Pos, story.ErrResourcesUnsupported)
		}
		if err := eng.LoadResources(f.ctx); err != nil {
			return true, at(s.Pos, fmt.Errorf("load resources: %w", err))
		}

	case *ast.Close:
		return true, f.close(s.Pos)

	case *ast.Nsfw:
		return f.nsfw(s)

	default:
		return true, errorf(s.Position(), "cannot execute %T", s)
	}
	return false, nil
}

func (f *frame) common(pos ast.Pos) (story.CommonEngine, error) {
	eng, ok := f.in.engine.(story.CommonEngine)
	if !ok {
		return nil, at(pos, &story.IncompatibleEngineError{Required: story.CapabilityCommon})
	}
	return eng, nil
}

func (f *frame) close(pos ast.Pos) error {
	f.out.Closed = true
	if eng, ok := f.in.engine.(story.CommonEngine); ok {
		if err := eng.CloseStory(); err != nil {
			return at(pos, fmt.Errorf("close story: %w", err))
		}
	}
	return nil
}

func (f *frame) background(s *ast.Background) error {
	res, ok := f.in.engine.(story.ResourceEngine)
	if !ok {
		return at(s.Pos, story.ErrResourcesUnsupported)
	}
	eng, err := f.common(s.Pos)
	if err != nil {
		return err
	}
	name, err := f.evalString(s.Resource)
	if err != nil {
		return err
	}
	if name == "" {
		return at(s.Pos, eng.SetBackground(nil))
	}
	r, err := res.Resource(name)
	if err != nil {
		return at(s.Pos, err)
	}
	return at(s.Pos, eng.SetBackground(r))
}

func (f *frame) choose(s *ast.Choose) (bool, error) {
	eng, err := f.common(s.Pos)
	if err != nil {
		return true, err
	}
	text, err := f.evalString(s.Text)
	if err != nil {
		return true, err
	}
	req := story.ChoiceRequest{Text: dsl.TrimIndent(text), Cancellable: s.Cancellable}
	if s.Title != nil {
		if req.Title, err = f.evalString(s.Title); err != nil {
			return true, err
		}
	}
	if s.Icon != nil {
		if req.Icon, err = f.evalString(s.Icon); err != nil {
			return true, err
		}
	}
	for _, c := range s.Choices {
		opt := &story.ChoiceOption{WhiteText: c.WhiteText}
		if opt.Text, err = f.evalString(c.Text); err != nil {
			return true, err
		}
		if c.Color != nil {
			if opt.Color, err = f.evalString(c.Color); err != nil {
				return true, err
			}
		}
		req.Options = append(req.Options, opt)
	}

	chosen, err := eng.Choice(f.ctx, req)
	if err != nil {
		return true, at(s.Pos, err)
	}

	var branch *ast.Choice
	if chosen == nil {
		if !s.Cancellable {
			return true, errorf(s.Pos, "the choice was cancelled but is not cancellable")
		}
		branch = s.Cancel
	} else {
		idx := -1
		for i, o := range req.Options {
			if o == chosen {
				idx = i
				break
			}
		}
		if idx < 0 {
			for i, o := range req.Options {
				if o.Text == chosen.Text {
					idx = i
					break
				}
			}
		}
		if idx < 0 {
			return true, errorf(s.Pos, "the engine returned an unknown choice %q", chosen.Text)
		}
		branch = s.Choices[idx]
	}

	if branch != nil && branch.Action != nil {
		if stop, err := f.block(branch.Action); stop || err != nil {
			return stop, err
		}
	}
	if s.Var == "" {
		return false, nil
	}
	if branch == nil || branch.Yields == nil {
		if chosen != nil {
			return true, errorf(s.Pos, "the choose statement does not yield any value when choosing %q; add 'yields <value>' after the choice", chosen.Text)
		}
		return true, errorf(s.Pos, "the choose statement does not yield any value when cancelled; add 'cancel yields <value>'")
	}
	v, err := f.eval(branch.Yields)
	if err != nil {
		return true, err
	}
	f.scope.Assign(s.Var, v)
	return false, nil
}

const nsfwText = `This story contains explicit content that is not appropriate for people under legal age.
By clicking "Continue", you agree that you legally have the age and are willing to watch this content.`

func (f *frame) nsfw(s *ast.Nsfw) (bool, error) {
	eng, err := f.common(s.Pos)
	if err != nil {
		return true, err
	}
	text := nsfwText
	if len(s.Content) > 0 {
		items := make([]string, len(s.Content))
		for i, c := range s.Content {
			if items[i], err = f.evalString(c); err != nil {
				return true, err
			}
		}
		text += "\n\nPotentially problematic content includes:\n- " + strings.Join(items, "\n- ")
	}
	exit := &story.ChoiceOption{Text: "Exit", Color: "red", WhiteText: true}
	cont := &story.ChoiceOption{Text: "Continue"}
	chosen, err := eng.Choice(f.ctx, story.ChoiceRequest{
		Title:   "NSFW Warning",
		Icon:    "gmi-do-not-disturb-on",
		Text:    text,
		Options: []*story.ChoiceOption{exit, cont},
	})
	if err != nil {
		return true, at(s.Pos, err)
	}
	if chosen == exit || (chosen != nil && chosen.Text == exit.Text) {
		return true, f.close(s.Pos)
	}
	return false, nil
}
