package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/storytree/pkg/domain"
)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader    *bufio.Reader
	Writer    io.Writer
	Renderer  ContentRenderer
	Formatter OptionFormatter
	Sanitizer Sanitizer

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerFormatter configures how options are listed.
func WithTextHandlerFormatter(f OptionFormatter) TextHandlerOption {
	return func(h *TextHandler) {
		h.Formatter = f
	}
}

// WithTextHandlerMaxInput bounds the size of an answer.
func WithTextHandlerMaxInput(size int) TextHandlerOption {
	return func(h *TextHandler) {
		h.Sanitizer.MaxSize = size
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader:    bufio.NewReader(r),
		Writer:    w,
		Formatter: PlainOption,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// PlainOption formats an option as "1. Text", marking unavailable ones.
func PlainOption(o domain.OptionView) string {
	if !o.Available {
		return fmt.Sprintf("%d. %s (unavailable)", o.Index, o.Text)
	}
	return fmt.Sprintf("%d. %s", o.Index, o.Text)
}

// initPump starts reading lines in the background so that Input can
// return as soon as ctx is cancelled.
func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			close(h.inputChan)
			return
		}
	}
}

func (h *TextHandler) Output(ctx context.Context, actions []domain.ActionRequest) (bool, error) {
	needsInput := false
	for _, act := range actions {
		switch act.Type {
		case domain.ActionSystemMessage:
			if msg, ok := act.Payload.(domain.SystemMessage); ok {
				fmt.Fprintf(h.Writer, "[%s] %s\n", msg.Level, msg.Text)
			}
		case domain.ActionRenderContent:
			if msg, ok := act.Payload.(string); ok {
				output := msg
				if h.Renderer != nil {
					if rendered, err := h.Renderer(msg); err == nil {
						output = rendered
					}
				}
				fmt.Fprintln(h.Writer, strings.TrimSpace(output))
			}
		case domain.ActionRequestChoice:
			if req, ok := act.Payload.(domain.ChoiceRequest); ok && len(req.Options) > 0 {
				needsInput = true
				fmt.Fprintln(h.Writer)
				for _, o := range req.Options {
					fmt.Fprintln(h.Writer, h.Formatter(o))
				}
			}
		}
	}
	return needsInput, nil
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, "> ")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := h.Sanitizer.Clean(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "\n[System] %s\n", msg)
	return err
}
