package runner

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/storytree/pkg/domain"
)

func TestTextHandler_Output(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader(""), outBuf)
	handler.Renderer = func(s string) (string, error) {
		return "Rendered: " + s, nil
	}

	actions := []domain.ActionRequest{
		{Type: domain.ActionSystemMessage, Payload: domain.SystemMessage{Level: domain.LevelWarning, Text: "careful"}},
		{Type: domain.ActionRenderContent, Payload: "Hello World"},
		{Type: domain.ActionRequestChoice, Payload: domain.ChoiceRequest{
			NodeID: "1",
			Options: []domain.OptionView{
				{Index: 1, Text: "Go", Available: true},
				{Index: 3, Text: "Fly", Available: false},
			},
		}},
	}

	needsInput, err := handler.Output(context.Background(), actions)
	if err != nil {
		t.Fatalf("Output failed: %v", err)
	}
	if !needsInput {
		t.Error("Expected output to return true for needsInput")
	}

	output := outBuf.String()
	for _, expected := range []string{"[warning] careful", "Rendered: Hello World", "1. Go", "3. Fly (unavailable)"} {
		if !strings.Contains(output, expected) {
			t.Errorf("Expected output to contain '%s', got '%s'", expected, output)
		}
	}
}

func TestTextHandler_OutputWithoutChoice(t *testing.T) {
	handler := NewTextHandler(strings.NewReader(""), &bytes.Buffer{})
	needsInput, err := handler.Output(context.Background(), []domain.ActionRequest{
		{Type: domain.ActionRenderContent, Payload: "The end"},
		{Type: domain.ActionRequestChoice, Payload: domain.ChoiceRequest{NodeID: "x"}},
	})
	if err != nil || needsInput {
		t.Errorf("Expected no input needed, got %v (%v)", needsInput, err)
	}
}

func TestTextHandler_Input(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader("  my answer \n"), outBuf)

	val, err := handler.Input(context.Background())
	if err != nil {
		t.Fatalf("Input failed: %v", err)
	}
	if val != "my answer" {
		t.Errorf("Expected 'my answer', got '%s'", val)
	}
	if prompt := outBuf.String(); prompt != "> " {
		t.Errorf("Expected prompt '> ', got '%s'", prompt)
	}

	if _, err := handler.Input(context.Background()); err != io.EOF {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}

func TestTextHandler_InputRetriesOnOversize(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader("too long\nok\n"), outBuf, WithTextHandlerMaxInput(3))

	val, err := handler.Input(context.Background())
	if err != nil {
		t.Fatalf("Input failed: %v", err)
	}
	if val != "ok" {
		t.Errorf("Expected 'ok', got '%s'", val)
	}
	if !strings.Contains(outBuf.String(), "Please try again.") {
		t.Error("Expected a retry message")
	}
}

func TestTextHandler_InputCancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	handler := NewTextHandler(r, &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := handler.Input(ctx); err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestTextHandler_Formatter(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader(""), outBuf, WithTextHandlerFormatter(func(o domain.OptionView) string {
		return "* " + o.Text
	}))
	_, _ = handler.Output(context.Background(), []domain.ActionRequest{
		{Type: domain.ActionRequestChoice, Payload: domain.ChoiceRequest{Options: []domain.OptionView{{Index: 1, Text: "Go", Available: true}}}},
	})
	if !strings.Contains(outBuf.String(), "* Go") {
		t.Errorf("Formatter not used: %q", outBuf.String())
	}
}
