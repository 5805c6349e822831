package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/storytree/pkg/domain"
)

// JSONHandler implements IOHandler over JSON-Lines: every render is one
// line holding the array of actions, and every answer is one line holding
// an option index, a JSON string or plain text.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, actions []domain.ActionRequest) (bool, error) {
	if len(actions) == 0 {
		return false, nil
	}
	if err := h.Encoder.Encode(actions); err != nil {
		return false, err
	}
	_, needsInput := choiceOf(actions)
	return needsInput, nil
}

func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := h.Reader.ReadString('\n')
	text = strings.TrimSpace(text)
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}

	var val string
	if json.Unmarshal([]byte(text), &val) == nil {
		return SanitizeInput(val)
	}
	var n float64
	if json.Unmarshal([]byte(text), &n) == nil {
		return strconv.FormatFloat(n, 'f', -1, 64), nil
	}
	return SanitizeInput(text)
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode([]domain.ActionRequest{{
		Type:    domain.ActionSystemMessage,
		Payload: domain.SystemMessage{Level: domain.LevelInfo, Text: msg},
	}})
}
