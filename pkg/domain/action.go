package domain

// ActionRequest is something the player asks the host to show.
type ActionRequest struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Standard Action Types
const (
	// ActionRenderContent requests the host to display the node body.
	// Payload: string (Markdown)
	ActionRenderContent = "RENDER_CONTENT"

	// ActionRequestChoice requests the host to let the reader pick an option.
	// Payload: ChoiceRequest
	ActionRequestChoice = "REQUEST_CHOICE"

	// ActionSystemMessage carries a warning or error raised by the script.
	// Payload: SystemMessage
	ActionSystemMessage = "SYSTEM_MESSAGE"
)

// OptionView is an option as the reader sees it.
type OptionView struct {
	// Index is 1-based and stable across renders of the same node.
	Index     int    `json:"index"`
	Text      string `json:"text"`
	Available bool   `json:"available"`
}

// ChoiceRequest lists the visible options of the current node.
type ChoiceRequest struct {
	NodeID  string       `json:"node_id"`
	Options []OptionView `json:"options"`
}

// Find returns the option matching a 1-based index.
func (c ChoiceRequest) Find(index int) (OptionView, bool) {
	for _, o := range c.Options {
		if o.Index == index {
			return o, true
		}
	}
	return OptionView{}, false
}

// MessageLevel of a SystemMessage.
type MessageLevel string

const (
	LevelWarning MessageLevel = "warning"
	LevelError   MessageLevel = "error"
	LevelInfo    MessageLevel = "info"
)

// SystemMessage is a message emitted by the script itself.
type SystemMessage struct {
	Level MessageLevel `json:"level"`
	Text  string       `json:"text"`
}
