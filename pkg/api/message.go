package api

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single entry in the append-only conversation log.
// Only the most recently appended assistant message may be mutated, and only
// while a streamed reply is still being accumulated into it.
type Message struct {
	Role    Role   `json:"role"`    // "user" or "assistant"
	Content string `json:"content"` // The message text (grows while streaming)

	// ImageResults holds ordered similarity matches for image-mode replies.
	ImageResults []ImageResult `json:"image_results,omitempty"`

	// Description is an optional caption attached to the reply.
	Description string `json:"description,omitempty"`

	// Source names the backend strategy that produced the reply (e.g. "pdf",
	// "image", "web"). Empty when the backend did not report one.
	Source string `json:"source,omitempty"`

	// Confidence is the backend's self-reported confidence for streamed
	// replies, taken from the X-Confidence header. Zero when absent.
	Confidence float64 `json:"confidence,omitempty"`

	// Error marks the message as a failure notice rather than an answer.
	Error bool `json:"error,omitempty"`

	Timestamp time.Time `json:"ts"`
}

// NewUserMessage creates a user-role log entry stamped with the current time.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: time.Now()}
}

// NewAssistantMessage creates an assistant-role log entry stamped with the
// current time.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, Timestamp: time.Now()}
}
