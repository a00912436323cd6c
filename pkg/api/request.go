package api

// Mode selects which input modality a chat request uses. It determines the
// transport path and payload shape on the backend side.
type Mode string

const (
	ModeText   Mode = "text"
	ModeVoice  Mode = "voice"
	ModeImage  Mode = "image"
	ModeSearch Mode = "search"
)

// Valid reports whether m is one of the four known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeText, ModeVoice, ModeImage, ModeSearch:
		return true
	}
	return false
}

// ChatRequest is the JSON body for the unified /chat endpoint.
type ChatRequest struct {
	SessionID string `json:"session_id"` // Opaque conversation identity
	Mode      Mode   `json:"mode"`       // text|voice|image|search
	Lang      string `json:"lang"`       // Locale code for the reply
	Content   string `json:"content"`    // Literal text, or base64 for binary payloads
}
