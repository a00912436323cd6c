package api

import "encoding/json"

// ImageResult is a single similarity match: a remote image reference and its
// score. Scores are conceptually in [0,1] but the backend does not guarantee
// the bound, so they are preserved exactly as received.
type ImageResult struct {
	URL   string  `json:"image_url"`
	Score float64 `json:"score"`
}

// ChatResult is the structured (application/json) shape of a /chat response.
// Exactly one of Error, Results, or Description carries the payload; Results
// may be accompanied by a Description.
type ChatResult struct {
	Error       string        `json:"error,omitempty"`
	Description string        `json:"description,omitempty"`
	Results     []ImageResult `json:"results,omitempty"`
}

// uploadImage is the wire shape of a similarity match in upload responses,
// which key the reference as "url" rather than "image_url".
type uploadImage struct {
	URL   string  `json:"url"`
	Score float64 `json:"score"`
}

// UploadResponse is the JSON body returned by the /upload endpoint.
type UploadResponse struct {
	Message   string `json:"message"`              // Ingest acknowledgment, returned verbatim
	SessionID string `json:"session_id,omitempty"` // Adopted by the client when present
	Caption   string `json:"caption,omitempty"`    // Present for image uploads

	// The backend has shipped the match list under both keys.
	SimilarImages []uploadImage `json:"similar_images,omitempty"`
	RawResults    []uploadImage `json:"results,omitempty"`
}

// Images returns the ordered similarity matches from an upload response,
// preferring the similar_images key over results.
func (r *UploadResponse) Images() []ImageResult {
	wire := r.SimilarImages
	if len(wire) == 0 {
		wire = r.RawResults
	}
	if len(wire) == 0 {
		return nil
	}
	out := make([]ImageResult, len(wire))
	for i, m := range wire {
		out[i] = ImageResult{URL: m.URL, Score: m.Score}
	}
	return out
}

// DecodeUploadResponse parses an upload response body.
func DecodeUploadResponse(body []byte) (*UploadResponse, error) {
	var resp UploadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
