package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/autonomind/autonomind-go/pkg/api"
)

// Kind discriminates the possible shapes of a chat response.
type Kind int

const (
	// KindStream is an unstructured byte stream of assistant text.
	KindStream Kind = iota
	// KindError is a structured backend error.
	KindError
	// KindImageResults is a structured similarity result set, optionally
	// captioned.
	KindImageResults
	// KindDescription is a structured reply carrying only a caption.
	KindDescription
)

// Outcome is the classified form of a chat response. Exactly one variant is
// populated, selected by Kind. SessionID is set on any outcome when the
// backend reassigned the session.
type Outcome struct {
	Kind Kind

	// KindStream
	Stream *Stream

	// KindError
	Err string

	// KindImageResults / KindDescription
	Images      []api.ImageResult
	Description string

	SessionID string
}

// Read classifies a successful chat response without consuming the body more
// than once. JSON bodies are decoded in full; anything else is wrapped as a
// lazy text stream whose metadata comes from the response headers.
func Read(resp *http.Response) (*Outcome, error) {
	contentType := resp.Header.Get("Content-Type")

	if strings.Contains(contentType, "application/json") {
		defer resp.Body.Close()
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return nil, fmt.Errorf("read structured response: %w", err)
		}
		return classifyStructured(body, resp.Header.Get("X-Session-ID"))
	}

	stream := newStream(resp)
	return &Outcome{
		Kind:      KindStream,
		Stream:    stream,
		SessionID: resp.Header.Get("X-Session-ID"),
	}, nil
}

func classifyStructured(body []byte, sessionID string) (*Outcome, error) {
	var result api.ChatResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse structured response: %w", err)
	}

	out := &Outcome{SessionID: sessionID}
	switch {
	case result.Error != "":
		out.Kind = KindError
		out.Err = result.Error
	case len(result.Results) > 0:
		out.Kind = KindImageResults
		out.Images = result.Results
		out.Description = result.Description
	default:
		out.Kind = KindDescription
		out.Description = result.Description
	}
	return out, nil
}

// Stream yields decoded text fragments from a chunked response body. It is a
// finite, non-restartable sequence with a single sequential consumer; read
// errors terminate it. Fragments always end on a rune boundary, so chunk
// splits inside a multi-byte character never surface as mojibake.
type Stream struct {
	// Source names the backend strategy that answered (X-Source header).
	Source string
	// Confidence is the backend's reported confidence (X-Confidence header),
	// zero when absent or unparseable.
	Confidence float64

	mu    sync.Mutex
	body  io.ReadCloser
	buf   []byte
	carry []byte // trailing bytes of an incomplete rune, held for the next read
	err   error  // terminal state; io.EOF once drained or closed
}

func newStream(resp *http.Response) *Stream {
	s := &Stream{
		Source: resp.Header.Get("X-Source"),
		body:   resp.Body,
		buf:    make([]byte, 4096),
	}
	if raw := resp.Header.Get("X-Confidence"); raw != "" {
		if conf, err := strconv.ParseFloat(raw, 64); err == nil {
			s.Confidence = conf
		}
	}
	return s
}

// Next returns the next decoded fragment. It returns io.EOF once the stream
// is exhausted or closed, and a wrapped read error terminally on failure.
// Chunks arrive at whatever byte boundaries the transport produces; Next
// carries incomplete trailing runes over to the following chunk.
func (s *Stream) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return "", s.err
	}

	for {
		n, err := s.body.Read(s.buf)
		if n > 0 {
			s.carry = append(s.carry, s.buf[:n]...)
			if cut := completeTo(s.carry); cut > 0 {
				frag := string(s.carry[:cut])
				s.carry = append(s.carry[:0], s.carry[cut:]...)
				return frag, nil
			}
		}
		if err != nil {
			return s.finish(err)
		}
	}
}

// finish transitions the stream into its terminal state, flushing any held
// bytes first so nothing received is ever dropped.
func (s *Stream) finish(err error) (string, error) {
	s.body.Close()
	if errors.Is(err, io.EOF) {
		s.err = io.EOF
		if len(s.carry) > 0 {
			frag := string(s.carry)
			s.carry = nil
			return frag, nil
		}
		return "", io.EOF
	}
	s.err = fmt.Errorf("read stream: %w", err)
	return "", s.err
}

// Close abandons the stream. Subsequent Next calls return io.EOF and no
// further fragments are produced, so a consumer that goes away mid-stream
// leaves no dangling reads behind.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = io.EOF
		s.carry = nil
		return s.body.Close()
	}
	return nil
}

// completeTo returns the length of the longest prefix of b that ends on a
// rune boundary. Bytes past that point are the start of a rune whose
// continuation has not arrived yet. Byte sequences that cannot begin a valid
// rune are passed through rather than held forever.
func completeTo(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if utf8.FullRune(b[i:]) {
			return len(b)
		}
		return i
	}
	return len(b)
}
