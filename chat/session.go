// Package chat owns the client-side conversation state: the append-only
// message log, the selected input mode and language, and the persisted
// session identity. It orchestrates each send end to end, from the
// optimistic user-message append through transport dispatch, response
// consumption, and terminal cleanup.
package chat

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/autonomind/autonomind-go/client"
	"github.com/autonomind/autonomind-go/pkg/api"
	"github.com/autonomind/autonomind-go/store"
)

// Placeholder content for optimistic user messages carrying binary payloads.
const (
	filePlaceholder  = "[file]"
	voicePlaceholder = "[voice]"
)

// ErrEmptyInput is returned when Send is called with nothing to send.
var ErrEmptyInput = errors.New("empty input")

// Transport is what the session needs from the network layer: a classified
// chat exchange and a multipart upload. *client.Client satisfies it.
type Transport interface {
	Exchange(ctx context.Context, req api.ChatRequest) (*client.Outcome, error)
	Upload(ctx context.Context, att client.Attachment, sessionID string) (*api.UploadResponse, error)
}

// Session is the conversation state container. All mutations go through its
// methods; views read the snapshot accessors and re-render from them.
//
// The container does not serialize sends. A second Send while one is in
// flight appends its own optimistic pair, and each streaming accumulator
// targets the message index it captured at append time, so interleaved
// streams never write into each other's bubble.
type Session struct {
	transport Transport
	store     store.Store
	logger    *zap.Logger

	keywords []string
	classify func(contentType string) api.MediaKind
	onChunk  func(fragment string)

	mu       sync.Mutex
	id       string
	mode     api.Mode
	lang     string
	msgs     []api.Message
	loading  bool
	lastErr  string
	imageCtx bool
	gen      uint64 // bumped by ClearMessages; orphans in-flight accumulators
}

// Option configures a Session at construction.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithLanguage sets the initial locale code.
func WithLanguage(lang string) Option {
	return func(s *Session) { s.lang = lang }
}

// WithImageKeywords replaces the image-intent keyword set.
func WithImageKeywords(keywords []string) Option {
	return func(s *Session) { s.keywords = keywords }
}

// WithClassifier replaces the media classification function used to decide
// the post-upload mode switch.
func WithClassifier(fn func(contentType string) api.MediaKind) Option {
	return func(s *Session) { s.classify = fn }
}

// WithChunkListener registers a callback invoked for every streamed fragment
// after it has been appended to the trailing assistant message. Views use it
// for incremental display.
func WithChunkListener(fn func(fragment string)) Option {
	return func(s *Session) { s.onChunk = fn }
}

// New restores a session from st, or starts a fresh one with a generated
// session id when nothing is persisted.
func New(ctx context.Context, t Transport, st store.Store, opts ...Option) (*Session, error) {
	s := &Session{
		transport: t,
		store:     st,
		logger:    zap.NewNop(),
		keywords:  DefaultImageKeywords,
		classify:  api.ClassifyMedia,
		mode:      api.ModeText,
		lang:      DefaultLanguage,
	}
	for _, opt := range opts {
		opt(s)
	}

	msgs, err := st.LoadHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore history: %w", err)
	}
	s.msgs = msgs

	id, err := st.LoadSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore session id: %w", err)
	}
	if id == "" {
		id = uuid.NewString()
		if err := st.SaveSession(ctx, id); err != nil {
			return nil, fmt.Errorf("persist session id: %w", err)
		}
		s.logger.Debug("generated new session", zap.String("session_id", id))
	} else {
		s.logger.Debug("restored session",
			zap.String("session_id", id),
			zap.Int("messages", len(msgs)),
		)
	}
	s.id = id

	return s, nil
}

// Messages returns a snapshot of the conversation log in display order.
func (s *Session) Messages() []api.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Message(nil), s.msgs...)
}

// SessionID returns the current session identity.
func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Mode returns the selected input mode.
func (s *Session) Mode() api.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Language returns the selected locale code.
func (s *Session) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lang
}

// Loading reports whether a send is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last user-visible error text, or "".
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ImageContextActive reports whether an image upload has primed the session
// for image-contextual text queries.
func (s *Session) ImageContextActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.imageCtx
}

// SetMode selects the input mode for subsequent sends. No network activity.
func (s *Session) SetMode(m api.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
}

// SetLanguage selects the locale for subsequent sends. No network activity.
func (s *Session) SetLanguage(lang string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lang = lang
}

// ClearMessages empties the log and removes it from persisted storage. The
// session id is retained; the image-context marker is reset. Any stream still
// accumulating into the old log is orphaned: its remaining fragments are
// dropped rather than written into the cleared log.
func (s *Session) ClearMessages(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = nil
	s.imageCtx = false
	s.gen++
	if err := s.store.ClearHistory(ctx); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Send dispatches a text query in the currently selected mode. When the mode
// is text, an image upload has primed the session, and the text matches the
// image-intent keywords, the request is upgraded to image mode for this one
// exchange; the selected mode itself is untouched.
func (s *Session) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}

	req := s.begin(ctx, text, s.effectiveMode(text))
	out, err := s.transport.Exchange(ctx, req)
	if err != nil {
		return s.fail(ctx, err)
	}
	return s.consume(ctx, out)
}

// SendVoice dispatches a recorded audio payload as a voice-mode chat request
// with base64-encoded content. The reader is drained before the optimistic
// append so a local read failure never touches the log.
func (s *Session) SendVoice(ctx context.Context, audio io.Reader) error {
	data, err := io.ReadAll(audio)
	if err != nil {
		return fmt.Errorf("read audio payload: %w", err)
	}
	if len(data) == 0 {
		return ErrEmptyInput
	}

	req := s.begin(ctx, voicePlaceholder, api.ModeVoice)
	req.Content = base64.StdEncoding.EncodeToString(data)
	out, err := s.transport.Exchange(ctx, req)
	if err != nil {
		return s.fail(ctx, err)
	}
	return s.consume(ctx, out)
}

// Upload sends a file to the ingest endpoint and appends the backend's
// acknowledgment as one assistant message. An image upload switches the mode
// to image and primes the image context; anything else switches back to text.
func (s *Session) Upload(ctx context.Context, att client.Attachment) error {
	s.begin(ctx, filePlaceholder, s.Mode())

	resp, err := s.transport.Upload(ctx, att, s.SessionID())
	if err != nil {
		return s.fail(ctx, err)
	}

	s.mu.Lock()
	s.adoptSessionLocked(ctx, resp.SessionID)

	reply := api.NewAssistantMessage(resp.Message)
	reply.Description = resp.Caption
	reply.ImageResults = resp.Images()
	s.msgs = append(s.msgs, reply)

	// The image context tracks the most recent upload only: a later
	// non-image upload supersedes it.
	if s.classify(att.ContentType) == api.MediaImage {
		s.mode = api.ModeImage
		s.imageCtx = true
	} else {
		s.mode = api.ModeText
		s.imageCtx = false
	}

	s.loading = false
	s.persistLocked(ctx)
	s.mu.Unlock()
	return nil
}

// begin appends the optimistic user message, flags loading, clears the
// previous error, and returns the request skeleton for this exchange.
func (s *Session) begin(ctx context.Context, content string, mode api.Mode) api.ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, api.NewUserMessage(content))
	s.loading = true
	s.lastErr = ""
	s.persistLocked(ctx)
	return api.ChatRequest{
		SessionID: s.id,
		Mode:      mode,
		Lang:      s.lang,
		Content:   content,
	}
}

// effectiveMode returns the mode for one outgoing text request, applying the
// advisory image-intent upgrade without changing the selected mode.
func (s *Session) effectiveMode(text string) api.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == api.ModeText && s.imageCtx && MatchesImageIntent(text, s.keywords) {
		return api.ModeImage
	}
	return s.mode
}

// consume applies a classified response to the log: one assistant message
// for structured outcomes, or a streaming accumulator for byte streams.
func (s *Session) consume(ctx context.Context, out *client.Outcome) error {
	s.mu.Lock()
	s.adoptSessionLocked(ctx, out.SessionID)

	switch out.Kind {
	case client.KindError:
		msg := api.NewAssistantMessage(out.Err)
		msg.Error = true
		s.msgs = append(s.msgs, msg)
		s.lastErr = out.Err
		s.finishLocked(ctx)
		s.mu.Unlock()
		return nil

	case client.KindImageResults:
		msg := api.NewAssistantMessage("")
		msg.ImageResults = out.Images
		msg.Description = out.Description
		s.msgs = append(s.msgs, msg)
		s.finishLocked(ctx)
		s.mu.Unlock()
		return nil

	case client.KindDescription:
		msg := api.NewAssistantMessage("")
		msg.Description = out.Description
		s.msgs = append(s.msgs, msg)
		s.finishLocked(ctx)
		s.mu.Unlock()
		return nil
	}

	// Stream: append the pending bubble now so the view shows it, and
	// capture its index and log generation. Appends by a concurrent send
	// move the tail, never this index; a ClearMessages bumps the generation
	// so the accumulator stops writing into a log that no longer holds its
	// bubble.
	pending := api.NewAssistantMessage("")
	pending.Source = out.Stream.Source
	pending.Confidence = out.Stream.Confidence
	s.msgs = append(s.msgs, pending)
	idx := len(s.msgs) - 1
	gen := s.gen
	s.persistLocked(ctx)
	s.mu.Unlock()

	return s.drain(ctx, out.Stream, idx, gen)
}

// drain consumes a stream to completion, appending each fragment to the
// message at idx. If the log was cleared underneath it (generation moved),
// the exchange finishes quietly and the remaining fragments are dropped.
func (s *Session) drain(ctx context.Context, stream *client.Stream, idx int, gen uint64) error {
	defer stream.Close()

	for {
		frag, err := stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.mu.Lock()
				if s.gen != gen {
					s.loading = false
					s.mu.Unlock()
					return nil
				}
				s.finishLocked(ctx)
				s.mu.Unlock()
				return nil
			}
			s.mu.Lock()
			if s.gen != gen {
				s.loading = false
				s.mu.Unlock()
				return nil
			}
			s.lastErr = err.Error()
			s.msgs[idx].Error = true
			if s.msgs[idx].Content == "" {
				s.msgs[idx].Content = err.Error()
			}
			s.finishLocked(ctx)
			s.mu.Unlock()
			return err
		}
		if frag == "" {
			continue
		}

		s.mu.Lock()
		if s.gen != gen {
			s.loading = false
			s.mu.Unlock()
			return nil
		}
		s.msgs[idx].Content += frag
		s.persistLocked(ctx)
		s.mu.Unlock()

		if s.onChunk != nil {
			s.onChunk(frag)
		}
	}
}

// fail records a transport failure as an error-flagged assistant bubble and
// restores the container to an idle, reusable state.
func (s *Session) fail(ctx context.Context, err error) error {
	s.logger.Warn("exchange failed", zap.Error(err))

	s.mu.Lock()
	s.lastErr = err.Error()
	msg := api.NewAssistantMessage(err.Error())
	msg.Error = true
	s.msgs = append(s.msgs, msg)
	s.finishLocked(ctx)
	s.mu.Unlock()
	return err
}

// adoptSessionLocked switches to a backend-assigned session id for all
// subsequent requests. Prior messages keep their place; only the identity
// moves.
func (s *Session) adoptSessionLocked(ctx context.Context, id string) {
	if id == "" || id == s.id {
		return
	}
	s.logger.Debug("adopting backend session id",
		zap.String("old", s.id),
		zap.String("new", id),
	)
	s.id = id
	if err := s.store.SaveSession(ctx, id); err != nil {
		s.logger.Warn("persist session id failed", zap.Error(err))
	}
}

// finishLocked clears the loading flag and persists the log.
func (s *Session) finishLocked(ctx context.Context) {
	s.loading = false
	s.persistLocked(ctx)
}

// persistLocked writes the log snapshot through the store. Storage failures
// are logged, not surfaced: the exchange already succeeded or failed on its
// own terms.
func (s *Session) persistLocked(ctx context.Context) {
	snapshot := append([]api.Message(nil), s.msgs...)
	if err := s.store.SaveHistory(ctx, snapshot); err != nil {
		s.logger.Warn("persist history failed", zap.Error(err))
	}
}
