// Package client issues requests against the AutonoMind backend and
// classifies its responses for the session container.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/autonomind/autonomind-go/pkg/api"
)

const (
	// DefaultTimeout bounds upload requests. Chat requests stream and are
	// bounded by their context instead.
	DefaultTimeout = 5 * time.Minute

	// maxBodySize caps how much of a non-streamed response body is read.
	maxBodySize = 10 * 1024 * 1024
)

// Client talks to a single AutonoMind backend base address. The address is
// resolved once, when the client is constructed.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a Client for the given base address. The address should come
// from chat.Config.ResolveBaseURL so runtime overrides win over configuration.
func New(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			// Backend replies can be slow while models warm up. Streamed
			// reads are controlled by the request context, not this timeout,
			// because Timeout covers the whole body.
			Timeout: 0,
		},
		logger: logger,
	}
}

// WithHTTPClient swaps the underlying HTTP client, mainly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// BaseURL returns the resolved backend base address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Chat POSTs a chat request and returns the raw response for classification
// by Read. Non-2xx statuses are converted to *api.Error; the caller never
// sees a partial success.
func (c *Client) Chat(ctx context.Context, req api.ChatRequest) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	url := c.baseURL + "/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("sending chat request",
		zap.String("url", url),
		zap.String("mode", string(req.Mode)),
		zap.String("lang", req.Lang),
		zap.Int("content_size", len(req.Content)),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}

	return resp, nil
}

// Exchange issues a chat request and classifies the response, returning the
// uniform Outcome the session container consumes.
func (c *Client) Exchange(ctx context.Context, req api.ChatRequest) (*Outcome, error) {
	resp, err := c.Chat(ctx, req)
	if err != nil {
		return nil, err
	}
	return Read(resp)
}

// Upload POSTs a file as multipart form data (fields "file" and "session_id")
// and decodes the ingest acknowledgment.
func (c *Client) Upload(ctx context.Context, att Attachment, sessionID string) (*api.UploadResponse, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreatePart(fileHeader(att.Name, att.ContentType))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, att.Data); err != nil {
		return nil, fmt.Errorf("copy file payload: %w", err)
	}
	if err := form.WriteField("session_id", sessionID); err != nil {
		return nil, fmt.Errorf("write session field: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("finalize form: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	url := c.baseURL + "/upload"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())

	c.logger.Debug("uploading file",
		zap.String("url", url),
		zap.String("name", att.Name),
		zap.String("content_type", att.ContentType),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read upload response: %w", err)
	}

	uploadResp, err := api.DecodeUploadResponse(body)
	if err != nil {
		return nil, fmt.Errorf("parse upload response: %w", err)
	}
	return uploadResp, nil
}

// Attachment is a binary payload destined for the upload endpoint.
type Attachment struct {
	Name        string
	ContentType string // Declared media type; drives post-upload classification
	Data        io.Reader
}

// fileHeader builds the multipart part header for the file field, carrying
// the declared media type so the backend classifies by type, not filename.
func fileHeader(name, contentType string) textproto.MIMEHeader {
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(name)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	return h
}

func escapeQuotes(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, `\"`).Replace(s)
}

// decodeError converts a non-success response into *api.Error, surfacing the
// backend's structured error text when the body carries one.
func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))

	var structured api.ErrorResponse
	if err := json.Unmarshal(body, &structured); err == nil && structured.Error != "" {
		return &api.Error{Status: resp.StatusCode, Message: structured.Error}
	}

	// FastAPI wraps HTTPException messages in {"detail": ...}.
	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &detail); err == nil && detail.Detail != "" {
		return &api.Error{Status: resp.StatusCode, Message: detail.Detail}
	}

	return &api.Error{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}
