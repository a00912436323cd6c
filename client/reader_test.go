package client

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autonomind/autonomind-go/pkg/api"
)

// chunkReader yields exactly one predefined chunk per Read call, so tests
// control the byte boundaries the stream sees.
type chunkReader struct {
	chunks [][]byte
	err    error // returned after the chunks are exhausted, instead of EOF
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks[0] = r.chunks[0][n:]
	if len(r.chunks[0]) == 0 {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func streamResponse(body io.Reader, headers map[string]string) *http.Response {
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/plain; charset=utf-8"}},
		Body:       io.NopCloser(body),
	}
	for k, v := range headers {
		resp.Header.Set(k, v)
	}
	return resp
}

func jsonResponse(body string, headers map[string]string) *http.Response {
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
	for k, v := range headers {
		resp.Header.Set(k, v)
	}
	return resp
}

// drainStream collects every fragment until EOF.
func drainStream(t *testing.T, s *Stream) []string {
	t.Helper()
	var frags []string
	for {
		frag, err := s.Next()
		if errors.Is(err, io.EOF) {
			return frags
		}
		require.NoError(t, err)
		frags = append(frags, frag)
	}
}

func TestReadClassifiesStream(t *testing.T) {
	resp := streamResponse(strings.NewReader("hello"), map[string]string{
		"X-Source":     "pdf",
		"X-Session-ID": "srv-42",
		"X-Confidence": "0.87",
	})

	out, err := Read(resp)
	require.NoError(t, err)
	assert.Equal(t, KindStream, out.Kind)
	require.NotNil(t, out.Stream)
	assert.Equal(t, "pdf", out.Stream.Source)
	assert.Equal(t, 0.87, out.Stream.Confidence)
	assert.Equal(t, "srv-42", out.SessionID)
}

func TestReadClassifiesError(t *testing.T) {
	out, err := Read(jsonResponse(`{"error":"backend unavailable"}`, nil))
	require.NoError(t, err)
	assert.Equal(t, KindError, out.Kind)
	assert.Equal(t, "backend unavailable", out.Err)
}

func TestReadClassifiesImageResults(t *testing.T) {
	out, err := Read(jsonResponse(
		`{"results":[{"image_url":"/a.png","score":0.92},{"image_url":"/b.png","score":0.81}],"description":"two cats"}`,
		map[string]string{"X-Session-ID": "srv-7"}))
	require.NoError(t, err)

	assert.Equal(t, KindImageResults, out.Kind)
	require.Len(t, out.Images, 2)
	assert.Equal(t, api.ImageResult{URL: "/a.png", Score: 0.92}, out.Images[0])
	assert.Equal(t, api.ImageResult{URL: "/b.png", Score: 0.81}, out.Images[1])
	assert.Equal(t, "two cats", out.Description)
	assert.Equal(t, "srv-7", out.SessionID)
}

func TestReadClassifiesDescription(t *testing.T) {
	out, err := Read(jsonResponse(`{"description":"a red bicycle"}`, nil))
	require.NoError(t, err)
	assert.Equal(t, KindDescription, out.Kind)
	assert.Equal(t, "a red bicycle", out.Description)
}

func TestReadRejectsMalformedJSON(t *testing.T) {
	_, err := Read(jsonResponse(`{"description":`, nil))
	assert.Error(t, err)
}

func TestStreamYieldsChunksInOrder(t *testing.T) {
	body := &chunkReader{chunks: [][]byte{[]byte("Hel"), []byte("lo, "), []byte("world")}}
	out, err := Read(streamResponse(body, nil))
	require.NoError(t, err)

	frags := drainStream(t, out.Stream)
	assert.Equal(t, []string{"Hel", "lo, ", "world"}, frags)
	assert.Equal(t, "Hello, world", strings.Join(frags, ""))
}

func TestStreamCarriesSplitRunes(t *testing.T) {
	// "héllo" with the two-byte é split across chunks.
	body := &chunkReader{chunks: [][]byte{
		{'h', 0xC3},
		{0xA9, 'l', 'l', 'o'},
	}}
	out, err := Read(streamResponse(body, nil))
	require.NoError(t, err)

	frags := drainStream(t, out.Stream)
	assert.Equal(t, "héllo", strings.Join(frags, ""))
	for _, frag := range frags {
		assert.True(t, strings.ToValidUTF8(frag, "") == frag, "fragment %q is not valid UTF-8", frag)
	}
}

func TestStreamCarriesSplitRunesAcrossThreeChunks(t *testing.T) {
	// "日" is three bytes; deliver them one at a time.
	body := &chunkReader{chunks: [][]byte{{0xE6}, {0x97}, {0xA5}}}
	out, err := Read(streamResponse(body, nil))
	require.NoError(t, err)

	frags := drainStream(t, out.Stream)
	assert.Equal(t, "日", strings.Join(frags, ""))
}

func TestStreamFlushesCarryAtEOF(t *testing.T) {
	// A truncated rune at end of stream is flushed, not dropped.
	body := &chunkReader{chunks: [][]byte{{'o', 'k', 0xC3}}}
	out, err := Read(streamResponse(body, nil))
	require.NoError(t, err)

	var all strings.Builder
	for {
		frag, err := out.Stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		all.WriteString(frag)
	}
	assert.Equal(t, 3, len(all.String()))
}

func TestStreamReadErrorIsTerminal(t *testing.T) {
	boom := errors.New("connection reset")
	body := &chunkReader{chunks: [][]byte{[]byte("partial")}, err: boom}
	out, err := Read(streamResponse(body, nil))
	require.NoError(t, err)

	frag, err := out.Stream.Next()
	require.NoError(t, err)
	assert.Equal(t, "partial", frag)

	_, err = out.Stream.Next()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	// The failure is sticky.
	_, err2 := out.Stream.Next()
	assert.Equal(t, err, err2)
}

func TestStreamCloseAbandonsQuietly(t *testing.T) {
	body := &chunkReader{chunks: [][]byte{[]byte("never"), []byte("read")}}
	out, err := Read(streamResponse(body, nil))
	require.NoError(t, err)

	require.NoError(t, out.Stream.Close())

	_, err = out.Stream.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStreamConfidenceUnparseable(t *testing.T) {
	out, err := Read(streamResponse(strings.NewReader("x"), map[string]string{"X-Confidence": "high"}))
	require.NoError(t, err)
	assert.Zero(t, out.Stream.Confidence)
}
