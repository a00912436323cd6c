package api

import (
	"mime"
	"strings"
)

// MediaKind classifies an attachment by its declared media type, which decides
// the post-upload mode switch (image uploads enable image-contextual queries,
// documents fall back to plain text).
type MediaKind int

const (
	MediaOther MediaKind = iota
	MediaImage
	MediaDocument
	MediaAudio
)

func (k MediaKind) String() string {
	switch k {
	case MediaImage:
		return "image"
	case MediaDocument:
		return "document"
	case MediaAudio:
		return "audio"
	}
	return "other"
}

// The media types the backend accepts for ingest and transcription.
var (
	imageTypes = map[string]bool{
		"image/png":  true,
		"image/jpeg": true,
		"image/gif":  true,
		"image/webp": true,
	}
	documentTypes = map[string]bool{
		"application/pdf": true,
	}
	audioTypes = map[string]bool{
		"audio/wav":   true,
		"audio/x-wav": true,
		"audio/webm":  true,
		"audio/mpeg":  true,
	}
)

// ClassifyMedia maps a declared media type to a MediaKind. Parameters
// (charset and the like) are ignored; unknown types classify as MediaOther.
// Classification is deliberately driven by the declared type, not the
// filename.
func ClassifyMedia(contentType string) MediaKind {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch {
	case imageTypes[mt]:
		return MediaImage
	case documentTypes[mt]:
		return MediaDocument
	case audioTypes[mt]:
		return MediaAudio
	}
	return MediaOther
}
