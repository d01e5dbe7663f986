// Package media infers a coarse content kind for stored media URLs.
//
// The stored MIME type is authoritative when available; the URL heuristics only
// exist for legacy records that persisted nothing but a URL. The result is used
// to pick a thumbnail/icon rendering strategy and must never drive
// correctness-critical decisions.
package media

import (
	"strings"
)

type Kind string

const (
	Image   Kind = "image"
	Video   Kind = "video"
	Audio   Kind = "audio"
	PDF     Kind = "pdf"
	Unknown Kind = "unknown"
)

// defaultDisplayName is used when no filename can be extracted from the URL.
const defaultDisplayName = "Media file"

var (
	videoExts = map[string]struct{}{"mp4": {}, "mov": {}, "avi": {}, "mkv": {}, "webm": {}, "m4v": {}}
	audioExts = map[string]struct{}{"mp3": {}, "wav": {}, "m4a": {}, "aac": {}, "ogg": {}, "flac": {}}
	pdfExts   = map[string]struct{}{"pdf": {}}
	imageExts = map[string]struct{}{"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "webp": {}, "svg": {}}

	// tokens searched in the lower-cased URL when no extension matches; first hit wins
	urlTokens = []struct {
		token string
		kind  Kind
	}{
		{"video", Video},
		{"audio", Audio},
		{"image", Image},
		{"photo", Image},
		{"pdf", PDF},
	}
)

type Classification struct {
	Kind        Kind   `json:"kind"`
	DisplayName string `json:"display_name"`
}

// Classify infers the media kind for `url`. A known MIME type (from the original
// upload event) takes priority and skips the heuristics entirely; otherwise the
// filename extension is matched, then URL keyword tokens. Anything unresolved is
// Unknown — never a guess, since a wrong guess breaks rendering silently.
func Classify(url string, knownType ...string) Classification {
	name := fileName(url)
	cls := Classification{Kind: Unknown, DisplayName: defaultDisplayName}
	if strings.Contains(name, ".") {
		cls.DisplayName = name
	}

	if len(knownType) > 0 && knownType[0] != "" {
		cls.Kind = kindFromMIME(knownType[0])
		return cls
	}

	if ext := extension(name); ext != "" {
		if kind, ok := kindFromExt(ext); ok {
			cls.Kind = kind
			return cls
		}
	}

	if kind, ok := kindFromTokens(strings.ToLower(url)); ok {
		cls.Kind = kind
	}
	return cls
}

// fileName extracts the last path segment of `url`, dropping any query string or
// fragment. Malformed URLs degrade to the whole string.
func fileName(url string) string {
	for _, sep := range []string{"?", "#"} {
		if i := strings.Index(url, sep); i >= 0 {
			url = url[:i]
		}
	}
	if i := strings.LastIndex(url, "/"); i >= 0 {
		url = url[i+1:]
	}
	return url
}

func extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

func kindFromExt(ext string) (Kind, bool) {
	switch {
	case contains(videoExts, ext):
		return Video, true
	case contains(audioExts, ext):
		return Audio, true
	case contains(pdfExts, ext):
		return PDF, true
	case contains(imageExts, ext):
		return Image, true
	}
	return Unknown, false
}

func kindFromMIME(mimeType string) Kind {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	// strip parameters, e.g. "image/svg+xml; charset=utf-8"
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return Image
	case strings.HasPrefix(mimeType, "video/"):
		return Video
	case strings.HasPrefix(mimeType, "audio/"):
		return Audio
	case mimeType == "application/pdf":
		return PDF
	}
	return Unknown
}

func kindFromTokens(url string) (Kind, bool) {
	for _, t := range urlTokens {
		if strings.Contains(url, t.token) {
			return t.kind, true
		}
	}
	return Unknown, false
}

func contains(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}
