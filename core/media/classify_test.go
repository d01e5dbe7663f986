package media

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		knownType string
		wantKind  Kind
		wantName  string
	}{
		// known MIME type takes priority over all heuristics
		{name: "known image", url: "https://cdn.test/clip.mp4", knownType: "image/png", wantKind: Image, wantName: "clip.mp4"},
		{name: "known video", url: "https://cdn.test/pic.png", knownType: "video/quicktime", wantKind: Video, wantName: "pic.png"},
		{name: "known audio", url: "https://cdn.test/a", knownType: "audio/mpeg", wantKind: Audio, wantName: "Media file"},
		{name: "known pdf", url: "https://cdn.test/doc", knownType: "application/pdf", wantKind: PDF, wantName: "Media file"},
		{name: "known pdf with params", url: "https://cdn.test/doc", knownType: "application/pdf; charset=utf-8", wantKind: PDF, wantName: "Media file"},
		{name: "known but unmapped", url: "https://cdn.test/video.mp4", knownType: "application/zip", wantKind: Unknown, wantName: "video.mp4"},

		// extension heuristics
		{name: "mp4", url: "https://cdn.test/media/clip.mp4", wantKind: Video, wantName: "clip.mp4"},
		{name: "uppercase MP4", url: "https://cdn.test/media/CLIP.MP4", wantKind: Video, wantName: "CLIP.MP4"},
		{name: "mov", url: "https://cdn.test/x.mov", wantKind: Video, wantName: "x.mov"},
		{name: "webm", url: "https://cdn.test/x.webm", wantKind: Video, wantName: "x.webm"},
		{name: "mp3", url: "https://cdn.test/song.mp3", wantKind: Audio, wantName: "song.mp3"},
		{name: "flac", url: "https://cdn.test/song.FLAC", wantKind: Audio, wantName: "song.FLAC"},
		{name: "pdf", url: "https://cdn.test/report.pdf", wantKind: PDF, wantName: "report.pdf"},
		{name: "jpeg", url: "https://cdn.test/p.jpeg", wantKind: Image, wantName: "p.jpeg"},
		{name: "svg", url: "https://cdn.test/logo.svg", wantKind: Image, wantName: "logo.svg"},
		{name: "query string stripped", url: "https://cdn.test/a/b/pic.png?token=abc.def", wantKind: Image, wantName: "pic.png"},
		{name: "fragment stripped", url: "https://cdn.test/pic.webp#section", wantKind: Image, wantName: "pic.webp"},

		// token fallback, priority: video > audio > image > photo > pdf
		{name: "video token", url: "https://cdn.test/videos/abc123", wantKind: Video, wantName: "Media file"},
		{name: "audio token", url: "https://cdn.test/audio/abc123", wantKind: Audio, wantName: "Media file"},
		{name: "photo token", url: "https://cdn.test/photos/abc123", wantKind: Image, wantName: "Media file"},
		{name: "pdf token", url: "https://cdn.test/pdfs/abc123", wantKind: PDF, wantName: "Media file"},
		{name: "video beats image token", url: "https://cdn.test/image/video/abc", wantKind: Video, wantName: "Media file"},
		{name: "unknown extension falls back to token", url: "https://cdn.test/video/clip.xyz", wantKind: Video, wantName: "clip.xyz"},

		// documented default: unknown
		{name: "no signal", url: "https://cdn.example.com/abc123", wantKind: Unknown, wantName: "Media file"},
		{name: "unknown extension", url: "https://cdn.test/file.xyz", wantKind: Unknown, wantName: "file.xyz"},
		{name: "trailing dot", url: "https://cdn.test/file.", wantKind: Unknown, wantName: "file."},
		{name: "malformed url", url: "::not a url::", wantKind: Unknown, wantName: "Media file"},
		{name: "empty-ish", url: "/", wantKind: Unknown, wantName: "Media file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cls Classification
			if tt.knownType != "" {
				cls = Classify(tt.url, tt.knownType)
			} else {
				cls = Classify(tt.url)
			}
			if cls.Kind != tt.wantKind {
				t.Errorf("Classify() kind = %s, want %s", cls.Kind, tt.wantKind)
			}
			if cls.DisplayName != tt.wantName {
				t.Errorf("Classify() displayName = %s, want %s", cls.DisplayName, tt.wantName)
			}
		})
	}
}
