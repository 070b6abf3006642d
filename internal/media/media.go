package media

import (
	"path/filepath"
	"strings"
)

// Kind is the classification of a media path.
type Kind int

const (
	Unsupported Kind = iota
	Audio
	Video
)

func (k Kind) String() string {
	switch k {
	case Audio:
		return "audio"
	case Video:
		return "video"
	default:
		return "unsupported"
	}
}

// Canonical extensions of derived artifacts.
const (
	AudioExt      = ".wav"
	TranscriptExt = ".txt"
	DocxExt       = ".docx"
)

var (
	audioExts = map[string]string{
		".mp3": "audio/mpeg",
		".wav": "audio/wav",
		".aac": "audio/aac",
		".m4a": "audio/mp4",
	}
	videoExts = map[string]string{
		".mp4": "video/mp4",
		".mkv": "video/x-matroska",
		".mov": "video/quicktime",
		".flv": "video/x-flv",
	}
)

// Classify decides the kind of path from its lowercased extension.
func Classify(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := audioExts[ext]; ok {
		return Audio
	}
	if _, ok := videoExts[ext]; ok {
		return Video
	}
	return Unsupported
}

// IsSupported reports whether path is audio or video.
func IsSupported(path string) bool {
	return Classify(path) != Unsupported
}

// DerivedPath replaces the extension of path with ext: "a/clip.mp4" -> "a/clip.wav".
func DerivedPath(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// MIMEType returns the content type for a supported media path, or "" otherwise.
func MIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if m, ok := audioExts[ext]; ok {
		return m
	}
	return videoExts[ext]
}

// Extensions lists every supported extension, audio first.
func Extensions() []string {
	return []string{".mp3", ".wav", ".aac", ".m4a", ".mp4", ".mkv", ".mov", ".flv"}
}
