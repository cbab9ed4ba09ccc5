package media

import "strings"

// Kind classifies an attachment by its MIME family.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
	KindImage Kind = "image"
	KindOther Kind = "other"
)

// KindFromContentType maps a declared MIME type to an attachment kind.
func KindFromContentType(contentType string) Kind {
	family, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(contentType)), "/")
	switch family {
	case "audio":
		return KindAudio
	case "video":
		return KindVideo
	case "image":
		return KindImage
	default:
		return KindOther
	}
}

// ParseKind converts a stored string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindAudio:
		return KindAudio, true
	case KindVideo:
		return KindVideo, true
	case KindImage:
		return KindImage, true
	case KindOther:
		return KindOther, true
	default:
		return "", false
	}
}
