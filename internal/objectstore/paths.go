package objectstore

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// ObjectPath builds the identity-scoped storage path for an upload. The
// nanosecond discriminator only guards against name collisions within the
// namespace; it carries no ordering semantics.
func ObjectPath(namespace, displayName string, now time.Time) string {
	return fmt.Sprintf("%s/%d-%s", namespace, now.UnixNano(), SanitizeName(displayName))
}

// ThumbnailPath derives the nested sub-path under which a video's preview
// image is stored.
func ThumbnailPath(objectPath string) string {
	dir, base := path.Split(objectPath)
	return dir + "thumbs/" + base + ".jpg"
}

// SanitizeName strips path separators and awkward characters from a
// client-supplied display name.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "upload"
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	cleaned := strings.Trim(b.String(), "._")
	if cleaned == "" {
		return "upload"
	}
	return cleaned
}
