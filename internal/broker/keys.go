package broker

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultExtension is used when neither the file name nor the content type
// yields one.
const DefaultExtension = "jpg"

var extensionsByType = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/heic": "heic",
	"image/heif": "heif",
	"image/gif":  "gif",
}

// ObjectKey builds <prefix>/YYYY/MM/DD/<id>.<ext> using the UTC date of now.
func ObjectKey(prefix, fileName, contentType string, now time.Time, id uuid.UUID) string {
	name := fmt.Sprintf("%s/%s.%s", now.UTC().Format("2006/01/02"), id.String(), Extension(fileName, contentType))
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// Extension picks the object extension: the file name's own when it is short
// and alphanumeric, else one derived from the content type, else DefaultExtension.
func Extension(fileName, contentType string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(fileName), "."))
	if validExtension(ext) {
		return ext
	}
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if ext, ok := extensionsByType[mediaType]; ok {
		return ext
	}
	return DefaultExtension
}

func validExtension(ext string) bool {
	if ext == "" || len(ext) > 5 {
		return false
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// IsImage reports whether contentType names an image.
func IsImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}
