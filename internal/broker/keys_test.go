package broker

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestExtension(t *testing.T) {
	tests := []struct {
		fileName    string
		contentType string
		want        string
	}{
		{"photo.PNG", "image/jpeg", "png"},
		{"scan.jpeg", "", "jpeg"},
		{"receipt", "image/webp", "webp"},
		{"receipt.", "image/heic", "heic"},
		{"weird.tar-gz", "image/gif", "gif"},
		{"long.extension", "image/png; charset=binary", "png"},
		{"", "image/x-unknown", "jpg"},
		{"", "", "jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.fileName+"|"+tt.contentType, func(t *testing.T) {
			if got := Extension(tt.fileName, tt.contentType); got != tt.want {
				t.Errorf("Extension(%q, %q) = %q, want %q", tt.fileName, tt.contentType, got, tt.want)
			}
		})
	}
}

func TestObjectKey(t *testing.T) {
	id := uuid.MustParse("123e4567-e89b-12d3-a456-426614174000")
	// 23:30 in UTC-5 is already the next day in UTC.
	now := time.Date(2024, 3, 31, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))

	got := ObjectKey("/receipts/", "IMG_1.HEIC", "image/heic", now, id)
	want := "receipts/2024/04/01/123e4567-e89b-12d3-a456-426614174000.heic"
	if got != want {
		t.Errorf("ObjectKey() = %q, want %q", got, want)
	}

	if got := ObjectKey("", "a.png", "image/png", now, id); got != "2024/04/01/123e4567-e89b-12d3-a456-426614174000.png" {
		t.Errorf("ObjectKey() without prefix = %q", got)
	}
}

func TestIsImage(t *testing.T) {
	tests := map[string]bool{
		"image/jpeg":      true,
		"IMAGE/PNG":       true,
		" image/webp":     true,
		"application/pdf": false,
		"":                false,
		"imagefoo":        false,
	}
	for ct, want := range tests {
		if got := IsImage(ct); got != want {
			t.Errorf("IsImage(%q) = %v, want %v", ct, got, want)
		}
	}
}
