// Package storage keeps the binary content of image and sound assets.
// Higher layers only see opaque references returned by Store; three
// backends exist (local disk, a MySQL blob table and an S3 bucket)
// behind the same interface.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/croabboard/internal/model"
)

var (
	// ErrNotFound is returned by Retrieve when no content exists for a ref.
	ErrNotFound = errors.New("asset content not found")
	// ErrInvalidRef is returned for references that could escape the
	// store's namespace (path separators, dot segments).
	ErrInvalidRef = errors.New("invalid asset reference")
)

// Store persists asset content. Remove is idempotent: removing a
// reference that does not exist succeeds.
type Store interface {
	Store(ctx context.Context, kind model.AssetKind, hint string, content []byte) (string, error)
	Retrieve(ctx context.Context, kind model.AssetKind, ref string) ([]byte, error)
	Remove(ctx context.Context, kind model.AssetKind, ref string) error
}

// folder is the directory (or key prefix) of each asset kind.
func folder(kind model.AssetKind) (string, error) {
	switch kind {
	case model.AssetImage:
		return "images", nil
	case model.AssetSound:
		return "audio", nil
	}
	return "", fmt.Errorf("unknown asset kind %q", kind)
}

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-\s]+`)
	extPattern  = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)
)

const maxStem = 64

// Sanitize turns a display name into a filesystem and URL safe stem.
func Sanitize(name string) string {
	s := unsafeChars.ReplaceAllString(name, "")
	s = strings.Join(strings.Fields(s), "_")
	if len(s) > maxStem {
		s = s[:maxStem]
	}
	return s
}

// NewRef builds a collision-resistant reference from a hint such as
// "foo.png": the sanitized stem, a random uuid and the hint's extension.
// Two stores with the same hint never share a reference.
func NewRef(hint string) string {
	ext := strings.ToLower(filepath.Ext(hint))
	if !extPattern.MatchString(ext) {
		ext = ""
	}
	stem := Sanitize(strings.TrimSuffix(hint, filepath.Ext(hint)))
	if stem == "" {
		stem = "asset"
	}
	return stem + "_" + strings.ReplaceAll(uuid.NewString(), "-", "") + ext
}

// ValidateRef rejects references that are empty or could address
// anything outside the kind's namespace.
func ValidateRef(ref string) error {
	switch {
	case ref == "", len(ref) > 255:
		return ErrInvalidRef
	case strings.ContainsAny(ref, `/\`), strings.Contains(ref, ".."), strings.HasPrefix(ref, "."):
		return ErrInvalidRef
	}
	return nil
}

var contentTypes = map[model.AssetKind]map[string]string{
	model.AssetImage: {
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".gif":  "image/gif",
		".webp": "image/webp",
		".svg":  "image/svg+xml",
		".bmp":  "image/bmp",
	},
	model.AssetSound: {
		".mp3":  "audio/mpeg",
		".wav":  "audio/wav",
		".ogg":  "audio/ogg",
		".m4a":  "audio/mp4",
		".aac":  "audio/aac",
		".flac": "audio/flac",
	},
}

// ContentType picks the MIME type of an asset from its reference's
// extension, sniffing the content when the extension is unknown.
func ContentType(kind model.AssetKind, ref string, content []byte) string {
	if ct, ok := contentTypes[kind][strings.ToLower(filepath.Ext(ref))]; ok {
		return ct
	}
	if len(content) == 0 {
		return "application/octet-stream"
	}
	return http.DetectContentType(content)
}
