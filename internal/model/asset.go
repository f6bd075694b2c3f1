package model

import (
	"fmt"
	"time"
)

// AssetKind discriminates the two kinds of stored binaries.
type AssetKind string

const (
	AssetImage AssetKind = "image"
	AssetSound AssetKind = "sound"
)

// ParseAssetKind accepts the kind names used in URLs and form fields.
// "audio" is accepted as an alias of sound.
func ParseAssetKind(s string) (AssetKind, error) {
	switch s {
	case "image", "images":
		return AssetImage, nil
	case "sound", "audio":
		return AssetSound, nil
	}
	return "", fmt.Errorf("unknown asset kind %q", s)
}

// Asset represents a row of the `file` table: one stored binary and
// the opaque reference under which the asset store keeps its content.
type Asset struct {
	ID        uint64    // file.id
	Kind      AssetKind // file.type
	Ref       string    // file.filename
	Name      string    // file.display_name, the uploaded filename
	CreatedAt time.Time // file.created_at
}
