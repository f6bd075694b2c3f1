package model

import "time"

// Button represents a row of the `uploaded` table: a named pairing of
// one image asset and at most one sound asset.
type Button struct {
	ID         uint64    // uploaded.id
	ImageID    uint64    // uploaded.image_id
	SoundID    *uint64   // uploaded.sound_id (nullable)
	UploadedBy uint64    // uploaded.uploaded_by
	Name       string    // uploaded.button_name
	CategoryID *uint64   // uploaded.category_id (nullable)
	CreatedAt  time.Time // uploaded.created_at
}

// Link represents a row of the `linked` table: the position (Tri) of a
// button in one user's display order.
type Link struct {
	ID       uint64 // linked.id
	UserID   uint64 // linked.user_id
	ButtonID uint64 // linked.uploaded_id
	Tri      int    // linked.tri
}

// Position is one entry of a reposition batch.
type Position struct {
	ButtonID uint64
	Tri      int
}

// ButtonView is a button as listed for a user: joined with its asset
// references, its position and its category.
type ButtonView struct {
	ID            uint64  `json:"id"`
	ImageID       uint64  `json:"image_id"`
	SoundID       *uint64 `json:"sound_id"`
	ImageRef      string  `json:"image_ref"`
	SoundRef      string  `json:"sound_ref"`
	Name          string  `json:"name"`
	Tri           int     `json:"tri"`
	Category      string  `json:"category"`
	CategoryColor string  `json:"category_color"`
}
