package model

import "time"

// HistoryStatus is the state of a delete-history record.
type HistoryStatus string

const (
	HistoryDeleted  HistoryStatus = "deleted"
	HistoryRestored HistoryStatus = "restored"
)

// DeletedButton is a row of the `deleted_button` table, the snapshot
// taken when a button is permanently deleted. The asset content is kept
// in the row so the button can be restored after its stored content was
// discarded. Listing queries leave the content fields empty.
type DeletedButton struct {
	ID           uint64
	OwnerID      uint64
	Name         string
	CategoryName string
	ImageRef     string
	ImageName    string
	ImageContent []byte
	SoundRef     string // empty when the button had no sound
	SoundName    string
	SoundContent []byte
	BoardMaxTri  int // owner's largest tri when the button was deleted
	DeletedAt    time.Time
	Status       HistoryStatus
}

// HasSound reports whether the snapshot carries a sound asset.
func (d DeletedButton) HasSound() bool { return d.SoundRef != "" }
