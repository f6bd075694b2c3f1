package service

import (
	"context"
	"errors"

	"github.com/iliyamo/croabboard/internal/dbx"
	"github.com/iliyamo/croabboard/internal/logging"
	"github.com/iliyamo/croabboard/internal/model"
	"github.com/iliyamo/croabboard/internal/repository"
)

// Ordering maintains each user's display order of buttons. Positions
// (tri) are not kept contiguous; only their relative order matters.
type Ordering struct {
	repos repository.Manager
	log   logging.Logger
}

func NewOrdering(repos repository.Manager, log logging.Logger) *Ordering {
	return &Ordering{repos: repos, log: log}
}

// Append puts the button at the end of the user's order and returns its
// tri: one more than the user's largest tri, or 1 on an empty board.
// Any existing button can be appended, which is how buttons are shared.
func (o *Ordering) Append(ctx context.Context, userID, buttonID uint64) (int, error) {
	if buttonID == 0 {
		return 0, validationf("button id is required")
	}
	var tri int
	err := o.repos.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		tri, err = o.appendTx(ctx, tx, userID, buttonID, 0)
		return err
	})
	if errors.Is(err, repository.ErrConflict) {
		return 0, conflictf("button %d is already on the board", buttonID)
	}
	if err != nil {
		return 0, classify(err, "button")
	}
	return tri, nil
}

// appendTx reads the max tri and inserts the entry on the same handle.
// The entry lands after floor as well, which keeps a restored button
// behind the position its board had reached when it was deleted.
func (o *Ordering) appendTx(ctx context.Context, tx dbx.DBTX, userID, buttonID uint64, floor int) (int, error) {
	links := o.repos.Links(tx)
	top, err := links.MaxTri(ctx, userID)
	if err != nil {
		return 0, err
	}
	tri := max(top, floor) + 1
	if _, err := links.Create(ctx, model.Link{UserID: userID, ButtonID: buttonID, Tri: tri}); err != nil {
		return 0, err
	}
	return tri, nil
}

// Reposition applies a batch of new positions. Every entry is checked
// before any is written; when some button has no ordering entry for the
// user the batch is rejected with a *PartialFailureError and nothing
// changes. Entries left out of the batch that would share a tri with a
// moved entry are pushed behind it, keeping their relative order.
func (o *Ordering) Reposition(ctx context.Context, userID uint64, positions []model.Position) error {
	if len(positions) == 0 {
		return validationf("positions are required")
	}
	for _, p := range positions {
		if p.ButtonID == 0 {
			return validationf("every position needs a button id")
		}
	}

	err := o.repos.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		links := o.repos.Links(tx)
		var missing []uint64
		for _, p := range positions {
			if _, err := links.GetForUpdate(ctx, userID, p.ButtonID); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					missing = append(missing, p.ButtonID)
					continue
				}
				return err
			}
		}
		if len(missing) > 0 {
			return &PartialFailureError{Missing: missing}
		}
		current, err := links.ListViews(ctx, userID, "")
		if err != nil {
			return err
		}
		for _, p := range settle(current, positions) {
			if err := links.SetTri(ctx, userID, p.ButtonID, p.Tri); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		o.log.Debug(ctx, "reposition rejected", "user_id", userID, "err", err)
		return classify(err, "ordering entry")
	}
	return nil
}

// settle returns the writes of a reposition: the requested positions
// (the last one wins for a repeated button) followed by the entries not
// in the batch whose tri collides with a moved entry, or with an entry
// pushed before them. current is the board in display order.
func settle(current []model.ButtonView, positions []model.Position) []model.Position {
	moved := make(map[uint64]int, len(positions))
	taken := make(map[int]bool, len(positions))
	for _, p := range positions {
		moved[p.ButtonID] = p.Tri
	}
	writes := make([]model.Position, 0, len(positions))
	for _, p := range positions {
		if moved[p.ButtonID] == p.Tri && !containsButton(writes, p.ButtonID) {
			writes = append(writes, model.Position{ButtonID: p.ButtonID, Tri: p.Tri})
			taken[p.Tri] = true
		}
	}

	last, pushed := 0, false
	for _, v := range current {
		if _, ok := moved[v.ID]; ok {
			continue
		}
		tri := v.Tri
		if pushed && tri <= last {
			tri = last + 1
		}
		for taken[tri] {
			tri++
		}
		pushed = tri != v.Tri
		if pushed {
			writes = append(writes, model.Position{ButtonID: v.ID, Tri: tri})
		}
		last = tri
	}
	return writes
}

func containsButton(ps []model.Position, buttonID uint64) bool {
	for _, p := range ps {
		if p.ButtonID == buttonID {
			return true
		}
	}
	return false
}

// Remove deletes the user's ordering entry for the button and reports
// whether one existed. The button itself is left alone.
func (o *Ordering) Remove(ctx context.Context, userID, buttonID uint64) (bool, error) {
	removed, err := o.repos.Links(o.repos.Conn()).Delete(ctx, userID, buttonID)
	if err != nil {
		return false, classify(err, "ordering entry")
	}
	return removed, nil
}

// List returns the user's buttons by tri. A non-empty category keeps the
// buttons whose category name contains it, ignoring case.
func (o *Ordering) List(ctx context.Context, userID uint64, category string) ([]model.ButtonView, error) {
	views, err := o.repos.Links(o.repos.Conn()).ListViews(ctx, userID, category)
	if err != nil {
		return nil, classify(err, "buttons")
	}
	return views, nil
}
