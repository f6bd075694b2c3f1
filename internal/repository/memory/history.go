package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/croabboard/internal/model"
	"github.com/iliyamo/croabboard/internal/repository"
)

type historyRepo struct{ m conn }

func (r *historyRepo) Create(_ context.Context, h model.DeletedButton) (uint64, error) {
	var id uint64
	err := r.m.view(func(s *state) error {
		if _, ok := s.users[h.OwnerID]; !ok {
			return repository.ErrNotFound
		}
		id = s.nextID()
		h.ID = id
		h.Status = model.HistoryDeleted
		s.history[id] = h
		return nil
	})
	return id, err
}

func (r *historyRepo) Get(_ context.Context, id, ownerID uint64) (model.DeletedButton, error) {
	var h model.DeletedButton
	err := r.m.view(func(s *state) error {
		var ok bool
		if h, ok = s.history[id]; !ok || h.OwnerID != ownerID {
			return repository.ErrNotFound
		}
		return nil
	})
	return h, err
}

func (r *historyRepo) GetForUpdate(ctx context.Context, id, ownerID uint64) (model.DeletedButton, error) {
	return r.Get(ctx, id, ownerID)
}

func (r *historyRepo) MarkRestored(_ context.Context, id uint64) error {
	return r.m.view(func(s *state) error {
		h, ok := s.history[id]
		if !ok || h.Status != model.HistoryDeleted {
			return repository.ErrConflict
		}
		h.Status = model.HistoryRestored
		s.history[id] = h
		return nil
	})
}

func (r *historyRepo) list(keep func(h model.DeletedButton) bool) ([]model.DeletedButton, error) {
	out := make([]model.DeletedButton, 0)
	err := r.m.view(func(s *state) error {
		for _, h := range s.history {
			if !keep(h) {
				continue
			}
			h.ImageContent, h.SoundContent = nil, nil
			out = append(out, h)
		}
		sort.Slice(out, func(i, j int) bool {
			if !out[i].DeletedAt.Equal(out[j].DeletedAt) {
				return out[i].DeletedAt.After(out[j].DeletedAt)
			}
			return out[i].ID > out[j].ID
		})
		return nil
	})
	return out, err
}

func (r *historyRepo) ListByOwner(_ context.Context, ownerID uint64) ([]model.DeletedButton, error) {
	return r.list(func(h model.DeletedButton) bool { return h.OwnerID == ownerID })
}

func (r *historyRepo) ListAll(context.Context) ([]model.DeletedButton, error) {
	return r.list(func(model.DeletedButton) bool { return true })
}

type statsRepo struct{ m conn }

func (r *statsRepo) RecordPlay(_ context.Context, buttonID uint64, at time.Time) error {
	return r.m.view(func(s *state) error {
		b, ok := s.buttons[buttonID]
		if !ok {
			return repository.ErrNotFound
		}
		st := s.stats[buttonID]
		st.ButtonID, st.Name = buttonID, b.Name
		st.PlayCount++
		last := at
		st.LastPlayed = &last
		s.stats[buttonID] = st
		return nil
	})
}

func (r *statsRepo) MostPlayed(_ context.Context, userID uint64, limit int) ([]model.ButtonStat, error) {
	out := make([]model.ButtonStat, 0)
	err := r.m.view(func(s *state) error {
		for id, st := range s.stats {
			if _, linked := s.link(userID, id); !linked {
				continue
			}
			st.Name = s.buttons[id].Name
			out = append(out, st)
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].PlayCount != out[j].PlayCount {
				return out[i].PlayCount > out[j].PlayCount
			}
			return out[i].LastPlayed.After(*out[j].LastPlayed)
		})
		if len(out) > limit {
			out = out[:limit]
		}
		return nil
	})
	return out, err
}

func (r *statsRepo) DeleteByButton(_ context.Context, buttonID uint64) error {
	return r.m.view(func(s *state) error {
		delete(s.stats, buttonID)
		return nil
	})
}

type auditRepo struct{ m conn }

func (r *auditRepo) Insert(_ context.Context, e model.AuditEntry) error {
	return r.m.view(func(s *state) error {
		e.ID = s.nextID()
		s.audit = append(s.audit, e)
		return nil
	})
}

func (r *auditRepo) List(_ context.Context, limit int) ([]model.AuditEntry, error) {
	out := make([]model.AuditEntry, 0)
	err := r.m.view(func(s *state) error {
		for i := len(s.audit) - 1; i >= 0 && len(out) < limit; i-- {
			out = append(out, s.audit[i])
		}
		return nil
	})
	return out, err
}
