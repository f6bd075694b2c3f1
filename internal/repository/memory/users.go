package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/croabboard/internal/model"
	"github.com/iliyamo/croabboard/internal/repository"
)

type userRepo struct{ m conn }

func (r *userRepo) Create(_ context.Context, u model.User) (uint64, error) {
	var id uint64
	err := r.m.view(func(s *state) error {
		for _, existing := range s.users {
			if existing.Username == u.Username {
				return repository.ErrConflict
			}
		}
		id = s.nextID()
		u.ID = id
		u.CreatedAt = time.Now().UTC()
		s.users[id] = u
		return nil
	})
	return id, err
}

func (r *userRepo) GetByID(_ context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.m.view(func(s *state) error {
		var ok bool
		if u, ok = s.users[id]; !ok {
			return repository.ErrNotFound
		}
		return nil
	})
	return u, err
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (model.User, error) {
	var u model.User
	err := r.m.view(func(s *state) error {
		for _, existing := range s.users {
			if existing.Username == username {
				u = existing
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return u, err
}

func (r *userRepo) update(id uint64, f func(u *model.User)) error {
	return r.m.view(func(s *state) error {
		u, ok := s.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		f(&u)
		s.users[id] = u
		return nil
	})
}

func (r *userRepo) UpdatePassword(_ context.Context, id uint64, hash string) error {
	return r.update(id, func(u *model.User) { u.PasswordHash = hash })
}

func (r *userRepo) UpdateButtonSize(_ context.Context, id uint64, size int) error {
	return r.update(id, func(u *model.User) { u.BtnSize = size })
}

func (r *userRepo) ListSummaries(context.Context) ([]model.UserSummary, error) {
	var out []model.UserSummary
	err := r.m.view(func(s *state) error {
		counts := map[uint64]int{}
		for _, l := range s.links {
			counts[l.UserID]++
		}
		for _, u := range s.users {
			out = append(out, model.UserSummary{User: u, Buttons: counts[u.ID]})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

type sessionRepo struct{ m conn }

func (r *sessionRepo) Create(_ context.Context, sess model.Session) error {
	return r.m.view(func(s *state) error {
		if _, ok := s.sessions[sess.ID]; ok {
			return repository.ErrConflict
		}
		if _, ok := s.users[sess.UserID]; !ok {
			return repository.ErrNotFound
		}
		sess.CreatedAt = time.Now().UTC()
		s.sessions[sess.ID] = sess
		return nil
	})
}

func (r *sessionRepo) Get(_ context.Context, id string) (model.Session, error) {
	var sess model.Session
	err := r.m.view(func(s *state) error {
		var ok bool
		if sess, ok = s.sessions[id]; !ok {
			return repository.ErrNotFound
		}
		return nil
	})
	return sess, err
}

func (r *sessionRepo) Revoke(_ context.Context, id string) error {
	return r.m.view(func(s *state) error {
		if sess, ok := s.sessions[id]; ok && sess.RevokedAt == nil {
			now := time.Now().UTC()
			sess.RevokedAt = &now
			s.sessions[id] = sess
		}
		return nil
	})
}

func (r *sessionRepo) RevokeAllForUser(_ context.Context, userID uint64, except string) error {
	return r.m.view(func(s *state) error {
		now := time.Now().UTC()
		for id, sess := range s.sessions {
			if sess.UserID == userID && id != except && sess.RevokedAt == nil {
				sess.RevokedAt = &now
				s.sessions[id] = sess
			}
		}
		return nil
	})
}
