package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/iliyamo/croabboard/internal/model"
	"github.com/iliyamo/croabboard/internal/repository"
)

type linkRepo struct{ m conn }

func (r *linkRepo) MaxTri(_ context.Context, userID uint64) (int, error) {
	var max int
	err := r.m.view(func(s *state) error {
		for _, l := range s.links {
			if l.UserID == userID && l.Tri > max {
				max = l.Tri
			}
		}
		return nil
	})
	return max, err
}

func (r *linkRepo) Create(_ context.Context, l model.Link) (uint64, error) {
	var id uint64
	err := r.m.view(func(s *state) error {
		if _, ok := s.users[l.UserID]; !ok {
			return repository.ErrNotFound
		}
		if _, ok := s.buttons[l.ButtonID]; !ok {
			return repository.ErrNotFound
		}
		for _, existing := range s.links {
			if existing.UserID == l.UserID && existing.ButtonID == l.ButtonID {
				return repository.ErrConflict
			}
		}
		id = s.nextID()
		l.ID = id
		s.links[id] = l
		return nil
	})
	return id, err
}

func (s *state) link(userID, buttonID uint64) (model.Link, bool) {
	for _, l := range s.links {
		if l.UserID == userID && l.ButtonID == buttonID {
			return l, true
		}
	}
	return model.Link{}, false
}

func (r *linkRepo) Get(_ context.Context, userID, buttonID uint64) (model.Link, error) {
	var l model.Link
	err := r.m.view(func(s *state) error {
		var ok bool
		if l, ok = s.link(userID, buttonID); !ok {
			return repository.ErrNotFound
		}
		return nil
	})
	return l, err
}

func (r *linkRepo) GetForUpdate(ctx context.Context, userID, buttonID uint64) (model.Link, error) {
	return r.Get(ctx, userID, buttonID)
}

func (r *linkRepo) SetTri(_ context.Context, userID, buttonID uint64, tri int) error {
	return r.m.view(func(s *state) error {
		if l, ok := s.link(userID, buttonID); ok {
			l.Tri = tri
			s.links[l.ID] = l
		}
		return nil
	})
}

func (r *linkRepo) Delete(_ context.Context, userID, buttonID uint64) (bool, error) {
	var removed bool
	err := r.m.view(func(s *state) error {
		if l, ok := s.link(userID, buttonID); ok {
			delete(s.links, l.ID)
			removed = true
		}
		return nil
	})
	return removed, err
}

func (r *linkRepo) DeleteByButton(_ context.Context, buttonID uint64) error {
	return r.m.view(func(s *state) error {
		for id, l := range s.links {
			if l.ButtonID == buttonID {
				delete(s.links, id)
			}
		}
		return nil
	})
}

func (r *linkRepo) CountByButton(_ context.Context, buttonID uint64) (int, error) {
	var n int
	err := r.m.view(func(s *state) error {
		for _, l := range s.links {
			if l.ButtonID == buttonID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *linkRepo) ListViews(_ context.Context, userID uint64, category string) ([]model.ButtonView, error) {
	out := make([]model.ButtonView, 0)
	needle := strings.ToLower(category)
	err := r.m.view(func(s *state) error {
		var links []model.Link
		for _, l := range s.links {
			if l.UserID == userID {
				links = append(links, l)
			}
		}
		sort.Slice(links, func(i, j int) bool {
			if links[i].Tri != links[j].Tri {
				return links[i].Tri < links[j].Tri
			}
			return links[i].ID < links[j].ID
		})
		for _, l := range links {
			b := s.buttons[l.ButtonID]
			v := model.ButtonView{
				ID:       b.ID,
				ImageID:  b.ImageID,
				SoundID:  b.SoundID,
				ImageRef: s.assets[b.ImageID].Ref,
				Name:     b.Name,
				Tri:      l.Tri,
			}
			if b.SoundID != nil {
				v.SoundRef = s.assets[*b.SoundID].Ref
			}
			if b.CategoryID != nil {
				c := s.categories[*b.CategoryID]
				v.Category, v.CategoryColor = c.Name, c.Color
			}
			if category != "" && (b.CategoryID == nil || !strings.Contains(strings.ToLower(v.Category), needle)) {
				continue
			}
			out = append(out, v)
		}
		return nil
	})
	return out, err
}
