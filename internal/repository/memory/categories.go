package memory

import (
	"context"
	"sort"

	"github.com/iliyamo/croabboard/internal/model"
	"github.com/iliyamo/croabboard/internal/repository"
)

type categoryRepo struct{ m conn }

func (r *categoryRepo) Create(_ context.Context, c model.Category) (uint64, error) {
	var id uint64
	err := r.m.view(func(s *state) error {
		for _, existing := range s.categories {
			if existing.Name == c.Name {
				return repository.ErrConflict
			}
		}
		id = s.nextID()
		c.ID = id
		s.categories[id] = c
		return nil
	})
	return id, err
}

func (r *categoryRepo) Get(_ context.Context, id uint64) (model.Category, error) {
	var c model.Category
	err := r.m.view(func(s *state) error {
		var ok bool
		if c, ok = s.categories[id]; !ok {
			return repository.ErrNotFound
		}
		return nil
	})
	return c, err
}

func (r *categoryRepo) GetByName(_ context.Context, name string) (model.Category, error) {
	var c model.Category
	err := r.m.view(func(s *state) error {
		for _, existing := range s.categories {
			if existing.Name == name {
				c = existing
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return c, err
}

func (r *categoryRepo) Update(_ context.Context, c model.Category) error {
	return r.m.view(func(s *state) error {
		if _, ok := s.categories[c.ID]; !ok {
			return repository.ErrNotFound
		}
		for id, existing := range s.categories {
			if id != c.ID && existing.Name == c.Name {
				return repository.ErrConflict
			}
		}
		s.categories[c.ID] = c
		return nil
	})
}

func (r *categoryRepo) Delete(_ context.Context, id uint64) error {
	return r.m.view(func(s *state) error {
		if _, ok := s.categories[id]; !ok {
			return repository.ErrNotFound
		}
		for _, b := range s.buttons {
			if b.CategoryID != nil && *b.CategoryID == id {
				return repository.ErrConflict
			}
		}
		delete(s.categories, id)
		return nil
	})
}

func (r *categoryRepo) ListUsage(context.Context) ([]model.CategoryUsage, error) {
	out := make([]model.CategoryUsage, 0)
	err := r.m.view(func(s *state) error {
		counts := map[uint64]int{}
		for _, b := range s.buttons {
			if b.CategoryID != nil {
				counts[*b.CategoryID]++
			}
		}
		for _, c := range s.categories {
			out = append(out, model.CategoryUsage{Category: c, Buttons: counts[c.ID]})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}
