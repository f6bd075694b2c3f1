package memory

import (
	"context"
	"time"

	"github.com/iliyamo/croabboard/internal/model"
	"github.com/iliyamo/croabboard/internal/repository"
)

type assetRepo struct{ m conn }

func (r *assetRepo) Create(_ context.Context, a model.Asset) (uint64, error) {
	var id uint64
	err := r.m.view(func(s *state) error {
		id = s.nextID()
		a.ID = id
		a.CreatedAt = time.Now().UTC()
		s.assets[id] = a
		return nil
	})
	return id, err
}

func (r *assetRepo) Get(_ context.Context, id uint64) (model.Asset, error) {
	var a model.Asset
	err := r.m.view(func(s *state) error {
		var ok bool
		if a, ok = s.assets[id]; !ok {
			return repository.ErrNotFound
		}
		return nil
	})
	return a, err
}

func (r *assetRepo) UpdateRef(_ context.Context, id uint64, ref, name string) error {
	return r.m.view(func(s *state) error {
		a, ok := s.assets[id]
		if !ok {
			return repository.ErrNotFound
		}
		a.Ref, a.Name = ref, name
		s.assets[id] = a
		return nil
	})
}

func (r *assetRepo) Delete(_ context.Context, id uint64) error {
	return r.m.view(func(s *state) error {
		if _, ok := s.assets[id]; !ok {
			return repository.ErrNotFound
		}
		for _, b := range s.buttons {
			if b.ImageID == id || (b.SoundID != nil && *b.SoundID == id) {
				return repository.ErrConflict
			}
		}
		delete(s.assets, id)
		return nil
	})
}

type buttonRepo struct{ m conn }

func (r *buttonRepo) Create(_ context.Context, b model.Button) (uint64, error) {
	var id uint64
	err := r.m.view(func(s *state) error {
		if _, ok := s.assets[b.ImageID]; !ok {
			return repository.ErrNotFound
		}
		if b.SoundID != nil {
			if _, ok := s.assets[*b.SoundID]; !ok {
				return repository.ErrNotFound
			}
		}
		if _, ok := s.users[b.UploadedBy]; !ok {
			return repository.ErrNotFound
		}
		if b.CategoryID != nil {
			if _, ok := s.categories[*b.CategoryID]; !ok {
				return repository.ErrNotFound
			}
		}
		for _, existing := range s.buttons {
			if existing.ImageID == b.ImageID {
				return repository.ErrConflict
			}
		}
		id = s.nextID()
		b.ID = id
		b.CreatedAt = time.Now().UTC()
		s.buttons[id] = b
		return nil
	})
	return id, err
}

func (r *buttonRepo) find(match func(b model.Button) bool) (model.Button, error) {
	var found model.Button
	err := r.m.view(func(s *state) error {
		var best uint64
		for id, b := range s.buttons {
			if match(b) && (best == 0 || id < best) {
				best, found = id, b
			}
		}
		if best == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
	return found, err
}

func (r *buttonRepo) Get(_ context.Context, id uint64) (model.Button, error) {
	return r.find(func(b model.Button) bool { return b.ID == id })
}

func (r *buttonRepo) GetByImageID(_ context.Context, imageID uint64) (model.Button, error) {
	return r.find(func(b model.Button) bool { return b.ImageID == imageID })
}

func (r *buttonRepo) GetByAssetID(_ context.Context, assetID uint64) (model.Button, error) {
	return r.find(func(b model.Button) bool {
		return b.ImageID == assetID || (b.SoundID != nil && *b.SoundID == assetID)
	})
}

func (r *buttonRepo) update(id uint64, f func(b *model.Button) error) error {
	return r.m.view(func(s *state) error {
		b, ok := s.buttons[id]
		if !ok {
			return repository.ErrNotFound
		}
		if err := f(&b); err != nil {
			return err
		}
		s.buttons[id] = b
		return nil
	})
}

func (r *buttonRepo) Rename(_ context.Context, id uint64, name string) error {
	return r.update(id, func(b *model.Button) error {
		b.Name = name
		return nil
	})
}

func (r *buttonRepo) SetCategory(_ context.Context, id uint64, categoryID *uint64) error {
	var ok = true
	if categoryID != nil {
		_ = r.m.view(func(s *state) error {
			_, ok = s.categories[*categoryID]
			return nil
		})
	}
	if !ok {
		return repository.ErrNotFound
	}
	return r.update(id, func(b *model.Button) error {
		if categoryID == nil {
			b.CategoryID = nil
			return nil
		}
		v := *categoryID
		b.CategoryID = &v
		return nil
	})
}

func (r *buttonRepo) Delete(_ context.Context, id uint64) error {
	return r.m.view(func(s *state) error {
		if _, ok := s.buttons[id]; !ok {
			return repository.ErrNotFound
		}
		for _, l := range s.links {
			if l.ButtonID == id {
				return repository.ErrConflict
			}
		}
		if _, ok := s.stats[id]; ok {
			return repository.ErrConflict
		}
		delete(s.buttons, id)
		return nil
	})
}

func (r *buttonRepo) CountByCategory(_ context.Context, categoryID uint64) (int, error) {
	var n int
	err := r.m.view(func(s *state) error {
		for _, b := range s.buttons {
			if b.CategoryID != nil && *b.CategoryID == categoryID {
				n++
			}
		}
		return nil
	})
	return n, err
}
