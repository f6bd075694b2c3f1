package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/iliyamo/croabboard/internal/model"
)

// DiskStore keeps assets as files under Root/images and Root/audio.
type DiskStore struct {
	Root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	for _, kind := range []model.AssetKind{model.AssetImage, model.AssetSound} {
		dir, _ := folder(kind)
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, err
		}
	}
	return &DiskStore{Root: root}, nil
}

func (d *DiskStore) path(kind model.AssetKind, ref string) (string, error) {
	dir, err := folder(kind)
	if err != nil {
		return "", err
	}
	if err := ValidateRef(ref); err != nil {
		return "", err
	}
	return filepath.Join(d.Root, dir, ref), nil
}

func (d *DiskStore) Store(_ context.Context, kind model.AssetKind, hint string, content []byte) (string, error) {
	ref := NewRef(hint)
	path, err := d.path(kind, ref)
	if err != nil {
		return "", err
	}
	// O_EXCL: never overwrite existing content
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return ref, nil
}

func (d *DiskStore) Retrieve(_ context.Context, kind model.AssetKind, ref string) ([]byte, error) {
	path, err := d.path(kind, ref)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return b, err
}

func (d *DiskStore) Remove(_ context.Context, kind model.AssetKind, ref string) error {
	path, err := d.path(kind, ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
