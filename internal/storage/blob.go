package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/croabboard/internal/dbx"
	"github.com/iliyamo/croabboard/internal/model"
)

// BlobStore keeps assets as rows of the asset_blob table. Writes go
// through the pool, outside any repository transaction.
type BlobStore struct {
	DB dbx.DBTX
}

func NewBlobStore(db dbx.DBTX) *BlobStore { return &BlobStore{DB: db} }

func (b *BlobStore) Store(ctx context.Context, kind model.AssetKind, hint string, content []byte) (string, error) {
	if _, err := folder(kind); err != nil {
		return "", err
	}
	if content == nil {
		content = []byte{}
	}
	ref := NewRef(hint)
	_, err := b.DB.ExecContext(ctx,
		"INSERT INTO asset_blob (kind, ref, content) VALUES (?,?,?)", string(kind), ref, content)
	if err != nil {
		return "", err
	}
	return ref, nil
}

func (b *BlobStore) Retrieve(ctx context.Context, kind model.AssetKind, ref string) ([]byte, error) {
	if err := ValidateRef(ref); err != nil {
		return nil, err
	}
	var content []byte
	err := b.DB.QueryRowContext(ctx,
		"SELECT content FROM asset_blob WHERE kind=? AND ref=? LIMIT 1", string(kind), ref).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return content, err
}

func (b *BlobStore) Remove(ctx context.Context, kind model.AssetKind, ref string) error {
	if err := ValidateRef(ref); err != nil {
		return err
	}
	_, err := b.DB.ExecContext(ctx, "DELETE FROM asset_blob WHERE kind=? AND ref=?", string(kind), ref)
	return err
}
