package service

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/iliyamo/croabboard/internal/dbx"
	"github.com/iliyamo/croabboard/internal/model"
	"github.com/iliyamo/croabboard/internal/repository"
)

// visibleButton loads a button the user may act on: one they uploaded
// or one on their board. Anything else is reported as not found.
func visibleButton(ctx context.Context, repos repository.Manager, db dbx.DBTX, userID, buttonID uint64) (model.Button, error) {
	b, err := repos.Buttons(db).Get(ctx, buttonID)
	if err != nil {
		return model.Button{}, err
	}
	if b.UploadedBy == userID {
		return b, nil
	}
	if _, err := repos.Links(db).Get(ctx, userID, buttonID); err != nil {
		return model.Button{}, err
	}
	return b, nil
}

// hintFor derives the storage hint of an upload: the button name with
// the extension of the uploaded file.
func hintFor(name, filename string) string {
	return name + strings.ToLower(filepath.Ext(filename))
}
