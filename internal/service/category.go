package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/iliyamo/croabboard/internal/dbx"
	"github.com/iliyamo/croabboard/internal/logging"
	"github.com/iliyamo/croabboard/internal/model"
	"github.com/iliyamo/croabboard/internal/repository"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Categories manages categories and their assignment to buttons. Names
// are matched exactly (case-sensitive) except by Search.
type Categories struct {
	repos repository.Manager
	log   logging.Logger
}

func NewCategories(repos repository.Manager, log logging.Logger) *Categories {
	return &Categories{repos: repos, log: log}
}

// FindOrCreate returns the category with that exact name, creating it
// (without a color) when absent.
func (c *Categories) FindOrCreate(ctx context.Context, name string) (model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Category{}, validationf("category name is required")
	}
	var cat model.Category
	err := c.repos.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		cat, err = c.findOrCreate(ctx, tx, name)
		return err
	})
	return cat, classify(err, "category")
}

func (c *Categories) findOrCreate(ctx context.Context, db dbx.DBTX, name string) (model.Category, error) {
	repo := c.repos.Categories(db)
	cat, err := repo.GetByName(ctx, name)
	if err == nil || !errors.Is(err, repository.ErrNotFound) {
		return cat, err
	}
	id, err := repo.Create(ctx, model.Category{Name: name})
	if err != nil {
		return model.Category{}, err
	}
	return model.Category{ID: id, Name: name}, nil
}

// Assign tags a button the user can see with the named category,
// creating the category if needed. An empty name detaches the button.
func (c *Categories) Assign(ctx context.Context, userID, buttonID uint64, name string) (model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Category{}, c.Detach(ctx, userID, buttonID)
	}
	if buttonID == 0 {
		return model.Category{}, validationf("button id is required")
	}
	var cat model.Category
	err := c.repos.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := visibleButton(ctx, c.repos, tx, userID, buttonID); err != nil {
			return err
		}
		var err error
		if cat, err = c.findOrCreate(ctx, tx, name); err != nil {
			return err
		}
		return c.repos.Buttons(tx).SetCategory(ctx, buttonID, &cat.ID)
	})
	if err != nil {
		return model.Category{}, classify(err, "button")
	}
	return cat, nil
}

// Detach clears the button's category.
func (c *Categories) Detach(ctx context.Context, userID, buttonID uint64) error {
	if buttonID == 0 {
		return validationf("button id is required")
	}
	err := c.repos.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := visibleButton(ctx, c.repos, tx, userID, buttonID); err != nil {
			return err
		}
		return c.repos.Buttons(tx).SetCategory(ctx, buttonID, nil)
	})
	return classify(err, "button")
}

// Search lists the user's buttons whose category name contains substr,
// ignoring case, ordered by tri. No match is an empty slice, not an
// error.
func (c *Categories) Search(ctx context.Context, userID uint64, substr string) ([]model.ButtonView, error) {
	substr = strings.TrimSpace(substr)
	if substr == "" {
		return nil, validationf("category is required")
	}
	views, err := c.repos.Links(c.repos.Conn()).ListViews(ctx, userID, substr)
	if err != nil {
		return nil, classify(err, "buttons")
	}
	return views, nil
}

// List returns every category with the number of buttons using it.
func (c *Categories) List(ctx context.Context) ([]model.CategoryUsage, error) {
	out, err := c.repos.Categories(c.repos.Conn()).ListUsage(ctx)
	if err != nil {
		return nil, classify(err, "categories")
	}
	return out, nil
}

func validCategory(name, color string) (string, string, error) {
	name, color = strings.TrimSpace(name), strings.TrimSpace(color)
	if name == "" {
		return "", "", validationf("category name is required")
	}
	if color != "" && !colorPattern.MatchString(color) {
		return "", "", validationf("color must look like #RRGGBB")
	}
	return name, color, nil
}

// Create adds a category; a taken name is a conflict.
func (c *Categories) Create(ctx context.Context, name, color string) (model.Category, error) {
	name, color, err := validCategory(name, color)
	if err != nil {
		return model.Category{}, err
	}
	id, err := c.repos.Categories(c.repos.Conn()).Create(ctx, model.Category{Name: name, Color: color})
	if errors.Is(err, repository.ErrConflict) {
		return model.Category{}, conflictf("category %q already exists", name)
	}
	if err != nil {
		return model.Category{}, classify(err, "category")
	}
	return model.Category{ID: id, Name: name, Color: color}, nil
}

// Update renames and recolours a category.
func (c *Categories) Update(ctx context.Context, id uint64, name, color string) (model.Category, error) {
	name, color, err := validCategory(name, color)
	if err != nil {
		return model.Category{}, err
	}
	cat := model.Category{ID: id, Name: name, Color: color}
	err = c.repos.Categories(c.repos.Conn()).Update(ctx, cat)
	if errors.Is(err, repository.ErrConflict) {
		return model.Category{}, conflictf("category %q already exists", name)
	}
	if err != nil {
		return model.Category{}, classify(err, "category")
	}
	return cat, nil
}

// Delete removes a category. It fails with a conflict while any button
// still references it.
func (c *Categories) Delete(ctx context.Context, id uint64) error {
	err := c.repos.Categories(c.repos.Conn()).Delete(ctx, id)
	if errors.Is(err, repository.ErrConflict) {
		return conflictf("category %d is still used by buttons", id)
	}
	if err == nil {
		c.log.Info(ctx, "category deleted", "category_id", id)
	}
	return classify(err, "category")
}
