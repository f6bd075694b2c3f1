package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/croabboard/internal/dbx"
	"github.com/iliyamo/croabboard/internal/logging"
	"github.com/iliyamo/croabboard/internal/model"
	"github.com/iliyamo/croabboard/internal/queue"
	"github.com/iliyamo/croabboard/internal/repository"
	"github.com/iliyamo/croabboard/internal/storage"
)

// Upload is one uploaded file.
type Upload struct {
	Filename string
	Content  []byte
}

func (u *Upload) empty() bool { return u == nil || len(u.Content) == 0 }

// CreateButtonInput carries a new button. Sound and Category are
// optional.
type CreateButtonInput struct {
	Name     string
	Category string
	Image    *Upload
	Sound    *Upload
}

// UnlinkResult tells what Unlink did. When the removed entry was the
// last one of the button, the button was permanently deleted and
// HistoryID names its delete-history record.
type UnlinkResult struct {
	Purged    bool   `json:"purged"`
	HistoryID uint64 `json:"history_id,omitempty"`
}

// Lifecycle creates, deletes, restores and edits buttons. Asset content
// is written before any row references it and discarded only after the
// rows referencing it are gone, so a crash leaves at most orphaned
// content.
type Lifecycle struct {
	repos      repository.Manager
	store      storage.Store
	ordering   *Ordering
	categories *Categories
	events     emitter
	log        logging.Logger
	now        func() time.Time
}

func NewLifecycle(repos repository.Manager, store storage.Store, ordering *Ordering, categories *Categories,
	events EventPublisher, log logging.Logger) *Lifecycle {
	return &Lifecycle{
		repos:      repos,
		store:      store,
		ordering:   ordering,
		categories: categories,
		events:     newEmitter(events, log),
		log:        log,
		now:        time.Now,
	}
}

type storedRef struct {
	kind model.AssetKind
	ref  string
}

// discard removes stored content. Failures leave orphaned content behind
// and are only logged.
func (l *Lifecycle) discard(ctx context.Context, refs ...storedRef) {
	ctx = context.WithoutCancel(ctx)
	for _, r := range refs {
		if r.ref == "" {
			continue
		}
		if err := l.store.Remove(ctx, r.kind, r.ref); err != nil {
			l.log.Warn(ctx, "discard asset content failed", "kind", r.kind, "ref", r.ref, "err", err)
		}
	}
}

// storeAll writes the uploads in order. On failure the content already
// written is discarded.
func (l *Lifecycle) storeAll(ctx context.Context, name string, uploads map[model.AssetKind]*Upload) (map[model.AssetKind]string, error) {
	refs := make(map[model.AssetKind]string, len(uploads))
	for _, kind := range []model.AssetKind{model.AssetImage, model.AssetSound} {
		up := uploads[kind]
		if up.empty() {
			continue
		}
		ref, err := l.store.Store(ctx, kind, hintFor(name, up.Filename), up.Content)
		if err != nil {
			l.discard(ctx, refsOf(refs)...)
			return nil, internal("store "+string(kind), err)
		}
		refs[kind] = ref
	}
	return refs, nil
}

func refsOf(m map[model.AssetKind]string) []storedRef {
	out := make([]storedRef, 0, len(m))
	for kind, ref := range m {
		out = append(out, storedRef{kind: kind, ref: ref})
	}
	return out
}

// createTx inserts the asset rows, resolves the category, inserts the
// button and appends it to the user's order, after floor.
func (l *Lifecycle) createTx(ctx context.Context, tx dbx.DBTX, userID uint64, name, category string,
	assets map[model.AssetKind]model.Asset, floor int) (model.ButtonView, error) {
	view := model.ButtonView{Name: name}
	ids := map[model.AssetKind]uint64{}
	for _, kind := range []model.AssetKind{model.AssetImage, model.AssetSound} {
		a, ok := assets[kind]
		if !ok {
			continue
		}
		id, err := l.repos.Assets(tx).Create(ctx, a)
		if err != nil {
			return view, err
		}
		ids[kind] = id
	}
	btn := model.Button{ImageID: ids[model.AssetImage], UploadedBy: userID, Name: name}
	view.ImageID, view.ImageRef = btn.ImageID, assets[model.AssetImage].Ref
	if id, ok := ids[model.AssetSound]; ok {
		btn.SoundID = &id
		view.SoundID, view.SoundRef = &id, assets[model.AssetSound].Ref
	}
	if category != "" {
		cat, err := l.categories.findOrCreate(ctx, tx, category)
		if err != nil {
			return view, err
		}
		btn.CategoryID = &cat.ID
		view.Category, view.CategoryColor = cat.Name, cat.Color
	}
	id, err := l.repos.Buttons(tx).Create(ctx, btn)
	if err != nil {
		return view, err
	}
	view.ID = id
	if view.Tri, err = l.ordering.appendTx(ctx, tx, userID, id, floor); err != nil {
		return view, err
	}
	return view, nil
}

// Create stores the image (and optional sound), then creates the asset
// rows, the category if named, the button and its ordering entry in one
// transaction. Nothing persists when any step fails.
func (l *Lifecycle) Create(ctx context.Context, userID uint64, in CreateButtonInput) (model.ButtonView, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.ButtonView{}, validationf("button name is required")
	}
	if in.Image.empty() {
		return model.ButtonView{}, validationf("image is required")
	}

	refs, err := l.storeAll(ctx, name, map[model.AssetKind]*Upload{
		model.AssetImage: in.Image,
		model.AssetSound: in.Sound,
	})
	if err != nil {
		return model.ButtonView{}, err
	}
	assets := map[model.AssetKind]model.Asset{
		model.AssetImage: {Kind: model.AssetImage, Ref: refs[model.AssetImage], Name: in.Image.Filename},
	}
	if ref, ok := refs[model.AssetSound]; ok {
		assets[model.AssetSound] = model.Asset{Kind: model.AssetSound, Ref: ref, Name: in.Sound.Filename}
	}

	var view model.ButtonView
	err = l.repos.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		view, err = l.createTx(ctx, tx, userID, name, strings.TrimSpace(in.Category), assets, 0)
		return err
	})
	if err != nil {
		l.discard(ctx, refsOf(refs)...)
		return model.ButtonView{}, classify(err, "button")
	}

	l.log.Info(ctx, "button created", "button_id", view.ID, "user_id", userID, "tri", view.Tri)
	l.events.emit(ctx, queue.Event{Type: queue.EventButtonCreated, UserID: userID, ButtonID: view.ID, Name: name})
	return view, nil
}

// snapshot builds the delete-history record of b: its name, category
// name, asset refs and content, and the owner's largest tri.
func (l *Lifecycle) snapshot(ctx context.Context, db dbx.DBTX, ownerID uint64, b model.Button) (model.DeletedButton, error) {
	h := model.DeletedButton{OwnerID: ownerID, Name: b.Name, DeletedAt: l.now().UTC(), Status: model.HistoryDeleted}

	var err error
	if h.BoardMaxTri, err = l.repos.Links(db).MaxTri(ctx, ownerID); err != nil {
		return h, err
	}

	img, err := l.repos.Assets(db).Get(ctx, b.ImageID)
	if err != nil {
		return h, err
	}
	h.ImageRef, h.ImageName = img.Ref, img.Name
	if h.ImageContent, err = l.retrieve(ctx, img); err != nil {
		return h, err
	}
	if b.SoundID != nil {
		snd, err := l.repos.Assets(db).Get(ctx, *b.SoundID)
		if err != nil {
			return h, err
		}
		h.SoundRef, h.SoundName = snd.Ref, snd.Name
		if h.SoundContent, err = l.retrieve(ctx, snd); err != nil {
			return h, err
		}
	}
	if b.CategoryID != nil {
		cat, err := l.repos.Categories(db).Get(ctx, *b.CategoryID)
		if err != nil {
			return h, err
		}
		h.CategoryName = cat.Name
	}
	return h, nil
}

// retrieve reads asset content for a snapshot. Content missing from the
// store yields an empty snapshot instead of blocking the delete.
func (l *Lifecycle) retrieve(ctx context.Context, a model.Asset) ([]byte, error) {
	content, err := l.store.Retrieve(ctx, a.Kind, a.Ref)
	if errors.Is(err, storage.ErrNotFound) {
		l.log.Warn(ctx, "asset content missing at delete", "asset_id", a.ID, "ref", a.Ref)
		return nil, nil
	}
	if err != nil {
		return nil, internal("retrieve "+string(a.Kind), err)
	}
	return content, nil
}

// purgeTx records the history snapshot, then removes every row of the
// button: ordering entries, stats, the button and its assets.
func (l *Lifecycle) purgeTx(ctx context.Context, tx dbx.DBTX, b model.Button, snap model.DeletedButton) (uint64, error) {
	historyID, err := l.repos.History(tx).Create(ctx, snap)
	if err != nil {
		return 0, err
	}
	if err := l.repos.Links(tx).DeleteByButton(ctx, b.ID); err != nil {
		return 0, err
	}
	if err := l.repos.Stats(tx).DeleteByButton(ctx, b.ID); err != nil {
		return 0, err
	}
	if err := l.repos.Buttons(tx).Delete(ctx, b.ID); err != nil {
		return 0, err
	}
	if err := l.repos.Assets(tx).Delete(ctx, b.ImageID); err != nil {
		return 0, err
	}
	if b.SoundID != nil {
		if err := l.repos.Assets(tx).Delete(ctx, *b.SoundID); err != nil {
			return 0, err
		}
	}
	return historyID, nil
}

func snapshotRefs(h model.DeletedButton) []storedRef {
	return []storedRef{{model.AssetImage, h.ImageRef}, {model.AssetSound, h.SoundRef}}
}

// DeletePermanently snapshots the button into the user's delete history,
// removes all its rows and then discards its stored content. It returns
// the id of the history record. The button must be visible to the user;
// whether it is on the user's board does not matter.
func (l *Lifecycle) DeletePermanently(ctx context.Context, userID, buttonID uint64) (uint64, error) {
	if buttonID == 0 {
		return 0, validationf("button id is required")
	}
	var (
		historyID uint64
		snap      model.DeletedButton
	)
	err := l.repos.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		b, err := visibleButton(ctx, l.repos, tx, userID, buttonID)
		if err != nil {
			return err
		}
		if snap, err = l.snapshot(ctx, tx, userID, b); err != nil {
			return err
		}
		historyID, err = l.purgeTx(ctx, tx, b, snap)
		return err
	})
	if err != nil {
		return 0, classify(err, "button")
	}
	l.discard(ctx, snapshotRefs(snap)...)

	l.log.Info(ctx, "button deleted", "button_id", buttonID, "user_id", userID, "history_id", historyID)
	l.events.emit(ctx, queue.Event{Type: queue.EventButtonDeleted, UserID: userID, ButtonID: buttonID,
		HistoryID: historyID, Name: snap.Name})
	return historyID, nil
}

// DeleteByAssets permanently deletes the button addressed by its image
// asset. A non-zero soundID must match the button's sound asset.
func (l *Lifecycle) DeleteByAssets(ctx context.Context, userID, imageID, soundID uint64) (uint64, error) {
	b, err := l.repos.Buttons(l.repos.Conn()).GetByImageID(ctx, imageID)
	if err != nil {
		return 0, classify(err, "button")
	}
	if soundID != 0 && (b.SoundID == nil || *b.SoundID != soundID) {
		return 0, notFoundf("no button pairs image %d with sound %d", imageID, soundID)
	}
	return l.DeletePermanently(ctx, userID, b.ID)
}

// Unlink removes the button from the user's board. A button left with no
// ordering entry at all is permanently deleted, with its history record
// owned by this user.
func (l *Lifecycle) Unlink(ctx context.Context, userID, buttonID uint64) (UnlinkResult, error) {
	if buttonID == 0 {
		return UnlinkResult{}, validationf("button id is required")
	}
	var (
		res  UnlinkResult
		snap model.DeletedButton
	)
	err := l.repos.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		b, err := l.repos.Buttons(tx).Get(ctx, buttonID)
		if err != nil {
			return err
		}
		removed, err := l.repos.Links(tx).Delete(ctx, userID, buttonID)
		if err != nil {
			return err
		}
		if !removed {
			return notFoundf("button %d is not on the board", buttonID)
		}
		remaining, err := l.repos.Links(tx).CountByButton(ctx, buttonID)
		if err != nil || remaining > 0 {
			return err
		}
		if snap, err = l.snapshot(ctx, tx, userID, b); err != nil {
			return err
		}
		res.Purged = true
		res.HistoryID, err = l.purgeTx(ctx, tx, b, snap)
		return err
	})
	if err != nil {
		return UnlinkResult{}, classify(err, "button")
	}

	l.events.emit(ctx, queue.Event{Type: queue.EventButtonUnlinked, UserID: userID, ButtonID: buttonID})
	if res.Purged {
		l.discard(ctx, snapshotRefs(snap)...)
		l.log.Info(ctx, "button deleted", "button_id", buttonID, "user_id", userID, "history_id", res.HistoryID)
		l.events.emit(ctx, queue.Event{Type: queue.EventButtonDeleted, UserID: userID, ButtonID: buttonID,
			HistoryID: res.HistoryID, Name: snap.Name})
	}
	return res, nil
}

// Restore recreates a deleted button from its history record as a new
// button at the end of the user's order and marks the record restored.
// A record can be restored once.
func (l *Lifecycle) Restore(ctx context.Context, userID, historyID uint64) (model.ButtonView, error) {
	h, err := l.repos.History(l.repos.Conn()).Get(ctx, historyID, userID)
	if err != nil {
		return model.ButtonView{}, classify(err, "history record")
	}
	if h.Status != model.HistoryDeleted {
		return model.ButtonView{}, conflictf("history record %d is already restored", historyID)
	}
	if len(h.ImageContent) == 0 {
		return model.ButtonView{}, internal("restore", errors.New("history record holds no image content"))
	}

	uploads := map[model.AssetKind]*Upload{model.AssetImage: {Filename: h.ImageName, Content: h.ImageContent}}
	if h.HasSound() {
		uploads[model.AssetSound] = &Upload{Filename: h.SoundName, Content: h.SoundContent}
	}
	refs, err := l.storeAll(ctx, h.Name, uploads)
	if err != nil {
		return model.ButtonView{}, err
	}
	assets := make(map[model.AssetKind]model.Asset, len(refs))
	for kind, ref := range refs {
		assets[kind] = model.Asset{Kind: kind, Ref: ref, Name: uploads[kind].Filename}
	}

	var view model.ButtonView
	err = l.repos.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		cur, err := l.repos.History(tx).GetForUpdate(ctx, historyID, userID)
		if err != nil {
			return err
		}
		if cur.Status != model.HistoryDeleted {
			return conflictf("history record %d is already restored", historyID)
		}
		if view, err = l.createTx(ctx, tx, userID, h.Name, h.CategoryName, assets, cur.BoardMaxTri); err != nil {
			return err
		}
		return l.repos.History(tx).MarkRestored(ctx, historyID)
	})
	if err != nil {
		l.discard(ctx, refsOf(refs)...)
		return model.ButtonView{}, classify(err, "history record")
	}

	l.log.Info(ctx, "button restored", "button_id", view.ID, "user_id", userID, "history_id", historyID, "tri", view.Tri)
	l.events.emit(ctx, queue.Event{Type: queue.EventButtonRestored, UserID: userID, ButtonID: view.ID,
		HistoryID: historyID, Name: h.Name})
	return view, nil
}

// ReplaceAsset swaps the content of one asset of a button and, when name
// is not empty, renames the button. The new content is stored first, the
// rows are updated, and the old content is discarded last.
func (l *Lifecycle) ReplaceAsset(ctx context.Context, userID, assetID uint64, kind model.AssetKind, up *Upload, name string) error {
	if up.empty() {
		return validationf("%s file is required", kind)
	}
	name = strings.TrimSpace(name)

	conn := l.repos.Conn()
	a, err := l.repos.Assets(conn).Get(ctx, assetID)
	if err != nil {
		return classify(err, "asset")
	}
	if a.Kind != kind {
		return validationf("asset %d is not a %s", assetID, kind)
	}
	b, err := l.repos.Buttons(conn).GetByAssetID(ctx, assetID)
	if err != nil {
		return classify(err, "button")
	}
	if _, err := visibleButton(ctx, l.repos, conn, userID, b.ID); err != nil {
		return classify(err, "button")
	}

	hint := name
	if hint == "" {
		hint = b.Name
	}
	ref, err := l.store.Store(ctx, kind, hintFor(hint, up.Filename), up.Content)
	if err != nil {
		return internal("store "+string(kind), err)
	}
	err = l.repos.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := l.repos.Assets(tx).UpdateRef(ctx, assetID, ref, up.Filename); err != nil {
			return err
		}
		if name == "" {
			return nil
		}
		return l.repos.Buttons(tx).Rename(ctx, b.ID, name)
	})
	if err != nil {
		l.discard(ctx, storedRef{kind, ref})
		return classify(err, "asset")
	}
	l.discard(ctx, storedRef{kind, a.Ref})
	l.log.Info(ctx, "asset replaced", "asset_id", assetID, "button_id", b.ID, "user_id", userID)
	return nil
}

// Rename renames the button whose image asset is imageID.
func (l *Lifecycle) Rename(ctx context.Context, userID, imageID uint64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return validationf("button name is required")
	}
	err := l.repos.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		b, err := l.repos.Buttons(tx).GetByImageID(ctx, imageID)
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundf("no button uses image %d", imageID)
		}
		if err != nil {
			return err
		}
		if _, err := visibleButton(ctx, l.repos, tx, userID, b.ID); err != nil {
			return err
		}
		return l.repos.Buttons(tx).Rename(ctx, b.ID, name)
	})
	return classify(err, "button")
}

// History lists the user's delete-history records, newest first.
func (l *Lifecycle) History(ctx context.Context, userID uint64) ([]model.DeletedButton, error) {
	out, err := l.repos.History(l.repos.Conn()).ListByOwner(ctx, userID)
	if err != nil {
		return nil, classify(err, "history")
	}
	return out, nil
}
