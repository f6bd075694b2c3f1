package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/croabboard/internal/dbx"
	"github.com/iliyamo/croabboard/internal/logging"
	"github.com/iliyamo/croabboard/internal/model"
	"github.com/iliyamo/croabboard/internal/queue"
	"github.com/iliyamo/croabboard/internal/repository"
	"github.com/iliyamo/croabboard/internal/repository/memory"
	"github.com/iliyamo/croabboard/internal/storage"
)

type recorder struct {
	mu     sync.Mutex
	events []queue.Event
}

func (r *recorder) Publish(_ context.Context, ev queue.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

type fixture struct {
	repos      *memory.Manager
	store      *storage.DiskStore
	events     *recorder
	ordering   *Ordering
	categories *Categories
	lifecycle  *Lifecycle
	auth       *Auth
	stats      *Stats
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := memory.NewManager()
	store, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	log := logging.Nop()
	rec := &recorder{}
	ord := NewOrdering(repos, log)
	cats := NewCategories(repos, log)
	return &fixture{
		repos:      repos,
		store:      store,
		events:     rec,
		ordering:   ord,
		categories: cats,
		lifecycle:  NewLifecycle(repos, store, ord, cats, rec, log),
		auth:       NewAuth(repos, AuthConfig{Secret: "test-secret", BcryptCost: 4}, rec, log),
		stats:      NewStats(repos, log),
	}
}

func (f *fixture) user(t *testing.T, name string) uint64 {
	t.Helper()
	u, err := f.auth.Register(context.Background(), name, "pw1")
	require.NoError(t, err)
	return u.ID
}

func (f *fixture) button(t *testing.T, userID uint64, name, category string) model.ButtonView {
	t.Helper()
	v, err := f.lifecycle.Create(context.Background(), userID, CreateButtonInput{
		Name:     name,
		Category: category,
		Image:    &Upload{Filename: "pic.png", Content: []byte("png:" + name)},
		Sound:    &Upload{Filename: "clip.mp3", Content: []byte("mp3:" + name)},
	})
	require.NoError(t, err)
	return v
}

func (f *fixture) board(t *testing.T, userID uint64) map[string]int {
	t.Helper()
	views, err := f.ordering.List(context.Background(), userID, "")
	require.NoError(t, err)
	out := map[string]int{}
	for _, v := range views {
		out[v.Name] = v.Tri
	}
	return out
}

func TestAppend_StartsAtOneAndGrows(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")

	foo := f.button(t, alice, "foo", "")
	bar := f.button(t, alice, "bar", "")
	assert.Equal(t, 1, foo.Tri)
	assert.Equal(t, 2, bar.Tri)

	// Sharing: bob appends alice's button to his own empty board.
	bob := f.user(t, "bob")
	tri, err := f.ordering.Append(context.Background(), bob, foo.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, tri)

	_, err = f.ordering.Append(context.Background(), bob, foo.ID)
	require.ErrorIs(t, err, ErrConflict)
	_, err = f.ordering.Append(context.Background(), bob, 9999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	ctx := context.Background()

	_, err := f.lifecycle.Create(ctx, alice, CreateButtonInput{Image: &Upload{Filename: "a.png", Content: []byte("x")}})
	require.ErrorIs(t, err, ErrValidation)
	_, err = f.lifecycle.Create(ctx, alice, CreateButtonInput{Name: "foo"})
	require.ErrorIs(t, err, ErrValidation)

	v, err := f.lifecycle.Create(ctx, alice, CreateButtonInput{Name: "mute", Image: &Upload{Filename: "a.png", Content: []byte("x")}})
	require.NoError(t, err)
	assert.Nil(t, v.SoundID)
	assert.Empty(t, v.SoundRef)
}

func TestCreate_FailureLeavesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// No such user: the button insert fails after the assets were written.
	_, err := f.lifecycle.Create(ctx, 4242, CreateButtonInput{
		Name:  "ghost",
		Image: &Upload{Filename: "g.png", Content: []byte("png")},
		Sound: &Upload{Filename: "g.mp3", Content: []byte("mp3")},
	})
	require.ErrorIs(t, err, ErrNotFound)

	// The ids the failed sequence consumed are free again and no asset row
	// survived.
	_, err = f.repos.Assets(f.repos.Conn()).Get(ctx, 1)
	require.Error(t, err)

	views, err := f.ordering.List(ctx, 4242, "")
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestCreate_DiscardsContentOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	spy := &spyStore{inner: f.store}
	f.lifecycle.store = spy

	_, err := f.lifecycle.Create(ctx, 4242, CreateButtonInput{
		Name:  "ghost",
		Image: &Upload{Filename: "g.png", Content: []byte("png")},
	})
	require.Error(t, err)
	require.Len(t, spy.stored, 1)
	_, err = f.store.Retrieve(ctx, model.AssetImage, spy.stored[0])
	require.ErrorIs(t, err, storage.ErrNotFound)
}

type spyStore struct {
	inner  storage.Store
	stored []string
}

func (s *spyStore) Store(ctx context.Context, kind model.AssetKind, hint string, content []byte) (string, error) {
	ref, err := s.inner.Store(ctx, kind, hint, content)
	if err == nil {
		s.stored = append(s.stored, ref)
	}
	return ref, err
}

func (s *spyStore) Retrieve(ctx context.Context, kind model.AssetKind, ref string) ([]byte, error) {
	return s.inner.Retrieve(ctx, kind, ref)
}

func (s *spyStore) Remove(ctx context.Context, kind model.AssetKind, ref string) error {
	return s.inner.Remove(ctx, kind, ref)
}

func TestReposition_MovesBeforeOthers(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	f.button(t, alice, "foo", "")
	bar := f.button(t, alice, "bar", "")

	require.NoError(t, f.ordering.Reposition(context.Background(), alice, []model.Position{{ButtonID: bar.ID, Tri: 1}}))

	views, err := f.ordering.List(context.Background(), alice, "")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "bar", views[0].Name)
	assert.Equal(t, "foo", views[1].Name)
	assert.Less(t, views[0].Tri, views[1].Tri)
}

func TestReposition_CompleteMappingIsApplied(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	a := f.button(t, alice, "a", "")
	b := f.button(t, alice, "b", "")
	c := f.button(t, alice, "c", "")

	err := f.ordering.Reposition(context.Background(), alice, []model.Position{
		{ButtonID: a.ID, Tri: 30}, {ButtonID: b.ID, Tri: 10}, {ButtonID: c.ID, Tri: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 30, "b": 10, "c": 20}, f.board(t, alice))
}

func TestReposition_AllOrNothing(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	foo := f.button(t, alice, "foo", "")
	bar := f.button(t, alice, "bar", "")
	bobs := f.button(t, bob, "bobs", "")
	before := f.board(t, alice)

	err := f.ordering.Reposition(context.Background(), alice, []model.Position{
		{ButtonID: bar.ID, Tri: 1},
		{ButtonID: bobs.ID, Tri: 2},
		{ButtonID: foo.ID, Tri: 3},
	})
	require.ErrorIs(t, err, ErrPartialFailure)
	require.ErrorIs(t, err, ErrNotFound)
	var pf *PartialFailureError
	require.True(t, errors.As(err, &pf))
	assert.Equal(t, []uint64{bobs.ID}, pf.Missing)
	assert.Equal(t, before, f.board(t, alice))

	require.ErrorIs(t, f.ordering.Reposition(context.Background(), alice, nil), ErrValidation)
}

func TestSettle(t *testing.T) {
	current := []model.ButtonView{{ID: 1, Tri: 1}, {ID: 2, Tri: 2}, {ID: 3, Tri: 3}, {ID: 4, Tri: 7}}

	got := settle(current, []model.Position{{ButtonID: 3, Tri: 1}})
	assert.Equal(t, []model.Position{{ButtonID: 3, Tri: 1}, {ButtonID: 1, Tri: 2}, {ButtonID: 2, Tri: 3}}, got)

	got = settle(current, []model.Position{{ButtonID: 4, Tri: 9}})
	assert.Equal(t, []model.Position{{ButtonID: 4, Tri: 9}}, got)
}

func TestDeleteRestore_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	foo := f.button(t, alice, "foo", "memes")
	f.button(t, alice, "bar", "")

	historyID, err := f.lifecycle.DeletePermanently(ctx, alice, foo.ID)
	require.NoError(t, err)

	// Rows and content are gone.
	_, err = f.repos.Buttons(f.repos.Conn()).Get(ctx, foo.ID)
	require.Error(t, err)
	_, err = f.store.Retrieve(ctx, model.AssetImage, foo.ImageRef)
	require.ErrorIs(t, err, storage.ErrNotFound)

	hist, err := f.lifecycle.History(ctx, alice)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, model.HistoryDeleted, hist[0].Status)
	assert.Equal(t, "foo", hist[0].Name)

	restored, err := f.lifecycle.Restore(ctx, alice, historyID)
	require.NoError(t, err)
	assert.NotEqual(t, foo.ID, restored.ID)
	assert.NotEqual(t, foo.ImageID, restored.ImageID)
	assert.Equal(t, "foo", restored.Name)
	assert.Equal(t, "memes", restored.Category)
	assert.Equal(t, 3, restored.Tri)

	img, err := f.store.Retrieve(ctx, model.AssetImage, restored.ImageRef)
	require.NoError(t, err)
	assert.Equal(t, []byte("png:foo"), img)
	snd, err := f.store.Retrieve(ctx, model.AssetSound, restored.SoundRef)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3:foo"), snd)

	hist, err = f.lifecycle.History(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, model.HistoryRestored, hist[0].Status)

	_, err = f.lifecycle.Restore(ctx, alice, historyID)
	require.ErrorIs(t, err, ErrConflict)
	assert.Len(t, f.board(t, alice), 2)

	assert.Equal(t, []string{
		queue.EventUserRegistered, queue.EventButtonCreated, queue.EventButtonCreated,
		queue.EventButtonDeleted, queue.EventButtonRestored,
	}, f.events.types())
}

func TestDeletePermanently_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	foo := f.button(t, alice, "foo", "")

	_, err := f.lifecycle.DeletePermanently(ctx, alice, 9999)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = f.lifecycle.DeletePermanently(ctx, bob, foo.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = f.lifecycle.Restore(ctx, bob, 9999)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.lifecycle.DeleteByAssets(ctx, alice, foo.ImageID, *foo.SoundID+100)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = f.lifecycle.DeleteByAssets(ctx, alice, foo.ImageID, *foo.SoundID)
	require.NoError(t, err)
}

func TestRestore_OtherOwnerNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	foo := f.button(t, alice, "foo", "")
	historyID, err := f.lifecycle.DeletePermanently(ctx, alice, foo.ID)
	require.NoError(t, err)

	_, err = f.lifecycle.Restore(ctx, bob, historyID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUnlink_OrphanPolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	foo := f.button(t, alice, "foo", "")
	_, err := f.ordering.Append(ctx, bob, foo.ID)
	require.NoError(t, err)

	// Still linked by bob: only alice's entry goes.
	res, err := f.lifecycle.Unlink(ctx, alice, foo.ID)
	require.NoError(t, err)
	assert.False(t, res.Purged)
	_, err = f.repos.Buttons(f.repos.Conn()).Get(ctx, foo.ID)
	require.NoError(t, err)

	_, err = f.lifecycle.Unlink(ctx, alice, foo.ID)
	require.ErrorIs(t, err, ErrNotFound)

	// Last entry: the button is deleted into bob's history.
	res, err = f.lifecycle.Unlink(ctx, bob, foo.ID)
	require.NoError(t, err)
	assert.True(t, res.Purged)
	_, err = f.repos.Buttons(f.repos.Conn()).Get(ctx, foo.ID)
	require.Error(t, err)
	hist, err := f.lifecycle.History(ctx, bob)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, res.HistoryID, hist[0].ID)
}

func TestReplaceAssetAndRename(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	foo := f.button(t, alice, "foo", "")

	err := f.lifecycle.ReplaceAsset(ctx, alice, *foo.SoundID, model.AssetSound,
		&Upload{Filename: "new.wav", Content: []byte("wav")}, "foo2")
	require.NoError(t, err)

	views, err := f.ordering.List(ctx, alice, "")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "foo2", views[0].Name)
	assert.NotEqual(t, foo.SoundRef, views[0].SoundRef)
	got, err := f.store.Retrieve(ctx, model.AssetSound, views[0].SoundRef)
	require.NoError(t, err)
	assert.Equal(t, []byte("wav"), got)
	_, err = f.store.Retrieve(ctx, model.AssetSound, foo.SoundRef)
	require.ErrorIs(t, err, storage.ErrNotFound)

	err = f.lifecycle.ReplaceAsset(ctx, alice, 9999, model.AssetImage, &Upload{Filename: "x.png", Content: []byte("x")}, "")
	require.ErrorIs(t, err, ErrNotFound)
	err = f.lifecycle.ReplaceAsset(ctx, alice, foo.ImageID, model.AssetSound, &Upload{Filename: "x.mp3", Content: []byte("x")}, "")
	require.ErrorIs(t, err, ErrValidation)
	err = f.lifecycle.ReplaceAsset(ctx, bob, foo.ImageID, model.AssetImage, &Upload{Filename: "x.png", Content: []byte("x")}, "")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.lifecycle.Rename(ctx, alice, foo.ImageID, "renamed"))
	assert.Contains(t, f.board(t, alice), "renamed")
	require.ErrorIs(t, f.lifecycle.Rename(ctx, alice, 9999, "x"), ErrNotFound)
	require.ErrorIs(t, f.lifecycle.Rename(ctx, alice, foo.ImageID, " "), ErrValidation)
}

func TestCategories_DeleteRestrictedUntilDetached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	foo := f.button(t, alice, "foo", "")

	cat, err := f.categories.Assign(ctx, alice, foo.ID, "Memes")
	require.NoError(t, err)
	again, err := f.categories.FindOrCreate(ctx, "Memes")
	require.NoError(t, err)
	assert.Equal(t, cat.ID, again.ID)
	other, err := f.categories.FindOrCreate(ctx, "memes")
	require.NoError(t, err)
	assert.NotEqual(t, cat.ID, other.ID)

	require.ErrorIs(t, f.categories.Delete(ctx, cat.ID), ErrConflict)
	require.NoError(t, f.categories.Detach(ctx, alice, foo.ID))
	require.NoError(t, f.categories.Delete(ctx, cat.ID))
	require.ErrorIs(t, f.categories.Delete(ctx, cat.ID), ErrNotFound)
}

func TestCategories_Search(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	f.button(t, alice, "foo", "Dank Memes")
	f.button(t, alice, "bar", "music")
	f.button(t, alice, "baz", "memes")
	f.button(t, bob, "bobs", "memes")

	views, err := f.categories.Search(ctx, alice, "MEME")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "foo", views[0].Name)
	assert.Equal(t, "baz", views[1].Name)

	views, err = f.categories.Search(ctx, alice, "jazz")
	require.NoError(t, err)
	assert.Empty(t, views)

	_, err = f.categories.Search(ctx, alice, "")
	require.ErrorIs(t, err, ErrValidation)
}

func TestCategories_CreateUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.categories.Create(ctx, "memes", "#3B82F6")
	require.NoError(t, err)
	_, err = f.categories.Create(ctx, "memes", "")
	require.ErrorIs(t, err, ErrConflict)
	_, err = f.categories.Create(ctx, "music", "blue")
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.categories.Create(ctx, "music", "")
	require.NoError(t, err)
	_, err = f.categories.Update(ctx, c.ID, "music", "")
	require.ErrorIs(t, err, ErrConflict)
	u, err := f.categories.Update(ctx, c.ID, "dank", "#000000")
	require.NoError(t, err)
	assert.Equal(t, "dank", u.Name)

	list, err := f.categories.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "dank", list[0].Name)
}

func TestAuth_RegisterLoginLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "alice", "")
	require.ErrorIs(t, err, ErrValidation)
	u, err := f.auth.Register(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, 150, u.BtnSize)
	_, err = f.auth.Register(ctx, "alice", "pw2")
	require.ErrorIs(t, err, ErrConflict)
	_, err = f.auth.Register(ctx, "Alice", "pw2")
	require.NoError(t, err)

	_, _, err = f.auth.Login(ctx, "alice", "wrong")
	require.ErrorIs(t, err, ErrUnauthorized)
	_, _, err = f.auth.Login(ctx, "nobody", "pw1")
	require.ErrorIs(t, err, ErrUnauthorized)
	_, _, err = f.auth.Login(ctx, "alice", "")
	require.ErrorIs(t, err, ErrUnauthorized)
	_, _, err = f.auth.Login(ctx, "  ", "pw1")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, tok, err := f.auth.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	me, sid, err := f.auth.Authenticate(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, me.ID)

	require.NoError(t, f.auth.Logout(ctx, sid))
	_, _, err = f.auth.Authenticate(ctx, tok.Token)
	require.ErrorIs(t, err, ErrUnauthorized)
	_, _, err = f.auth.Authenticate(ctx, "garbage")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuth_ResetPasswordKeepsCurrentSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice")
	_, first, err := f.auth.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	_, second, err := f.auth.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	u, sid, err := f.auth.Authenticate(ctx, second.Token)
	require.NoError(t, err)

	require.ErrorIs(t, f.auth.ResetPassword(ctx, u.ID, sid, "a", "b"), ErrValidation)
	require.NoError(t, f.auth.ResetPassword(ctx, u.ID, sid, "pw2", "pw2"))

	_, _, err = f.auth.Authenticate(ctx, first.Token)
	require.ErrorIs(t, err, ErrUnauthorized)
	_, _, err = f.auth.Authenticate(ctx, second.Token)
	require.NoError(t, err)
	_, _, err = f.auth.Login(ctx, "alice", "pw2")
	require.NoError(t, err)

	require.ErrorIs(t, f.auth.SetButtonSize(ctx, u.ID, 5), ErrValidation)
	require.NoError(t, f.auth.SetButtonSize(ctx, u.ID, 200))
	me, err := f.auth.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 200, me.BtnSize)
}

// revokeFails makes every session revoke-all fail.
type revokeFails struct{ *memory.Manager }

func (m revokeFails) Sessions(db dbx.DBTX) repository.SessionRepository {
	return failingRevoke{m.Manager.Sessions(db)}
}

type failingRevoke struct{ repository.SessionRepository }

func (failingRevoke) RevokeAllForUser(context.Context, uint64, string) error {
	return errors.New("connection reset")
}

func TestAuth_ResetPasswordIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice")
	_, tok, err := f.auth.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	u, sid, err := f.auth.Authenticate(ctx, tok.Token)
	require.NoError(t, err)

	broken := NewAuth(revokeFails{f.repos}, AuthConfig{Secret: "test-secret", BcryptCost: 4}, f.events, logging.Nop())
	err = broken.ResetPassword(ctx, u.ID, "", "pw2", "pw2")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)

	_, _, err = f.auth.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	_, _, err = f.auth.Login(ctx, "alice", "pw2")
	require.ErrorIs(t, err, ErrUnauthorized)
	_, got, err := f.auth.Authenticate(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, sid, got)
}

func TestStats_PlaysAndMostPlayed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	foo := f.button(t, alice, "foo", "")
	bar := f.button(t, alice, "bar", "")

	require.NoError(t, f.stats.RecordPlay(ctx, alice, bar.ID))
	require.NoError(t, f.stats.RecordPlay(ctx, alice, bar.ID))
	require.NoError(t, f.stats.RecordPlay(ctx, alice, foo.ID))
	require.ErrorIs(t, f.stats.RecordPlay(ctx, bob, foo.ID), ErrNotFound)

	top, err := f.stats.MostPlayed(ctx, alice, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "bar", top[0].Name)
	assert.Equal(t, int64(2), top[0].PlayCount)

	_, err = f.stats.MostPlayed(ctx, alice, 5000)
	require.ErrorIs(t, err, ErrValidation)

	// Deleting a played button drops its counters with it.
	_, err = f.lifecycle.DeletePermanently(ctx, alice, bar.ID)
	require.NoError(t, err)
	top, err = f.stats.MostPlayed(ctx, alice, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
}

func TestAdmin_Listings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	f.button(t, alice, "foo", "")
	require.NoError(t, queue.AuditSink{Audit: f.repos.Audit(f.repos.Conn())}.Publish(ctx,
		queue.Event{Type: queue.EventUserLogin, UserID: alice, Username: "alice"}))

	admin := NewAdmin(f.repos)
	users, err := admin.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, 1, users[0].Buttons)

	logs, err := admin.AuditLogs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, queue.EventUserLogin, logs[0].Action)
}
