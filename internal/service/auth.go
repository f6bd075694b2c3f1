package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/croabboard/internal/dbx"
	"github.com/iliyamo/croabboard/internal/logging"
	"github.com/iliyamo/croabboard/internal/model"
	"github.com/iliyamo/croabboard/internal/queue"
	"github.com/iliyamo/croabboard/internal/repository"
	"github.com/iliyamo/croabboard/internal/utils"
)

// Button sizes accepted by SetButtonSize, in pixels.
const (
	MinButtonSize = 50
	MaxButtonSize = 1000
)

// AuthConfig holds the settings of Auth.
type AuthConfig struct {
	Secret         string
	SessionTTL     time.Duration
	BcryptCost     int
	DefaultBtnSize int
}

// Auth registers users and manages login sessions. A session is a row
// in the sessions table; the signed token handed to the client names it.
type Auth struct {
	repos  repository.Manager
	cfg    AuthConfig
	events emitter
	log    logging.Logger
	now    func() time.Time
}

func NewAuth(repos repository.Manager, cfg AuthConfig, events EventPublisher, log logging.Logger) *Auth {
	if cfg.DefaultBtnSize == 0 {
		cfg.DefaultBtnSize = 150
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	return &Auth{repos: repos, cfg: cfg, events: newEmitter(events, log), log: log, now: time.Now}
}

// Register creates a user. Usernames are unique and case-sensitive.
func (a *Auth) Register(ctx context.Context, username, password string) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.User{}, validationf("username is required")
	}
	if password == "" {
		return model.User{}, validationf("password is required")
	}
	hash, err := utils.HashPassword(password, a.cfg.BcryptCost)
	if err != nil {
		return model.User{}, internal("hash password", err)
	}
	u := model.User{Username: username, PasswordHash: hash, BtnSize: a.cfg.DefaultBtnSize}
	u.ID, err = a.repos.Users(a.repos.Conn()).Create(ctx, u)
	if errors.Is(err, repository.ErrConflict) {
		return model.User{}, conflictf("username %q is already taken", username)
	}
	if err != nil {
		return model.User{}, classify(err, "user")
	}

	a.log.Info(ctx, "user registered", "user_id", u.ID)
	a.events.emit(ctx, queue.Event{Type: queue.EventUserRegistered, UserID: u.ID, Username: username})
	return u, nil
}

// Login checks the credentials and opens a session. Missing credentials,
// unknown users and wrong passwords are all ErrUnauthorized.
func (a *Auth) Login(ctx context.Context, username, password string) (model.User, utils.SessionToken, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return model.User{}, utils.SessionToken{}, ErrUnauthorized
	}
	u, err := a.repos.Users(a.repos.Conn()).GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, utils.SessionToken{}, ErrUnauthorized
	}
	if err != nil {
		return model.User{}, utils.SessionToken{}, classify(err, "user")
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, utils.SessionToken{}, ErrUnauthorized
	}

	sid := uuid.NewString()
	tok, err := utils.NewSessionToken(a.cfg.Secret, u.ID, sid, a.cfg.SessionTTL)
	if err != nil {
		return model.User{}, utils.SessionToken{}, internal("sign session", err)
	}
	sess := model.Session{ID: sid, UserID: u.ID, ExpiresAt: tok.Exp}
	if err := a.repos.Sessions(a.repos.Conn()).Create(ctx, sess); err != nil {
		return model.User{}, utils.SessionToken{}, classify(err, "session")
	}

	a.log.Info(ctx, "user logged in", "user_id", u.ID)
	a.events.emit(ctx, queue.Event{Type: queue.EventUserLogin, UserID: u.ID, Username: u.Username})
	return u, tok, nil
}

// Authenticate resolves a session token to its user and session id. The
// token must verify and its session row must still be active.
func (a *Auth) Authenticate(ctx context.Context, raw string) (model.User, string, error) {
	userID, sid, err := utils.ParseSessionToken(a.cfg.Secret, raw)
	if err != nil {
		return model.User{}, "", ErrUnauthorized
	}
	sess, err := a.repos.Sessions(a.repos.Conn()).Get(ctx, sid)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, "", ErrUnauthorized
	}
	if err != nil {
		return model.User{}, "", classify(err, "session")
	}
	if sess.UserID != userID || !sess.Active(a.now()) {
		return model.User{}, "", ErrUnauthorized
	}
	u, err := a.repos.Users(a.repos.Conn()).GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, "", ErrUnauthorized
	}
	if err != nil {
		return model.User{}, "", classify(err, "user")
	}
	return u, sid, nil
}

// Logout revokes the session.
func (a *Auth) Logout(ctx context.Context, sessionID string) error {
	return classify(a.repos.Sessions(a.repos.Conn()).Revoke(ctx, sessionID), "session")
}

// ResetPassword replaces the user's password. Every other session of the
// user is closed; keepSession stays open.
func (a *Auth) ResetPassword(ctx context.Context, userID uint64, keepSession, password, confirm string) error {
	if password == "" || confirm == "" {
		return validationf("passwords are required")
	}
	if password != confirm {
		return validationf("passwords do not match")
	}
	hash, err := utils.HashPassword(password, a.cfg.BcryptCost)
	if err != nil {
		return internal("hash password", err)
	}
	err = a.repos.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := a.repos.Users(tx).UpdatePassword(ctx, userID, hash); err != nil {
			return classify(err, "user")
		}
		if err := a.repos.Sessions(tx).RevokeAllForUser(ctx, userID, keepSession); err != nil {
			return classify(err, "session")
		}
		return nil
	})
	if err != nil {
		return err
	}
	a.log.Info(ctx, "password reset", "user_id", userID)
	return nil
}

// SetButtonSize stores the user's preferred button size.
func (a *Auth) SetButtonSize(ctx context.Context, userID uint64, size int) error {
	if size < MinButtonSize || size > MaxButtonSize {
		return validationf("button size must be between %d and %d", MinButtonSize, MaxButtonSize)
	}
	return classify(a.repos.Users(a.repos.Conn()).UpdateButtonSize(ctx, userID, size), "user")
}

// Me returns the user.
func (a *Auth) Me(ctx context.Context, userID uint64) (model.User, error) {
	u, err := a.repos.Users(a.repos.Conn()).GetByID(ctx, userID)
	if err != nil {
		return model.User{}, classify(err, "user")
	}
	return u, nil
}
