package model

import "time"

// User represents a row of the `users` table.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name (case-sensitive).
//  PasswordHash – bcrypt hash of the password.
//  BtnSize      – preferred button display size in pixels.
//  IsAdmin      – grants access to the /admin routes.
//  CreatedAt    – timestamp of registration.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	PasswordHash string    // users.password
	BtnSize      int       // users.btn_size
	IsAdmin      bool      // users.is_admin
	CreatedAt    time.Time // users.created_at
}

// UserSummary is a User together with the number of buttons linked to
// them. Used by the admin listing.
type UserSummary struct {
	User
	Buttons int
}

// Session models an entry in the `sessions` table. The session id is
// carried in the signed session token (claim "sid") so a token can be
// revoked server side on logout.
//
// Fields:
//  ID        – random identifier (uuid string).
//  UserID    – owner of the session.
//  ExpiresAt – expiration timestamp.
//  RevokedAt – when the session was closed (nil while active).
//  CreatedAt – timestamp of creation.
type Session struct {
	ID        string     // sessions.id
	UserID    uint64     // sessions.user_id
	ExpiresAt time.Time  // sessions.expires_at
	RevokedAt *time.Time // sessions.revoked_at (nullable)
	CreatedAt time.Time  // sessions.created_at
}

// Active reports whether the session is usable at instant now.
func (s Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
