package utils // package utils provides helpers for password hashing and session tokens

import (
    "errors"  // sentinel errors for token validation
    "strconv" // user ids travel as decimal strings in the sub claim
    "time"    // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// ErrInvalidToken is returned for tokens that are malformed, expired,
// signed with another key or algorithm, or missing required claims.
var ErrInvalidToken = errors.New("invalid session token")

// SessionToken represents a signed JWT identifying one login session.
// Token is the serialized JWT handed to the client (cookie or body) and
// Exp is the UTC expiration instant.
type SessionToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// SessionClaims are the claims carried by a session token: the user id
// in the standard subject claim and the server-side session id in "sid".
type SessionClaims struct {
    SessionID string `json:"sid"`
    jwt.RegisteredClaims
}

// NewSessionToken builds and signs an HS256 JWT for a session.  The
// session row is the source of truth; the token only proves which row
// the client owns, so logout can revoke it before exp.
func NewSessionToken(secret string, userID uint64, sessionID string, ttl time.Duration) (SessionToken, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := SessionClaims{
        SessionID: sessionID,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   strconv.FormatUint(userID, 10),
            ExpiresAt: jwt.NewNumericDate(exp),
            IssuedAt:  jwt.NewNumericDate(now),
        },
    }
    // Sign with HS256 and the shared secret.
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return SessionToken{}, err
    }
    return SessionToken{Token: signed, Exp: exp}, nil
}

// ParseSessionToken verifies the signature and expiry of raw and returns
// the user id and session id it carries.
func ParseSessionToken(secret, raw string) (userID uint64, sessionID string, err error) {
    var claims SessionClaims
    tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
        // Reject tokens signed with anything other than HMAC.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return []byte(secret), nil
    }, jwt.WithExpirationRequired())
    if err != nil || !tok.Valid {
        return 0, "", ErrInvalidToken
    }
    userID, err = strconv.ParseUint(claims.Subject, 10, 64)
    if err != nil || userID == 0 || claims.SessionID == "" {
        return 0, "", ErrInvalidToken
    }
    return userID, claims.SessionID, nil
}
