// Package queue defines the domain events of the soundboard and moves them
// over RabbitMQ: a publisher used by the services and a consumer that
// persists every event into the audit log.
package queue

import (
    "context"
    "time"
)

// Event types. The routing key of every event is the events queue; the
// type travels in the payload.
const (
    EventUserRegistered = "user.registered"
    EventUserLogin      = "user.login"
    EventButtonCreated  = "button.created"
    EventButtonDeleted  = "button.deleted"
    EventButtonRestored = "button.restored"
    EventButtonUnlinked = "button.unlinked"
)

// Event is published after the change it describes has been committed.
// It carries enough information for the audit consumer to write a log
// row without querying the primary tables.
type Event struct {
    Type       string    `json:"type"`
    UserID     uint64    `json:"user_id"`
    Username   string    `json:"username,omitempty"`
    ButtonID   uint64    `json:"button_id,omitempty"`
    HistoryID  uint64    `json:"history_id,omitempty"`
    Name       string    `json:"name,omitempty"`
    IPAddress  string    `json:"ip_address,omitempty"`
    UserAgent  string    `json:"user_agent,omitempty"`
    OccurredAt time.Time `json:"occurred_at"`
}

// Client describes the HTTP client behind a request. Middleware stores it
// on the request context; services copy it into the events they emit.
type Client struct {
    IP        string
    UserAgent string
}

type clientKey struct{}

// WithClient returns ctx carrying c.
func WithClient(ctx context.Context, c Client) context.Context {
    return context.WithValue(ctx, clientKey{}, c)
}

// ClientFrom returns the client stored by WithClient (zero value if none).
func ClientFrom(ctx context.Context) Client {
    c, _ := ctx.Value(clientKey{}).(Client)
    return c
}
