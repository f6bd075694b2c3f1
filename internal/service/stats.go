package service

import (
	"context"
	"time"

	"github.com/iliyamo/croabboard/internal/logging"
	"github.com/iliyamo/croabboard/internal/model"
	"github.com/iliyamo/croabboard/internal/repository"
)

// Limits of MostPlayed.
const (
	DefaultMostPlayed = 20
	MaxMostPlayed     = 1000
)

// Stats counts button plays.
type Stats struct {
	repos repository.Manager
	log   logging.Logger
	now   func() time.Time
}

func NewStats(repos repository.Manager, log logging.Logger) *Stats {
	return &Stats{repos: repos, log: log, now: time.Now}
}

// RecordPlay bumps the play count of a button the user can see.
func (s *Stats) RecordPlay(ctx context.Context, userID, buttonID uint64) error {
	conn := s.repos.Conn()
	if _, err := visibleButton(ctx, s.repos, conn, userID, buttonID); err != nil {
		return classify(err, "button")
	}
	return classify(s.repos.Stats(conn).RecordPlay(ctx, buttonID, s.now().UTC()), "button")
}

// MostPlayed lists the most played buttons of the user's board. limit 0
// means DefaultMostPlayed.
func (s *Stats) MostPlayed(ctx context.Context, userID uint64, limit int) ([]model.ButtonStat, error) {
	if limit == 0 {
		limit = DefaultMostPlayed
	}
	if limit < 1 || limit > MaxMostPlayed {
		return nil, validationf("limit must be between 1 and %d", MaxMostPlayed)
	}
	out, err := s.repos.Stats(s.repos.Conn()).MostPlayed(ctx, userID, limit)
	if err != nil {
		return nil, classify(err, "stats")
	}
	return out, nil
}
