package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/croabboard/internal/dbx"
	"github.com/iliyamo/croabboard/internal/model"
)

// StatsRepo persists play counters in `button_stats`.
type StatsRepo struct{ DB dbx.DBTX }

func NewStatsRepo(db dbx.DBTX) *StatsRepo { return &StatsRepo{DB: db} }

// RecordPlay bumps the counter of a button, creating the row on first play.
func (r *StatsRepo) RecordPlay(ctx context.Context, buttonID uint64, at time.Time) error {
	const q = `
INSERT INTO button_stats (uploaded_id, play_count, last_played) VALUES (?, 1, ?)
ON DUPLICATE KEY UPDATE play_count = play_count + 1, last_played = VALUES(last_played)`
	_, err := r.DB.ExecContext(ctx, q, buttonID, at)
	return mapErr(err)
}

// MostPlayed lists the user's buttons by play count, most played first.
func (r *StatsRepo) MostPlayed(ctx context.Context, userID uint64, limit int) ([]model.ButtonStat, error) {
	const q = `
SELECT u.id, u.button_name, s.play_count, s.last_played
FROM button_stats s
JOIN uploaded u ON u.id = s.uploaded_id
JOIN linked l ON l.uploaded_id = u.id AND l.user_id = ?
ORDER BY s.play_count DESC, s.last_played DESC
LIMIT ?`
	rows, err := r.DB.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.ButtonStat, 0)
	for rows.Next() {
		var (
			st   model.ButtonStat
			last sql.NullTime
		)
		if err := rows.Scan(&st.ButtonID, &st.Name, &st.PlayCount, &last); err != nil {
			return nil, err
		}
		if last.Valid {
			t := last.Time
			st.LastPlayed = &t
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (r *StatsRepo) DeleteByButton(ctx context.Context, buttonID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM button_stats WHERE uploaded_id=?", buttonID)
	return mapErr(err)
}
