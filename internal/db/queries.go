package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/j-veylop/pacewatch-tui/internal/models"
)

const sqliteTimeFormat = "2006-01-02 15:04:05"
const localDayFormat = "2006-01-02"

// localDay formats a timestamp's calendar day in the bucketing location.
func (db *DB) localDay(t time.Time) string {
	return t.In(db.loc).Format(localDayFormat)
}

// dayCutoff returns the local-day string N-1 days before now, so a range of
// "last N days" includes today.
func (db *DB) dayCutoff(now time.Time, days int) string {
	return now.In(db.loc).AddDate(0, 0, -(days - 1)).Format(localDayFormat)
}

// InsertSnapshot persists one poll with its derived metrics.
func (db *DB) InsertSnapshot(row *models.SnapshotRow) error {
	query := `
		INSERT INTO poll_snapshots (
			timestamp, session_used_pct, session_remaining_min,
			weekly_used_pct, weekly_remaining_min, calibrator, session_target,
			combined_pct, budget_burn, local_day, local_hour, local_weekday
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	local := row.Timestamp.In(db.loc)
	var burn sql.NullFloat64
	if row.BudgetBurn != nil {
		burn = sql.NullFloat64{Float64: *row.BudgetBurn, Valid: true}
	}

	_, err := db.ExecContext(context.Background(), query,
		row.Timestamp.UTC().Format(sqliteTimeFormat),
		row.SessionUsedPct,
		row.SessionRemainingMin,
		row.WeeklyUsedPct,
		row.WeeklyRemainingMin,
		row.Calibrator,
		row.SessionTarget,
		row.CombinedPct,
		burn,
		local.Format(localDayFormat),
		local.Hour(),
		int(local.Weekday()),
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// InsertSessionStart records one detected session boundary.
func (db *DB) InsertSessionStart(start *models.SessionStart) error {
	query := `
		INSERT INTO session_starts (
			timestamp, weekly_used_pct_at_start, weekly_remaining_min,
			local_day, local_weekday
		) VALUES (?, ?, ?, ?, ?)
	`

	local := start.Timestamp.In(db.loc)
	_, err := db.ExecContext(context.Background(), query,
		start.Timestamp.UTC().Format(sqliteTimeFormat),
		start.WeeklyUsedPctAtStart,
		start.WeeklyRemainingMin,
		local.Format(localDayFormat),
		int(local.Weekday()),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session start: %w", err)
	}
	return nil
}

// GetTodayStats summarizes the current local calendar day.
func (db *DB) GetTodayStats(now time.Time) (*models.TodayStats, error) {
	day := db.localDay(now)
	stats := &models.TodayStats{}

	sessionQuery := `SELECT COUNT(*) FROM session_starts WHERE local_day = ?`
	if err := db.QueryRowContext(context.Background(), sessionQuery, day).Scan(&stats.SessionCount); err != nil {
		return nil, fmt.Errorf("failed to count today's sessions: %w", err)
	}

	snapQuery := `
		SELECT COALESCE(AVG(combined_pct), 0), COUNT(*)
		FROM poll_snapshots
		WHERE local_day = ?
	`
	if err := db.QueryRowContext(context.Background(), snapQuery, day).Scan(&stats.AvgCombinedPct, &stats.DataPoints); err != nil {
		return nil, fmt.Errorf("failed to scan today's snapshot stats: %w", err)
	}

	return stats, nil
}

// GetDailyMaxima returns each local day's peak combined percentage over the
// last N days, newest first.
func (db *DB) GetDailyMaxima(now time.Time, days int) ([]models.DailyMax, error) {
	query := `
		SELECT local_day, MAX(combined_pct)
		FROM poll_snapshots
		WHERE local_day >= ?
		GROUP BY local_day
		ORDER BY local_day DESC
	`

	rows, err := db.QueryContext(context.Background(), query, db.dayCutoff(now, days))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily maxima: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var maxima []models.DailyMax
	for rows.Next() {
		var m models.DailyMax
		var dayStr string
		if err := rows.Scan(&dayStr, &m.MaxCombined); err != nil {
			return nil, fmt.Errorf("failed to scan daily maximum: %w", err)
		}
		if t, err := time.ParseInLocation(localDayFormat, dayStr, db.loc); err == nil {
			m.Day = t
		}
		maxima = append(maxima, m)
	}

	return maxima, rows.Err()
}

// GetBudgetHitRate returns the percentage of snapshots over the last N days
// whose budget burn reached 100, among snapshots where a budget was defined.
func (db *DB) GetBudgetHitRate(now time.Time, days int) (float64, error) {
	query := `
		SELECT
			COUNT(*) as total,
			SUM(CASE WHEN budget_burn >= 100 THEN 1 ELSE 0 END) as hits
		FROM poll_snapshots
		WHERE local_day >= ? AND budget_burn IS NOT NULL
	`

	var total int
	var hits sql.NullInt64
	err := db.QueryRowContext(context.Background(), query, db.dayCutoff(now, days)).Scan(&total, &hits)
	if err != nil {
		return 0, fmt.Errorf("failed to query budget hit rate: %w", err)
	}
	if total == 0 {
		return 0, nil
	}
	return float64(hits.Int64) / float64(total) * 100, nil
}

// GetTopHours returns the top K local hours of day by average combined
// percentage over the last 7 days.
func (db *DB) GetTopHours(now time.Time, k int) ([]models.HourAvg, error) {
	query := `
		SELECT local_hour, AVG(combined_pct), COUNT(*)
		FROM poll_snapshots
		WHERE local_day >= ?
		GROUP BY local_hour
		ORDER BY AVG(combined_pct) DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(context.Background(), query, db.dayCutoff(now, 7), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query top hours: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var hours []models.HourAvg
	for rows.Next() {
		var h models.HourAvg
		if err := rows.Scan(&h.Hour, &h.AvgCombined, &h.Occurrences); err != nil {
			return nil, fmt.Errorf("failed to scan hour average: %w", err)
		}
		hours = append(hours, h)
	}

	return hours, rows.Err()
}

// GetAvgSessionsPerDay returns session starts per local calendar day over the
// last N days.
func (db *DB) GetAvgSessionsPerDay(now time.Time, days int) (float64, error) {
	if days < 1 {
		days = 1
	}
	query := `SELECT COUNT(*) FROM session_starts WHERE local_day >= ?`

	var total int
	err := db.QueryRowContext(context.Background(), query, db.dayCutoff(now, days)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent sessions: %w", err)
	}
	return float64(total) / float64(days), nil
}

// GetExpectedSessionsPerDay estimates how many sessions today will hold.
// Prefers the average for today's local weekday when at least two distinct
// historical occurrences of that weekday exist, then the lifetime average.
// Reports false when there is no history at all.
func (db *DB) GetExpectedSessionsPerDay(now time.Time) (float64, bool, error) {
	weekday := int(now.In(db.loc).Weekday())
	today := db.localDay(now)

	weekdayQuery := `
		SELECT COUNT(*), COUNT(DISTINCT local_day)
		FROM session_starts
		WHERE local_weekday = ? AND local_day < ?
	`
	var total, distinctDays int
	err := db.QueryRowContext(context.Background(), weekdayQuery, weekday, today).Scan(&total, &distinctDays)
	if err != nil {
		return 0, false, fmt.Errorf("failed to query weekday sessions: %w", err)
	}
	if distinctDays >= 2 {
		return float64(total) / float64(distinctDays), true, nil
	}

	lifetimeQuery := `SELECT COUNT(*), COALESCE(MIN(local_day), '') FROM session_starts`
	var lifetime int
	var firstDay string
	err = db.QueryRowContext(context.Background(), lifetimeQuery).Scan(&lifetime, &firstDay)
	if err != nil {
		return 0, false, fmt.Errorf("failed to query lifetime sessions: %w", err)
	}
	if lifetime == 0 || firstDay == "" {
		return 0, false, nil
	}

	first, err := time.ParseInLocation(localDayFormat, firstDay, db.loc)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse first session day %q: %w", firstDay, err)
	}
	daysSince := now.In(db.loc).Sub(first).Hours() / 24
	if daysSince < 1 {
		daysSince = 1
	}
	return float64(lifetime) / daysSince, true, nil
}

// GetRecentSnapshots returns the newest snapshots, oldest first, for charting.
func (db *DB) GetRecentSnapshots(limit int) ([]models.SnapshotRow, error) {
	query := `
		SELECT timestamp, session_used_pct, session_remaining_min,
			   weekly_used_pct, weekly_remaining_min, calibrator, session_target,
			   combined_pct, budget_burn
		FROM poll_snapshots
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(context.Background(), query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snaps []models.SnapshotRow
	for rows.Next() {
		var s models.SnapshotRow
		var tsStr string
		var burn sql.NullFloat64

		err := rows.Scan(
			&tsStr,
			&s.SessionUsedPct,
			&s.SessionRemainingMin,
			&s.WeeklyUsedPct,
			&s.WeeklyRemainingMin,
			&s.Calibrator,
			&s.SessionTarget,
			&s.CombinedPct,
			&burn,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if t, err := time.Parse(sqliteTimeFormat, tsStr); err == nil {
			s.Timestamp = t.UTC()
		}
		if burn.Valid {
			v := burn.Float64
			s.BudgetBurn = &v
		}
		snaps = append(snaps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to chronological order.
	for i, j := 0, len(snaps)-1; i < j; i, j = i+1, j-1 {
		snaps[i], snaps[j] = snaps[j], snaps[i]
	}
	return snaps, nil
}

// Prune deletes rows older than the retention window.
func (db *DB) Prune(now time.Time, retentionDays int) error {
	cutoff := now.AddDate(0, 0, -retentionDays).UTC().Format(sqliteTimeFormat)

	for _, table := range []string{"poll_snapshots", "session_starts"} {
		query := fmt.Sprintf("DELETE FROM %s WHERE timestamp < ?", table)
		if _, err := db.ExecContext(context.Background(), query, cutoff); err != nil {
			return fmt.Errorf("failed to prune %s: %w", table, err)
		}
	}
	return nil
}
