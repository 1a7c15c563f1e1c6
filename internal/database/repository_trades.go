package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// History sentinels returned by RecentTradeSummaries in place of trade
// lines. HistoryUnavailable marks a storage failure and must not be cached.
const (
	HistoryUnavailable = "Error loading user history. Proceeding without it."
	HistoryEmpty       = "No previous trades found for this user."
)

// AppendTrade creates a new trade log entry. The id is assigned here and the
// creation timestamp by the store; outcome is always PENDING at creation
// regardless of what the caller set.
func (r *Repository) AppendTrade(ctx context.Context, userID string, trade *TradeLog) (string, error) {
	trade.ID = uuid.NewString()
	trade.UserID = userID
	trade.Outcome = OutcomePending

	query := `
		INSERT INTO trade_logs (
			id, user_id, broker, asset, duration, direction,
			entry_time, risk_level, reason, accuracy, outcome
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		trade.ID,
		trade.UserID,
		trade.Broker,
		trade.Asset,
		trade.Duration,
		trade.Direction,
		trade.EntryTime,
		trade.RiskLevel,
		trade.Reason,
		trade.Accuracy,
		trade.Outcome,
	).Scan(&trade.CreatedAt)

	if err != nil {
		return "", storageErr("failed to append trade", err)
	}

	return trade.ID, nil
}

// ListTrades returns the user's trades newest-first, optionally narrowed by
// asset and a timestamp range. The end bound is normalized to end-of-day so a
// date-only filter includes the whole final day.
func (r *Repository) ListTrades(ctx context.Context, userID string, filter TradeFilter) ([]*TradeLog, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT id, user_id, broker, asset, duration, direction, entry_time,
			risk_level, reason, COALESCE(accuracy, ''), outcome,
			COALESCE(analysis, ''), created_at
		FROM trade_logs
		WHERE user_id = $1`)

	args := []interface{}{userID}

	if filter.Asset != "" && filter.Asset != "ALL" {
		args = append(args, filter.Asset)
		fmt.Fprintf(&sb, " AND asset = $%d", len(args))
	}
	if filter.StartTime != nil {
		args = append(args, *filter.StartTime)
		fmt.Fprintf(&sb, " AND created_at >= $%d", len(args))
	}
	if filter.EndTime != nil {
		end := endOfDay(*filter.EndTime)
		args = append(args, end)
		fmt.Fprintf(&sb, " AND created_at <= $%d", len(args))
	}

	sb.WriteString(" ORDER BY created_at DESC")

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	rows, err := r.db.Pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, storageErr("failed to list trades", err)
	}
	defer rows.Close()

	var trades []*TradeLog
	for rows.Next() {
		trade := &TradeLog{}
		if err := rows.Scan(
			&trade.ID, &trade.UserID, &trade.Broker, &trade.Asset,
			&trade.Duration, &trade.Direction, &trade.EntryTime,
			&trade.RiskLevel, &trade.Reason, &trade.Accuracy,
			&trade.Outcome, &trade.Analysis, &trade.CreatedAt,
		); err != nil {
			return nil, storageErr("failed to scan trade", err)
		}
		trades = append(trades, trade)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("failed to read trades", err)
	}

	return trades, nil
}

// GetTrade retrieves one trade for the user
func (r *Repository) GetTrade(ctx context.Context, userID, tradeID string) (*TradeLog, error) {
	query := `
		SELECT id, user_id, broker, asset, duration, direction, entry_time,
			risk_level, reason, COALESCE(accuracy, ''), outcome,
			COALESCE(analysis, ''), created_at
		FROM trade_logs
		WHERE user_id = $1 AND id = $2
	`

	trade := &TradeLog{}
	err := r.db.Pool.QueryRow(ctx, query, userID, tradeID).Scan(
		&trade.ID, &trade.UserID, &trade.Broker, &trade.Asset,
		&trade.Duration, &trade.Direction, &trade.EntryTime,
		&trade.RiskLevel, &trade.Reason, &trade.Accuracy,
		&trade.Outcome, &trade.Analysis, &trade.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, ErrTradeNotFound
	}
	if err != nil {
		return nil, storageErr("failed to get trade", err)
	}

	return trade, nil
}

// PatchOutcome records the realized outcome and analysis text for a PENDING
// trade. The WHERE guard makes the transition single-shot: a repeated patch
// matches zero rows and reports ErrOutcomeAlreadySet.
func (r *Repository) PatchOutcome(ctx context.Context, userID, tradeID, outcome, analysis string) error {
	query := `
		UPDATE trade_logs
		SET outcome = $3, analysis = $4
		WHERE user_id = $1 AND id = $2 AND outcome = 'PENDING'
	`

	tag, err := r.db.Pool.Exec(ctx, query, userID, tradeID, outcome, analysis)
	if err != nil {
		return storageErr("failed to patch trade outcome", err)
	}

	if tag.RowsAffected() == 0 {
		if _, err := r.GetTrade(ctx, userID, tradeID); err != nil {
			return err
		}
		return ErrOutcomeAlreadySet
	}

	return nil
}

// RecentTradeSummaries returns the user's most recent trades as compact
// one-line strings for prompt inclusion. History is advisory: any failure
// yields an explanatory sentinel string instead of an error.
func (r *Repository) RecentTradeSummaries(ctx context.Context, userID string, limit int) string {
	if limit <= 0 {
		limit = 10
	}

	trades, err := r.ListTrades(ctx, userID, TradeFilter{Limit: limit})
	if err != nil {
		return HistoryUnavailable
	}
	if len(trades) == 0 {
		return HistoryEmpty
	}

	lines := make([]string, 0, len(trades))
	for _, t := range trades {
		lines = append(lines, fmt.Sprintf("- Asset: %s, Signal: %s, Outcome: %s", t.Asset, t.Direction, t.Outcome))
	}
	return strings.Join(lines, "\n")
}

// endOfDay pushes a date-only end bound to the last instant of that day
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
