package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/shopspring/decimal"
)

// SQLiteRepository implements Repository on the settlements table.
// The schema is owned by pkg/db/migrations.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository wraps a migrated database, usually the one behind
// the sqlite storage backend
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record implements Repository
func (r *SQLiteRepository) Record(ctx context.Context, record *entities.SettlementRecord) error {
	query := `
		INSERT INTO settlements (
			id, session_id, player_id, game, phase, outcome,
			wager, payout, multiplier, detail, settled_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.SessionID, record.PlayerID, string(record.Game), string(record.Phase),
		string(record.Result), record.Wager, record.Payout, record.Multiplier.String(),
		record.Detail, record.SettledAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record settlement %s: %w", record.SessionID, err)
	}
	return nil
}

// ListByPlayer implements Repository
func (r *SQLiteRepository) ListByPlayer(ctx context.Context, playerID string, limit int) ([]*entities.SettlementRecord, error) {
	query := `
		SELECT id, session_id, player_id, game, phase, outcome,
			   wager, payout, multiplier, detail, settled_at
		FROM settlements
		WHERE player_id = ?
		ORDER BY settled_at DESC, rowid DESC`
	args := []interface{}{playerID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query settlements: %w", err)
	}
	defer rows.Close()

	var records []*entities.SettlementRecord
	for rows.Next() {
		var (
			record     entities.SettlementRecord
			game       string
			phase      string
			outcome    string
			multiplier string
			settledAt  int64
		)
		if err := rows.Scan(&record.ID, &record.SessionID, &record.PlayerID, &game, &phase, &outcome,
			&record.Wager, &record.Payout, &multiplier, &record.Detail, &settledAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		record.Game = entities.GameKind(game)
		record.Phase = entities.Phase(phase)
		record.Result = entities.Result(outcome)
		record.SettledAt = time.Unix(0, settledAt).UTC()
		if record.Multiplier, err = decimal.NewFromString(multiplier); err != nil {
			return nil, fmt.Errorf("settlement %s has bad multiplier %q: %w", record.SessionID, multiplier, err)
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

// statsColumns aggregates settlements the same way PlayerStatistics.Add does
const statsColumns = `
	player_id,
	COALESCE(SUM(CASE WHEN outcome != 'REFUND' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN outcome = 'WIN' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN outcome = 'LOSE' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN outcome = 'PUSH' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN outcome = 'REFUND' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN outcome != 'REFUND' THEN wager ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN outcome != 'REFUND' THEN payout ELSE 0 END), 0),
	COALESCE(MAX(CASE WHEN outcome = 'WIN' THEN payout - wager ELSE 0 END), 0),
	COALESCE(MAX(settled_at), 0)`

// PlayerStatistics implements Repository
func (r *SQLiteRepository) PlayerStatistics(ctx context.Context, playerID string, game entities.GameKind) (*entities.PlayerStatistics, error) {
	query := `SELECT ` + statsColumns + ` FROM settlements WHERE player_id = ?`
	args := []interface{}{playerID}
	if game != "" {
		query += " AND game = ?"
		args = append(args, string(game))
	}
	query += " GROUP BY player_id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query player statistics: %w", err)
	}
	defer rows.Close()

	stats, err := scanStatistics(rows, game)
	if err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		return &entities.PlayerStatistics{PlayerID: playerID, Game: game}, nil
	}
	return stats[0], nil
}

// AllPlayerStatistics implements Repository
func (r *SQLiteRepository) AllPlayerStatistics(ctx context.Context, game entities.GameKind) ([]*entities.PlayerStatistics, error) {
	query := `SELECT ` + statsColumns + ` FROM settlements`
	var args []interface{}
	if game != "" {
		query += " WHERE game = ?"
		args = append(args, string(game))
	}
	query += " GROUP BY player_id ORDER BY player_id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query statistics: %w", err)
	}
	defer rows.Close()

	return scanStatistics(rows, game)
}

// Close is a no-op; the database belongs to the storage backend
func (r *SQLiteRepository) Close() error {
	return nil
}

func scanStatistics(rows *sql.Rows, game entities.GameKind) ([]*entities.PlayerStatistics, error) {
	var stats []*entities.PlayerStatistics
	for rows.Next() {
		s := &entities.PlayerStatistics{Game: game}
		var lastPlayed int64
		if err := rows.Scan(&s.PlayerID, &s.GamesPlayed, &s.Wins, &s.Losses, &s.Pushes, &s.Refunds,
			&s.TotalWagered, &s.TotalPaidOut, &s.BiggestWin, &lastPlayed); err != nil {
			return nil, fmt.Errorf("failed to scan statistics: %w", err)
		}
		if lastPlayed > 0 {
			s.LastPlayed = time.Unix(0, lastPlayed).UTC()
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
