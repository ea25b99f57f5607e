package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	var rec TradeRecord
	var side string

	row := j.db.QueryRow(`
		SELECT trade_id, time, symbol, side, quantity, price, fee, realized_pl
		FROM trades
		WHERE trade_id = ?`, tradeID)

	err := row.Scan(
		&rec.ID,
		&rec.Time,
		&rec.Symbol,
		&side,
		&rec.Quantity,
		&rec.Price,
		&rec.Fee,
		&rec.RealizedPL,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	rec.Side = Side(side)
	return rec, nil
}

// ListTradesBetween returns trades whose time is within [start, end).
func (j *SQLite) ListTradesBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, time, symbol, side, quantity, price, fee, realized_pl
		FROM trades
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrades(rows)
}

// ListTradesSince returns trades at or after the cutoff, oldest first.
// Used at startup to rehydrate the ledger's cooldown clocks.
func (j *SQLite) ListTradesSince(cutoff time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, time, symbol, side, quantity, price, fee, realized_pl
		FROM trades
		WHERE time >= ?
		ORDER BY time ASC`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrades(rows)
}

func scanTrades(rows *sql.Rows) ([]TradeRecord, error) {
	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		var side string
		if err := rows.Scan(
			&rec.ID,
			&rec.Time,
			&rec.Symbol,
			&side,
			&rec.Quantity,
			&rec.Price,
			&rec.Fee,
			&rec.RealizedPL,
		); err != nil {
			return nil, err
		}
		rec.Side = Side(side)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
