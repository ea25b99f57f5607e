package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, time, symbol, side, quantity, price, fee, realized_pl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Time, t.Symbol, string(t.Side),
		t.Quantity, t.Price, t.Fee, t.RealizedPL,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(time, cash, equity, unrealized, realized)
		VALUES (?, ?, ?, ?, ?)`,
		e.Time, e.Cash, e.Equity, e.Unrealized, e.Realized,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
