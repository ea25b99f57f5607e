package news

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/papertrade/signal"
)

const schema = `
CREATE TABLE IF NOT EXISTS news_items (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    time       TIMESTAMP NOT NULL,
    asset      TEXT NOT NULL,
    sentiment  TEXT NOT NULL,
    confidence REAL NOT NULL,
    headline   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_news_asset_time ON news_items(asset, time);
`

// Store is a SQLite-backed sentiment cache implementing Source.
type Store struct {
	db     *sql.DB
	window time.Duration
	now    func() time.Time
}

// NewStore opens (or creates) the cache at path. window bounds how old an
// item may be to count as current; zero selects the default.
func NewStore(path string, window time.Duration) (*Store, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open news store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create news schema: %w", err)
	}
	return &Store{db: db, window: window, now: time.Now}, nil
}

// Put caches one classified item.
func (s *Store) Put(ctx context.Context, it Item) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO news_items (time, asset, sentiment, confidence, headline)
		VALUES (?, ?, ?, ?, ?)`,
		it.Time, it.Asset, string(it.Sentiment), it.Confidence, it.Headline)
	return err
}

// LatestSentiment returns the highest-confidence item per asset inside the
// recency window.
func (s *Store) LatestSentiment(ctx context.Context) ([]signal.NewsSignal, error) {
	cutoff := s.now().Add(-s.window)
	// SQLite resolves the bare columns from the row holding MAX(confidence).
	rows, err := s.db.QueryContext(ctx, `
		SELECT asset, sentiment, MAX(confidence), headline
		FROM news_items
		WHERE time >= ?
		GROUP BY asset
		ORDER BY asset`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []signal.NewsSignal
	for rows.Next() {
		var ns signal.NewsSignal
		var sentiment string
		if err := rows.Scan(&ns.Asset, &sentiment, &ns.Confidence, &ns.Reason); err != nil {
			return nil, err
		}
		ns.Sentiment = signal.Sentiment(sentiment)
		out = append(out, ns)
	}
	return out, rows.Err()
}

// Prune deletes items older than the recency window.
func (s *Store) Prune(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM news_items WHERE time < ?`, s.now().Add(-s.window))
	return err
}

func (s *Store) Close() error { return s.db.Close() }
