package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/ishan19r/apt-hunt/models"
	"github.com/ishan19r/apt-hunt/utils"
)

// PostgresStore persists listings to PostgreSQL. Enabled with
// STORE_BACKEND=postgres; the JSON tracker file remains the default.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection, runs schema migrations, and returns
// a ready-to-use store. The database may still be starting up, so the
// initial ping is retried with back-off.
func NewPostgresStore(dsn string, logger *utils.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 5, BaseDelay: 2 * time.Second, Logger: logger}
	if err := retry.Do("postgres ping", db.Ping); err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS apartments (
			id            SERIAL PRIMARY KEY,
			url           TEXT        UNIQUE NOT NULL,
			address       TEXT        NOT NULL DEFAULT '',
			rent          INTEGER     NOT NULL DEFAULT 0,
			neighborhood  TEXT        NOT NULL DEFAULT '',
			image_url     TEXT        NOT NULL DEFAULT '',
			no_fee        BOOLEAN     NOT NULL DEFAULT FALSE,
			broker_name   TEXT        NOT NULL DEFAULT '',
			notes         TEXT        NOT NULL DEFAULT '',
			status        VARCHAR(20) NOT NULL DEFAULT 'new',
			selected      BOOLEAN     NOT NULL DEFAULT FALSE,
			discovered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			contacted_at  TIMESTAMPTZ
		);

		CREATE INDEX IF NOT EXISTS idx_apartments_rent         ON apartments(rent);
		CREATE INDEX IF NOT EXISTS idx_apartments_neighborhood ON apartments(neighborhood);
		CREATE INDEX IF NOT EXISTS idx_apartments_status       ON apartments(status);
	`)
	return err
}

const listingColumns = `id, url, address, rent, neighborhood, image_url,
	no_fee, broker_name, notes, status, selected, discovered_at, contacted_at`

func scanListing(row interface{ Scan(...interface{}) error }) (models.Listing, error) {
	var l models.Listing
	var contacted sql.NullTime
	err := row.Scan(
		&l.ID, &l.URL, &l.Address, &l.Rent, &l.Neighborhood, &l.ImageURL,
		&l.NoFee, &l.BrokerName, &l.Notes, &l.Status, &l.Selected,
		&l.DiscoveredAt, &contacted,
	)
	if err != nil {
		return l, err
	}
	if contacted.Valid {
		t := contacted.Time
		l.ContactedAt = &t
	}
	return l, nil
}

// LoadAll retrieves every stored listing in id order.
func (ps *PostgresStore) LoadAll() ([]models.Listing, error) {
	rows, err := ps.db.Query(`SELECT ` + listingColumns + ` FROM apartments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: load all: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// Get returns the listing with the given id.
func (ps *PostgresStore) Get(id int) (*models.Listing, error) {
	row := ps.db.QueryRow(`SELECT `+listingColumns+` FROM apartments WHERE id = $1`, id)
	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get %d: %w", id, err)
	}
	return &l, nil
}

// Append persists one listing and returns it with its assigned id.
func (ps *PostgresStore) Append(l models.Listing) (models.Listing, error) {
	if l.Status == "" {
		l.Status = models.StatusNew
	}
	err := ps.db.QueryRow(`
		INSERT INTO apartments
			(url, address, rent, neighborhood, image_url, no_fee, broker_name, notes, status, selected, discovered_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id
	`, l.URL, l.Address, l.Rent, l.Neighborhood, l.ImageURL, l.NoFee,
		l.BrokerName, l.Notes, l.Status, l.Selected, l.DiscoveredAt,
	).Scan(&l.ID)
	if err != nil {
		return l, fmt.Errorf("postgres: append: %w", err)
	}
	return l, nil
}

// AppendBatch batch-inserts a run's accepted records. Conflicting URLs are
// dropped silently, matching the dedup policy.
func (ps *PostgresStore) AppendBatch(listings []models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err := ps.insertBatch(listings[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (ps *PostgresStore) insertBatch(batch []models.Listing) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*10)

	n := 0
	for _, l := range batch {
		if l.URL == "" {
			continue
		}
		if l.Status == "" {
			l.Status = models.StatusNew
		}
		base := n * 10
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10))
		valueArgs = append(valueArgs,
			l.URL, l.Address, l.Rent, l.Neighborhood, l.ImageURL,
			l.NoFee, l.BrokerName, l.Notes, l.Status, l.DiscoveredAt)
		n++
	}
	if n == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO apartments (url, address, rent, neighborhood, image_url, no_fee, broker_name, notes, status, discovered_at)
		VALUES %s
		ON CONFLICT (url) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := ps.db.Exec(query, valueArgs...)
	return err
}

// ToggleSelected flips the operator's selection flag.
func (ps *PostgresStore) ToggleSelected(id int) (*models.Listing, error) {
	_, err := ps.db.Exec(`UPDATE apartments SET selected = NOT selected WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("postgres: toggle selected: %w", err)
	}
	return ps.Get(id)
}

// Delete removes a listing by id.
func (ps *PostgresStore) Delete(id int) error {
	_, err := ps.db.Exec(`DELETE FROM apartments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete: %w", err)
	}
	return nil
}

// MarkContacted stamps contacted status on the listing with the given URL.
func (ps *PostgresStore) MarkContacted(url string, at time.Time) error {
	res, err := ps.db.Exec(`
		UPDATE apartments SET status = $1, contacted_at = $2 WHERE url = $3
	`, models.StatusContacted, at, url)
	if err != nil {
		return fmt.Errorf("postgres: mark contacted: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database connection.
func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
