package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrProfileNotFound is returned when a named profile does not exist.
var ErrProfileNotFound = errors.New("config: profile not found")

// Profile holds one server configuration profile: listen address, the
// message representation and consumer forwarded to, capture directory,
// LIMS endpoint and retry policy, and logging verbosity.
type Profile struct {
	ID               int64
	Name             string
	IsActive         bool
	ListenHost       string
	ListenPort       int
	MessageFormat    string
	ConsumerName     string
	CaptureDir       string
	LIMSURL          string
	LIMSRetries      int
	LIMSRetryDelayMS int
	Verbose          bool
	Logfile          string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ProfileStore persists server profiles.
type ProfileStore interface {
	Get(ctx context.Context, id int64) (*Profile, error)
	GetByName(ctx context.Context, name string) (*Profile, error)
	GetActive(ctx context.Context) (*Profile, error)
	List(ctx context.Context) ([]*Profile, error)
	Create(ctx context.Context, p *Profile) (*Profile, error)
	Update(ctx context.Context, p *Profile) error
	SetActive(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

type profileStore struct {
	db *DB
}

// NewProfileStore returns a ProfileStore backed by db.
func NewProfileStore(db *DB) ProfileStore {
	return &profileStore{db: db}
}

const profileColumns = `
	id, name, is_active, listen_host, listen_port, message_format,
	consumer_name, capture_dir, lims_url, lims_retries, lims_retry_delay_ms,
	verbose, logfile, created_at, updated_at
`

func scanProfile(row interface{ Scan(...any) error }) (*Profile, error) {
	var p Profile
	var isActive, verbose int
	var createdAt, updatedAt string
	err := row.Scan(
		&p.ID, &p.Name, &isActive, &p.ListenHost, &p.ListenPort, &p.MessageFormat,
		&p.ConsumerName, &p.CaptureDir, &p.LIMSURL, &p.LIMSRetries, &p.LIMSRetryDelayMS,
		&verbose, &p.Logfile, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.IsActive = isActive != 0
	p.Verbose = verbose != 0
	if p.CreatedAt, err = time.Parse(time.DateTime, createdAt); err != nil {
		return nil, fmt.Errorf("config: parse created_at: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(time.DateTime, updatedAt); err != nil {
		return nil, fmt.Errorf("config: parse updated_at: %w", err)
	}
	return &p, nil
}

func (s *profileStore) Get(ctx context.Context, id int64) (*Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM server_profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	return p, err
}

func (s *profileStore) GetByName(ctx context.Context, name string) (*Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM server_profiles WHERE name = ?`, name)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	return p, err
}

func (s *profileStore) GetActive(ctx context.Context) (*Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM server_profiles WHERE is_active = 1 LIMIT 1`)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	return p, err
}

func (s *profileStore) List(ctx context.Context) ([]*Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM server_profiles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (s *profileStore) Create(ctx context.Context, p *Profile) (*Profile, error) {
	var id int64
	err := s.db.Tx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO server_profiles (
				name, listen_host, listen_port, message_format, consumer_name,
				capture_dir, lims_url, lims_retries, lims_retry_delay_ms, verbose, logfile
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, p.Name, p.ListenHost, p.ListenPort, p.MessageFormat, p.ConsumerName,
			p.CaptureDir, p.LIMSURL, p.LIMSRetries, p.LIMSRetryDelayMS, boolToInt(p.Verbose), p.Logfile)
		if err != nil {
			return fmt.Errorf("config: insert profile: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *profileStore) Update(ctx context.Context, p *Profile) error {
	return s.db.Tx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE server_profiles SET
				name = ?, listen_host = ?, listen_port = ?, message_format = ?,
				consumer_name = ?, capture_dir = ?, lims_url = ?, lims_retries = ?,
				lims_retry_delay_ms = ?, verbose = ?, logfile = ?, updated_at = datetime('now')
			WHERE id = ?
		`, p.Name, p.ListenHost, p.ListenPort, p.MessageFormat, p.ConsumerName,
			p.CaptureDir, p.LIMSURL, p.LIMSRetries, p.LIMSRetryDelayMS, boolToInt(p.Verbose), p.Logfile, p.ID)
		if err != nil {
			return fmt.Errorf("config: update profile: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrProfileNotFound
		}
		return nil
	})
}

func (s *profileStore) SetActive(ctx context.Context, id int64) error {
	return s.db.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE server_profiles SET is_active = 0`); err != nil {
			return fmt.Errorf("config: clear active profile: %w", err)
		}
		res, err := tx.ExecContext(ctx, `UPDATE server_profiles SET is_active = 1 WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("config: set active profile: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrProfileNotFound
		}
		return nil
	})
}

func (s *profileStore) Delete(ctx context.Context, id int64) error {
	return s.db.Tx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM server_profiles WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("config: delete profile: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrProfileNotFound
		}
		return nil
	})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
