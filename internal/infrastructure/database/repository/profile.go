package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	jsoniter "github.com/json-iterator/go"

	"langpredict/internal/detection/profile"
	"langpredict/internal/infrastructure/database"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrProfileNotFound is returned when no profile has the requested name
var ErrProfileNotFound = errors.New("profile not found")

const profileSchema = `
	CREATE TABLE IF NOT EXISTS language_profiles (
		name       TEXT PRIMARY KEY,
		n_words    BIGINT[] NOT NULL,
		freq       JSONB NOT NULL,
		vocabulary INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

// ProfileRepository stores language profiles in PostgreSQL
type ProfileRepository struct {
	db database.DBTX
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db database.DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// EnsureSchema creates the profile table if it does not exist
func (r *ProfileRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, profileSchema); err != nil {
		return fmt.Errorf("failed to create profile table: %w", err)
	}
	return nil
}

// Save inserts or replaces a profile
func (r *ProfileRepository) Save(ctx context.Context, p *profile.Profile) error {
	freq, err := json.Marshal(p.Freq)
	if err != nil {
		return fmt.Errorf("failed to marshal profile %s: %w", p.Name, err)
	}

	query := `
		INSERT INTO language_profiles (name, n_words, freq, vocabulary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (name) DO UPDATE SET
			n_words = EXCLUDED.n_words,
			freq = EXCLUDED.freq,
			vocabulary = EXCLUDED.vocabulary,
			updated_at = EXCLUDED.updated_at`

	_, err = r.db.Exec(ctx, query, p.Name, nWords(p), freq, len(p.Freq), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save profile %s: %w", p.Name, err)
	}
	return nil
}

// Get retrieves a profile by name
func (r *ProfileRepository) Get(ctx context.Context, name string) (*profile.Profile, error) {
	query := `SELECT name, n_words, freq FROM language_profiles WHERE name = $1`
	return r.scanProfile(r.db.QueryRow(ctx, query, name))
}

// List retrieves all profiles ordered by name
func (r *ProfileRepository) List(ctx context.Context) ([]*profile.Profile, error) {
	query := `SELECT name, n_words, freq FROM language_profiles ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*profile.Profile
	for rows.Next() {
		p, err := r.scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}
	return profiles, nil
}

// Names returns the stored profile names ordered by name
func (r *ProfileRepository) Names(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT name FROM language_profiles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profile names: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to list profile names: %w", err)
	}
	return names, nil
}

// Delete removes a profile
func (r *ProfileRepository) Delete(ctx context.Context, name string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM language_profiles WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete profile %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// Profiles implements profile.Source
func (r *ProfileRepository) Profiles(ctx context.Context) ([]*profile.Profile, error) {
	return r.List(ctx)
}

var _ profile.Source = (*ProfileRepository)(nil)

// SaveAll stores profiles in one transaction
func SaveAll(ctx context.Context, db *database.PostgresDB, profiles []*profile.Profile) error {
	return db.WithTx(ctx, func(tx pgx.Tx) error {
		repo := NewProfileRepository(tx)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		for _, p := range profiles {
			if err := repo.Save(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ProfileRepository) scanProfile(row pgx.Row) (*profile.Profile, error) {
	var (
		name   string
		counts []int64
		freq   []byte
	)
	if err := row.Scan(&name, &counts, &freq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	return decodeRow(name, counts, freq)
}

// decodeRow rebuilds the exchange document from a row so stored profiles go
// through the same validation as files.
func decodeRow(name string, counts []int64, freq []byte) (*profile.Profile, error) {
	doc, err := json.Marshal(map[string]any{
		"name":    name,
		"n_words": counts,
		"freq":    jsoniter.RawMessage(freq),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild profile %s: %w", name, err)
	}
	return profile.Unmarshal(doc)
}

func nWords(p *profile.Profile) []int64 {
	out := make([]int64, len(p.NGramCounts))
	for i, n := range p.NGramCounts {
		out[i] = int64(n)
	}
	return out
}
