package profiles

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/heartwire/heartwire/internal/compat"
)

// ErrNotFound is returned when a profile does not exist.
var ErrNotFound = errors.New("profile not found")

// Repository handles profile and match-history database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateProfile stores a new profile
func (r *Repository) CreateProfile(p *StoredProfile) error {
	attrs, err := json.Marshal(p.Attributes)
	if err != nil {
		return fmt.Errorf("failed to marshal attributes: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO profiles (id, display_name, attributes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.DisplayName, string(attrs), p.CreatedAt, p.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// GetProfile loads a profile by ID
func (r *Repository) GetProfile(id string) (*StoredProfile, error) {
	var p StoredProfile
	var attrs string

	err := r.db.QueryRow(`
		SELECT id, display_name, attributes, created_at, updated_at
		FROM profiles
		WHERE id = ?
	`, id).Scan(&p.ID, &p.DisplayName, &attrs, &p.CreatedAt, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}

	if err := json.Unmarshal([]byte(attrs), &p.Attributes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attributes: %w", err)
	}

	return &p, nil
}

// ListCandidates returns stored profiles other than the given one, newest
// first, up to limit.
func (r *Repository) ListCandidates(excludeID string, limit int) ([]*StoredProfile, error) {
	rows, err := r.db.Query(`
		SELECT id, display_name, attributes, created_at, updated_at
		FROM profiles
		WHERE id != ?
		ORDER BY created_at DESC
		LIMIT ?
	`, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*StoredProfile
	for rows.Next() {
		var p StoredProfile
		var attrs string
		if err := rows.Scan(&p.ID, &p.DisplayName, &attrs, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		if err := json.Unmarshal([]byte(attrs), &p.Attributes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal candidate attributes: %w", err)
		}
		candidates = append(candidates, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("candidate iteration failed: %w", err)
	}

	return candidates, nil
}

// DeleteProfile removes a profile and its match history
func (r *Repository) DeleteProfile(id string) error {
	result, err := r.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	// Match history referencing the profile goes with it
	if _, err := r.db.Exec(`DELETE FROM match_history WHERE profile_a = ? OR profile_b = ?`, id, id); err != nil {
		return fmt.Errorf("failed to delete match history: %w", err)
	}

	return nil
}

// SaveMatch persists a scored profile pair
func (r *Repository) SaveMatch(m *MatchRecord) error {
	breakdown, err := json.Marshal(m.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal breakdown: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO match_history (id, profile_a, profile_b, overall, breakdown, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ID, m.ProfileA, m.ProfileB, m.Result.Overall, string(breakdown), m.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to save match: %w", err)
	}

	return nil
}

// RecentMatches returns the most recent matches for a profile, best first.
func (r *Repository) RecentMatches(profileID string, limit int) ([]*MatchRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, profile_a, profile_b, breakdown, created_at
		FROM match_history
		WHERE profile_a = ? OR profile_b = ?
		ORDER BY overall DESC, created_at DESC
		LIMIT ?
	`, profileID, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []*MatchRecord
	for rows.Next() {
		var m MatchRecord
		var breakdown string
		if err := rows.Scan(&m.ID, &m.ProfileA, &m.ProfileB, &breakdown, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		var result compat.Result
		if err := json.Unmarshal([]byte(breakdown), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal breakdown: %w", err)
		}
		m.Result = result
		matches = append(matches, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("match iteration failed: %w", err)
	}

	return matches, nil
}

// CountProfiles returns the total number of stored profiles
func (r *Repository) CountProfiles() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM profiles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return count, nil
}

// PruneMatchHistory deletes match records older than the retention window.
func (r *Repository) PruneMatchHistory(retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	result, err := r.db.Exec(`DELETE FROM match_history WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune match history: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected, nil
}
