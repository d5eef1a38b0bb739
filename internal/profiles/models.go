package profiles

import (
	"time"

	"github.com/google/uuid"
	"github.com/heartwire/heartwire/internal/compat"
)

// StoredProfile is a registered profile with its scoring attributes.
type StoredProfile struct {
	ID          string         `json:"id" db:"id"`
	DisplayName string         `json:"display_name" db:"display_name"`
	Attributes  compat.Profile `json:"attributes" db:"attributes"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// MatchRecord is a scored profile pair retained for match history.
type MatchRecord struct {
	ID        string        `json:"id" db:"id"`
	ProfileA  string        `json:"profile_a" db:"profile_a"`
	ProfileB  string        `json:"profile_b" db:"profile_b"`
	Result    compat.Result `json:"result"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}

// NewStoredProfile creates a profile with a generated ID.
func NewStoredProfile(displayName string, attributes compat.Profile) *StoredProfile {
	now := time.Now()
	return &StoredProfile{
		ID:          uuid.New().String(),
		DisplayName: displayName,
		Attributes:  attributes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewMatchRecord creates a match record with a generated ID.
func NewMatchRecord(profileA, profileB string, result compat.Result) *MatchRecord {
	return &MatchRecord{
		ID:        uuid.New().String(),
		ProfileA:  profileA,
		ProfileB:  profileB,
		Result:    result,
		CreatedAt: time.Now(),
	}
}
