package matching

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartwire/heartwire/internal/cache"
)

// MatchCache provides caching for candidate scan results
type MatchCache struct {
	cache *cache.Cache
}

// NewMatchCache creates a new match cache
func NewMatchCache(ttl time.Duration) *MatchCache {
	return &MatchCache{
		cache: cache.New(ttl),
	}
}

// generateCacheKey creates a cache key for a candidate scan
func (mc *MatchCache) generateCacheKey(profileID string, limit int) string {
	return fmt.Sprintf("candidates:%s:%d", profileID, limit)
}

// GetCandidates retrieves cached candidate scan results
func (mc *MatchCache) GetCandidates(profileID string, limit int) (*CandidateResponse, bool) {
	cacheKey := mc.generateCacheKey(profileID, limit)

	data, found := mc.cache.Get(cacheKey)
	if !found {
		return nil, false
	}

	var response CandidateResponse
	if err := json.Unmarshal(data, &response); err != nil {
		slog.Error("Failed to unmarshal cached candidate data", "error", err, "key", cacheKey)
		return nil, false
	}

	slog.Debug("Candidate cache hit", "profile_id", profileID, "limit", limit)
	return &response, true
}

// SetCandidates caches candidate scan results
func (mc *MatchCache) SetCandidates(profileID string, limit int, response *CandidateResponse) {
	cacheKey := mc.generateCacheKey(profileID, limit)

	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal candidate data for cache", "error", err, "profile_id", profileID)
		return
	}

	mc.cache.Set(cacheKey, data)
	slog.Debug("Candidates cached", "profile_id", profileID, "limit", limit, "matches", len(response.Matches))
}

// Invalidate drops cached scans for a profile after its data changes.
func (mc *MatchCache) Invalidate(profileID string, limits ...int) {
	for _, limit := range limits {
		mc.cache.Delete(mc.generateCacheKey(profileID, limit))
	}
}

// Size reports the number of cached scan entries.
func (mc *MatchCache) Size() int {
	return mc.cache.Size()
}

// Clear removes all cached scans.
func (mc *MatchCache) Clear() {
	mc.cache.Clear()
}

// Stats returns cache statistics
func (mc *MatchCache) Stats() map[string]interface{} {
	return mc.cache.Stats()
}
