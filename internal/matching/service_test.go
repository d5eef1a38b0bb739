package matching

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/heartwire/heartwire/internal/compat"
	"github.com/heartwire/heartwire/internal/monitoring"
	"github.com/heartwire/heartwire/internal/profiles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *profiles.Repository) {
	t.Helper()

	db, err := profiles.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := profiles.NewRepository(db)
	return NewService(repo, monitoring.NewMetrics()), repo
}

func profileWithValues(tags ...string) compat.Profile {
	return compat.Profile{
		"values":    compat.TagSet(tags...),
		"goals":     compat.Category("long_term"),
		"interests": compat.TagSet("hiking"),
	}
}

func TestTopCandidatesRanksByOverall(t *testing.T) {
	service, repo := newTestService(t)

	self := profiles.NewStoredProfile("Self", profileWithValues("honesty", "family", "growth"))
	require.NoError(t, repo.CreateProfile(self))

	// Perfect overlap, partial overlap, no overlap
	perfect := profiles.NewStoredProfile("Perfect", profileWithValues("honesty", "family", "growth"))
	partial := profiles.NewStoredProfile("Partial", profileWithValues("honesty", "adventure", "career"))
	disjoint := profiles.NewStoredProfile("Disjoint", profileWithValues("fame", "wealth"))

	for _, p := range []*profiles.StoredProfile{perfect, partial, disjoint} {
		require.NoError(t, repo.CreateProfile(p))
	}

	response, err := service.TopCandidates(context.Background(), self.ID, 10)
	require.NoError(t, err)

	require.Len(t, response.Matches, 3)
	assert.Equal(t, 3, response.Scanned)

	// Matching values, goals and interests carry their reference weights;
	// the two absent dimensions drag the overall below 1.
	assert.Equal(t, perfect.ID, response.Matches[0].ProfileID)
	assert.InDelta(t, 0.65, response.Matches[0].Result.Overall, 1e-9)
	assert.Equal(t, partial.ID, response.Matches[1].ProfileID)
	assert.Equal(t, disjoint.ID, response.Matches[2].ProfileID)

	// Ranking is strictly non-increasing
	for i := 1; i < len(response.Matches); i++ {
		assert.GreaterOrEqual(t, response.Matches[i-1].Result.Overall, response.Matches[i].Result.Overall)
	}
}

func TestTopCandidatesRespectsLimit(t *testing.T) {
	service, repo := newTestService(t)

	self := profiles.NewStoredProfile("Self", profileWithValues("honesty"))
	require.NoError(t, repo.CreateProfile(self))

	for i := 0; i < 10; i++ {
		p := profiles.NewStoredProfile(fmt.Sprintf("Candidate-%d", i), profileWithValues("honesty"))
		require.NoError(t, repo.CreateProfile(p))
	}

	response, err := service.TopCandidates(context.Background(), self.ID, 3)
	require.NoError(t, err)

	assert.Len(t, response.Matches, 3)
	assert.Equal(t, 10, response.Scanned)
}

func TestTopCandidatesUnknownProfile(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.TopCandidates(context.Background(), "no-such-id", 10)
	assert.ErrorIs(t, err, profiles.ErrNotFound)
}

func TestTopCandidatesEmptyPool(t *testing.T) {
	service, repo := newTestService(t)

	self := profiles.NewStoredProfile("Lonely", profileWithValues("honesty"))
	require.NoError(t, repo.CreateProfile(self))

	response, err := service.TopCandidates(context.Background(), self.ID, 10)
	require.NoError(t, err)

	assert.Empty(t, response.Matches)
	assert.Equal(t, 0, response.Scanned)
}

func TestTopCandidatesUsesCache(t *testing.T) {
	service, repo := newTestService(t)

	self := profiles.NewStoredProfile("Self", profileWithValues("honesty"))
	require.NoError(t, repo.CreateProfile(self))
	require.NoError(t, repo.CreateProfile(profiles.NewStoredProfile("Other", profileWithValues("honesty"))))

	first, err := service.TopCandidates(context.Background(), self.ID, 10)
	require.NoError(t, err)

	// A profile added after the scan is invisible until the cache is cleared
	require.NoError(t, repo.CreateProfile(profiles.NewStoredProfile("Late", profileWithValues("honesty"))))

	second, err := service.TopCandidates(context.Background(), self.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, first.Scanned, second.Scanned)
	assert.Equal(t, first.CreatedAt.Unix(), second.CreatedAt.Unix())

	service.Cache().Clear()

	third, err := service.TopCandidates(context.Background(), self.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, third.Scanned)
}

func TestTopCandidatesRecordsHistory(t *testing.T) {
	service, repo := newTestService(t)

	self := profiles.NewStoredProfile("Self", profileWithValues("honesty"))
	require.NoError(t, repo.CreateProfile(self))
	other := profiles.NewStoredProfile("Other", profileWithValues("honesty"))
	require.NoError(t, repo.CreateProfile(other))

	_, err := service.TopCandidates(context.Background(), self.ID, 10)
	require.NoError(t, err)

	// History is written asynchronously after the scan returns
	var records []*profiles.MatchRecord
	require.Eventually(t, func() bool {
		records, err = service.History(self.ID, 10)
		return err == nil && len(records) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, self.ID, records[0].ProfileA)
	assert.Equal(t, other.ID, records[0].ProfileB)
}

func TestScoreCandidatesCancellation(t *testing.T) {
	service, repo := newTestService(t)

	self := profiles.NewStoredProfile("Self", profileWithValues("honesty"))
	require.NoError(t, repo.CreateProfile(self))

	candidates := make([]*profiles.StoredProfile, 50)
	for i := range candidates {
		candidates[i] = profiles.NewStoredProfile(fmt.Sprintf("C-%d", i), profileWithValues("honesty"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A cancelled context stops feeding the pool without panicking;
	// whatever was already in flight is still returned.
	matches := service.scoreCandidates(ctx, self, candidates)
	assert.LessOrEqual(t, len(matches), len(candidates))
}

func TestMatchCacheRoundTrip(t *testing.T) {
	mc := NewMatchCache(time.Minute)

	response := &CandidateResponse{
		ProfileID: "p1",
		Matches: []Match{
			{ProfileID: "p2", DisplayName: "Other", Result: compat.Result{Overall: 0.75}},
		},
		Scanned:   1,
		CreatedAt: time.Now(),
	}

	_, found := mc.GetCandidates("p1", 10)
	assert.False(t, found)

	mc.SetCandidates("p1", 10, response)

	cached, found := mc.GetCandidates("p1", 10)
	require.True(t, found)
	assert.Equal(t, "p1", cached.ProfileID)
	require.Len(t, cached.Matches, 1)
	assert.Equal(t, 0.75, cached.Matches[0].Result.Overall)

	// Different limit is a different cache entry
	_, found = mc.GetCandidates("p1", 5)
	assert.False(t, found)

	mc.Invalidate("p1", 10)
	_, found = mc.GetCandidates("p1", 10)
	assert.False(t, found)
}
