package scheduler

import (
	"math/rand"
	"testing"

	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRotation_Normalizes(t *testing.T) {
	rot := NewRotation([]string{" Bob", "Alice", "Bob ", ""})
	assert.Equal(t, []string{"Alice", "Bob"}, rot.Pool)
	assert.Equal(t, rot.Pool, rot.Remaining)
	assert.Zero(t, rot.Resets)
}

func TestSelect_ConsumesTurn(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	rot := NewRotation([]string{"Alice", "Bob", "Carol"})

	pick, next := Select(rot, models.NewWeekAssignment(0), nil, rng)
	require.True(t, pick.OK)
	assert.False(t, pick.Fallback)
	assert.NotContains(t, next.Remaining, pick.Person)
	assert.Len(t, next.Remaining, 2)

	// the input state is left untouched
	assert.Len(t, rot.Remaining, 3)
}

func TestSelect_ResetsWhenExhausted(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	rot := NewRotation([]string{"Alice", "Bob"})

	seen := make(map[string]bool)
	for i := 0; i < 2; i++ {
		var pick Pick
		pick, rot = Select(rot, models.NewWeekAssignment(i), nil, rng)
		require.True(t, pick.OK)
		seen[pick.Person] = true
	}
	assert.Len(t, seen, 2)
	assert.Empty(t, rot.Remaining)

	pick, rot := Select(rot, models.NewWeekAssignment(2), nil, rng)
	require.True(t, pick.OK)
	assert.Equal(t, 1, rot.Resets)
	assert.Len(t, rot.Remaining, 1)
}

func TestSelect_FallsBackToFullPool(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	rot := Rotation{Pool: []string{"Alice", "Bob"}, Remaining: []string{"Alice"}}

	week := models.NewWeekAssignment(0)
	week.Slots["MC"] = models.Slot{Person: "Alice", Filled: true}

	pick, next := Select(rot, week, nil, rng)
	require.True(t, pick.OK)
	assert.True(t, pick.Fallback)
	assert.Equal(t, "Bob", pick.Person)
	assert.Equal(t, []string{"Alice"}, next.Remaining)
	assert.Zero(t, next.Resets)
}

func TestSelect_ExclusionsDoNotConsumeTurns(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	rot := NewRotation([]string{"Alice", "Bob"})

	pick, next := Select(rot, models.NewWeekAssignment(0), []string{"Alice"}, rng)
	require.True(t, pick.OK)
	assert.Equal(t, "Bob", pick.Person)
	assert.Equal(t, []string{"Alice"}, next.Remaining)
}

func TestSelect_NoCandidate(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	rot := NewRotation([]string{"Alice"})

	pick, next := Select(rot, models.NewWeekAssignment(0), []string{"Alice"}, rng)
	assert.False(t, pick.OK)
	assert.Empty(t, pick.Person)
	assert.Equal(t, []string{"Alice"}, next.Remaining)
}

func TestSelect_EmptyPool(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	pick, next := Select(NewRotation(nil), models.NewWeekAssignment(0), nil, rng)
	assert.False(t, pick.OK)
	assert.Zero(t, next.Resets)
}
