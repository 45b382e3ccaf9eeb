package scheduler

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/arnavshah/roster-api-go/pkg/models"
)

// Pick is the result of trying to fill a single role
type Pick struct {
	Person   string
	OK       bool
	Fallback bool // chosen from the full pool because the rotation had nobody left
}

// Rotation tracks who in a role's pool has not served since the last reset.
// Values are never mutated in place; Select returns the next state.
type Rotation struct {
	Pool      []string `json:"pool"`
	Remaining []string `json:"remaining"`
	Resets    int      `json:"resets"`
}

// NewRotation starts a rotation where everyone in the pool is still due a turn
func NewRotation(people []string) Rotation {
	pool := normalize(people)
	return Rotation{
		Pool:      pool,
		Remaining: append([]string(nil), pool...),
	}
}

// Select picks a person for a role and returns the rotation state to carry forward.
//
// Candidates are tried in tiers: people still due a turn, then the whole pool. Both
// tiers drop anyone excluded for the role this week and anyone already serving this week.
// An empty result means the role stays unfilled for the week.
func Select(rot Rotation, week models.WeekAssignment, excluded []string, rng *rand.Rand) (Pick, Rotation) {
	if len(rot.Remaining) == 0 && len(rot.Pool) > 0 {
		rot.Remaining = append([]string(nil), rot.Pool...)
		rot.Resets++
	}

	skip := week.Taken()
	for _, person := range excluded {
		skip[strings.TrimSpace(person)] = struct{}{}
	}

	tiers := [][]string{rot.Remaining, rot.Pool}
	for i, tier := range tiers {
		eligible := without(tier, skip)
		if len(eligible) == 0 {
			continue
		}
		person := eligible[rng.Intn(len(eligible))]
		rot.Remaining = without(rot.Remaining, map[string]struct{}{person: {}})
		return Pick{Person: person, OK: true, Fallback: i > 0}, rot
	}

	return Pick{}, rot
}

// without returns a new slice holding the people not in skip
func without(people []string, skip map[string]struct{}) []string {
	out := make([]string, 0, len(people))
	for _, p := range people {
		if _, ok := skip[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}

// normalize trims, dedupes and sorts a list of names so selection is reproducible for a given seed
func normalize(people []string) []string {
	seen := make(map[string]struct{}, len(people))
	out := make([]string, 0, len(people))
	for _, p := range people {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
