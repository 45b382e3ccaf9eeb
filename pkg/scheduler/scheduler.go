package scheduler

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/google/uuid"
)

// DefaultPrimaryRoles are filled first each week, in this order, from persistent rotations
var DefaultPrimaryRoles = []string{"MC", "TH", "AC1", "AC2", "CB"}

// DefaultPairedRoles are filled all-or-nothing within a week
var DefaultPairedRoles = [][]string{{"TB1", "TB2"}}

var (
	// ErrEmptyRole is returned when a primary role has nobody eligible to fill it.
	ErrEmptyRole = errors.New("role has no eligible people")

	// ErrInvalidWeeks is returned for a negative week count.
	ErrInvalidWeeks = errors.New("week count must not be negative")
)

// Reasons attached to unfilled slots
const (
	ReasonNoCandidate    = "every eligible person is excluded or already serving this week"
	ReasonAllServing     = "everyone eligible is already serving this week"
	ReasonNoPool         = "no eligible people configured"
	ReasonPairIncomplete = "paired role could not be filled together"
)

// Scheduler handles the logic of assigning people to roles week by week
type Scheduler struct {
	Pool         models.RolePool
	Exclusions   models.Exclusions
	PrimaryRoles []string
	PairedRoles  [][]string
	Rand         *rand.Rand

	rotations map[string]Rotation
}

// NewScheduler creates a new scheduler instance with the default role layout
func NewScheduler(pool models.RolePool, exclusions models.Exclusions) *Scheduler {
	return &Scheduler{
		Pool:         pool,
		Exclusions:   exclusions,
		PrimaryRoles: DefaultPrimaryRoles,
		PairedRoles:  DefaultPairedRoles,
		Rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Check reports a configuration error if any primary role cannot ever be filled
func (s *Scheduler) Check() error {
	for _, role := range s.PrimaryRoles {
		if len(normalize(s.Pool[role])) == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyRole, role)
		}
	}
	return nil
}

// AdditionalRoles returns the configured roles that are not primary, sorted
func (s *Scheduler) AdditionalRoles() []string {
	primary := make(map[string]struct{}, len(s.PrimaryRoles))
	for _, role := range s.PrimaryRoles {
		primary[role] = struct{}{}
	}
	var extra []string
	for _, role := range s.Pool.Roles() {
		if _, ok := primary[role]; !ok {
			extra = append(extra, role)
		}
	}
	return extra
}

// Roles returns every role in the order it is filled each week
func (s *Scheduler) Roles() []string {
	roles := append([]string(nil), s.PrimaryRoles...)
	return append(roles, s.AdditionalRoles()...)
}

// Rotations returns the primary role rotation state left by the last run
func (s *Scheduler) Rotations() map[string]Rotation {
	out := make(map[string]Rotation, len(s.rotations))
	for role, rot := range s.rotations {
		out[role] = rot
	}
	return out
}

// Generate builds a roster for the given number of weeks.
// Weeks are generated strictly in order since each week starts from the rotation
// state the previous week left behind.
func (s *Scheduler) Generate(weeks int) (*models.Roster, error) {
	if weeks < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWeeks, weeks)
	}
	if err := s.Check(); err != nil {
		return nil, err
	}
	if s.Rand == nil {
		s.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	s.rotations = make(map[string]Rotation, len(s.PrimaryRoles))
	for _, role := range s.PrimaryRoles {
		s.rotations[role] = NewRotation(s.Pool[role])
	}

	additional := s.AdditionalRoles()
	roster := &models.Roster{
		ID:    uuid.NewString(),
		Roles: s.Roles(),
		Weeks: make([]models.WeekAssignment, 0, weeks),
	}

	for w := 0; w < weeks; w++ {
		week := models.NewWeekAssignment(w)

		for _, role := range s.PrimaryRoles {
			pick, next := Select(s.rotations[role], week, s.Exclusions.For(w, role), s.Rand)
			s.rotations[role] = next
			week.Slots[role] = slotFor(pick, ReasonNoCandidate)
		}

		// Additional roles draw from their full list every week, no rotation carried over
		for _, role := range additional {
			rot := NewRotation(s.Pool[role])
			if len(rot.Pool) == 0 {
				week.Slots[role] = models.Slot{Reason: ReasonNoPool}
				continue
			}
			if len(without(rot.Pool, week.Taken())) == 0 {
				week.Slots[role] = models.Slot{Reason: ReasonAllServing}
				continue
			}
			pick, _ := Select(rot, week, s.Exclusions.For(w, role), s.Rand)
			week.Slots[role] = slotFor(pick, ReasonNoCandidate)
		}

		s.applyPairs(week)

		for _, role := range roster.Roles {
			if slot := week.Slots[role]; !slot.Filled {
				roster.Gaps = append(roster.Gaps, models.Gap{Week: w, Role: role, Reason: slot.Reason})
			}
		}
		roster.Weeks = append(roster.Weeks, week)
	}

	return roster, nil
}

// applyPairs clears a paired group for the week unless every member was filled
func (s *Scheduler) applyPairs(week models.WeekAssignment) {
	for _, group := range s.PairedRoles {
		filled := 0
		for _, role := range group {
			if week.Slots[role].Filled {
				filled++
			}
		}
		if filled == 0 || filled == len(group) {
			continue
		}
		for _, role := range group {
			if slot, ok := week.Slots[role]; ok && slot.Filled {
				week.Slots[role] = models.Slot{Reason: ReasonPairIncomplete}
			}
		}
	}
}

func slotFor(pick Pick, reason string) models.Slot {
	if !pick.OK {
		return models.Slot{Reason: reason}
	}
	return models.Slot{Person: pick.Person, Filled: true}
}

// FairnessScore returns a percentage (0-100) representing how evenly primary
// roles are spread across everyone eligible for one. 100% is perfectly fair.
func (s *Scheduler) FairnessScore(roster *models.Roster) float64 {
	turns := make(map[string]float64)
	for _, role := range s.PrimaryRoles {
		for _, person := range normalize(s.Pool[role]) {
			turns[person] = 0
		}
	}
	if len(turns) == 0 || roster == nil {
		return 100.0
	}

	var sum float64
	for _, week := range roster.Weeks {
		for _, role := range s.PrimaryRoles {
			if person, ok := week.Person(role); ok {
				turns[person]++
				sum++
			}
		}
	}

	if sum == 0 {
		return 100.0
	}

	mean := sum / float64(len(turns))

	var varianceSum float64
	for _, n := range turns {
		diff := n - mean
		varianceSum += diff * diff
	}
	stdDev := math.Sqrt(varianceSum / float64(len(turns)))

	// 100% means SD is 0. 0% means SD is >= mean.
	score := (1.0 - (stdDev / mean)) * 100.0
	if score < 0 {
		return 0.0
	}
	return score
}

// GenerateBest runs several independent generations and keeps the roster with
// the fewest gaps, breaking ties on fairness
func (s *Scheduler) GenerateBest(weeks, attempts int) (*models.Roster, error) {
	if attempts < 1 {
		attempts = 1
	}

	var best *models.Roster
	var bestRotations map[string]Rotation
	bestScore := -1.0

	for i := 0; i < attempts; i++ {
		roster, err := s.Generate(weeks)
		if err != nil {
			return nil, err
		}
		score := s.FairnessScore(roster)

		if best == nil || len(roster.Gaps) < len(best.Gaps) ||
			(len(roster.Gaps) == len(best.Gaps) && score > bestScore) {
			best = roster
			bestScore = score
			bestRotations = s.rotations
		}

		if len(best.Gaps) == 0 && bestScore >= 100.0 {
			break
		}
	}

	s.rotations = bestRotations
	return best, nil
}
