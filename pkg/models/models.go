package models

import "sort"

// Unavailable is how an unfilled role is rendered in reports and CSV files
const Unavailable = "NA"

// RolePool maps a role name to the people eligible to fill it
type RolePool map[string][]string

// Roles returns the role names in the pool, sorted
func (p RolePool) Roles() []string {
	roles := make([]string, 0, len(p))
	for role := range p {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// Exclusions maps a week index (0-based) to the people excluded from each role that week
type Exclusions map[int]map[string][]string

// For returns the people excluded from a role in a week
func (e Exclusions) For(week int, role string) []string {
	if e == nil {
		return nil
	}
	return e[week][role]
}

// Add excludes a person from a role for one week
func (e Exclusions) Add(week int, role, person string) {
	if e[week] == nil {
		e[week] = make(map[string][]string)
	}
	e[week][role] = append(e[week][role], person)
}

// Slot is the outcome for one role in one week
type Slot struct {
	Person string `json:"person,omitempty"`
	Filled bool   `json:"filled"`
	Reason string `json:"reason,omitempty"`
}

// String renders the slot, using the Unavailable marker when nobody was found
func (s Slot) String() string {
	if !s.Filled {
		return Unavailable
	}
	return s.Person
}

// WeekAssignment holds the role assignments for a single week
type WeekAssignment struct {
	Week  int             `json:"week"`
	Slots map[string]Slot `json:"slots"`
}

// NewWeekAssignment creates an empty assignment for a week
func NewWeekAssignment(week int) WeekAssignment {
	return WeekAssignment{Week: week, Slots: make(map[string]Slot)}
}

// Person returns who fills a role this week
func (w WeekAssignment) Person(role string) (string, bool) {
	slot, ok := w.Slots[role]
	if !ok || !slot.Filled {
		return "", false
	}
	return slot.Person, true
}

// Taken returns everyone holding a role this week
func (w WeekAssignment) Taken() map[string]struct{} {
	taken := make(map[string]struct{}, len(w.Slots))
	for _, slot := range w.Slots {
		if slot.Filled {
			taken[slot.Person] = struct{}{}
		}
	}
	return taken
}

// Duplicates returns people who hold more than one role this week, sorted
func (w WeekAssignment) Duplicates() []string {
	seen := make(map[string]int, len(w.Slots))
	for _, slot := range w.Slots {
		if slot.Filled {
			seen[slot.Person]++
		}
	}
	var dups []string
	for person, n := range seen {
		if n > 1 {
			dups = append(dups, person)
		}
	}
	sort.Strings(dups)
	return dups
}

// Gap records a role that could not be filled in a week
type Gap struct {
	Week   int    `json:"week"`
	Role   string `json:"role"`
	Reason string `json:"reason"`
}

// Roster is the generated sequence of weekly assignments
type Roster struct {
	ID    string           `json:"id"`
	Roles []string         `json:"roles"`
	Weeks []WeekAssignment `json:"weeks"`
	Gaps  []Gap            `json:"gaps,omitempty"`
}

// Counts returns how many roles each person was given across the roster
func (r *Roster) Counts() map[string]int {
	counts := make(map[string]int)
	for _, week := range r.Weeks {
		for _, slot := range week.Slots {
			if slot.Filled {
				counts[slot.Person]++
			}
		}
	}
	return counts
}
