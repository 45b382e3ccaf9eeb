package models

// RosterInput is the data structure for the roster endpoint
type RosterInput struct {
	Candidates   RolePool   `json:"candidates" binding:"required"`
	Exclusions   Exclusions `json:"exclusions"`
	Weeks        int        `json:"weeks"`
	Attempts     int        `json:"attempts"`
	Seed         *int64     `json:"seed,omitempty"`
	PrimaryRoles []string   `json:"primary_roles,omitempty"`
	PairedRoles  [][]string `json:"paired_roles,omitempty"`
	Save         bool       `json:"save"`
}

// RosterResponse is the data structure for the roster result
type RosterResponse struct {
	Roster        *Roster        `json:"roster"`
	FairnessScore float64        `json:"fairness_score"`
	CycleResets   map[string]int `json:"cycle_resets"`
	Counts        map[string]int `json:"counts"` // person -> roles served
	Stored        bool           `json:"stored"`
}

// ValidateResponse reports whether a candidate pool can produce a roster
type ValidateResponse struct {
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems,omitempty"`
	Roles    int      `json:"role_count"`
	People   int      `json:"people_count"`
}
