// Package candidates loads the role pool from a CSV file where each row is
// a role name followed by everyone who can fill it:
//
//	MC, Alice, Bob
//	TH, Alice, Carol
package candidates

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/arnavshah/roster-api-go/pkg/models"
)

// DefaultFile is read when no candidates file is given
const DefaultFile = "servers.csv"

var (
	// ErrNoRoles is returned when a candidates file holds no role rows
	ErrNoRoles = errors.New("candidates file defines no roles")

	// ErrReservedName is returned for a person named like the unfilled marker,
	// which would read back from a saved roster as an empty slot.
	ErrReservedName = errors.New("name is reserved for unfilled roles")
)

// utf8BOM is written at the start of CSV files by some spreadsheet exports
const utf8BOM = "\ufeff"

// Load reads a role pool from a CSV file
func Load(path string) (models.RolePool, error) {
	if path == "" {
		path = DefaultFile
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candidates file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses role rows from r. Fields are trimmed, blank fields dropped and
// repeated names within a row collapsed. A role listed twice keeps its last row.
func Read(r io.Reader) (models.RolePool, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	pool := make(models.RolePool)
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("candidates line %d: %w", line, err)
		}

		if line == 1 {
			record[0] = strings.TrimPrefix(record[0], utf8BOM)
		}
		role := strings.TrimSpace(record[0])
		if role == "" {
			continue
		}

		seen := make(map[string]struct{}, len(record)-1)
		people := make([]string, 0, len(record)-1)
		for _, field := range record[1:] {
			name := strings.TrimSpace(field)
			if name == "" {
				continue
			}
			if name == models.Unavailable {
				return nil, fmt.Errorf("candidates line %d: %w: %s", line, ErrReservedName, name)
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			people = append(people, name)
		}
		pool[role] = people
	}

	if len(pool) == 0 {
		return nil, ErrNoRoles
	}
	return pool, nil
}

// Validate lists the problems that would stop a roster being generated from pool
func Validate(pool models.RolePool, primary []string) []string {
	var problems []string
	for _, role := range primary {
		people, ok := pool[role]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("primary role %s is missing", role))
		case len(people) == 0:
			problems = append(problems, fmt.Sprintf("primary role %s has no eligible people", role))
		}
	}
	return problems
}

// CheckNames rejects a pool where anyone is named like the unfilled marker
func CheckNames(pool models.RolePool) error {
	for _, role := range pool.Roles() {
		for _, person := range pool[role] {
			if strings.TrimSpace(person) == models.Unavailable {
				return fmt.Errorf("%w: %s in role %s", ErrReservedName, models.Unavailable, role)
			}
		}
	}
	return nil
}

// People counts the distinct people across every role
func People(pool models.RolePool) int {
	seen := make(map[string]struct{})
	for _, people := range pool {
		for _, p := range people {
			seen[strings.TrimSpace(p)] = struct{}{}
		}
	}
	return len(seen)
}
