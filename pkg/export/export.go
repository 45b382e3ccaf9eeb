// Package export writes rosters to CSV, one row per week, and reads them back.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/arnavshah/roster-api-go/pkg/models"
)

const (
	// DefaultFile is used when no file name is given
	DefaultFile = "roster.csv"

	// WeekColumn heads the 1-based week number column
	WeekColumn = "Week"
)

var (
	// ErrEmptyRoster is returned when there are no weeks to write or read.
	ErrEmptyRoster = errors.New("no rosters to write")

	// ErrBadHeader is returned when a roster file does not start with the week column.
	ErrBadHeader = errors.New("roster file must start with a Week column")
)

// FileName defaults a blank name and makes sure it ends in .csv
func FileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultFile
	}
	if !strings.HasSuffix(strings.ToLower(name), ".csv") {
		name += ".csv"
	}
	return name
}

// Save writes the roster to the named file and returns the path used
func Save(name string, roster *models.Roster) (string, error) {
	path := FileName(name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create roster file: %w", err)
	}

	if err := Write(f, roster); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close roster file: %w", err)
	}
	return path, nil
}

// Write emits a header of Week plus every role, then one row per week.
// Unfilled roles are written as models.Unavailable.
func Write(w io.Writer, roster *models.Roster) error {
	if roster == nil || len(roster.Weeks) == 0 {
		return ErrEmptyRoster
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(append([]string{WeekColumn}, roster.Roles...)); err != nil {
		return fmt.Errorf("write roster header: %w", err)
	}

	for i, week := range roster.Weeks {
		record := make([]string, 0, len(roster.Roles)+1)
		record = append(record, strconv.Itoa(i+1))
		for _, role := range roster.Roles {
			record = append(record, week.Slots[role].String())
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write roster week %d: %w", i+1, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Load reads a roster file written by Save
func Load(path string) (*models.Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses the format produced by Write. Blank cells and the unavailable
// marker both read back as unfilled roles.
func Read(r io.Reader) (*models.Roster, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyRoster
	}
	if err != nil {
		return nil, fmt.Errorf("read roster header: %w", err)
	}
	if strings.TrimSpace(header[0]) != WeekColumn {
		return nil, ErrBadHeader
	}

	roster := &models.Roster{}
	for _, role := range header[1:] {
		roster.Roles = append(roster.Roles, strings.TrimSpace(role))
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read roster row: %w", err)
		}

		n, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("read roster row: bad week %q: %w", record[0], err)
		}

		week := models.NewWeekAssignment(n - 1)
		for i, role := range roster.Roles {
			value := strings.TrimSpace(record[i+1])
			if value == "" || value == models.Unavailable {
				week.Slots[role] = models.Slot{}
				roster.Gaps = append(roster.Gaps, models.Gap{Week: n - 1, Role: role})
				continue
			}
			week.Slots[role] = models.Slot{Person: value, Filled: true}
		}
		roster.Weeks = append(roster.Weeks, week)
	}

	if len(roster.Weeks) == 0 {
		return nil, ErrEmptyRoster
	}
	return roster, nil
}
