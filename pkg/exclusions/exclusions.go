// Package exclusions collects the people who cannot serve in a role for a given week,
// either interactively or from a YAML file.
package exclusions

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/arnavshah/roster-api-go/pkg/models"
	"gopkg.in/yaml.v3"
)

// AllRoles excludes a person from every primary role
const AllRoles = "ALL"

var (
	// ErrUnknownRole is returned when an exclusion names a role nobody configured.
	ErrUnknownRole = errors.New("unknown role")

	// ErrInvalidWeek is returned for a week index outside the roster.
	ErrInvalidWeek = errors.New("week out of range")
)

// File is the on-disk layout of an exclusions file. Weeks are 0-based:
//
//	weeks:
//	  0:
//	    MC: [Alice]
//	    TH: [Alice, Bob]
type File struct {
	Weeks map[int]map[string][]string `yaml:"weeks"`
}

// Load reads exclusions from a YAML file
func Load(path string, roles []string, weeks int) (models.Exclusions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open exclusions file: %w", err)
	}
	defer f.Close()

	return Decode(f, roles, weeks)
}

// Decode reads exclusions from YAML and checks every role and week against the roster layout.
// A weeks value of zero or less skips the week range check.
func Decode(r io.Reader, roles []string, weeks int) (models.Exclusions, error) {
	var file File
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode exclusions: %w", err)
	}

	excl := make(models.Exclusions)
	for week, byRole := range file.Weeks {
		if week < 0 || (weeks > 0 && week >= weeks) {
			return nil, fmt.Errorf("%w: %d", ErrInvalidWeek, week)
		}
		for name, people := range byRole {
			role, ok := lookup(roles, name)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownRole, name)
			}
			for _, person := range people {
				if person = strings.TrimSpace(person); person != "" {
					excl.Add(week, role, person)
				}
			}
		}
	}
	return excl, nil
}

// Validate checks that exclusions only name known roles
func Validate(excl models.Exclusions, roles []string) error {
	for week, byRole := range excl {
		if week < 0 {
			return fmt.Errorf("%w: %d", ErrInvalidWeek, week)
		}
		for role := range byRole {
			if _, ok := lookup(roles, role); !ok {
				return fmt.Errorf("%w: %s", ErrUnknownRole, role)
			}
		}
	}
	return nil
}

// Prompter asks on Out, and reads answers from In, who to exclude each week
type Prompter struct {
	In    io.Reader
	Out   io.Writer
	Roles []string
	Weeks int

	scanner *bufio.Scanner
}

// Ask prints a prompt and returns the trimmed answer. It reports false once input runs out.
func (p *Prompter) Ask(prompt string) (string, bool) {
	if p.scanner == nil {
		p.scanner = bufio.NewScanner(p.In)
	}
	fmt.Fprint(p.Out, prompt)
	if !p.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.scanner.Text()), true
}

func (p *Prompter) err() error {
	if p.scanner == nil {
		return nil
	}
	return p.scanner.Err()
}

// Collect walks every week asking for names to exclude and the roles to exclude them from.
// Unrecognized roles are rejected and asked again. Running out of input ends collection
// with whatever was gathered so far.
func (p *Prompter) Collect() (models.Exclusions, error) {
	excl := make(models.Exclusions)
	valid := strings.Join(append(append([]string(nil), p.Roles...), AllRoles), ", ")

	for week := 0; week < p.Weeks; week++ {
		for {
			name, ok := p.Ask(fmt.Sprintf("Enter name of a person to exclude for week %d, or press enter when nobody else to exclude week %d: ", week+1, week+1))
			if !ok {
				return excl, p.err()
			}
			if name == "" {
				break
			}

			var roles []string
			for {
				role, ok := p.Ask(fmt.Sprintf("Enter a role to exclude (%s), or press enter when no more roles to exclude: ", valid))
				if !ok {
					addAll(excl, week, roles, name)
					return excl, p.err()
				}
				if role == "" {
					break
				}
				if strings.ToUpper(role) == AllRoles {
					roles = append([]string(nil), p.Roles...)
					break
				}
				known, ok := lookup(p.Roles, role)
				if !ok {
					fmt.Fprintln(p.Out, "Invalid input")
					continue
				}
				roles = append(roles, known)
			}
			addAll(excl, week, roles, name)
		}
		fmt.Fprintln(p.Out)
	}
	return excl, nil
}

func addAll(excl models.Exclusions, week int, roles []string, person string) {
	for _, role := range roles {
		excl.Add(week, role, person)
	}
}

// lookup matches a role name case-insensitively and returns the configured spelling
func lookup(roles []string, role string) (string, bool) {
	for _, r := range roles {
		if strings.EqualFold(r, role) {
			return r, true
		}
	}
	return "", false
}
