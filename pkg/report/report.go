// Package report renders a roster for the terminal.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/charmbracelet/lipgloss"
)

// ErrDuplicateAssignment means a week gives one person two roles. The scheduler never
// produces this, so seeing it points at a bug rather than bad input.
var ErrDuplicateAssignment = errors.New("person assigned to more than one role in a week")

// Check returns ErrDuplicateAssignment for the first week that double-books someone
func Check(roster *models.Roster) error {
	for i, week := range roster.Weeks {
		if err := checkWeek(i, week); err != nil {
			return err
		}
	}
	return nil
}

func checkWeek(i int, week models.WeekAssignment) error {
	if dups := week.Duplicates(); len(dups) > 0 {
		return fmt.Errorf("%w: week %d: %s", ErrDuplicateAssignment, i+1, strings.Join(dups, ", "))
	}
	return nil
}

// Printer writes rosters one week at a time. Colors are only used when Out is a terminal.
type Printer struct {
	Out io.Writer

	heading lipgloss.Style
	missing lipgloss.Style
	muted   lipgloss.Style
}

// NewPrinter creates a printer writing to out
func NewPrinter(out io.Writer) *Printer {
	r := lipgloss.NewRenderer(out)
	return &Printer{
		Out:     out,
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		missing: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#999999")),
	}
}

// Print renders every week, checking each for double-booked people before writing it
func (p *Printer) Print(roster *models.Roster) error {
	for i, week := range roster.Weeks {
		if err := checkWeek(i, week); err != nil {
			return err
		}

		fmt.Fprintln(p.Out, p.heading.Render(fmt.Sprintf("Week %d:", i+1)))
		for _, role := range roster.Roles {
			slot, ok := week.Slots[role]
			if !ok {
				continue
			}
			value := slot.Person
			if !slot.Filled {
				value = p.missing.Render(models.Unavailable)
			}
			fmt.Fprintf(p.Out, "%s: %s\n", role, value)
		}
		fmt.Fprintln(p.Out)
	}

	if len(roster.Gaps) > 0 {
		fmt.Fprintln(p.Out, p.heading.Render("Unfilled roles:"))
		for _, gap := range roster.Gaps {
			fmt.Fprintf(p.Out, "Week %d %s: %s\n", gap.Week+1, gap.Role, p.muted.Render(gap.Reason))
		}
	}
	return nil
}
