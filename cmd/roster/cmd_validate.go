package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arnavshah/roster-api-go/pkg/candidates"
	"github.com/arnavshah/roster-api-go/pkg/config"
)

var validateCandidates string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that a candidates file can produce a roster",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		pool, err := candidates.Load(validateCandidates)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		problems := candidates.Validate(pool, cfg.Roles.Primary)
		for _, p := range problems {
			fmt.Fprintf(out, "  - %s\n", p)
		}
		if len(problems) > 0 {
			return fmt.Errorf("%s has %d problem(s)", validateCandidates, len(problems))
		}

		fmt.Fprintf(out, "%s is valid: %d roles, %d people\n", validateCandidates, len(pool), candidates.People(pool))
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateCandidates, "candidates", "c", candidates.DefaultFile, "CSV of role,person,person,...")
}
