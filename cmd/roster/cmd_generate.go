package main

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/arnavshah/roster-api-go/pkg/candidates"
	"github.com/arnavshah/roster-api-go/pkg/config"
	"github.com/arnavshah/roster-api-go/pkg/exclusions"
	"github.com/arnavshah/roster-api-go/pkg/export"
	"github.com/arnavshah/roster-api-go/pkg/logging"
	"github.com/arnavshah/roster-api-go/pkg/metrics"
	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/arnavshah/roster-api-go/pkg/report"
	"github.com/arnavshah/roster-api-go/pkg/scheduler"
)

var generateOpts struct {
	candidates string
	exclusions string
	weeks      int
	attempts   int
	seed       int64
	out        string
	noPrompt   bool
	metrics    string
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate and print a roster, then optionally save it as CSV",
	RunE:  runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&generateOpts.candidates, "candidates", "c", candidates.DefaultFile, "CSV of role,person,person,...")
	f.StringVarP(&generateOpts.exclusions, "exclusions", "e", "", "YAML exclusions file (skips the interactive prompt)")
	f.IntVarP(&generateOpts.weeks, "weeks", "w", 0, "number of weeks (defaults to ROSTER_DEFAULT_WEEKS)")
	f.IntVar(&generateOpts.attempts, "attempts", 1, "generate this many rosters and keep the one with the fewest gaps")
	f.Int64Var(&generateOpts.seed, "seed", 0, "random seed for a reproducible roster (0 picks one)")
	f.StringVarP(&generateOpts.out, "out", "o", "", "file to save the roster to")
	f.BoolVar(&generateOpts.noPrompt, "no-prompt", false, "never ask questions on stdin")
	f.StringVar(&generateOpts.metrics, "metrics-file", "", "write Prometheus metrics for this run to a textfile collector file")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.SetupWithWriter(cfg.IsDevelopment(), cmd.ErrOrStderr())
	out := cmd.OutOrStdout()

	pool, err := candidates.Load(generateOpts.candidates)
	if err != nil {
		return err
	}

	weeks := generateOpts.weeks
	if weeks == 0 {
		weeks = cfg.DefaultWeeks
	}

	s := scheduler.NewScheduler(pool, nil)
	s.PrimaryRoles = cfg.Roles.Primary
	s.PairedRoles = cfg.Roles.Paired
	if generateOpts.seed != 0 {
		s.Rand = rand.New(rand.NewSource(generateOpts.seed))
	}

	reg := prometheus.NewRegistry()
	collector := metrics.New(reg, "")

	// Fail before asking about exclusions if the roster can never be built
	if err := s.Check(); err != nil {
		collector.ObserveConfigError()
		return errors.Join(err, writeMetrics(reg))
	}

	prompter := &exclusions.Prompter{
		In:    cmd.InOrStdin(),
		Out:   out,
		Roles: s.PrimaryRoles,
		Weeks: weeks,
	}

	var excl models.Exclusions
	switch {
	case generateOpts.exclusions != "":
		excl, err = exclusions.Load(generateOpts.exclusions, s.Roles(), weeks)
	case !generateOpts.noPrompt:
		excl, err = prompter.Collect()
	}
	if err != nil {
		return err
	}
	s.Exclusions = excl
	logger.Debug().Interface("exclusions", excl).Msg("exclusions collected")

	attempts := generateOpts.attempts
	if attempts > cfg.MaxAttempts {
		attempts = cfg.MaxAttempts
	}

	start := time.Now()
	roster, err := s.GenerateBest(weeks, attempts)
	if err != nil {
		return err
	}
	fairness := s.FairnessScore(roster)
	collector.ObserveRoster("cli", roster, s.Rotations(), fairness, time.Since(start))
	if err := writeMetrics(reg); err != nil {
		return err
	}

	logger.Info().
		Int("weeks", len(roster.Weeks)).
		Int("gaps", len(roster.Gaps)).
		Float64("fairness", fairness).
		Msg("roster generated")

	if err := report.NewPrinter(out).Print(roster); err != nil {
		return err
	}

	name := generateOpts.out
	if name == "" {
		if generateOpts.noPrompt {
			return nil
		}
		answer, ok := prompter.Ask("Enter the name to save the roster as, or leave blank to skip: ")
		if !ok || answer == "" {
			return nil
		}
		name = answer
	}

	path, err := export.Save(name, roster)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Rosters written to %s.\n", path)
	return nil
}

// writeMetrics saves the run's metrics for node_exporter's textfile collector
func writeMetrics(reg *prometheus.Registry) error {
	if generateOpts.metrics == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(generateOpts.metrics, reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
