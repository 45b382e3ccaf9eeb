package handlers

import (
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/arnavshah/roster-api-go/pkg/candidates"
	"github.com/arnavshah/roster-api-go/pkg/config"
	"github.com/arnavshah/roster-api-go/pkg/database"
	"github.com/arnavshah/roster-api-go/pkg/exclusions"
	"github.com/arnavshah/roster-api-go/pkg/export"
	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/arnavshah/roster-api-go/pkg/report"
	"github.com/arnavshah/roster-api-go/pkg/scheduler"
	"github.com/gin-gonic/gin"
)

// errBadInput marks request problems that map to 400
var errBadInput = errors.New("invalid input")

// newScheduler builds a scheduler for the request, falling back to the configured role layout
func (h *Handler) newScheduler(in models.RosterInput) *scheduler.Scheduler {
	s := scheduler.NewScheduler(in.Candidates, in.Exclusions)
	s.PrimaryRoles = h.Config.Roles.Primary
	s.PairedRoles = h.Config.Roles.Paired
	if len(in.PrimaryRoles) > 0 {
		s.PrimaryRoles = in.PrimaryRoles
	}
	if in.PairedRoles != nil {
		s.PairedRoles = in.PairedRoles
	}
	if in.Seed != nil {
		s.Rand = rand.New(rand.NewSource(*in.Seed))
	}
	return s
}

// checkLayout applies the roles file rules to a request's role layout
func checkLayout(s *scheduler.Scheduler) error {
	return config.Roles{Primary: s.PrimaryRoles, Paired: s.PairedRoles}.Validate()
}

// generate runs the scheduler for a request and returns the status code to answer with on error
func (h *Handler) generate(c *gin.Context, source string, in models.RosterInput) (*models.RosterResponse, int, error) {
	if in.Weeks == 0 {
		in.Weeks = h.Config.DefaultWeeks
	}
	if in.Weeks < 1 || in.Weeks > h.Config.MaxWeeks {
		return nil, http.StatusBadRequest, fmt.Errorf("%w: weeks must be between 1 and %d", errBadInput, h.Config.MaxWeeks)
	}
	if in.Attempts < 1 {
		in.Attempts = 1
	}
	if in.Attempts > h.Config.MaxAttempts {
		in.Attempts = h.Config.MaxAttempts
	}

	s := h.newScheduler(in)
	if err := checkLayout(s); err != nil {
		return nil, http.StatusBadRequest, err
	}
	if err := candidates.CheckNames(in.Candidates); err != nil {
		return nil, http.StatusBadRequest, err
	}
	if err := exclusions.Validate(in.Exclusions, s.Roles()); err != nil {
		return nil, http.StatusBadRequest, err
	}

	start := time.Now()
	roster, err := s.GenerateBest(in.Weeks, in.Attempts)
	if errors.Is(err, scheduler.ErrEmptyRole) {
		h.Metrics.ObserveConfigError()
		return nil, http.StatusUnprocessableEntity, err
	}
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	took := time.Since(start)

	if err := report.Check(roster); err != nil {
		h.Log.Error().Err(err).Str("roster_id", roster.ID).Msg("generated roster double-books a person")
		return nil, http.StatusInternalServerError, err
	}

	fairness := s.FairnessScore(roster)
	rotations := s.Rotations()
	h.Metrics.ObserveRoster(source, roster, rotations, fairness, took)

	apiKey, _ := currentKey(c)
	resp := &models.RosterResponse{
		Roster:        roster,
		FairnessScore: fairness,
		CycleResets:   make(map[string]int, len(rotations)),
		Counts:        roster.Counts(),
	}
	for role, rot := range rotations {
		resp.CycleResets[role] = rot.Resets
	}

	if in.Save && apiKey != nil {
		if err := database.SaveRoster(h.DB, apiKey.ID, roster); err != nil {
			return nil, http.StatusInternalServerError, fmt.Errorf("store roster: %w", err)
		}
		resp.Stored = true
	}

	h.recordUsage(c, len(roster.Weeks), len(roster.Roles))

	h.Log.Debug().
		Str("roster_id", roster.ID).
		Str("source", source).
		Int("weeks", len(roster.Weeks)).
		Int("gaps", len(roster.Gaps)).
		Float64("fairness", fairness).
		Msg("roster generated")

	return resp, http.StatusOK, nil
}

// recordUsage records API usage for the calling key
func (h *Handler) recordUsage(c *gin.Context, weeks, roles int) {
	apiKey, ok := currentKey(c)
	if !ok {
		return
	}
	if err := database.RecordUsage(h.DB, apiKey.ID, weeks, roles); err != nil {
		h.Log.Warn().Err(err).Uint("key_id", apiKey.ID).Msg("record usage")
	}
}

// GenerateRoster handles the JSON-based roster request
func (h *Handler) GenerateRoster(c *gin.Context) {
	var input models.RosterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, status, err := h.generate(c, "api", input)
	if err != nil {
		h.fail(c, status, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GenerateRosterCSV handles CSV candidate uploads and answers with the roster as CSV
func (h *Handler) GenerateRosterCSV(c *gin.Context) {
	candidatesFile, _ := c.FormFile("candidates_file")
	if candidatesFile == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "candidates_file is required"})
		return
	}

	cFile, err := candidatesFile.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open candidates file"})
		return
	}
	defer cFile.Close()

	pool, err := candidates.Read(cFile)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := models.RosterInput{Candidates: pool}
	for field, dst := range map[string]*int{"weeks": &input.Weeks, "attempts": &input.Attempts} {
		if v := strings.TrimSpace(c.PostForm(field)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": field + " must be a number"})
				return
			}
			*dst = n
		}
	}
	if v := strings.TrimSpace(c.PostForm("seed")); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "seed must be a number"})
			return
		}
		input.Seed = &seed
	}
	input.Save = c.PostForm("save") == "true"

	// Exclusions arrive as YAML
	if exclusionsFile, _ := c.FormFile("exclusions_file"); exclusionsFile != nil {
		eFile, err := exclusionsFile.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open exclusions file"})
			return
		}
		defer eFile.Close()

		input.Exclusions, err = exclusions.Decode(eFile, h.newScheduler(input).Roles(), 0)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	resp, status, err := h.generate(c, "csv", input)
	if err != nil {
		h.fail(c, status, err)
		return
	}

	var out strings.Builder
	if err := export.Write(&out, resp.Roster); err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":             resp.Roster.ID,
		"csv":            out.String(),
		"gaps":           resp.Roster.Gaps,
		"fairness_score": resp.FairnessScore,
		"stored":         resp.Stored,
	})
}

// GetRoster returns a stored roster as JSON, or as CSV with ?format=csv
func (h *Handler) GetRoster(c *gin.Context) {
	apiKey, ok := currentKey(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "API Key context missing"})
		return
	}

	roster, err := database.FindRoster(h.DB, apiKey.ID, c.Param("id"))
	if errors.Is(err, database.ErrRosterNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}

	if c.Query("format") == "csv" {
		var out strings.Builder
		if err := export.Write(&out, roster); err != nil {
			h.fail(c, http.StatusInternalServerError, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(roster.ID)))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(out.String()))
		return
	}

	c.JSON(http.StatusOK, roster)
}
