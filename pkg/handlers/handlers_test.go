package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/arnavshah/roster-api-go/pkg/auth"
	"github.com/arnavshah/roster-api-go/pkg/config"
	"github.com/arnavshah/roster-api-go/pkg/database"
	"github.com/arnavshah/roster-api-go/pkg/metrics"
	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupRouter(t *testing.T) (*gin.Engine, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth.PasswordCost = bcrypt.MinCost

	db, err := database.Open("", filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	h := &Handler{
		DB:   db,
		Auth: auth.New("jwt-secret", "master-secret"),
		Config: &config.Config{
			DefaultWeeks: 8,
			MaxWeeks:     52,
			MaxAttempts:  10,
			Roles:        config.DefaultRoles(),
		},
		Metrics:        metrics.New(reg, "test"),
		Log:            zerolog.Nop(),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	return NewRouter(h), h
}

func testKey(t *testing.T, h *Handler, name string) string {
	t.Helper()
	key, err := h.Auth.GenerateHMACKey(name)
	require.NoError(t, err)
	return key
}

func testPool() models.RolePool {
	people := []string{"Alice", "Bob", "Carol", "Dave", "Erin", "Frank"}
	return models.RolePool{"MC": people, "TH": people, "AC1": people, "AC2": people, "CB": people}
}

func doJSON(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGenerateRoster(t *testing.T) {
	r, h := setupRouter(t)
	key := testKey(t, h, "team-a")
	seed := int64(3)

	w := doJSON(r, http.MethodPost, "/api/roster", key, models.RosterInput{
		Candidates: testPool(),
		Exclusions: models.Exclusions{0: {"MC": {"Alice"}}},
		Weeks:      4,
		Seed:       &seed,
		Save:       true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.RosterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Roster)
	assert.True(t, resp.Stored)
	assert.Len(t, resp.Roster.Weeks, 4)
	assert.Equal(t, []string{"MC", "TH", "AC1", "AC2", "CB"}, resp.Roster.Roles)
	assert.Empty(t, resp.Roster.Gaps)

	mc, ok := resp.Roster.Weeks[0].Person("MC")
	require.True(t, ok)
	assert.NotEqual(t, "Alice", mc)
	for _, week := range resp.Roster.Weeks {
		assert.Empty(t, week.Duplicates())
	}

	w = doJSON(r, http.MethodGet, "/api/roster/"+resp.Roster.ID, key, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stored models.Roster
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stored))
	assert.Equal(t, resp.Roster.ID, stored.ID)
	assert.Len(t, stored.Weeks, 4)

	w = doJSON(r, http.MethodGet, "/api/roster/"+resp.Roster.ID+"?format=csv", key, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "Week,MC,TH,AC1,AC2,CB\n"))

	// another key cannot read it
	w = doJSON(r, http.MethodGet, "/api/roster/"+resp.Roster.ID, testKey(t, h, "team-b"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateRoster_RequiresKey(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(r, http.MethodPost, "/api/roster", "", models.RosterInput{Candidates: testPool()})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/api/roster", "team-a.bogus", models.RosterInput{Candidates: testPool()})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGenerateRoster_Errors(t *testing.T) {
	r, h := setupRouter(t)
	key := testKey(t, h, "team-a")

	emptyMC := testPool()
	emptyMC["MC"] = []string{}

	markerName := testPool()
	markerName["TH"] = []string{"Alice", models.Unavailable}

	cases := []struct {
		name   string
		input  models.RosterInput
		status int
	}{
		{"empty primary role", models.RosterInput{Candidates: emptyMC}, http.StatusUnprocessableEntity},
		{"unknown exclusion role", models.RosterInput{Candidates: testPool(), Exclusions: models.Exclusions{0: {"DJ": {"Alice"}}}}, http.StatusBadRequest},
		{"too many weeks", models.RosterInput{Candidates: testPool(), Weeks: 53}, http.StatusBadRequest},
		{"negative weeks", models.RosterInput{Candidates: testPool(), Weeks: -2}, http.StatusBadRequest},
		{"missing candidates", models.RosterInput{}, http.StatusBadRequest},
		{"primary role listed twice", models.RosterInput{Candidates: testPool(), PrimaryRoles: []string{"MC", "MC", "TH"}}, http.StatusBadRequest},
		{"blank primary role", models.RosterInput{Candidates: testPool(), PrimaryRoles: []string{"MC", " "}}, http.StatusBadRequest},
		{"single role pair", models.RosterInput{Candidates: testPool(), PairedRoles: [][]string{{"AC1"}}}, http.StatusBadRequest},
		{"person named like the unfilled marker", models.RosterInput{Candidates: markerName}, http.StatusBadRequest},
	}

	for _, tc := range cases {
		w := doJSON(r, http.MethodPost, "/api/roster", key, tc.input)
		assert.Equal(t, tc.status, w.Code, tc.name)
		assert.Contains(t, w.Body.String(), "error", tc.name)
	}
}

func TestGenerateRosterCSV(t *testing.T) {
	r, h := setupRouter(t)
	key := testKey(t, h, "team-a")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("candidates_file", "servers.csv")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("MC, Alice, Bob\nTH, Carol\nAC1, Dave\nAC2, Erin\nCB, Frank\n"))
	fw, err = mw.CreateFormFile("exclusions_file", "exclusions.yaml")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("weeks:\n  1:\n    TH: [Carol]\n"))
	require.NoError(t, mw.WriteField("weeks", "3"))
	require.NoError(t, mw.WriteField("seed", "9"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/roster/csv", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+key)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		ID   string       `json:"id"`
		CSV  string       `json:"csv"`
		Gaps []models.Gap `json:"gaps"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	lines := strings.Split(strings.TrimSpace(resp.CSV), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Week,MC,TH,AC1,AC2,CB", lines[0])
	assert.Contains(t, lines[2], ",NA,")
	require.Len(t, resp.Gaps, 1)
	assert.Equal(t, "TH", resp.Gaps[0].Role)
}

func TestGenerateRosterCSV_MissingFile(t *testing.T) {
	r, h := setupRouter(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("weeks", "3"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/roster/csv", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testKey(t, h, "team-a"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateInput(t *testing.T) {
	r, h := setupRouter(t)
	key := testKey(t, h, "team-a")

	pool := testPool()
	delete(pool, "CB")

	w := doJSON(r, http.MethodPost, "/api/validate", key, models.RosterInput{Candidates: pool})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ValidateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	assert.Equal(t, []string{"primary role CB is missing"}, resp.Problems)
	assert.Equal(t, 4, resp.Roles)
	assert.Equal(t, 6, resp.People)

	w = doJSON(r, http.MethodPost, "/api/validate", key, models.RosterInput{Candidates: testPool()})
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)

	resp = models.ValidateResponse{}
	w = doJSON(r, http.MethodPost, "/api/validate", key, models.RosterInput{
		Candidates:   testPool(),
		PrimaryRoles: []string{"MC", "MC", "TH"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	require.Len(t, resp.Problems, 1)
	assert.Contains(t, resp.Problems[0], "primary role MC listed twice")
}

func TestUsageAndMetrics(t *testing.T) {
	r, h := setupRouter(t)
	key := testKey(t, h, "team-a")

	w := doJSON(r, http.MethodPost, "/api/roster", key, models.RosterInput{Candidates: testPool(), Weeks: 2})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/usage", key, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var usage struct {
		KeyName string `json:"key_name"`
		Totals  struct {
			Requests int `json:"requests"`
			Weeks    int `json:"weeks"`
			Roles    int `json:"roles"`
		} `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &usage))
	assert.Equal(t, "team-a", usage.KeyName)
	assert.Equal(t, 1, usage.Totals.Requests)
	assert.Equal(t, 2, usage.Totals.Weeks)
	assert.Equal(t, 5, usage.Totals.Roles)

	w = doJSON(r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `test_generated_total{source="api"} 1`)
}

func TestAdminFlow(t *testing.T) {
	r, h := setupRouter(t)
	_, err := auth.EnsureAdminExists(h.DB, "admin", "s3cret")
	require.NoError(t, err)

	w := doJSON(r, http.MethodPost, "/admin/login", "", gin.H{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/admin/login", "", gin.H{"username": "admin", "password": "s3cret"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.AccessToken)

	w = doJSON(r, http.MethodPost, "/admin/keys", "", gin.H{"name": "team-c"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/admin/keys", login.AccessToken, gin.H{"name": "team-c", "rate_limit": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created struct {
		ID  uint   `json:"id"`
		Key string `json:"key"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(r, http.MethodGet, "/admin/keys", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "team-c")
	assert.NotContains(t, w.Body.String(), created.Key)

	// the daily limit of one request is enforced
	w = doJSON(r, http.MethodPost, "/api/roster", created.Key, models.RosterInput{Candidates: testPool(), Weeks: 1})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, http.MethodPost, "/api/roster", created.Key, models.RosterInput{Candidates: testPool(), Weeks: 1})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = doJSON(r, http.MethodGet, "/admin/usage/"+strconv.FormatUint(uint64(created.ID), 10), login.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"request_count":1`)

	w = doJSON(r, http.MethodDelete, "/admin/keys/"+strconv.FormatUint(uint64(created.ID), 10), login.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminInterface(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(r, http.MethodGet, "/admin", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Role Roster API")
}
