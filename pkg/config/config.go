package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/arnavshah/roster-api-go/pkg/scheduler"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalidRoles is returned when a roles file cannot describe a roster layout.
var ErrInvalidRoles = errors.New("invalid roles file")

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment     string
	Port            string
	GinMode         string
	DatabaseURL     string // Postgres DSN; sqlite at DataPath when empty
	DataPath        string
	JWTSecret       string
	APIMasterSecret string
	AdminUsername   string
	AdminPassword   string

	DefaultWeeks int
	MaxWeeks     int
	MaxAttempts  int

	RolesFile string
	Roles     Roles
}

// Roles describes which roles rotate and which must be filled together
type Roles struct {
	Primary []string   `yaml:"primary"`
	Paired  [][]string `yaml:"paired"`
}

// DefaultRoles is the layout used without a roles file
func DefaultRoles() Roles {
	return Roles{
		Primary: append([]string(nil), scheduler.DefaultPrimaryRoles...),
		Paired:  append([][]string(nil), scheduler.DefaultPairedRoles...),
	}
}

// LoadEnvFiles loads the first .env found in the working directory or its parents.
// Variables already set in the environment win.
func LoadEnvFiles() {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// Load reads .env files and the environment into a Config
func Load() (*Config, error) {
	LoadEnvFiles()

	cfg := &Config{
		Environment:     getEnv("ENVIRONMENT", "production"),
		Port:            getEnv("PORT", "8000"),
		GinMode:         getEnv("GIN_MODE", ""),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		DataPath:        getEnv("DATA_PATH", "roster.db"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		APIMasterSecret: getEnv("API_MASTER_SECRET", ""),
		AdminUsername:   getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:   getEnv("ADMIN_PASSWORD", "admin123"),
		DefaultWeeks:    getEnvInt("ROSTER_DEFAULT_WEEKS", 8),
		MaxWeeks:        getEnvInt("ROSTER_MAX_WEEKS", 104),
		MaxAttempts:     getEnvInt("ROSTER_MAX_ATTEMPTS", 50),
		RolesFile:       getEnv("ROSTER_ROLES_FILE", ""),
		Roles:           DefaultRoles(),
	}

	if cfg.DefaultWeeks < 1 || cfg.MaxWeeks < cfg.DefaultWeeks {
		return nil, fmt.Errorf("ROSTER_DEFAULT_WEEKS must be between 1 and ROSTER_MAX_WEEKS (%d)", cfg.MaxWeeks)
	}
	if cfg.MaxAttempts < 1 {
		return nil, fmt.Errorf("ROSTER_MAX_ATTEMPTS must be positive")
	}

	if cfg.RolesFile != "" {
		roles, err := LoadRoles(cfg.RolesFile)
		if err != nil {
			return nil, err
		}
		cfg.Roles = roles
	}

	return cfg, nil
}

// LoadRoles reads a YAML roles file:
//
//	primary: [MC, TH, AC1, AC2, CB]
//	paired:
//	  - [TB1, TB2]
func LoadRoles(path string) (Roles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Roles{}, fmt.Errorf("read roles file: %w", err)
	}

	var roles Roles
	if err := yaml.Unmarshal(data, &roles); err != nil {
		return Roles{}, fmt.Errorf("%w: %v", ErrInvalidRoles, err)
	}
	if err := roles.Validate(); err != nil {
		return Roles{}, err
	}
	return roles, nil
}

// Validate checks primary roles are present and unique and every pair has two or more roles
func (r Roles) Validate() error {
	if len(r.Primary) == 0 {
		return fmt.Errorf("%w: no primary roles", ErrInvalidRoles)
	}
	seen := make(map[string]struct{}, len(r.Primary))
	for _, role := range r.Primary {
		role = strings.TrimSpace(role)
		if role == "" {
			return fmt.Errorf("%w: blank primary role", ErrInvalidRoles)
		}
		if _, ok := seen[role]; ok {
			return fmt.Errorf("%w: primary role %s listed twice", ErrInvalidRoles, role)
		}
		seen[role] = struct{}{}
	}
	for _, group := range r.Paired {
		if len(group) < 2 {
			return fmt.Errorf("%w: paired group %v needs at least two roles", ErrInvalidRoles, group)
		}
	}
	return nil
}

// IsDevelopment reports whether debug behavior should be enabled
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return def
}
