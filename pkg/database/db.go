package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arnavshah/roster-api-go/pkg/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrRosterNotFound is returned when no stored roster matches an ID for a key.
var ErrRosterNotFound = errors.New("roster not found")

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	KeyPreview string     `json:"key_preview"`
	Name       string     `gorm:"not null" json:"name"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
}

// APIUsage represents the api_usage table
type APIUsage struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	KeyID        uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date         string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount int    `gorm:"default:0" json:"request_count"`
	TotalWeeks   int    `gorm:"default:0" json:"total_weeks"`
	TotalRoles   int    `gorm:"default:0" json:"total_roles"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// RosterRecord represents the rosters table holding generated rosters as JSON
type RosterRecord struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	KeyID     uint      `gorm:"index;not null" json:"key_id"`
	Weeks     int       `json:"weeks"`
	Gaps      int       `json:"gaps"`
	Data      string    `gorm:"type:text;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Open connects to Postgres when dsn is set, otherwise to the sqlite file at dataPath
func Open(dsn, dataPath string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	if dsn != "" {
		dialector = postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		})
		cfg.PrepareStmt = false
	} else {
		if dataPath == "" {
			dataPath = "roster.db"
		}
		dialector = sqlite.Open(dataPath)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := db.AutoMigrate(&APIKey{}, &APIUsage{}, &MasterUser{}, &RosterRecord{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// RecordUsage adds one request to a key's usage for today using a single upsert
func RecordUsage(db *gorm.DB, keyID uint, weeks, roles int) error {
	today := time.Now().Format("2006-01-02")

	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count": gorm.Expr("request_count + ?", 1),
			"total_weeks":   gorm.Expr("total_weeks + ?", weeks),
			"total_roles":   gorm.Expr("total_roles + ?", roles),
		}),
	}).Create(&APIUsage{
		KeyID:        keyID,
		Date:         today,
		RequestCount: 1,
		TotalWeeks:   weeks,
		TotalRoles:   roles,
	}).Error
}

// Usage returns the last 30 days of usage for a key, newest first
func Usage(db *gorm.DB, keyID uint) ([]APIUsage, error) {
	var usage []APIUsage
	err := db.Where("key_id = ?", keyID).Order("date desc").Limit(30).Find(&usage).Error
	return usage, err
}

// SaveRoster stores a generated roster under its ID
func SaveRoster(db *gorm.DB, keyID uint, roster *models.Roster) error {
	data, err := json.Marshal(roster)
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	return db.Create(&RosterRecord{
		ID:    roster.ID,
		KeyID: keyID,
		Weeks: len(roster.Weeks),
		Gaps:  len(roster.Gaps),
		Data:  string(data),
	}).Error
}

// FindRoster loads a roster stored by the given key
func FindRoster(db *gorm.DB, keyID uint, id string) (*models.Roster, error) {
	var rec RosterRecord
	err := db.Where("id = ? AND key_id = ?", id, keyID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRosterNotFound
	}
	if err != nil {
		return nil, err
	}

	var roster models.Roster
	if err := json.Unmarshal([]byte(rec.Data), &roster); err != nil {
		return nil, fmt.Errorf("decode roster %s: %w", id, err)
	}
	return &roster, nil
}

// RequestsToday returns how many requests a key has made today
func RequestsToday(db *gorm.DB, keyID uint) (int, error) {
	var usage APIUsage
	err := db.Where("key_id = ? AND date = ?", keyID, time.Now().Format("2006-01-02")).First(&usage).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return usage.RequestCount, err
}
