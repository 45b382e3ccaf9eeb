package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/arnavshah/roster-api-go/pkg/database"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var jwtAlgorithm = jwt.SigningMethodHS256

// PasswordCost is the bcrypt cost used for admin passwords
var PasswordCost = 14

var (
	// ErrInvalidToken is returned for a JWT that fails verification.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidKey is returned for an API key that is malformed or wrongly signed.
	ErrInvalidKey = errors.New("invalid api key")

	// ErrMissingSecret is returned when signing is attempted without a configured secret.
	ErrMissingSecret = errors.New("signing secret not configured")
)

// Claims represents the JWT claims
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies admin tokens and API keys
type Authenticator struct {
	JWTSecret    []byte
	MasterSecret []byte
	TokenTTL     time.Duration
}

// New creates an Authenticator from the configured secrets
func New(jwtSecret, masterSecret string) *Authenticator {
	return &Authenticator{
		JWTSecret:    []byte(jwtSecret),
		MasterSecret: []byte(masterSecret),
		TokenTTL:     24 * time.Hour,
	}
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CreateToken creates a new JWT token for a user
func (a *Authenticator) CreateToken(username string) (string, error) {
	if len(a.JWTSecret) == 0 {
		return "", ErrMissingSecret
	}
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwtAlgorithm, claims)
	return token.SignedString(a.JWTSecret)
}

// VerifyToken verifies a JWT token
func (a *Authenticator) VerifyToken(tokenString string) (*Claims, error) {
	if len(a.JWTSecret) == 0 {
		return nil, ErrMissingSecret
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwtAlgorithm {
			return nil, ErrInvalidToken
		}
		return a.JWTSecret, nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// EnsureAdminExists creates the configured admin when no admin exists yet.
// It reports whether a user was created.
func EnsureAdminExists(db *gorm.DB, username, password string) (bool, error) {
	var count int64
	if err := db.Model(&database.MasterUser{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}

	user := database.MasterUser{
		Username:     username,
		PasswordHash: hash,
	}
	if err := db.Create(&user).Error; err != nil {
		return false, err
	}
	return true, nil
}

// GenerateHMACKey creates a signed API key using HMAC-SHA256
func (a *Authenticator) GenerateHMACKey(userID string) (string, error) {
	if len(a.MasterSecret) == 0 {
		return "", ErrMissingSecret
	}
	return userID + "." + a.sign(userID), nil
}

// VerifyHMACKey validates an HMAC-signed API key and returns its user ID
func (a *Authenticator) VerifyHMACKey(key string) (string, error) {
	if len(a.MasterSecret) == 0 {
		return "", ErrMissingSecret
	}

	userID, providedSignature, ok := strings.Cut(key, ".")
	if !ok || userID == "" || strings.Contains(providedSignature, ".") {
		return "", ErrInvalidKey
	}

	// Use constant-time comparison to prevent timing attacks
	if !hmac.Equal([]byte(providedSignature), []byte(a.sign(userID))) {
		return "", ErrInvalidKey
	}

	return userID, nil
}

func (a *Authenticator) sign(userID string) string {
	h := hmac.New(sha256.New, a.MasterSecret)
	h.Write([]byte(userID))
	return hex.EncodeToString(h.Sum(nil))
}

// KeyPreview shortens a key for display, e.g. "tea...9f2c"
func KeyPreview(key string) string {
	if len(key) > 8 {
		return key[:3] + "..." + key[len(key)-4:]
	}
	return "****"
}
