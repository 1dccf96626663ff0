package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ilask/weather-data/models"
)

// rateLimitWindow is the trailing window the per-client request count covers.
const rateLimitWindow = time.Minute

var (
	// ErrClientNotConfigured means no RateLimitConfig row exists for the client.
	ErrClientNotConfigured = errors.New("client is not configured")
	// ErrInvalidLimit means a negative requests-per-minute value was supplied.
	ErrInvalidLimit = errors.New("invalid limit value")
)

// RateLimitDecision is the outcome of one rate-limit check.
type RateLimitDecision struct {
	Allowed   bool `json:"allowed"`
	Blocked   bool `json:"-"`
	Remaining int  `json:"remaining"`
}

// RateLimitService decides whether a client request fits its configured
// per-minute budget. All state lives in the database: the config row is read
// on every check and the trailing-window count is a single SQL aggregate
// over the access log. Two concurrent checks for the same client can race;
// that approximation is accepted for coarse throttling.
type RateLimitService struct {
	db     *gorm.DB
	window time.Duration
	now    func() time.Time
}

// NewRateLimitService creates a new RateLimitService.
func NewRateLimitService(db *gorm.DB) *RateLimitService {
	return &RateLimitService{
		db:     db,
		window: rateLimitWindow,
		now:    time.Now,
	}
}

// Check decides whether the current request is allowed. Allowed requests are
// appended to the access log; denied ones are not, so a rejected request
// never counts against future windows.
func (s *RateLimitService) Check(clientID, method, path string) (*RateLimitDecision, error) {
	var config models.RateLimitConfig
	if err := s.db.Where("client_id = ?", clientID).First(&config).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotConfigured
		}
		return nil, fmt.Errorf("rate limit config lookup failed: %w", err)
	}

	// Blocked clients are rejected before any counting.
	if config.IsBlocked {
		return &RateLimitDecision{Blocked: true}, nil
	}

	windowStart := s.now().Add(-s.window)
	var count int64
	if err := s.db.Model(&models.APIAccessLog{}).
		Where("client_id = ? AND created_at >= ?", clientID, windowStart).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("request count lookup failed: %w", err)
	}

	remaining := config.RequestsPerMinute - int(count)
	if remaining <= 0 {
		return &RateLimitDecision{Allowed: false, Remaining: remaining}, nil
	}

	entry := models.APIAccessLog{
		ClientID:  clientID,
		Method:    method,
		Path:      path,
		CreatedAt: s.now(),
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("failed to record access log: %w", err)
	}

	return &RateLimitDecision{Allowed: true, Remaining: remaining}, nil
}

// UpdateLimit persists a new requests-per-minute budget for the client,
// creating the config row on first write.
func (s *RateLimitService) UpdateLimit(clientID string, requestsPerMinute int) error {
	if requestsPerMinute < 0 {
		return ErrInvalidLimit
	}

	var config models.RateLimitConfig
	err := s.db.Where("client_id = ?", clientID).First(&config).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		config = models.RateLimitConfig{
			ClientID:          clientID,
			RequestsPerMinute: requestsPerMinute,
		}
		return s.db.Create(&config).Error
	}
	if err != nil {
		return fmt.Errorf("rate limit config lookup failed: %w", err)
	}

	config.RequestsPerMinute = requestsPerMinute
	return s.db.Save(&config).Error
}

// Config returns the stored configuration for a client.
func (s *RateLimitService) Config(clientID string) (*models.RateLimitConfig, error) {
	var config models.RateLimitConfig
	if err := s.db.Where("client_id = ?", clientID).First(&config).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotConfigured
		}
		return nil, err
	}
	return &config, nil
}
