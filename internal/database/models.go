package database

import (
	"errors"
	"fmt"
	"time"
)

// ErrStorageUnavailable marks any repository failure caused by the underlying
// store. Callers decide per operation whether it is fatal.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrTradeNotFound is returned when a trade id does not exist for the user
var ErrTradeNotFound = errors.New("trade not found")

// ErrOutcomeAlreadySet is returned when a trade outcome has already left PENDING
var ErrOutcomeAlreadySet = errors.New("trade outcome already recorded")

// storageErr wraps a transport failure with the ErrStorageUnavailable marker
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
}

// Trade direction values
const (
	DirectionCall = "CALL"
	DirectionPut  = "PUT"
)

// Trade outcome values. A trade starts PENDING and moves to exactly one of
// the realized outcomes.
const (
	OutcomePending = "PENDING"
	OutcomeWin     = "WIN"
	OutcomeLoss    = "LOSS"
	OutcomePush    = "PUSH"
)

// Risk level values
const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

// MaxLastTen caps the rolling activity history kept in user settings
const MaxLastTen = 10

// User represents a registered dashboard user
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Name         string     `json:"name"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// Session represents a refresh-token session
type Session struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"-"`
	ExpiresAt        time.Time `json:"expires_at"`
	Revoked          bool      `json:"revoked"`
	CreatedAt        time.Time `json:"created_at"`
}

// UserSettings is the per-user persisted preference snapshot
type UserSettings struct {
	UserID              string    `json:"user_id"`
	Broker              string    `json:"broker"`
	Asset               string    `json:"asset"`
	Duration            string    `json:"duration"`
	LastTen             []string  `json:"last_ten"`
	ModelCount          int       `json:"model_count"`
	ConfidenceThreshold string    `json:"confidence_threshold"`
	Techniques          []string  `json:"techniques"`
	Persona             string    `json:"persona"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// SettingsPatch carries a partial settings update. Nil fields are left
// untouched by SaveSettings (merge semantics).
type SettingsPatch struct {
	Broker              *string  `json:"broker,omitempty"`
	Asset               *string  `json:"asset,omitempty"`
	Duration            *string  `json:"duration,omitempty"`
	LastTen             []string `json:"last_ten,omitempty"`
	ModelCount          *int     `json:"model_count,omitempty"`
	ConfidenceThreshold *string  `json:"confidence_threshold,omitempty"`
	Techniques          []string `json:"techniques,omitempty"`
	Persona             *string  `json:"persona,omitempty"`
}

// TradeLog records one generated signal. Immutable after creation except for
// the single PENDING -> WIN/LOSS/PUSH outcome patch.
type TradeLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Broker    string    `json:"broker"`
	Asset     string    `json:"asset"`
	Duration  string    `json:"duration"`
	Direction string    `json:"direction"`
	EntryTime string    `json:"entry_time"`
	RiskLevel string    `json:"risk_level"`
	Reason    string    `json:"reason"`
	Accuracy  string    `json:"accuracy"`
	Outcome   string    `json:"outcome"`
	Analysis  string    `json:"analysis,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TradeFilter narrows ListTrades results. Zero values mean no constraint;
// an Asset of "ALL" is treated the same as empty.
type TradeFilter struct {
	Asset     string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
	Offset    int
}
