package domain

import "time"

// Plan is a subscription tier. Only the free tier is debited per message.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPro     Plan = "pro"
	PlanPremium Plan = "premium"
)

func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanPremium:
		return true
	}
	return false
}

// Unlimited reports whether messages on this plan are metered without being decremented.
func (p Plan) Unlimited() bool {
	return p == PlanPro || p == PlanPremium
}

type Profile struct {
	ID                      string    `db:"id"`
	Plan                    Plan      `db:"plan"`
	Credits                 int64     `db:"credits"`
	MonthlyProjectCreations int       `db:"monthly_project_creations"`
	ImportCount             int       `db:"import_count"`
	CreatedAt               time.Time `db:"created_at"`
	UpdatedAt               time.Time `db:"updated_at"`
}

type Balance struct {
	Credits   int64
	Plan      Plan
	Unlimited bool
}

type APIKey struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	ProviderName string    `db:"provider_name"`
	EncryptedKey string    `db:"encrypted_key"`
	Valid        bool      `db:"valid"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type OTPChallenge struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	CodeHash  string    `db:"code_hash"`
	Salt      string    `db:"salt"`
	Attempts  int       `db:"attempts"`
	Used      bool      `db:"used"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

func (c OTPChallenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

type User struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

type MagicLink struct {
	TokenHash string    `db:"token_hash"`
	Email     string    `db:"email"`
	Used      bool      `db:"used"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}
