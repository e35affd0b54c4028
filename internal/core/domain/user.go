package domain

import "time"

// Role defines user permission level
type Role string

const (
	RoleAdmin  Role = "admin"  // Manage users, see every document
	RoleMember Role = "member" // Upload and review own documents
)

// User represents an account holder
type User struct {
	ID           string           `json:"id"`
	Email        string           `json:"email"`
	PasswordHash string           `json:"-"` // Never serialize
	Name         string           `json:"name"`
	Role         Role             `json:"role"`
	Tier         SubscriptionTier `json:"tier"`
	AnalysesUsed int              `json:"analyses_used"`
	Active       bool             `json:"active"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	LastLoginAt  *time.Time       `json:"last_login_at,omitempty"`
}

// UserSummary provides a safe view of user data (no password hash)
type UserSummary struct {
	ID           string           `json:"id"`
	Email        string           `json:"email"`
	Name         string           `json:"name"`
	Role         Role             `json:"role"`
	Tier         SubscriptionTier `json:"tier"`
	AnalysesUsed int              `json:"analyses_used"`
	Active       bool             `json:"active"`
	LastLoginAt  *time.Time       `json:"last_login_at,omitempty"`
}

// ToSummary converts a User to UserSummary
func (u *User) ToSummary() *UserSummary {
	return &UserSummary{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         u.Role,
		Tier:         u.Tier,
		AnalysesUsed: u.AnalysesUsed,
		Active:       u.Active,
		LastLoginAt:  u.LastLoginAt,
	}
}

// IsAdmin checks if the user has admin privileges
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanAnalyze reports whether the user may start another analysis
func (u *User) CanAnalyze() bool {
	return u.Active && u.Tier.AllowsAnalysis(u.AnalysesUsed)
}

// RemainingAnalyses returns how many analyses the user can still run,
// or -1 when the tier is unlimited
func (u *User) RemainingAnalyses() int {
	limit := u.Tier.AnalysisLimit()
	if limit < 0 {
		return -1
	}
	if u.AnalysesUsed >= limit {
		return 0
	}
	return limit - u.AnalysesUsed
}
