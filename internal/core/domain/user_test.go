package domain

import (
	"testing"
	"time"
)

func TestUserToSummary(t *testing.T) {
	now := time.Now()
	user := &User{
		ID:           "user-123",
		Email:        "test@example.com",
		PasswordHash: "secret-hash",
		Name:         "Test User",
		Role:         RoleMember,
		Tier:         TierPro,
		AnalysesUsed: 7,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastLoginAt:  &now,
	}

	summary := user.ToSummary()

	if summary.ID != user.ID {
		t.Errorf("expected ID %s, got %s", user.ID, summary.ID)
	}
	if summary.Email != user.Email {
		t.Errorf("expected Email %s, got %s", user.Email, summary.Email)
	}
	if summary.Tier != TierPro {
		t.Errorf("expected Tier pro, got %s", summary.Tier)
	}
	if summary.AnalysesUsed != 7 {
		t.Errorf("expected AnalysesUsed 7, got %d", summary.AnalysesUsed)
	}
	if summary.LastLoginAt == nil {
		t.Error("expected LastLoginAt to be set")
	}
}

func TestUserCanAnalyze(t *testing.T) {
	tests := []struct {
		name      string
		tier      SubscriptionTier
		used      int
		active    bool
		expected  bool
		remaining int
	}{
		{"free unused", TierFree, 0, true, true, 3},
		{"free last one", TierFree, 2, true, true, 1},
		{"free exhausted", TierFree, 3, true, false, 0},
		{"free over", TierFree, 5, true, false, 0},
		{"unknown tier behaves as free", SubscriptionTier("trial"), 3, true, false, 0},
		{"basic unlimited", TierBasic, 500, true, true, -1},
		{"enterprise unlimited", TierEnterprise, 10000, true, true, -1},
		{"inactive", TierPro, 0, false, false, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &User{Tier: tt.tier, AnalysesUsed: tt.used, Active: tt.active}
			if user.CanAnalyze() != tt.expected {
				t.Errorf("expected CanAnalyze() = %v", tt.expected)
			}
			if got := user.RemainingAnalyses(); got != tt.remaining {
				t.Errorf("expected RemainingAnalyses() = %d, got %d", tt.remaining, got)
			}
		})
	}
}

func TestSubscriptionTierValid(t *testing.T) {
	for _, tier := range []SubscriptionTier{TierFree, TierBasic, TierPro, TierEnterprise} {
		if !tier.Valid() {
			t.Errorf("expected %s to be valid", tier)
		}
	}
	if SubscriptionTier("gold").Valid() {
		t.Error("expected unknown tier to be invalid")
	}
}

func TestRoleConstants(t *testing.T) {
	if RoleAdmin != "admin" {
		t.Errorf("expected RoleAdmin = 'admin', got %s", RoleAdmin)
	}
	if RoleMember != "member" {
		t.Errorf("expected RoleMember = 'member', got %s", RoleMember)
	}
}
