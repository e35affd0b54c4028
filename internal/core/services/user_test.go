package services

import (
	"context"
	"testing"
	"time"

	"github.com/legalese-app/legalese-core/internal/core/domain"
	"github.com/legalese-app/legalese-core/internal/core/ports/driven/mocks"
	"github.com/legalese-app/legalese-core/internal/core/ports/driving"
)

func newTestUserService() (*mocks.MockUserStore, *mocks.MockSessionStore, *userService) {
	userStore := mocks.NewMockUserStore()
	sessionStore := mocks.NewMockSessionStore()
	authAdapter := mocks.NewMockAuthAdapter()
	svc := NewUserService(userStore, sessionStore, authAdapter).(*userService)
	return userStore, sessionStore, svc
}

func TestUserService_Setup(t *testing.T) {
	userStore, _, svc := newTestUserService()
	ctx := context.Background()

	resp, err := svc.Setup(ctx, driving.SetupRequest{Email: "admin@example.com", Password: "password123", Name: "Admin"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.User.Role != domain.RoleAdmin {
		t.Errorf("expected admin role, got %s", resp.User.Role)
	}
	if resp.User.Tier.AnalysisLimit() != -1 {
		t.Error("expected the initial admin to have unlimited analyses")
	}
	if userStore.Count() != 1 {
		t.Errorf("expected 1 user, got %d", userStore.Count())
	}

	_, err = svc.Setup(ctx, driving.SetupRequest{Email: "second@example.com", Password: "password123", Name: "Second"})
	if err != domain.ErrForbidden {
		t.Errorf("expected ErrForbidden once users exist, got %v", err)
	}
}

func TestUserService_Create(t *testing.T) {
	_, _, svc := newTestUserService()

	tests := []struct {
		name    string
		req     driving.CreateUserRequest
		wantErr error
	}{
		{
			name: "valid user defaults to free tier",
			req:  driving.CreateUserRequest{Email: "test@example.com", Password: "password123", Name: "Test User", Role: domain.RoleMember},
		},
		{
			name: "valid pro user",
			req:  driving.CreateUserRequest{Email: "pro@example.com", Password: "password123", Name: "Pro", Role: domain.RoleMember, Tier: domain.TierPro},
		},
		{
			name:    "duplicate email",
			req:     driving.CreateUserRequest{Email: "TEST@example.com", Password: "password123", Name: "Dup", Role: domain.RoleMember},
			wantErr: domain.ErrAlreadyExists,
		},
		{
			name:    "missing email",
			req:     driving.CreateUserRequest{Password: "password123", Name: "Test User", Role: domain.RoleMember},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "missing password",
			req:     driving.CreateUserRequest{Email: "a@example.com", Name: "Test User", Role: domain.RoleMember},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "invalid role",
			req:     driving.CreateUserRequest{Email: "b@example.com", Password: "password123", Name: "B", Role: "owner"},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "invalid tier",
			req:     driving.CreateUserRequest{Email: "c@example.com", Password: "password123", Name: "C", Role: domain.RoleMember, Tier: "platinum"},
			wantErr: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Create(context.Background(), tt.req)

			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user.ID == "" {
				t.Error("expected ID to be generated")
			}
			want := tt.req.Tier
			if want == "" {
				want = domain.TierFree
			}
			if user.Tier != want {
				t.Errorf("expected tier %s, got %s", want, user.Tier)
			}
			if !user.Active {
				t.Error("expected user to be active")
			}
		})
	}
}

func TestUserService_List(t *testing.T) {
	userStore, _, svc := newTestUserService()
	ctx := context.Background()
	base := time.Now()
	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_ = userStore.Save(ctx, &domain.User{ID: email, Email: email, CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}

	users, err := svc.List(ctx, 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 || users[0].Email != "a@example.com" {
		t.Errorf("expected first page oldest first, got %v", users)
	}

	users, _ = svc.List(ctx, 2, 2)
	if len(users) != 1 || users[0].Email != "c@example.com" {
		t.Errorf("expected second page with c, got %v", users)
	}
}

func TestUserService_Update(t *testing.T) {
	userStore, sessionStore, svc := newTestUserService()
	ctx := context.Background()
	_ = userStore.Save(ctx, &domain.User{ID: "user-1", Email: "u@example.com", Role: domain.RoleMember, Tier: domain.TierFree, Active: true})
	_ = sessionStore.Save(ctx, &domain.Session{ID: "s1", UserID: "user-1", Token: "t", ExpiresAt: time.Now().Add(time.Hour)})

	pro := domain.TierPro
	user, err := svc.Update(ctx, "user-1", driving.UpdateUserRequest{Tier: &pro})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Tier != domain.TierPro {
		t.Errorf("expected pro tier, got %s", user.Tier)
	}

	bad := domain.SubscriptionTier("gold")
	if _, err := svc.Update(ctx, "user-1", driving.UpdateUserRequest{Tier: &bad}); err != domain.ErrInvalidInput {
		t.Errorf("expected ErrInvalidInput for unknown tier, got %v", err)
	}

	inactive := false
	if _, err := svc.Update(ctx, "user-1", driving.UpdateUserRequest{Active: &inactive}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sessionStore.Count() != 0 {
		t.Error("expected sessions to be revoked on deactivation")
	}

	if _, err := svc.Update(ctx, "missing", driving.UpdateUserRequest{}); err != domain.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUserService_Delete(t *testing.T) {
	userStore, sessionStore, svc := newTestUserService()
	ctx := context.Background()
	_ = userStore.Save(ctx, &domain.User{ID: "user-1", Email: "u@example.com"})
	_ = sessionStore.Save(ctx, &domain.Session{ID: "s1", UserID: "user-1", Token: "t", ExpiresAt: time.Now().Add(time.Hour)})

	if err := svc.Delete(ctx, "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userStore.Count() != 0 || sessionStore.Count() != 0 {
		t.Error("expected user and sessions to be removed")
	}
	if err := svc.Delete(ctx, "user-1"); err != domain.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
