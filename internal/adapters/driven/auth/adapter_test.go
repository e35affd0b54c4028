package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

func testAdapter() *Adapter {
	return NewAdapterWithCost("test-secret-key-32-bytes-long!!!", bcrypt.MinCost)
}

func testClaims(expiresIn time.Duration) *domain.TokenClaims {
	now := time.Now()
	return &domain.TokenClaims{
		UserID:    "user-1",
		Email:     "reviewer@example.com",
		Role:      domain.RoleMember,
		SessionID: "session-1",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(expiresIn).Unix(),
	}
}

func TestNewAdapter_DefaultCost(t *testing.T) {
	if a := NewAdapter("secret"); a.bcryptCost != bcrypt.DefaultCost {
		t.Errorf("bcryptCost = %d, want %d", a.bcryptCost, bcrypt.DefaultCost)
	}
}

func TestPasswordHashing(t *testing.T) {
	a := testAdapter()

	hash1, err := a.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	hash2, _ := a.HashPassword("correct horse")
	if hash1 == hash2 {
		t.Error("expected salted hashes to differ")
	}
	if !strings.HasPrefix(hash1, "$2a$") {
		t.Errorf("unexpected hash format %q", hash1)
	}

	if !a.VerifyPassword("correct horse", hash1) {
		t.Error("expected correct password to verify")
	}
	if a.VerifyPassword("wrong horse", hash1) {
		t.Error("expected wrong password to fail")
	}
	if a.VerifyPassword("correct horse", "not-a-hash") {
		t.Error("expected invalid hash to fail")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	a := testAdapter()

	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleMember} {
		claims := testClaims(time.Hour)
		claims.Role = role

		token, err := a.GenerateToken(claims)
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		if strings.Count(token, ".") != 2 {
			t.Fatalf("token %q is not a JWT", token)
		}

		got, err := a.ParseToken(token)
		if err != nil {
			t.Fatalf("ParseToken: %v", err)
		}
		if *got != *claims {
			t.Errorf("round trip = %+v, want %+v", got, claims)
		}
	}
}

func TestParseToken_Expired(t *testing.T) {
	a := testAdapter()
	token, _ := a.GenerateToken(testClaims(-time.Minute))

	if _, err := a.ParseToken(token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("ParseToken = %v, want ErrTokenExpired", err)
	}
}

func TestParseToken_Invalid(t *testing.T) {
	a := testAdapter()
	valid, _ := a.GenerateToken(testClaims(time.Hour))
	otherSecret, _ := NewAdapterWithCost("another-secret", bcrypt.MinCost).GenerateToken(testClaims(time.Hour))

	promoted := testClaims(time.Hour)
	promoted.Role = domain.RoleAdmin
	promotedToken, _ := a.GenerateToken(promoted)
	parts, promotedParts := strings.Split(valid, "."), strings.Split(promotedToken, ".")
	tampered := parts[0] + "." + promotedParts[1] + "." + parts[2]

	foreignIssuer, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Subject:   "user-1",
			ID:        "session-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(a.jwtSecret)

	noSession, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(a.jwtSecret)

	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   "user-1",
			ID:        "session-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := map[string]string{
		"empty":          "",
		"malformed":      "not.a.jwt",
		"wrong secret":   otherSecret,
		"tampered":       tampered,
		"foreign issuer": foreignIssuer,
		"no session":     noSession,
		"none algorithm": noneAlg,
	}
	for name, token := range tests {
		if _, err := a.ParseToken(token); !errors.Is(err, domain.ErrTokenInvalid) {
			t.Errorf("%s: ParseToken = %v, want ErrTokenInvalid", name, err)
		}
	}
}

func BenchmarkParseToken(b *testing.B) {
	a := testAdapter()
	token, _ := a.GenerateToken(testClaims(time.Hour))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = a.ParseToken(token)
	}
}
