package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret")

func TestIssueVerifyRoundTrip(t *testing.T) {
	tok, err := Issue("user-123", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	userID, err := Verify(tok, testSecret)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "user-123" {
		t.Fatalf("unexpected user id: %q", userID)
	}
}

func TestVerifyMissingToken(t *testing.T) {
	for _, raw := range []string{"", "   "} {
		if _, err := Verify(raw, testSecret); !errors.Is(err, ErrMissing) {
			t.Fatalf("Verify(%q) = %v, want ErrMissing", raw, err)
		}
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	tok, err := Issue("user-123", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Verify(tok, testSecret); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Verify(expired) = %v, want ErrInvalid", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	tok, err := Issue("user-123", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Verify(tok, []byte("other-secret")); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Verify(wrong secret) = %v, want ErrInvalid", err)
	}
}

func TestVerifyTamperedToken(t *testing.T) {
	tok, err := Issue("user-123", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", tok)
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if _, err := Verify(tampered, testSecret); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Verify(tampered) = %v, want ErrInvalid", err)
	}
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	claims := Claims{User: UserClaim{ID: "user-123"}}
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	raw, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Verify(raw, testSecret); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Verify(alg none) = %v, want ErrInvalid", err)
	}
}

func TestVerifyRejectsEmptyUserID(t *testing.T) {
	tok, err := Issue("", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Verify(tok, testSecret); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Verify(empty id) = %v, want ErrInvalid", err)
	}
}
