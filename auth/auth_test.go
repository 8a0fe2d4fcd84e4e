package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSignAndVerify(t *testing.T) {
	token, err := Sign("s3cret", 42, "ADMINISTRADOR", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := Verify(token, "s3cret")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if claims.UserID != 42 || !claims.IsAdmin() {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := Verify(token, "other"); err == nil {
		t.Fatal("expected signature mismatch")
	}
}

func TestInspect_IgnoresSignature(t *testing.T) {
	token, _ := Sign("whatever", 7, "ASISTENTE", time.Hour)

	claims, err := Inspect("Bearer " + token)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if claims.UserID != 7 || claims.IsAdmin() {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ExpiresAt.IsZero() {
		t.Fatal("expected expiry")
	}
}

func TestCheck_Expired(t *testing.T) {
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": 1,
		"role":   "ADMINISTRADOR",
		"exp":    time.Now().Add(-time.Minute).Unix(),
	})
	token, err := expired.SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := Check(token, time.Now()); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if _, err := Verify(token, "k"); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired from Verify, got %v", err)
	}
}

func TestInspect_Empty(t *testing.T) {
	if _, err := Inspect("  "); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if _, err := Inspect("not-a-jwt"); err == nil {
		t.Fatal("expected decode error")
	}
}
