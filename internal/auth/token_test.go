package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidate(t *testing.T) {
	manager, err := NewManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	token, err := manager.Generate("profile-1", RoleAdmin)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := manager.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.ProfileId != "profile-1" {
		t.Errorf("Expected profile id profile-1, got %s", claims.ProfileId)
	}
	if claims.Role != RoleAdmin {
		t.Errorf("Expected role %s, got %s", RoleAdmin, claims.Role)
	}
}

func TestValidate_RejectsWrongSecret(t *testing.T) {
	issuer, err := NewManager("secret-a", time.Hour)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	verifier, err := NewManager("secret-b", time.Hour)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	token, err := issuer.Generate("profile-1", RoleAdmin)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if _, err := verifier.Validate(token); err == nil {
		t.Fatal("Expected validation to fail with a different secret")
	}
}

func TestValidate_RejectsExpiredToken(t *testing.T) {
	manager, err := NewManager("test-secret", time.Millisecond)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	token, err := manager.Generate("profile-1", RoleAdmin)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	time.Sleep(1100 * time.Millisecond)

	if _, err := manager.Validate(token); err == nil {
		t.Fatal("Expected validation to fail after expiry")
	}
}

func TestValidate_RejectsGarbage(t *testing.T) {
	manager, err := NewManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if _, err := manager.Validate("not-a-token"); err == nil {
		t.Fatal("Expected validation of garbage to fail")
	}
}

func TestNewManager_Validation(t *testing.T) {
	if _, err := NewManager("", time.Hour); err == nil {
		t.Error("Expected error for empty secret")
	}
	if _, err := NewManager("secret", 0); err == nil {
		t.Error("Expected error for zero lifespan")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if err := CheckPassword(hash, "correct horse battery staple"); err != nil {
		t.Errorf("Expected matching password to verify: %v", err)
	}
	if err := CheckPassword(hash, "wrong password"); err == nil {
		t.Error("Expected mismatched password to fail")
	}
}
