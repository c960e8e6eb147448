package httpapi

import (
	"testing"
	"time"
)

func TestSessionIssueAndVerify(t *testing.T) {
	sessions := NewSessionService("secret", time.Hour)
	token, err := sessions.Issue("u1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	userID, err := sessions.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if userID != "u1" {
		t.Fatalf("expected u1, got %q", userID)
	}
}

func TestSessionRejectsWrongSecret(t *testing.T) {
	issuer := NewSessionService("secret-a", time.Hour)
	verifier := NewSessionService("secret-b", time.Hour)

	token, err := issuer.Issue("u1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := verifier.Verify(token); err == nil {
		t.Fatalf("token signed with another secret must fail")
	}
}

func TestSessionRejectsExpiredToken(t *testing.T) {
	sessions := NewSessionService("secret", -time.Minute)
	token, err := sessions.Issue("u1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := sessions.Verify(token); err == nil {
		t.Fatalf("expired token must fail verification")
	}
}

func TestSessionRejectsGarbage(t *testing.T) {
	sessions := NewSessionService("secret", time.Hour)
	if _, err := sessions.Verify("not-a-token"); err == nil {
		t.Fatalf("garbage token must fail verification")
	}
}
