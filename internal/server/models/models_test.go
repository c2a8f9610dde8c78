package models

import (
	"testing"
	"time"
)

func TestUser_IsVerified(t *testing.T) {
	u := &User{}
	if u.IsVerified() {
		t.Fatal("user without verified timestamp must not be verified")
	}
	now := time.Now().UTC()
	u.Verified = &now
	if !u.IsVerified() {
		t.Fatal("user with verified timestamp must be verified")
	}
}

func TestUser_Fullname(t *testing.T) {
	tests := []struct {
		first, last, want string
	}{
		{"Alice", "Smith", "Alice Smith"},
		{"Alice", "", "Alice"},
		{"", "Smith", "Smith"},
		{"", "", ""},
	}
	for _, tt := range tests {
		u := &User{Firstname: tt.first, Lastname: tt.last}
		if got := u.Fullname(); got != tt.want {
			t.Fatalf("Fullname(%q,%q) = %q, want %q", tt.first, tt.last, got, tt.want)
		}
	}
}

func TestUser_OwnsToken(t *testing.T) {
	u := &User{RefreshTokens: []*RefreshToken{{Token: "abc"}, {Token: "def"}}}
	if !u.OwnsToken("def") {
		t.Fatal("expected user to own token def")
	}
	if u.OwnsToken("ghi") {
		t.Fatal("expected user not to own token ghi")
	}
}

func TestRefreshToken_IsActive(t *testing.T) {
	now := time.Now().UTC()

	live := &RefreshToken{Expires: now.Add(time.Hour)}
	if !live.IsActive() {
		t.Fatal("unrevoked unexpired token must be active")
	}

	expired := &RefreshToken{Expires: now.Add(-time.Minute)}
	if expired.IsActive() {
		t.Fatal("expired token must not be active")
	}

	revoked := &RefreshToken{Expires: now.Add(time.Hour), Revoked: &now}
	if revoked.IsActive() {
		t.Fatal("revoked token must not be active")
	}
}

func TestAccountIDForUser(t *testing.T) {
	if got := AccountIDForUser("u123"); got != "ACu123" {
		t.Fatalf("unexpected account id: %s", got)
	}
}

func TestProviderID(t *testing.T) {
	if got := ProviderID(ProviderGoogle, "key42"); got != "Googlekey42" {
		t.Fatalf("unexpected provider id: %s", got)
	}
	if !ProviderGoogle.Valid() || !ProviderFacebook.Valid() {
		t.Fatal("known providers must be valid")
	}
	if ProviderType("Twitter").Valid() {
		t.Fatal("unknown provider must be invalid")
	}
}
