package credentials

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/leapfxp/gamenight/internal/gamenight"
)

func hash(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing: %v", err)
	}
	return string(h)
}

func TestVerify(t *testing.T) {
	s, err := NewStore(map[string]string{
		"alpha": hash(t, "a-secret"),
		"bravo": hash(t, "b-secret"),
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	tests := []struct {
		name     string
		team     string
		password string
		wantErr  error
	}{
		{name: "good credentials", team: "alpha", password: "a-secret"},
		{name: "wrong password", team: "alpha", password: "b-secret", wantErr: ErrWrongPassword},
		{name: "unknown team", team: "zulu", password: "a-secret", wantErr: ErrUnknownTeam},
		{name: "empty password", team: "bravo", password: "", wantErr: ErrWrongPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Verify(tt.team, tt.password)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Verify = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Verify = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, gamenight.ErrAuthFailed) {
				t.Fatalf("Verify = %v, want it to wrap ErrAuthFailed", err)
			}
		})
	}
}

func TestNewStoreRejectsBadHash(t *testing.T) {
	if _, err := NewStore(map[string]string{"alpha": "plaintext"}); err == nil {
		t.Fatal("expected error for non-bcrypt hash")
	}
}

func TestTeamsSorted(t *testing.T) {
	s, err := NewStore(map[string]string{"charlie": hash(t, "x"), "alpha": hash(t, "y")})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	got := s.Teams()
	if len(got) != 2 || got[0] != "alpha" || got[1] != "charlie" {
		t.Fatalf("Teams = %v", got)
	}
}
