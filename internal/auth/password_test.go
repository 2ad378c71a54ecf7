package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		cost     int
		wantErr  error
	}{
		{
			name:     "valid password",
			password: "validpassword123",
			cost:     4,
			wantErr:  nil,
		},
		{
			name:     "password too short",
			password: "short",
			cost:     4,
			wantErr:  ErrPasswordTooShort,
		},
		{
			name:     "password at minimum length",
			password: "12345678",
			cost:     4,
			wantErr:  nil,
		},
		{
			name:     "password at maximum length",
			password: strings.Repeat("a", MaxPasswordLength),
			cost:     4,
			wantErr:  nil,
		},
		{
			name:     "password too long",
			password: strings.Repeat("a", MaxPasswordLength+1),
			cost:     4,
			wantErr:  ErrPasswordTooLong,
		},
		{
			name:     "default cost",
			password: "validpassword123",
			cost:     0,
			wantErr:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password, tt.cost)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("HashPassword() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if hash == "" || hash == tt.password {
				t.Errorf("HashPassword() returned unusable hash %q", hash)
			}
		})
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse", 4)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if err := CheckPassword("correct-horse", hash); err != nil {
		t.Errorf("CheckPassword() with correct password error = %v", err)
	}
	if err := CheckPassword("wrong-horse", hash); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("CheckPassword() with wrong password error = %v, want %v", err, ErrInvalidPassword)
	}
	if err := CheckPassword("correct-horse", "not-a-hash"); err == nil || errors.Is(err, ErrInvalidPassword) {
		t.Errorf("CheckPassword() with malformed hash error = %v, want a bcrypt error", err)
	}
}

func TestGenerateSecret(t *testing.T) {
	first, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret() error = %v", err)
	}
	second, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret() error = %v", err)
	}

	if len(first) != 64 {
		t.Errorf("GenerateSecret() length = %d, want 64", len(first))
	}
	if first == second {
		t.Error("GenerateSecret() returned the same secret twice")
	}
}
