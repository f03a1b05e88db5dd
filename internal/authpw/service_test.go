package authpw

import (
	"context"
	"errors"
	"testing"
	"time"

	"bitacora/api/internal/store"
)

// mockProfileStore is a mock implementation of ProfileStore for testing
type mockProfileStore struct {
	profiles      map[string]store.Profile
	emailIndex    map[string]string // email -> profileID
	verifications map[string]store.Profile
	resets        map[string]struct {
		profileID string
		expiresAt time.Time
		used      bool
	}
}

func newMockProfileStore() *mockProfileStore {
	return &mockProfileStore{
		profiles:      make(map[string]store.Profile),
		emailIndex:    make(map[string]string),
		verifications: make(map[string]store.Profile),
		resets: make(map[string]struct {
			profileID string
			expiresAt time.Time
			used      bool
		}),
	}
}

func (m *mockProfileStore) GetProfileByEmail(ctx context.Context, email string) (store.Profile, error) {
	if id, ok := m.emailIndex[email]; ok {
		return m.profiles[id], nil
	}
	return store.Profile{}, errors.New("profile not found")
}

func (m *mockProfileStore) GetProfileByID(ctx context.Context, id string) (store.Profile, error) {
	if profile, ok := m.profiles[id]; ok {
		return profile, nil
	}
	return store.Profile{}, errors.New("profile not found")
}

func (m *mockProfileStore) CreateProfile(ctx context.Context, profile store.Profile) error {
	m.profiles[profile.ID] = profile
	m.emailIndex[profile.Email] = profile.ID
	return nil
}

func (m *mockProfileStore) CountProfiles(ctx context.Context) (int, error) {
	return len(m.profiles), nil
}

func (m *mockProfileStore) UpdateVerificationToken(ctx context.Context, profileID, token string, expiresAt time.Time) error {
	if profile, ok := m.profiles[profileID]; ok {
		profile.VerificationToken = token
		profile.VerificationExpiresAt = &expiresAt
		m.profiles[profileID] = profile
		m.verifications[token] = profile
	}
	return nil
}

func (m *mockProfileStore) VerifyProfileEmail(ctx context.Context, token string) error {
	if profile, ok := m.verifications[token]; ok {
		profile.IsEmailVerified = true
		m.profiles[profile.ID] = profile
		m.emailIndex[profile.Email] = profile.ID
		return nil
	}
	return errors.New("invalid token")
}

func (m *mockProfileStore) UpdateProfilePassword(ctx context.Context, profileID, passwordHash string) error {
	if profile, ok := m.profiles[profileID]; ok {
		profile.PasswordHash = passwordHash
		m.profiles[profileID] = profile
		return nil
	}
	return errors.New("profile not found")
}

func (m *mockProfileStore) CreatePasswordReset(ctx context.Context, profileID, token string, expiresAt time.Time) error {
	m.resets[token] = struct {
		profileID string
		expiresAt time.Time
		used      bool
	}{profileID: profileID, expiresAt: expiresAt, used: false}
	return nil
}

func (m *mockProfileStore) GetPasswordReset(ctx context.Context, token string) (string, error) {
	if reset, ok := m.resets[token]; ok && !reset.used && time.Now().Before(reset.expiresAt) {
		return reset.profileID, nil
	}
	return "", errors.New("invalid or expired token")
}

func (m *mockProfileStore) MarkPasswordResetUsed(ctx context.Context, token string) error {
	if reset, ok := m.resets[token]; ok {
		reset.used = true
		m.resets[token] = reset
	}
	return nil
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()
	mockStore := newMockProfileStore()
	svc := NewService(mockStore, "test-secret")

	t.Run("first profile becomes admin", func(t *testing.T) {
		resp, err := svc.SignUp(ctx, SignUpRequest{
			Email:    "admin@example.com",
			Password: "password123",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.ProfileID == "" {
			t.Error("expected ProfileID to be set")
		}
		if resp.Role != "admin" {
			t.Errorf("expected first profile to get role admin, got %q", resp.Role)
		}
		if resp.VerificationToken == "" {
			t.Error("expected VerificationToken to be set")
		}
		if !resp.RequiresEmailVerify {
			t.Error("expected RequiresEmailVerify to be true")
		}
	})

	t.Run("subsequent profiles are users", func(t *testing.T) {
		resp, err := svc.SignUp(ctx, SignUpRequest{
			Email:    "ana@example.com",
			Password: "password123",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.Role != "user" {
			t.Errorf("expected role user, got %q", resp.Role)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.SignUp(ctx, SignUpRequest{
			Email:    "ana@example.com",
			Password: "password123",
		})
		if err == nil {
			t.Error("expected error for duplicate email")
		}
	})

	t.Run("email is lowercased", func(t *testing.T) {
		_, err := svc.SignUp(ctx, SignUpRequest{
			Email:    "  ANA@Example.COM ",
			Password: "password123",
		})
		if err == nil {
			t.Error("expected duplicate error for case-variant email")
		}
	})

	t.Run("short password", func(t *testing.T) {
		_, err := svc.SignUp(ctx, SignUpRequest{
			Email:    "short@example.com",
			Password: "short",
		})
		if err == nil {
			t.Error("expected error for short password")
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.SignUp(ctx, SignUpRequest{})
		if err == nil {
			t.Error("expected error for missing fields")
		}
	})
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()
	mockStore := newMockProfileStore()
	svc := NewService(mockStore, "test-secret")

	resp, _ := svc.SignUp(ctx, SignUpRequest{
		Email:    "ana@example.com",
		Password: "password123",
	})
	svc.VerifyEmail(ctx, resp.VerificationToken)

	t.Run("successful sign in", func(t *testing.T) {
		signInResp, err := svc.SignIn(ctx, SignInRequest{
			Email:    "ana@example.com",
			Password: "password123",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if signInResp.Profile.Email != "ana@example.com" {
			t.Errorf("expected email ana@example.com, got %s", signInResp.Profile.Email)
		}
		if signInResp.RequiresVerify {
			t.Error("expected RequiresVerify to be false for verified profile")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.SignIn(ctx, SignInRequest{
			Email:    "ana@example.com",
			Password: "wrongpassword",
		})
		if err == nil {
			t.Error("expected error for wrong password")
		}
	})

	t.Run("non-existent profile", func(t *testing.T) {
		_, err := svc.SignIn(ctx, SignInRequest{
			Email:    "nonexistent@example.com",
			Password: "password123",
		})
		if err == nil {
			t.Error("expected error for non-existent profile")
		}
	})

	t.Run("unverified email", func(t *testing.T) {
		svc.SignUp(ctx, SignUpRequest{
			Email:    "unverified@example.com",
			Password: "password123",
		})

		resp, err := svc.SignIn(ctx, SignInRequest{
			Email:    "unverified@example.com",
			Password: "password123",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !resp.RequiresVerify {
			t.Error("expected RequiresVerify to be true for unverified profile")
		}
	})
}

func TestVerifyEmail(t *testing.T) {
	ctx := context.Background()
	mockStore := newMockProfileStore()
	svc := NewService(mockStore, "test-secret")

	resp, _ := svc.SignUp(ctx, SignUpRequest{
		Email:    "ana@example.com",
		Password: "password123",
	})

	t.Run("valid token", func(t *testing.T) {
		if err := svc.VerifyEmail(ctx, resp.VerificationToken); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		profile, _ := mockStore.GetProfileByID(ctx, resp.ProfileID)
		if !profile.IsEmailVerified {
			t.Error("expected profile to be verified")
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		if err := svc.VerifyEmail(ctx, "invalid-token"); err == nil {
			t.Error("expected error for invalid token")
		}
	})

	t.Run("empty token", func(t *testing.T) {
		if err := svc.VerifyEmail(ctx, ""); err == nil {
			t.Error("expected error for empty token")
		}
	})
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()
	mockStore := newMockProfileStore()
	svc := NewService(mockStore, "test-secret")

	resp, _ := svc.SignUp(ctx, SignUpRequest{
		Email:    "ana@example.com",
		Password: "password123",
	})
	svc.VerifyEmail(ctx, resp.VerificationToken)

	t.Run("request reset for existing profile", func(t *testing.T) {
		token, err := svc.RequestPasswordReset(ctx, "ana@example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token == "" {
			t.Error("expected token to be generated")
		}
	})

	t.Run("request reset for non-existent profile - no error", func(t *testing.T) {
		_, err := svc.RequestPasswordReset(ctx, "nonexistent@example.com")
		if err != nil {
			t.Errorf("expected no error for non-existent profile, got: %v", err)
		}
	})

	t.Run("reset password with valid token", func(t *testing.T) {
		token, _ := svc.RequestPasswordReset(ctx, "ana@example.com")

		err := svc.ResetPassword(ctx, ResetPasswordRequest{
			Token:       token,
			NewPassword: "newpassword123",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err = svc.SignIn(ctx, SignInRequest{
			Email:    "ana@example.com",
			Password: "password123",
		}); err == nil {
			t.Error("expected old password to not work")
		}

		if _, err = svc.SignIn(ctx, SignInRequest{
			Email:    "ana@example.com",
			Password: "newpassword123",
		}); err != nil {
			t.Errorf("expected new password to work: %v", err)
		}
	})

	t.Run("reset with invalid token", func(t *testing.T) {
		err := svc.ResetPassword(ctx, ResetPasswordRequest{
			Token:       "invalid-token",
			NewPassword: "newpassword123",
		})
		if err == nil {
			t.Error("expected error for invalid token")
		}
	})

	t.Run("reset with short password", func(t *testing.T) {
		err := svc.ResetPassword(ctx, ResetPasswordRequest{
			Token:       "some-token",
			NewPassword: "short",
		})
		if err == nil {
			t.Error("expected error for short password")
		}
	})
}
