// internal/services/auth_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vouchify/vouchify-backend/internal/models"
	"github.com/vouchify/vouchify-backend/internal/utils"
)

func TestRegisterAndLogin(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, testConfig(), nil)

	resp, err := svc.Register(&RegisterRequest{
		Username:  "ravi_k",
		Email:     "ravi@test.local",
		Password:  "Str0ng!Pass",
		UPIHandle: "ravi@upi",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.User)

	// Self-registration never yields an admin.
	assert.Equal(t, models.UserTypeMember, resp.User.UserType)
	assert.Equal(t, "ravi@upi", resp.User.UPIHandle)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	claims, err := utils.ValidateJWT(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID.String(), claims.UserID)
	assert.Equal(t, "member", claims.UserType)

	login, err := svc.Login(&LoginRequest{Email: "ravi@test.local", Password: "Str0ng!Pass"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
	assert.NotNil(t, login.User.LastLoginAt)

	_, err = svc.Login(&LoginRequest{Email: "ravi@test.local", Password: "wrong-pass"})
	assert.Error(t, err)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, testConfig(), nil)

	_, err := svc.Register(&RegisterRequest{
		Username: "first_user",
		Email:    "dup@test.local",
		Password: "Str0ng!Pass",
	})
	require.NoError(t, err)

	_, err = svc.Register(&RegisterRequest{
		Username: "second_user",
		Email:    "dup@test.local",
		Password: "Str0ng!Pass",
	})
	assert.Error(t, err)
}

func TestRegisterWeakPassword(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, testConfig(), nil)

	_, err := svc.Register(&RegisterRequest{
		Username: "weak_user",
		Email:    "weak@test.local",
		Password: "password",
	})
	assert.Error(t, err)
}

func TestLoginSuspendedAccount(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, testConfig(), nil)

	resp, err := svc.Register(&RegisterRequest{
		Username: "suspended_u",
		Email:    "suspended@test.local",
		Password: "Str0ng!Pass",
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(resp.User).
		Update("status", models.UserStatusSuspended).Error)

	_, err = svc.Login(&LoginRequest{Email: "suspended@test.local", Password: "Str0ng!Pass"})
	assert.Error(t, err)
}

func TestRefreshTokenRotation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, testConfig(), nil)

	resp, err := svc.Register(&RegisterRequest{
		Username: "refresh_u",
		Email:    "refresh@test.local",
		Password: "Str0ng!Pass",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(resp.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, refreshed.User.ID)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.RefreshToken("garbage.token.here")
	assert.Error(t, err)
}

func TestForgotAndResetPassword(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, testConfig(), nil)

	created := createTestUser(t, db, "reset_u", 0)

	// Unknown emails are silently accepted.
	assert.NoError(t, svc.ForgotPassword(&ForgotPasswordRequest{Email: "nobody@test.local"}))

	require.NoError(t, svc.ForgotPassword(&ForgotPasswordRequest{Email: created.Email}))

	var user models.User
	require.NoError(t, db.First(&user, "id = ?", created.ID).Error)
	token, ok := user.ProfileData["reset_token"].(string)
	require.True(t, ok)

	err := svc.ResetPassword(&ResetPasswordRequest{Token: "bogus-token", NewPassword: "N3w!Passw0rd"})
	assert.Error(t, err)

	require.NoError(t, svc.ResetPassword(&ResetPasswordRequest{Token: token, NewPassword: "N3w!Passw0rd"}))

	_, err = svc.Login(&LoginRequest{Email: created.Email, Password: "Testing123!"})
	assert.Error(t, err)

	_, err = svc.Login(&LoginRequest{Email: created.Email, Password: "N3w!Passw0rd"})
	assert.NoError(t, err)
}
