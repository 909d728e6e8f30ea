package family_test

import (
	"net/http"
	"testing"

	"github.com/kinfolkhq/kinfolk/pkg/familysdk"
	"github.com/stretchr/testify/require"
)

// TestRegisterConfirmLogin walks the plain onboarding path:
// 1. Register a new account
// 2. Confirm with the verification code
// 3. Verify the personal family created at confirmation
// 4. Login again with the same credentials
func TestRegisterConfirmLogin(t *testing.T) {
	baseURL, cleanup := setupFamilyContainer(t)
	defer cleanup()

	client := familysdk.NewSDKClient(baseURL)

	session := registerAndConfirm(t, client, "maya@example.com", "Maya")

	t.Logf("Registration confirmed")
	t.Logf("Access Token: %s", session.AccessToken())

	// A personal family with the organizer role is created at confirmation
	user := session.User()
	require.Equal(t, "maya@example.com", user.Email)
	require.Equal(t, "Maya", user.Name)
	require.True(t, user.Verified)

	memberships := session.Memberships()
	require.Len(t, memberships, 1, "Plain registration should yield exactly the personal family")
	require.Equal(t, "organizer", memberships[0].Role)
	require.Equal(t, "Maya's Family", memberships[0].FamilyName)
	require.Empty(t, session.Warning())

	// Fresh login returns the same account and membership
	loginSession, err := client.Login(t.Context(), "maya@example.com", defaultPassword)
	require.NoError(t, err)
	require.Equal(t, user.UserID, loginSession.User().UserID)
	require.Len(t, loginSession.Memberships(), 1)
	require.Equal(t, memberships[0].FamilyID, loginSession.Memberships()[0].FamilyID)

	t.Logf("Login successful, family ID: %s", memberships[0].FamilyID)
}

// TestRegisterDuplicateEmail verifies a verified email cannot be re-registered.
func TestRegisterDuplicateEmail(t *testing.T) {
	baseURL, cleanup := setupFamilyContainer(t)
	defer cleanup()

	client := familysdk.NewSDKClient(baseURL)

	registerAndConfirm(t, client, "taken@example.com", "First")

	// Case-variant spelling hits the same account
	_, err := client.Register(t.Context(), familysdk.RegisterRequest{
		Email:    "Taken@Example.com",
		Name:     "Second",
		Password: defaultPassword,
	})
	assertAPIError(t, err, http.StatusConflict, "conflict")
}

// TestResendVerificationCode verifies the resend flow replaces the old code.
func TestResendVerificationCode(t *testing.T) {
	baseURL, cleanup := setupFamilyContainer(t)
	defer cleanup()

	client := familysdk.NewSDKClient(baseURL)
	ctx := t.Context()

	regResp, err := client.Register(ctx, familysdk.RegisterRequest{
		Email:    "slow@example.com",
		Name:     "Slow Reader",
		Password: defaultPassword,
	})
	require.NoError(t, err)
	oldCode := regResp.DebugCode
	require.NotEmpty(t, oldCode)

	resendResp, err := client.ResendVerificationCode(ctx, "slow@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, resendResp.DebugCode)
	require.NotEqual(t, oldCode, resendResp.DebugCode, "Resend should mint a fresh code")

	// The replaced code no longer verifies
	_, err = client.ConfirmRegistration(ctx, familysdk.ConfirmRequest{
		Email: "slow@example.com",
		Code:  oldCode,
	})
	assertAPIError(t, err, http.StatusBadRequest, "invalid_grant")

	// The fresh one does
	session, err := client.ConfirmRegistration(ctx, familysdk.ConfirmRequest{
		Email: "slow@example.com",
		Code:  resendResp.DebugCode,
	})
	require.NoError(t, err)
	require.True(t, session.User().Verified)

	// Resending for a verified account is a conflict
	_, err = client.ResendVerificationCode(ctx, "slow@example.com")
	assertAPIError(t, err, http.StatusConflict, "conflict")
}

// TestVerificationCodeSingleUse verifies a consumed code cannot be replayed.
func TestVerificationCodeSingleUse(t *testing.T) {
	baseURL, cleanup := setupFamilyContainer(t)
	defer cleanup()

	client := familysdk.NewSDKClient(baseURL)
	ctx := t.Context()

	regResp, err := client.Register(ctx, familysdk.RegisterRequest{
		Email:    "once@example.com",
		Name:     "One Shot",
		Password: defaultPassword,
	})
	require.NoError(t, err)

	_, err = client.ConfirmRegistration(ctx, familysdk.ConfirmRequest{
		Email: "once@example.com",
		Code:  regResp.DebugCode,
	})
	require.NoError(t, err)

	_, err = client.ConfirmRegistration(ctx, familysdk.ConfirmRequest{
		Email: "once@example.com",
		Code:  regResp.DebugCode,
	})
	assertAPIError(t, err, http.StatusBadRequest, "invalid_grant")
}

// TestLoginRequiresVerification verifies unverified accounts cannot log in.
func TestLoginRequiresVerification(t *testing.T) {
	baseURL, cleanup := setupFamilyContainer(t)
	defer cleanup()

	client := familysdk.NewSDKClient(baseURL)
	ctx := t.Context()

	_, err := client.Register(ctx, familysdk.RegisterRequest{
		Email:    "limbo@example.com",
		Name:     "Limbo",
		Password: defaultPassword,
	})
	require.NoError(t, err)

	_, err = client.Login(ctx, "limbo@example.com", defaultPassword)
	assertAPIError(t, err, http.StatusForbidden, "access_denied")
}

// TestLoginInvalidCredentials verifies wrong passwords and unknown emails are
// indistinguishable to the caller.
func TestLoginInvalidCredentials(t *testing.T) {
	baseURL, cleanup := setupFamilyContainer(t)
	defer cleanup()

	client := familysdk.NewSDKClient(baseURL)
	ctx := t.Context()

	registerAndConfirm(t, client, "secure@example.com", "Secure")

	_, err := client.Login(ctx, "secure@example.com", "WrongPassword1!")
	assertAPIError(t, err, http.StatusUnauthorized, "invalid_grant")

	_, err = client.Login(ctx, "nobody@example.com", defaultPassword)
	assertAPIError(t, err, http.StatusUnauthorized, "invalid_grant")
}
