/*
Package familysdk provides a client SDK for interacting with the Kinfolk
family service.

# Overview

The familysdk package implements a typed client for the family invitation
and onboarding API. It provides both unauthenticated operations (via
SDKClient) and authenticated operations (via Session).

# SDKClient vs Session

The package is organized around two main types:

  - SDKClient: Provides unauthenticated operations (registration, login,
    health checks) and creates authenticated sessions
  - Session: Provides authenticated operations against a bearer access token

Create an SDKClient to interact with public endpoints and initiate
onboarding flows:

	client := familysdk.NewSDKClient("https://family.example.com")

	// Check service health
	health, err := client.GetLiveness(ctx)

	// Start a registration; the service emails a 6-digit code
	_, err = client.Register(ctx, familysdk.RegisterRequest{
		Email:    "alice@example.com",
		Name:     "Alice",
		Password: "correct-horse",
	})

	// Complete it with the emailed code to get a session
	session, err := client.ConfirmRegistration(ctx, familysdk.ConfirmRequest{
		Email: "alice@example.com",
		Code:  "123456",
	})

Use a Session for authenticated operations:

	// Invite someone into a family (organizer only)
	created, err := session.CreateInvitation(ctx, familyID, familysdk.CreateInvitationRequest{
		Email: "bob@example.com",
		Role:  "parent",
	})

	// List a family's invitations (organizer only)
	list, err := session.ListInvitations(ctx, familyID, "pending")

	// Accept an invitation addressed to the session's email
	joined, err := session.AcceptInvitation(ctx, inviteToken)

# Invited Registration

A registration can be bound to an invitation by passing the invitation
token. When the registration is confirmed, the membership is created along
with the account:

	_, err := client.Register(ctx, familysdk.RegisterRequest{
		Email:       "bob@example.com",
		Name:        "Bob",
		Password:    "pa55word",
		InviteToken: inviteToken,
	})

	session, err := client.ConfirmRegistration(ctx, familysdk.ConfirmRequest{
		Email: "bob@example.com",
		Code:  code,
	})
	if session.Warning() != "" {
		// The account exists and the session is valid, but the staged
		// invitation could not be redeemed (it may have expired).
	}

# Sessions and Expiry

Access tokens are short-lived and there is no refresh flow. When a session
expires its methods return ErrSessionExpired; authenticate again with Login:

	if errors.Is(err, familysdk.ErrSessionExpired) {
		session, err = client.Login(ctx, email, password)
	}

# Error Handling

All API errors are surfaced as *APIError with the HTTP status code, a
machine-readable code and a human-readable description:

	var apiErr *familysdk.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case familysdk.ErrorCodeConflict:
			// duplicate invitation, existing membership, taken email
		case familysdk.ErrorCodeAccessDenied:
			// caller is not the family's organizer
		}
	}
*/
package familysdk
