package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Ngote-Technologies/skedlii-go/pkg/config"
	"github.com/Ngote-Technologies/skedlii-go/pkg/transport"
)

// InvitationService binds the organization invitation endpoints
type InvitationService struct {
	client *transport.Client
}

// NewInvitationService creates an InvitationService over the shared transport
func NewInvitationService(client *transport.Client) *InvitationService {
	return &InvitationService{client: client}
}

// Create invites a user to an organization by email
func (s *InvitationService) Create(ctx context.Context, req CreateInvitationRequest) (*Invitation, error) {
	var out Invitation
	err := s.client.Do(ctx, transport.Request{
		Method:  http.MethodPost,
		Path:    "/invitations",
		Feature: config.FeatureInvitations,
		Body:    req,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify checks an invitation token before the user commits to accepting it.
// Verification requires no session; it runs before login.
func (s *InvitationService) Verify(ctx context.Context, token string) (*InvitationVerification, error) {
	var out InvitationVerification
	err := s.client.Do(ctx, transport.Request{
		Method:  http.MethodGet,
		Path:    fmt.Sprintf("/invitations/%s/verify", token),
		Feature: config.FeatureInvitations,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Accept redeems an invitation. New users supply a password to create their
// account in the same step; existing users leave it empty.
func (s *InvitationService) Accept(ctx context.Context, token, password string) (*AcceptInvitationResult, error) {
	body := map[string]string{}
	if password != "" {
		body["password"] = password
	}
	var out AcceptInvitationResult
	err := s.client.Do(ctx, transport.Request{
		Method:  http.MethodPost,
		Path:    fmt.Sprintf("/invitations/%s/accept", token),
		Feature: config.FeatureInvitations,
		Body:    body,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Resend re-sends the invitation email for the pending invitation addressed
// to the given email
func (s *InvitationService) Resend(ctx context.Context, email string) error {
	return s.client.Do(ctx, transport.Request{
		Method:  http.MethodPost,
		Path:    "/invitations/resend",
		Feature: config.FeatureInvitations,
		Body:    map[string]string{"email": email},
	}, nil)
}
