package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Ngote-Technologies/skedlii-go/pkg/config"
	"github.com/Ngote-Technologies/skedlii-go/pkg/transport"
)

// OrganizationService binds the organization management endpoints
type OrganizationService struct {
	client *transport.Client
}

// NewOrganizationService creates an OrganizationService over the shared
// transport
func NewOrganizationService(client *transport.Client) *OrganizationService {
	return &OrganizationService{client: client}
}

// ListForUser fetches the organizations the current user belongs to, each
// annotated with the user's role in it
func (s *OrganizationService) ListForUser(ctx context.Context) ([]OrganizationWithRole, error) {
	var out struct {
		Organizations []OrganizationWithRole `json:"organizations"`
	}
	err := s.client.Do(ctx, transport.Request{
		Method:  http.MethodGet,
		Path:    "/organizations/user/organizations",
		Feature: config.FeatureOrganizations,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Organizations, nil
}

// Get fetches one organization
func (s *OrganizationService) Get(ctx context.Context, id string) (*Organization, error) {
	var out Organization
	err := s.client.Do(ctx, transport.Request{
		Method:  http.MethodGet,
		Path:    fmt.Sprintf("/organizations/%s", id),
		Feature: config.FeatureOrganizations,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Create creates an organization owned by the current user
func (s *OrganizationService) Create(ctx context.Context, req CreateOrganizationRequest) (*Organization, error) {
	var out Organization
	err := s.client.Do(ctx, transport.Request{
		Method:  http.MethodPost,
		Path:    "/organizations",
		Feature: config.FeatureOrganizations,
		Body:    req,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Update applies a partial update to an organization
func (s *OrganizationService) Update(ctx context.Context, id string, req UpdateOrganizationRequest) (*Organization, error) {
	var out Organization
	err := s.client.Do(ctx, transport.Request{
		Method:  http.MethodPatch,
		Path:    fmt.Sprintf("/organizations/%s", id),
		Feature: config.FeatureOrganizations,
		Body:    req,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes an organization
func (s *OrganizationService) Delete(ctx context.Context, id string) error {
	return s.client.Do(ctx, transport.Request{
		Method:  http.MethodDelete,
		Path:    fmt.Sprintf("/organizations/%s", id),
		Feature: config.FeatureOrganizations,
	}, nil)
}

// AddMember adds a user to an organization by email
func (s *OrganizationService) AddMember(ctx context.Context, orgID string, req AddMemberRequest) error {
	return s.client.Do(ctx, transport.Request{
		Method:  http.MethodPost,
		Path:    fmt.Sprintf("/organizations/%s/members", orgID),
		Feature: config.FeatureOrganizations,
		Body:    req,
	}, nil)
}

// RemoveMember removes a user from an organization
func (s *OrganizationService) RemoveMember(ctx context.Context, orgID, userID string) error {
	return s.client.Do(ctx, transport.Request{
		Method:  http.MethodDelete,
		Path:    fmt.Sprintf("/organizations/%s/members/%s", orgID, userID),
		Feature: config.FeatureOrganizations,
	}, nil)
}
