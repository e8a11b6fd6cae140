package orgs

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Ngote-Technologies/skedlii-go/pkg/api"
	"github.com/Ngote-Technologies/skedlii-go/pkg/credentials"
	"github.com/Ngote-Technologies/skedlii-go/pkg/events"
	"github.com/Ngote-Technologies/skedlii-go/pkg/rbac"
)

type persistedOrgs struct {
	Organizations []api.OrganizationWithRole `json:"organizations"`
	ActiveID      string                     `json:"activeOrganizationId"`
}

// Store holds the user's organizations and the active selection
type Store struct {
	mu sync.RWMutex

	organizations []api.OrganizationWithRole
	activeID      string
	loading       bool
	lastError     string

	service *api.OrganizationService
	files   *credentials.FileStore
	bus     *events.Bus
	log     *logrus.Logger
}

// NewStore builds an organization store, restores the persisted selection,
// and clears itself whenever the session is cleared
func NewStore(service *api.OrganizationService, files *credentials.FileStore, bus *events.Bus, log *logrus.Logger) *Store {
	s := &Store{
		service: service,
		files:   files,
		bus:     bus,
		log:     log,
	}
	s.restore()
	bus.On(events.TopicSessionCleared, func(any) { s.Reset() })
	return s
}

// Organizations returns a copy of the current list
func (s *Store) Organizations() []api.OrganizationWithRole {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.OrganizationWithRole, len(s.organizations))
	copy(out, s.organizations)
	return out
}

// Active returns the active organization, or nil when none is selected
func (s *Store) Active() *api.OrganizationWithRole {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(s.activeID)
}

// ActiveID returns the active organization identifier, or empty. The
// transport consumes this as its organization header provider.
func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// ActiveRole returns the user's role in the active organization, or empty
func (s *Store) ActiveRole() rbac.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if org := s.findLocked(s.activeID); org != nil {
		return org.Role
	}
	return ""
}

// Loading reports whether a Fetch is in flight
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LastError returns the most recent operation failure message, or empty
func (s *Store) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// Fetch replaces the list from the backend and repairs the active selection.
// The owner-preferred rule applies only to the initial pick; a previously-set
// selection that vanished from the new list moves to the first remaining
// entry, or to none.
func (s *Store) Fetch(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	organizations, err := s.service.ListForUser(ctx)
	if err != nil {
		s.recordError(err)
		return err
	}

	var changedTo string
	s.mu.Lock()
	hadSelection := s.activeID != ""
	s.organizations = organizations
	s.lastError = ""
	if s.findLocked(s.activeID) == nil {
		switch {
		case hadSelection && len(s.organizations) > 0:
			s.activeID = s.organizations[0].ID
		case hadSelection:
			s.activeID = ""
		default:
			s.activeID = s.defaultActiveLocked()
		}
		changedTo = s.activeID
	}
	s.persistLocked()
	s.mu.Unlock()

	if changedTo != "" {
		s.bus.Emit(events.TopicOrganizationChanged, changedTo)
	}
	return nil
}

// SetActiveOrganization selects an organization from the fetched list
func (s *Store) SetActiveOrganization(id string) {
	s.mu.Lock()
	if s.findLocked(id) == nil {
		s.mu.Unlock()
		s.log.WithField("organization_id", id).Warn("cannot activate unknown organization")
		return
	}
	if s.activeID == id {
		s.mu.Unlock()
		return
	}
	s.activeID = id
	s.persistLocked()
	s.mu.Unlock()

	s.bus.Emit(events.TopicOrganizationChanged, id)
}

// SwitchOrganization activates an organization from the fetched list. An id
// the user is not a member of is logged and ignored rather than failing the
// call.
func (s *Store) SwitchOrganization(id string) {
	s.mu.RLock()
	known := s.findLocked(id) != nil
	s.mu.RUnlock()
	if !known {
		s.log.WithField("organization_id", id).Warn("cannot switch to unknown organization")
		return
	}
	s.SetActiveOrganization(id)
}

// CreateOrganization creates an organization and applies it optimistically:
// the caller owns it, is its only member, and it becomes active immediately
func (s *Store) CreateOrganization(ctx context.Context, req api.CreateOrganizationRequest) (*api.Organization, error) {
	created, err := s.service.Create(ctx, req)
	if err != nil {
		s.recordError(err)
		return nil, err
	}

	entry := api.OrganizationWithRole{
		Organization: *created,
		Role:         rbac.RoleOrgOwner,
		JoinedAt:     time.Now().UTC(),
		MemberCount:  1,
	}

	s.mu.Lock()
	s.organizations = append(s.organizations, entry)
	s.activeID = created.ID
	s.lastError = ""
	s.persistLocked()
	s.mu.Unlock()

	s.bus.Emit(events.TopicOrganizationChanged, created.ID)
	return created, nil
}

// UpdateOrganization applies a partial update and patches the local entry
func (s *Store) UpdateOrganization(ctx context.Context, id string, req api.UpdateOrganizationRequest) (*api.Organization, error) {
	updated, err := s.service.Update(ctx, id, req)
	if err != nil {
		s.recordError(err)
		return nil, err
	}

	s.mu.Lock()
	for i := range s.organizations {
		if s.organizations[i].ID == id {
			s.organizations[i].Organization = *updated
			break
		}
	}
	s.lastError = ""
	s.persistLocked()
	s.mu.Unlock()
	return updated, nil
}

// DeleteOrganization removes an organization. Deleting the active one falls
// back to the first remaining organization, or to no selection.
func (s *Store) DeleteOrganization(ctx context.Context, id string) error {
	if err := s.service.Delete(ctx, id); err != nil {
		s.recordError(err)
		return err
	}

	var changedTo string
	var changed bool
	s.mu.Lock()
	kept := s.organizations[:0]
	for _, org := range s.organizations {
		if org.ID != id {
			kept = append(kept, org)
		}
	}
	s.organizations = kept
	if s.activeID == id {
		// The deleted active selection moves to the first remaining entry.
		if len(s.organizations) > 0 {
			s.activeID = s.organizations[0].ID
		} else {
			s.activeID = ""
		}
		changedTo = s.activeID
		changed = true
	}
	s.lastError = ""
	s.persistLocked()
	s.mu.Unlock()

	if changed {
		s.bus.Emit(events.TopicOrganizationChanged, changedTo)
	}
	return nil
}

// AddMember invites a member and refetches, since the server owns the
// resulting member count and role assignment
func (s *Store) AddMember(ctx context.Context, orgID string, req api.AddMemberRequest) error {
	if err := s.service.AddMember(ctx, orgID, req); err != nil {
		s.recordError(err)
		return err
	}
	return s.Fetch(ctx)
}

// RemoveMember removes a member and refetches
func (s *Store) RemoveMember(ctx context.Context, orgID, userID string) error {
	if err := s.service.RemoveMember(ctx, orgID, userID); err != nil {
		s.recordError(err)
		return err
	}
	return s.Fetch(ctx)
}

// Reset drops all in-memory state. Runs on session clear.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.organizations = nil
	s.activeID = ""
	s.loading = false
	s.lastError = ""
}

func (s *Store) findLocked(id string) *api.OrganizationWithRole {
	if id == "" {
		return nil
	}
	for i := range s.organizations {
		if s.organizations[i].ID == id {
			return &s.organizations[i]
		}
	}
	return nil
}

// defaultActiveLocked prefers the organization the user owns, then the first
// of the list, then nothing
// defaultActiveLocked picks the initial active organization when none was
// ever selected: an owned organization wins over the first entry.
func (s *Store) defaultActiveLocked() string {
	for _, org := range s.organizations {
		if org.Role == rbac.RoleOrgOwner {
			return org.ID
		}
	}
	if len(s.organizations) > 0 {
		return s.organizations[0].ID
	}
	return ""
}

func (s *Store) setLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
}

func (s *Store) recordError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
	s.log.WithError(err).Error("organization operation failed")
}

func (s *Store) persistLocked() {
	state := persistedOrgs{
		Organizations: s.organizations,
		ActiveID:      s.activeID,
	}
	if err := s.files.SetJSON(credentials.KeyOrgStorage, state); err != nil {
		s.log.WithError(err).Warn("failed to persist organization state")
	}
}

func (s *Store) restore() {
	var state persistedOrgs
	found, err := s.files.GetJSON(credentials.KeyOrgStorage, &state)
	if err != nil {
		s.log.WithError(err).Warn("failed to restore organization state")
		return
	}
	if !found {
		return
	}
	s.mu.Lock()
	s.organizations = state.Organizations
	s.activeID = state.ActiveID
	s.mu.Unlock()
}
