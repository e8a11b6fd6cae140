package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ngote-Technologies/skedlii-go/pkg/rbac"
	"github.com/Ngote-Technologies/skedlii-go/pkg/transport"
)

func TestDecodeV1Session(t *testing.T) {
	raw := json.RawMessage(`{
		"token": "legacy-jwt",
		"user": {
			"_id": "u-1",
			"email": "owner@acme.test",
			"name": "Ada",
			"userType": "organization",
			"role": "org_owner",
			"organization": {"_id": "org-1", "name": "Acme"},
			"teams": [{"_id": "t-1", "name": "Marketing", "organizationId": "org-1"}],
			"computedPermissions": {
				"isAdmin": true,
				"canManageOrganization": true,
				"canManageBilling": true,
				"canConnectSocialAccounts": true,
				"canCreateTeams": true
			},
			"subscriptionInfo": {"hasValidSubscription": true, "subscriptionTier": "pro"}
		}
	}`)

	sess, err := adapter{}.decodeSession(transport.VersionV1, raw)
	require.NoError(t, err)

	assert.Equal(t, transport.VersionV1, sess.Version)
	assert.Equal(t, "legacy-jwt", sess.Token)
	assert.Empty(t, sess.AccessToken)
	assert.Equal(t, "u-1", sess.User.ID)
	assert.Equal(t, "org-1", sess.OrganizationID, "organization id read from the nested object")
	require.Len(t, sess.Teams, 1)
	assert.Equal(t, "t-1", sess.Teams[0].ID)
	assert.Equal(t, rbac.RoleOrgOwner, sess.Role)
	assert.Equal(t, rbac.UserTypeOrganization, sess.Type)
	assert.True(t, sess.HasServerComputedPermissions())
	assert.True(t, sess.Computed.CanManageOrganization)
	assert.Equal(t, rbac.TierPro, sess.Subscription.Tier)
}

func TestDecodeV1SessionWithoutComputedBlock(t *testing.T) {
	raw := json.RawMessage(`{
		"token": "legacy-jwt",
		"user": {"_id": "u-2", "email": "m@acme.test", "userType": "organization", "role": "member", "organizationId": "org-1"}
	}`)

	sess, err := adapter{}.decodeSession(transport.VersionV1, raw)
	require.NoError(t, err)

	assert.False(t, sess.HasServerComputedPermissions(), "missing blocks mark the fallback path")
	assert.Nil(t, sess.Computed)
	assert.Nil(t, sess.Subscription)
	assert.Equal(t, "org-1", sess.OrganizationID)
}

func TestDecodeV2Session(t *testing.T) {
	raw := json.RawMessage(`{
		"accessToken": "access-1",
		"refreshToken": "refresh-1",
		"user": {"id": "u-3", "email": "pro@solo.test", "name": "Lin"},
		"organizationId": "",
		"userRole": "",
		"userType": "individual",
		"computedPermissions": {"isAdmin": false, "canManageBilling": true, "canConnectSocialAccounts": true},
		"subscriptionInfo": {"hasValidSubscription": true, "subscriptionTier": "creator"}
	}`)

	sess, err := adapter{}.decodeSession(transport.VersionV2, raw)
	require.NoError(t, err)

	assert.Equal(t, transport.VersionV2, sess.Version)
	assert.Equal(t, "access-1", sess.AccessToken)
	assert.Equal(t, "refresh-1", sess.RefreshToken)
	assert.Empty(t, sess.Token)
	assert.Equal(t, rbac.UserTypeIndividual, sess.Type)
	assert.True(t, sess.HasServerComputedPermissions())
	assert.True(t, sess.Computed.CanManageBilling)
}

func TestDecodeSessionUnknownVersion(t *testing.T) {
	_, err := adapter{}.decodeSession(transport.Version("v3"), json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestDecodeSessionMalformed(t *testing.T) {
	_, err := adapter{}.decodeSession(transport.VersionV1, json.RawMessage(`{"user": "not-an-object"}`))
	assert.Error(t, err)
}

func TestDecodeMeV1(t *testing.T) {
	raw := json.RawMessage(`{
		"_id": "u-1",
		"email": "owner@acme.test",
		"userType": "organization",
		"role": "admin",
		"organizationId": "org-1",
		"teams": [{"_id": "t-1", "name": "Ops"}],
		"subscriptionInfo": {"hasValidSubscription": true, "subscriptionTier": "enterprise"}
	}`)

	me, err := adapter{}.decodeMe(transport.VersionV1, raw)
	require.NoError(t, err)

	assert.Equal(t, "u-1", me.User.ID)
	assert.Equal(t, rbac.RoleAdmin, me.Role)
	assert.Equal(t, "org-1", me.OrganizationID)
	require.Len(t, me.Teams, 1)
	assert.Nil(t, me.Computed)
	require.NotNil(t, me.Subscription)
	assert.Equal(t, rbac.TierEnterprise, me.Subscription.Tier)
}

func TestDecodeMeV2(t *testing.T) {
	raw := json.RawMessage(`{
		"user": {"id": "u-4", "email": "x@acme.test"},
		"organizations": [
			{"orgId": "org-2", "role": "member"},
			{"orgId": "org-3", "role": "org_owner"}
		],
		"userRole": "member",
		"userType": "organization"
	}`)

	me, err := adapter{}.decodeMe(transport.VersionV2, raw)
	require.NoError(t, err)

	assert.Equal(t, "u-4", me.User.ID)
	require.Len(t, me.Memberships, 2)
	assert.Equal(t, rbac.RoleOrgOwner, me.Memberships[1].Role)
	assert.Equal(t, "org-2", me.OrganizationID, "first membership is the initial organization")
}
