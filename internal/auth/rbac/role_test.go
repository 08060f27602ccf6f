package rbac

import (
	"testing"

	autherror "github.com/gouthamkasula22/enterprise-auth/internal/errors"
	"github.com/gouthamkasula22/enterprise-auth/pkg/constant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"canonical user", "USER", constant.RoleUser, false},
		{"lowercase admin", "admin", constant.RoleAdmin, false},
		{"mixed case with spaces", "  SuperAdmin ", constant.RoleSuperadmin, false},
		{"free-form string", "moderator", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				_, ok := autherror.AsValidationError(err)
				assert.True(t, ok)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// All nine (role, requiredRank) pairs: allow iff rank(role) >= required.
func TestAuthorize_AllPairs(t *testing.T) {
	roles := []string{constant.RoleUser, constant.RoleAdmin, constant.RoleSuperadmin}

	for _, role := range roles {
		for _, required := range []int{RankUser, RankAdmin, RankSuperadmin} {
			err := Authorize(role, required)
			if Rank(role) >= required {
				assert.NoError(t, err, "role %s rank %d", role, required)
				continue
			}
			require.Error(t, err, "role %s rank %d", role, required)
			ae, ok := autherror.AsAuthorizationError(err)
			require.True(t, ok)
			assert.Equal(t, required, ae.RequiredRank)
			assert.Equal(t, Rank(role), ae.ActualRank)
		}
	}
}

func TestAuthorize_UnknownRoleAlwaysDenied(t *testing.T) {
	assert.Error(t, Authorize("moderator", RankUser))
	assert.Error(t, Authorize("", RankUser))
}
