package rbac

import (
	"strings"

	autherror "github.com/gouthamkasula22/enterprise-auth/internal/errors"
	"github.com/gouthamkasula22/enterprise-auth/pkg/constant"
)

// Rank positions of the fixed role enumeration. Comparison is a plain
// integer ordering; no string heuristics at read time.
const (
	RankUser       = 1
	RankAdmin      = 2
	RankSuperadmin = 3
)

var roleRanks = map[string]int{
	constant.RoleUser:       RankUser,
	constant.RoleAdmin:      RankAdmin,
	constant.RoleSuperadmin: RankSuperadmin,
}

// Normalize maps arbitrary input to a canonical role name at the write
// boundary. Anything outside the enumeration is rejected so free-form
// strings never persist.
func Normalize(role string) (string, error) {
	canonical := strings.ToUpper(strings.TrimSpace(role))
	if _, ok := roleRanks[canonical]; !ok {
		return "", autherror.NewValidationError("role", "must be one of USER, ADMIN, SUPERADMIN")
	}
	return canonical, nil
}

// Rank returns the ordering position of a stored role. Stored roles are
// already canonical; an unknown value ranks below every requirement.
func Rank(role string) int {
	return roleRanks[role]
}

// Authorize allows iff rank(role) >= requiredRank.
func Authorize(role string, requiredRank int) error {
	actual := Rank(role)
	if actual >= requiredRank {
		return nil
	}
	return &autherror.AuthorizationError{RequiredRank: requiredRank, ActualRank: actual}
}
