package constant

// Role identifiers as stored on accounts. Ordering defines authorization
// rank: a role authorizes any rank at or below its own.
const (
	DefaultUserRoleID = 1
	AdminRoleID       = 2
	SuperadminRoleID  = 3
)

// Canonical role names. These are the only role strings that persist;
// anything else is rejected or normalized at the write path.
const (
	RoleUser       = "USER"
	RoleAdmin      = "ADMIN"
	RoleSuperadmin = "SUPERADMIN"
)

// Endpoint keys used by the rate limiter. Handlers pass these, not raw
// paths, so limits survive route renames.
const (
	EndpointLogin         = "login"
	EndpointRegister      = "register"
	EndpointPasswordReset = "password_reset"
	EndpointResetComplete = "password_reset_complete"
	EndpointRefresh       = "refresh"
)

// Credential change reasons recorded on credential history rows.
const (
	CredentialReasonRegistration   = "registration"
	CredentialReasonUserChange     = "user_change"
	CredentialReasonAdminReset     = "admin_reset"
	CredentialReasonForcedRotation = "forced_rotation"
)

// Login mechanisms recorded on audit rows.
const (
	MechanismPassword = "password"
	MechanismRefresh  = "refresh_token"
)
