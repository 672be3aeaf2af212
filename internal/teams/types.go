package teams

const (
	memberRoleValueConstant       = "member"
	maintainerRoleValueConstant   = "maintainer"
	pullPermissionValueConstant   = "pull"
	pushPermissionValueConstant   = "push"
	adminPermissionValueConstant  = "admin"
	adminPermissionFlagConstant   = "admin"
	maintainPermissionFlagName    = "maintain"
	pushPermissionFlagConstant    = "push"
)

// TeamRole enumerates membership roles on a team.
type TeamRole string

// Membership role enumerations.
const (
	RoleMember     TeamRole = TeamRole(memberRoleValueConstant)
	RoleMaintainer TeamRole = TeamRole(maintainerRoleValueConstant)
)

// RepositoryPermission enumerates the permission grades replayed at the destination.
type RepositoryPermission string

// Repository permission enumerations.
const (
	PermissionPull  RepositoryPermission = RepositoryPermission(pullPermissionValueConstant)
	PermissionPush  RepositoryPermission = RepositoryPermission(pushPermissionValueConstant)
	PermissionAdmin RepositoryPermission = RepositoryPermission(adminPermissionValueConstant)
)

// DerivePermission selects the highest-privilege grade from the source
// permission flags, admin > push > pull.
func DerivePermission(permissionFlags map[string]bool) RepositoryPermission {
	if permissionFlags[adminPermissionFlagConstant] {
		return PermissionAdmin
	}
	if permissionFlags[maintainPermissionFlagName] || permissionFlags[pushPermissionFlagConstant] {
		return PermissionPush
	}
	return PermissionPull
}

// Team describes one source team identified by slug.
type Team struct {
	Slug        string
	Name        string
	Description string
	Privacy     string
	ParentSlug  string
}

// TeamMember pairs a login with its membership role.
type TeamMember struct {
	Login string
	Role  TeamRole
}

// TeamRepository pairs a repository with the derived permission grade.
type TeamRepository struct {
	RepositoryName string
	Permission     RepositoryPermission
}

// TeamState tracks a team's progress through the migration state machine.
type TeamState string

// Migration state machine stages.
const (
	StateDiscovered          TeamState = "discovered"
	StateMembersFetched      TeamState = "members_fetched"
	StateDryRunRecorded      TeamState = "dry_run_recorded"
	StateCreated             TeamState = "created"
	StateMembersReplayed     TeamState = "members_replayed"
	StatePermissionsReplayed TeamState = "permissions_replayed"
)

// IdPGroup describes an identity-provider group linked to a team.
type IdPGroup struct {
	GroupID          string
	GroupName        string
	GroupDescription string
}
