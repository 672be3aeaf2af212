package teams

import (
	"context"
	"fmt"
	"net/url"

	"github.com/orgmigrate/orgmigrate/internal/githubapi"
)

const (
	listTeamsPathTemplateConstant            = "orgs/%s/teams?per_page=%d&page=%d"
	listTeamMembersPathTemplateConstant      = "orgs/%s/teams/%s/members?per_page=%d&page=%d"
	teamMembershipPathTemplateConstant       = "orgs/%s/teams/%s/memberships/%s"
	listTeamRepositoriesPathTemplateConst    = "orgs/%s/teams/%s/repos?per_page=%d&page=%d"
	createTeamPathTemplateConstant           = "orgs/%s/teams"
	teamRepositoryPermissionPathTemplateCons = "orgs/%s/teams/%s/repos/%s/%s"
	teamSyncGroupMappingsPathTemplateConst   = "orgs/%s/teams/%s/team-sync/group-mappings"
	repositoryProbePathTemplateConstant      = "repos/%s/%s"
)

// SourceReader enumerates teams and their sub-resources on the source instance.
type SourceReader interface {
	ListTeams(requestContext context.Context) ([]Team, error)
	ListTeamMemberLogins(requestContext context.Context, teamSlug string) ([]string, error)
	GetTeamMembershipRole(requestContext context.Context, teamSlug string, memberLogin string) (TeamRole, error)
	ListTeamRepositories(requestContext context.Context, teamSlug string) ([]TeamRepository, error)
}

// TargetWriter performs team mutations on the destination instance.
type TargetWriter interface {
	CreateTeam(requestContext context.Context, team Team, parentTeamID int64) (int64, error)
	AddTeamMembership(requestContext context.Context, teamSlug string, memberLogin string, role TeamRole) error
	SetTeamRepositoryPermission(requestContext context.Context, teamSlug string, repositoryName string, permission RepositoryPermission) error
	LinkTeamToIdPGroup(requestContext context.Context, teamSlug string, group IdPGroup) error
	RepositoryExists(requestContext context.Context, repositoryName string) (bool, error)
}

type teamListEntry struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Privacy     string `json:"privacy"`
	Parent      *struct {
		Slug string `json:"slug"`
	} `json:"parent"`
}

type memberListEntry struct {
	Login string `json:"login"`
}

type membershipResponse struct {
	Role string `json:"role"`
}

type teamRepositoryEntry struct {
	Name        string          `json:"name"`
	Permissions map[string]bool `json:"permissions"`
}

type createTeamPayload struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Privacy      string `json:"privacy,omitempty"`
	ParentTeamID int64  `json:"parent_team_id,omitempty"`
}

type createTeamResponse struct {
	ID int64 `json:"id"`
}

type membershipPayload struct {
	Role string `json:"role"`
}

type repositoryPermissionPayload struct {
	Permission string `json:"permission"`
}

type groupMappingsPayload struct {
	Groups []groupMappingEntry `json:"groups"`
}

type groupMappingEntry struct {
	GroupID          string `json:"group_id"`
	GroupName        string `json:"group_name"`
	GroupDescription string `json:"group_description"`
}

// RESTSourceReader implements SourceReader over the REST API.
type RESTSourceReader struct {
	client *githubapi.Client
}

// NewRESTSourceReader constructs a reader bound to the source client.
func NewRESTSourceReader(client *githubapi.Client) *RESTSourceReader {
	return &RESTSourceReader{client: client}
}

// ListTeams drains every page of the organization team listing.
func (reader *RESTSourceReader) ListTeams(requestContext context.Context) ([]Team, error) {
	entries, paginationError := githubapi.Paginate(requestContext, githubapi.DefaultPageSize,
		func(pageContext context.Context, pageNumber int, pageSize int) ([]teamListEntry, error) {
			listPath := fmt.Sprintf(listTeamsPathTemplateConstant, reader.client.Organization(), pageSize, pageNumber)
			var pageEntries []teamListEntry
			if requestError := reader.client.Get(pageContext, listPath, &pageEntries); requestError != nil {
				return nil, requestError
			}
			return pageEntries, nil
		})
	if paginationError != nil {
		return nil, paginationError
	}

	discoveredTeams := make([]Team, 0, len(entries))
	for _, entry := range entries {
		discoveredTeam := Team{
			Slug:        entry.Slug,
			Name:        entry.Name,
			Description: entry.Description,
			Privacy:     entry.Privacy,
		}
		if entry.Parent != nil {
			discoveredTeam.ParentSlug = entry.Parent.Slug
		}
		discoveredTeams = append(discoveredTeams, discoveredTeam)
	}

	return discoveredTeams, nil
}

// ListTeamMemberLogins drains the member listing for one team.
func (reader *RESTSourceReader) ListTeamMemberLogins(requestContext context.Context, teamSlug string) ([]string, error) {
	entries, paginationError := githubapi.Paginate(requestContext, githubapi.DefaultPageSize,
		func(pageContext context.Context, pageNumber int, pageSize int) ([]memberListEntry, error) {
			listPath := fmt.Sprintf(listTeamMembersPathTemplateConstant, reader.client.Organization(), url.PathEscape(teamSlug), pageSize, pageNumber)
			var pageEntries []memberListEntry
			if requestError := reader.client.Get(pageContext, listPath, &pageEntries); requestError != nil {
				return nil, requestError
			}
			return pageEntries, nil
		})
	if paginationError != nil {
		return nil, paginationError
	}

	memberLogins := make([]string, 0, len(entries))
	for _, entry := range entries {
		memberLogins = append(memberLogins, entry.Login)
	}

	return memberLogins, nil
}

// GetTeamMembershipRole fetches the role for a single member.
func (reader *RESTSourceReader) GetTeamMembershipRole(requestContext context.Context, teamSlug string, memberLogin string) (TeamRole, error) {
	membershipPath := fmt.Sprintf(teamMembershipPathTemplateConstant, reader.client.Organization(), url.PathEscape(teamSlug), url.PathEscape(memberLogin))

	var response membershipResponse
	if requestError := reader.client.Get(requestContext, membershipPath, &response); requestError != nil {
		return "", requestError
	}

	if response.Role == maintainerRoleValueConstant {
		return RoleMaintainer, nil
	}
	return RoleMember, nil
}

// ListTeamRepositories drains the repository listing with derived permissions.
func (reader *RESTSourceReader) ListTeamRepositories(requestContext context.Context, teamSlug string) ([]TeamRepository, error) {
	entries, paginationError := githubapi.Paginate(requestContext, githubapi.DefaultPageSize,
		func(pageContext context.Context, pageNumber int, pageSize int) ([]teamRepositoryEntry, error) {
			listPath := fmt.Sprintf(listTeamRepositoriesPathTemplateConst, reader.client.Organization(), url.PathEscape(teamSlug), pageSize, pageNumber)
			var pageEntries []teamRepositoryEntry
			if requestError := reader.client.Get(pageContext, listPath, &pageEntries); requestError != nil {
				return nil, requestError
			}
			return pageEntries, nil
		})
	if paginationError != nil {
		return nil, paginationError
	}

	teamRepositories := make([]TeamRepository, 0, len(entries))
	for _, entry := range entries {
		teamRepositories = append(teamRepositories, TeamRepository{
			RepositoryName: entry.Name,
			Permission:     DerivePermission(entry.Permissions),
		})
	}

	return teamRepositories, nil
}

// RESTTargetWriter implements TargetWriter over the REST API.
type RESTTargetWriter struct {
	client *githubapi.Client
}

// NewRESTTargetWriter constructs a writer bound to the target client.
func NewRESTTargetWriter(client *githubapi.Client) *RESTTargetWriter {
	return &RESTTargetWriter{client: client}
}

// CreateTeam creates the team, optionally linked to an already-created parent.
func (writer *RESTTargetWriter) CreateTeam(requestContext context.Context, team Team, parentTeamID int64) (int64, error) {
	payload := createTeamPayload{
		Name:         team.Name,
		Description:  team.Description,
		Privacy:      team.Privacy,
		ParentTeamID: parentTeamID,
	}

	var response createTeamResponse
	createPath := fmt.Sprintf(createTeamPathTemplateConstant, writer.client.Organization())
	if requestError := writer.client.Post(requestContext, createPath, payload, &response); requestError != nil {
		return 0, requestError
	}

	return response.ID, nil
}

// AddTeamMembership grants membership with the supplied role.
func (writer *RESTTargetWriter) AddTeamMembership(requestContext context.Context, teamSlug string, memberLogin string, role TeamRole) error {
	membershipPath := fmt.Sprintf(teamMembershipPathTemplateConstant, writer.client.Organization(), url.PathEscape(teamSlug), url.PathEscape(memberLogin))
	return writer.client.Put(requestContext, membershipPath, membershipPayload{Role: string(role)}, nil)
}

// SetTeamRepositoryPermission grants the permission grade on one repository.
func (writer *RESTTargetWriter) SetTeamRepositoryPermission(requestContext context.Context, teamSlug string, repositoryName string, permission RepositoryPermission) error {
	permissionPath := fmt.Sprintf(
		teamRepositoryPermissionPathTemplateCons,
		writer.client.Organization(),
		url.PathEscape(teamSlug),
		writer.client.Organization(),
		url.PathEscape(repositoryName),
	)
	return writer.client.Put(requestContext, permissionPath, repositoryPermissionPayload{Permission: string(permission)}, nil)
}

// LinkTeamToIdPGroup replays an identity-provider group mapping.
func (writer *RESTTargetWriter) LinkTeamToIdPGroup(requestContext context.Context, teamSlug string, group IdPGroup) error {
	mappingPath := fmt.Sprintf(teamSyncGroupMappingsPathTemplateConst, writer.client.Organization(), url.PathEscape(teamSlug))
	payload := groupMappingsPayload{
		Groups: []groupMappingEntry{{
			GroupID:          group.GroupID,
			GroupName:        group.GroupName,
			GroupDescription: group.GroupDescription,
		}},
	}
	return writer.client.Patch(requestContext, mappingPath, payload, nil)
}

// RepositoryExists probes the destination repository.
func (writer *RESTTargetWriter) RepositoryExists(requestContext context.Context, repositoryName string) (bool, error) {
	probePath := fmt.Sprintf(repositoryProbePathTemplateConstant, writer.client.Organization(), url.PathEscape(repositoryName))
	return writer.client.Exists(requestContext, probePath)
}
