package teams

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/orgmigrate/orgmigrate/internal/identity"
	"github.com/orgmigrate/orgmigrate/internal/migration"
)

const (
	teamsResourceNameConstant                = "teams"
	sourceReaderMissingMessageConstant       = "team source reader not configured"
	targetWriterMissingMessageConstant       = "team target writer not configured"
	teamListingFailedNameConstant            = "team-listing"
	memberRoleFetchWarnMessageConstant       = "dropping member after role lookup failure"
	repositoryListWarnMessageConstant        = "team repository listing failed"
	missingDestinationRepoTemplateConstant   = "destination repository %s does not exist"
	membershipItemNameTemplateConstant       = "%s/%s"
	permissionItemNameTemplateConstant       = "%s/%s"
	dryRunPlanDetailTemplateConstant         = "create with %d members and %d repository grants"
	stateTransitionDebugMessageConstant      = "team state transition"
	teamSlugLogFieldNameConstant             = "team"
	memberLoginLogFieldNameConstant          = "login"
	teamStateLogFieldNameConstant            = "state"
	parentLinkOmittedDebugMessageConstant    = "parent not created in this run, omitting parent link"
	parentSlugLogFieldNameConstant           = "parent"
	idpGroupLinkedDebugMessageConstant       = "identity provider group linked"
	groupIdentifierLogFieldNameConstant      = "group_id"
)

// Sentinel errors for service construction.
var (
	// ErrSourceReaderMissing indicates the service was built without a source reader.
	ErrSourceReaderMissing = errors.New(sourceReaderMissingMessageConstant)
	// ErrTargetWriterMissing indicates the service was built without a target writer.
	ErrTargetWriterMissing = errors.New(targetWriterMissingMessageConstant)
)

// ServiceDependencies describes required collaborators for team migration.
type ServiceDependencies struct {
	Logger       *zap.Logger
	Source       SourceReader
	Target       TargetWriter
	UserMappings identity.UserMappingTable
	IdPGroups    map[string]IdPGroup
	DryRun       bool
}

// Service replays the team forest at the destination.
type Service struct {
	logger       *zap.Logger
	source       SourceReader
	target       TargetWriter
	userMappings identity.UserMappingTable
	idpGroups    map[string]IdPGroup
	dryRun       bool
}

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Source == nil {
		return nil, ErrSourceReaderMissing
	}
	if dependencies.Target == nil {
		return nil, ErrTargetWriterMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		logger:       logger,
		source:       dependencies.Source,
		target:       dependencies.Target,
		userMappings: dependencies.UserMappings,
		idpGroups:    dependencies.IdPGroups,
		dryRun:       dependencies.DryRun,
	}, nil
}

// Execute migrates every discovered team, parents before children. The
// returned report carries the nested hierarchy under Details.
func (service *Service) Execute(executionContext context.Context) (*migration.Report, error) {
	report := migration.NewReport(service.logger, teamsResourceNameConstant, service.dryRun)

	discoveredTeams, listingError := service.source.ListTeams(executionContext)
	if listingError != nil {
		report.AddError(teamListingFailedNameConstant, listingError)
		return report, nil
	}

	orderedTeams := SortByParentDepth(discoveredTeams)
	createdTeamIDs := make(map[string]int64, len(orderedTeams))

	for _, candidateTeam := range orderedTeams {
		service.migrateTeam(executionContext, candidateTeam, createdTeamIDs, report)
	}

	report.Details = BuildHierarchy(orderedTeams)
	return report, nil
}

func (service *Service) migrateTeam(executionContext context.Context, candidateTeam Team, createdTeamIDs map[string]int64, report *migration.Report) {
	service.logTeamState(candidateTeam.Slug, StateDiscovered)

	teamMembers := service.fetchMembers(executionContext, candidateTeam.Slug)
	service.logTeamState(candidateTeam.Slug, StateMembersFetched)

	teamRepositories, repositoryListingError := service.source.ListTeamRepositories(executionContext, candidateTeam.Slug)
	if repositoryListingError != nil {
		service.logger.Warn(
			repositoryListWarnMessageConstant,
			zap.String(teamSlugLogFieldNameConstant, candidateTeam.Slug),
			zap.Error(repositoryListingError),
		)
		teamRepositories = nil
	}

	if service.dryRun {
		planDetail := fmt.Sprintf(dryRunPlanDetailTemplateConstant, len(teamMembers), len(teamRepositories))
		report.AddItemDetail(candidateTeam.Slug, migration.ActionPlanned, planDetail)
		service.logTeamState(candidateTeam.Slug, StateDryRunRecorded)
		return
	}

	parentTeamID := int64(0)
	if len(candidateTeam.ParentSlug) > 0 {
		mappedParentID, parentCreated := createdTeamIDs[candidateTeam.ParentSlug]
		if parentCreated {
			parentTeamID = mappedParentID
		} else {
			service.logger.Debug(
				parentLinkOmittedDebugMessageConstant,
				zap.String(teamSlugLogFieldNameConstant, candidateTeam.Slug),
				zap.String(parentSlugLogFieldNameConstant, candidateTeam.ParentSlug),
			)
		}
	}

	createdTeamID, creationError := service.target.CreateTeam(executionContext, candidateTeam, parentTeamID)
	if creationError != nil {
		report.AddError(candidateTeam.Slug, creationError)
		return
	}
	createdTeamIDs[candidateTeam.Slug] = createdTeamID
	service.logTeamState(candidateTeam.Slug, StateCreated)

	service.replayMembers(executionContext, candidateTeam.Slug, teamMembers, report)
	service.logTeamState(candidateTeam.Slug, StateMembersReplayed)

	service.replayRepositoryPermissions(executionContext, candidateTeam.Slug, teamRepositories, report)
	service.logTeamState(candidateTeam.Slug, StatePermissionsReplayed)

	if linkedGroup, groupConfigured := service.idpGroups[candidateTeam.Slug]; groupConfigured {
		if linkError := service.target.LinkTeamToIdPGroup(executionContext, candidateTeam.Slug, linkedGroup); linkError != nil {
			report.AddError(candidateTeam.Slug, linkError)
		} else {
			service.logger.Debug(
				idpGroupLinkedDebugMessageConstant,
				zap.String(teamSlugLogFieldNameConstant, candidateTeam.Slug),
				zap.String(groupIdentifierLogFieldNameConstant, linkedGroup.GroupID),
			)
		}
	}

	report.AddItem(candidateTeam.Slug, migration.ActionCreated)
}

// fetchMembers resolves each member's role individually; members whose role
// lookup fails are dropped with a warning rather than failing the team.
func (service *Service) fetchMembers(executionContext context.Context, teamSlug string) []TeamMember {
	memberLogins, memberListingError := service.source.ListTeamMemberLogins(executionContext, teamSlug)
	if memberListingError != nil {
		service.logger.Warn(
			memberRoleFetchWarnMessageConstant,
			zap.String(teamSlugLogFieldNameConstant, teamSlug),
			zap.Error(memberListingError),
		)
		return nil
	}

	teamMembers := make([]TeamMember, 0, len(memberLogins))
	for _, memberLogin := range memberLogins {
		memberRole, roleError := service.source.GetTeamMembershipRole(executionContext, teamSlug, memberLogin)
		if roleError != nil {
			service.logger.Warn(
				memberRoleFetchWarnMessageConstant,
				zap.String(teamSlugLogFieldNameConstant, teamSlug),
				zap.String(memberLoginLogFieldNameConstant, memberLogin),
				zap.Error(roleError),
			)
			continue
		}
		teamMembers = append(teamMembers, TeamMember{Login: memberLogin, Role: memberRole})
	}

	return teamMembers
}

func (service *Service) replayMembers(executionContext context.Context, teamSlug string, teamMembers []TeamMember, report *migration.Report) {
	for _, teamMember := range teamMembers {
		destinationLogin := service.userMappings.Resolve(teamMember.Login)
		membershipError := service.target.AddTeamMembership(executionContext, teamSlug, destinationLogin, teamMember.Role)
		if membershipError != nil {
			report.AddError(fmt.Sprintf(membershipItemNameTemplateConstant, teamSlug, destinationLogin), membershipError)
		}
	}
}

func (service *Service) replayRepositoryPermissions(executionContext context.Context, teamSlug string, teamRepositories []TeamRepository, report *migration.Report) {
	for _, teamRepository := range teamRepositories {
		itemName := fmt.Sprintf(permissionItemNameTemplateConstant, teamSlug, teamRepository.RepositoryName)

		repositoryPresent, probeError := service.target.RepositoryExists(executionContext, teamRepository.RepositoryName)
		if probeError != nil {
			report.AddError(itemName, probeError)
			continue
		}
		if !repositoryPresent {
			report.AddError(itemName, fmt.Errorf(missingDestinationRepoTemplateConstant, teamRepository.RepositoryName))
			continue
		}

		permissionError := service.target.SetTeamRepositoryPermission(executionContext, teamSlug, teamRepository.RepositoryName, teamRepository.Permission)
		if permissionError != nil {
			report.AddError(itemName, permissionError)
		}
	}
}

func (service *Service) logTeamState(teamSlug string, state TeamState) {
	service.logger.Debug(
		stateTransitionDebugMessageConstant,
		zap.String(teamSlugLogFieldNameConstant, teamSlug),
		zap.String(teamStateLogFieldNameConstant, string(state)),
	)
}
