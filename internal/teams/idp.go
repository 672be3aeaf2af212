package teams

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	teamSlugHeaderNormalizedConstant         = "teamslug"
	groupIDHeaderNormalizedConstant          = "groupid"
	groupNameHeaderNormalizedConstant        = "groupname"
	groupDescriptionHeaderNormalizedConstant = "groupdescription"
	idpHeaderReadErrorTemplateConstant       = "unable to read identity provider mapping header: %w"
	idpRecordReadErrorTemplateConstant       = "unable to read identity provider mapping record: %w"
	idpHeaderMissingMessageConstant          = "identity provider mapping file must contain team slug, group id, and group name columns"
	idpFileOpenErrorTemplateConstant         = "unable to open identity provider mapping file %s: %w"
)

// LoadIdPGroupMappings parses a team-slug to identity-provider-group CSV.
// Header matching ignores case, interior spaces, and underscores, so both
// "team_slug" and "Team Slug" spellings work. The description column is
// optional.
func LoadIdPGroupMappings(source io.Reader) (map[string]IdPGroup, error) {
	csvReader := csv.NewReader(source)
	csvReader.TrimLeadingSpace = true

	headerRecord, headerError := csvReader.Read()
	if headerError != nil {
		return nil, fmt.Errorf(idpHeaderReadErrorTemplateConstant, headerError)
	}

	teamSlugColumnIndex := -1
	groupIDColumnIndex := -1
	groupNameColumnIndex := -1
	groupDescriptionColumnIndex := -1
	for columnIndex, headerValue := range headerRecord {
		switch normalizeIdPHeaderValue(headerValue) {
		case teamSlugHeaderNormalizedConstant:
			teamSlugColumnIndex = columnIndex
		case groupIDHeaderNormalizedConstant:
			groupIDColumnIndex = columnIndex
		case groupNameHeaderNormalizedConstant:
			groupNameColumnIndex = columnIndex
		case groupDescriptionHeaderNormalizedConstant:
			groupDescriptionColumnIndex = columnIndex
		}
	}

	if teamSlugColumnIndex < 0 || groupIDColumnIndex < 0 || groupNameColumnIndex < 0 {
		return nil, errors.New(idpHeaderMissingMessageConstant)
	}

	groupsByTeamSlug := map[string]IdPGroup{}
	for {
		record, recordError := csvReader.Read()
		if recordError == io.EOF {
			break
		}
		if recordError != nil {
			return nil, fmt.Errorf(idpRecordReadErrorTemplateConstant, recordError)
		}

		if teamSlugColumnIndex >= len(record) || groupIDColumnIndex >= len(record) || groupNameColumnIndex >= len(record) {
			continue
		}

		teamSlug := strings.TrimSpace(record[teamSlugColumnIndex])
		if len(teamSlug) == 0 {
			continue
		}

		mappedGroup := IdPGroup{
			GroupID:   strings.TrimSpace(record[groupIDColumnIndex]),
			GroupName: strings.TrimSpace(record[groupNameColumnIndex]),
		}
		if groupDescriptionColumnIndex >= 0 && groupDescriptionColumnIndex < len(record) {
			mappedGroup.GroupDescription = strings.TrimSpace(record[groupDescriptionColumnIndex])
		}

		groupsByTeamSlug[teamSlug] = mappedGroup
	}

	return groupsByTeamSlug, nil
}

// LoadIdPGroupMappingsFile loads the mapping CSV from disk.
func LoadIdPGroupMappingsFile(path string) (map[string]IdPGroup, error) {
	mappingFile, openError := os.Open(path)
	if openError != nil {
		return nil, fmt.Errorf(idpFileOpenErrorTemplateConstant, path, openError)
	}
	defer func() { _ = mappingFile.Close() }()

	return LoadIdPGroupMappings(mappingFile)
}

func normalizeIdPHeaderValue(headerValue string) string {
	lowered := strings.ToLower(strings.TrimSpace(headerValue))
	lowered = strings.ReplaceAll(lowered, " ", "")
	return strings.ReplaceAll(lowered, "_", "")
}
