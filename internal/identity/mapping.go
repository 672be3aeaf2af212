package identity

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	sourceUsernameHeaderNormalizedConstant = "sourceusername"
	targetUsernameHeaderNormalizedConstant = "targetusername"
	mappingHeaderReadErrorTemplateConstant = "unable to read user mapping header: %w"
	mappingRecordReadErrorTemplateConstant = "unable to read user mapping record: %w"
	mappingHeaderMissingMessageConstant    = "user mapping file must contain source and target username columns"
	mappingFileOpenErrorTemplateConstant   = "unable to open user mapping file %s: %w"
)

// UserMappingTable resolves source logins to their destination counterparts.
type UserMappingTable struct {
	mappings map[string]string
}

// NewUserMappingTable constructs an empty mapping table; every login passes through.
func NewUserMappingTable() UserMappingTable {
	return UserMappingTable{mappings: map[string]string{}}
}

// LoadUserMappings parses a mapping CSV. Both "sourceUsername" and
// "source username" header spellings are accepted, likewise for the target
// column; the comparison ignores case and interior spaces.
func LoadUserMappings(source io.Reader) (UserMappingTable, error) {
	csvReader := csv.NewReader(source)
	csvReader.TrimLeadingSpace = true

	headerRecord, headerError := csvReader.Read()
	if headerError != nil {
		return UserMappingTable{}, fmt.Errorf(mappingHeaderReadErrorTemplateConstant, headerError)
	}

	sourceColumnIndex := -1
	targetColumnIndex := -1
	for columnIndex, headerValue := range headerRecord {
		switch normalizeHeaderValue(headerValue) {
		case sourceUsernameHeaderNormalizedConstant:
			sourceColumnIndex = columnIndex
		case targetUsernameHeaderNormalizedConstant:
			targetColumnIndex = columnIndex
		}
	}

	if sourceColumnIndex < 0 || targetColumnIndex < 0 {
		return UserMappingTable{}, errors.New(mappingHeaderMissingMessageConstant)
	}

	table := NewUserMappingTable()
	for {
		record, recordError := csvReader.Read()
		if recordError == io.EOF {
			break
		}
		if recordError != nil {
			return UserMappingTable{}, fmt.Errorf(mappingRecordReadErrorTemplateConstant, recordError)
		}

		if sourceColumnIndex >= len(record) || targetColumnIndex >= len(record) {
			continue
		}

		sourceLogin := strings.TrimSpace(record[sourceColumnIndex])
		targetLogin := strings.TrimSpace(record[targetColumnIndex])
		if len(sourceLogin) == 0 || len(targetLogin) == 0 {
			continue
		}

		table.mappings[sourceLogin] = targetLogin
	}

	return table, nil
}

// LoadUserMappingsFile loads a mapping CSV from disk.
func LoadUserMappingsFile(path string) (UserMappingTable, error) {
	mappingFile, openError := os.Open(path)
	if openError != nil {
		return UserMappingTable{}, fmt.Errorf(mappingFileOpenErrorTemplateConstant, path, openError)
	}
	defer func() { _ = mappingFile.Close() }()

	return LoadUserMappings(mappingFile)
}

// Resolve returns the mapped destination login, or the source login unchanged.
func (table UserMappingTable) Resolve(sourceLogin string) string {
	if table.mappings == nil {
		return sourceLogin
	}
	if mappedLogin, mappingExists := table.mappings[sourceLogin]; mappingExists {
		return mappedLogin
	}
	return sourceLogin
}

// Size reports the number of loaded mappings.
func (table UserMappingTable) Size() int {
	return len(table.mappings)
}

func normalizeHeaderValue(headerValue string) string {
	lowered := strings.ToLower(strings.TrimSpace(headerValue))
	return strings.ReplaceAll(lowered, " ", "")
}
