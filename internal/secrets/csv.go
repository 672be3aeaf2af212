package secrets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	typeHeaderNormalizedConstant           = "type"
	nameHeaderNormalizedConstant           = "name"
	repoHeaderNormalizedConstant           = "repo"
	valueHeaderNormalizedConstant          = "value"
	orgScopeValueConstant                  = "org"
	repoScopeValueConstant                 = "repo"
	inputHeaderReadErrorTemplateConstant   = "unable to read secret input header: %w"
	inputRecordReadErrorTemplateConstant   = "unable to read secret input record: %w"
	inputHeaderMissingMessageConstant      = "secret input file must contain type and name columns"
	inputFileOpenErrorTemplateConstant     = "unable to open secret input file %s: %w"
	unknownScopeErrorTemplateConstant      = "unknown secret scope %q on row %d"
	missingRepositoryErrorTemplateConstant = "secret %s on row %d has repo scope but no repository"
	discoveryWriteErrorTemplateConstant    = "unable to write secret discovery record: %w"
)

// Discovery CSV column headers.
const (
	DiscoveryTypeHeader     = "Type"
	DiscoveryLocationHeader = "Repository/Organization"
	DiscoveryNameHeader     = "Secret Name"
)

// Scope identifies whether a secret belongs to the organization or one repository.
type Scope string

// Secret scope enumerations.
const (
	ScopeOrganization Scope = Scope(orgScopeValueConstant)
	ScopeRepository   Scope = Scope(repoScopeValueConstant)
)

// InputSecret is one row of the plaintext migration CSV.
type InputSecret struct {
	Scope          Scope
	Name           string
	RepositoryName string
	Value          string
}

// DiscoveredSecret names one secret found on the source during discovery.
type DiscoveredSecret struct {
	Scope    Scope
	Location string
	Name     string
}

// LoadInputSecrets parses the migration CSV. Required columns are type and
// name; repo is required per row when type=repo, value rows transfer as-is.
func LoadInputSecrets(source io.Reader) ([]InputSecret, error) {
	csvReader := csv.NewReader(source)
	csvReader.TrimLeadingSpace = true

	headerRecord, headerError := csvReader.Read()
	if headerError != nil {
		return nil, fmt.Errorf(inputHeaderReadErrorTemplateConstant, headerError)
	}

	typeColumnIndex := -1
	nameColumnIndex := -1
	repoColumnIndex := -1
	valueColumnIndex := -1
	for columnIndex, headerValue := range headerRecord {
		switch strings.ToLower(strings.TrimSpace(headerValue)) {
		case typeHeaderNormalizedConstant:
			typeColumnIndex = columnIndex
		case nameHeaderNormalizedConstant:
			nameColumnIndex = columnIndex
		case repoHeaderNormalizedConstant:
			repoColumnIndex = columnIndex
		case valueHeaderNormalizedConstant:
			valueColumnIndex = columnIndex
		}
	}

	if typeColumnIndex < 0 || nameColumnIndex < 0 {
		return nil, errors.New(inputHeaderMissingMessageConstant)
	}

	inputSecrets := []InputSecret{}
	rowNumber := 1
	for {
		record, recordError := csvReader.Read()
		if recordError == io.EOF {
			break
		}
		if recordError != nil {
			return nil, fmt.Errorf(inputRecordReadErrorTemplateConstant, recordError)
		}
		rowNumber++

		if typeColumnIndex >= len(record) || nameColumnIndex >= len(record) {
			continue
		}

		scopeValue := strings.ToLower(strings.TrimSpace(record[typeColumnIndex]))
		secretName := strings.TrimSpace(record[nameColumnIndex])
		if len(secretName) == 0 {
			continue
		}

		inputSecret := InputSecret{Name: secretName}
		switch Scope(scopeValue) {
		case ScopeOrganization:
			inputSecret.Scope = ScopeOrganization
		case ScopeRepository:
			inputSecret.Scope = ScopeRepository
		default:
			return nil, fmt.Errorf(unknownScopeErrorTemplateConstant, scopeValue, rowNumber)
		}

		if repoColumnIndex >= 0 && repoColumnIndex < len(record) {
			inputSecret.RepositoryName = strings.TrimSpace(record[repoColumnIndex])
		}
		if inputSecret.Scope == ScopeRepository && len(inputSecret.RepositoryName) == 0 {
			return nil, fmt.Errorf(missingRepositoryErrorTemplateConstant, secretName, rowNumber)
		}

		if valueColumnIndex >= 0 && valueColumnIndex < len(record) {
			inputSecret.Value = record[valueColumnIndex]
		}

		inputSecrets = append(inputSecrets, inputSecret)
	}

	return inputSecrets, nil
}

// LoadInputSecretsFile loads the migration CSV from disk.
func LoadInputSecretsFile(path string) ([]InputSecret, error) {
	inputFile, openError := os.Open(path)
	if openError != nil {
		return nil, fmt.Errorf(inputFileOpenErrorTemplateConstant, path, openError)
	}
	defer func() { _ = inputFile.Close() }()

	return LoadInputSecrets(inputFile)
}

// WriteDiscoveryCSV renders discovered secret names in the documented
// three-column layout.
func WriteDiscoveryCSV(destination io.Writer, discoveredSecrets []DiscoveredSecret) error {
	csvWriter := csv.NewWriter(destination)

	records := [][]string{{DiscoveryTypeHeader, DiscoveryLocationHeader, DiscoveryNameHeader}}
	for _, discoveredSecret := range discoveredSecrets {
		records = append(records, []string{string(discoveredSecret.Scope), discoveredSecret.Location, discoveredSecret.Name})
	}

	if writeError := csvWriter.WriteAll(records); writeError != nil {
		return fmt.Errorf(discoveryWriteErrorTemplateConstant, writeError)
	}

	csvWriter.Flush()
	if flushError := csvWriter.Error(); flushError != nil {
		return fmt.Errorf(discoveryWriteErrorTemplateConstant, flushError)
	}

	return nil
}
