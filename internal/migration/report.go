package migration

import (
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"
)

const (
	reportEncodingErrorTemplateConstant = "unable to encode migration report: %w"
	reportIndentPrefixConstant          = ""
	reportIndentStepConstant            = "  "
	itemRecordedDebugMessageConstant    = "migration item recorded"
	errorRecordedWarnMessageConstant    = "migration item failed"
	resourceLogFieldNameConstant        = "resource"
	itemNameLogFieldNameConstant        = "name"
	itemActionLogFieldNameConstant      = "action"
)

// Item actions recorded in migration reports.
const (
	ActionCreated   = "created"
	ActionPublished = "published"
	ActionSkipped   = "skipped"
	ActionPlanned   = "planned"
)

// Item records one successfully processed resource item.
type Item struct {
	Name   string `json:"name"`
	Action string `json:"action"`
	Detail string `json:"detail,omitempty"`
}

// Failure records one failed resource item without aborting the run.
type Failure struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Report aggregates the observable outcome of one resource migration run.
type Report struct {
	Resource string    `json:"resource"`
	DryRun   bool      `json:"dry_run"`
	Items    []Item    `json:"items"`
	Errors   []Failure `json:"errors"`
	Details  any       `json:"details,omitempty"`

	logger *zap.Logger
}

// NewReport constructs an empty report for the named resource type.
func NewReport(logger *zap.Logger, resource string, dryRun bool) *Report {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Report{
		Resource: resource,
		DryRun:   dryRun,
		Items:    []Item{},
		Errors:   []Failure{},
		logger:   logger,
	}
}

// AddItem records a processed item.
func (report *Report) AddItem(name string, action string) {
	report.AddItemDetail(name, action, "")
}

// AddItemDetail records a processed item with an additional detail string.
func (report *Report) AddItemDetail(name string, action string, detail string) {
	report.Items = append(report.Items, Item{Name: name, Action: action, Detail: detail})
	report.logger.Debug(
		itemRecordedDebugMessageConstant,
		zap.String(resourceLogFieldNameConstant, report.Resource),
		zap.String(itemNameLogFieldNameConstant, name),
		zap.String(itemActionLogFieldNameConstant, action),
	)
}

// AddError records an item-level failure and keeps the run going.
func (report *Report) AddError(name string, cause error) {
	report.Errors = append(report.Errors, Failure{Name: name, Message: cause.Error()})
	report.logger.Warn(
		errorRecordedWarnMessageConstant,
		zap.String(resourceLogFieldNameConstant, report.Resource),
		zap.String(itemNameLogFieldNameConstant, name),
		zap.Error(cause),
	)
}

// Emit writes the report as indented JSON to the supplied writer.
func (report *Report) Emit(destination io.Writer) error {
	encodedReport, encodingError := json.MarshalIndent(report, reportIndentPrefixConstant, reportIndentStepConstant)
	if encodingError != nil {
		return fmt.Errorf(reportEncodingErrorTemplateConstant, encodingError)
	}

	_, writeError := fmt.Fprintln(destination, string(encodedReport))
	return writeError
}
