package migration_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/orgmigrate/orgmigrate/internal/migration"
)

const (
	testReportResourceNameConstant       = "teams"
	testReportItemNameConstant           = "platform-engineering"
	testReportItemDetailConstant         = "create with 4 members and 2 repository grants"
	testReportFailingItemNameConstant    = "release-managers"
	testReportFailureMessageConstant     = "destination repository acme/tools does not exist"
	testReportFailureWarnMessageConstant = "migration item failed"
)

func TestReportAccumulatesItemsAndErrors(testInstance *testing.T) {
	observerCore, observedLogs := observer.New(zap.DebugLevel)
	report := migration.NewReport(zap.New(observerCore), testReportResourceNameConstant, false)

	report.AddItem(testReportItemNameConstant, migration.ActionCreated)
	report.AddItemDetail(testReportItemNameConstant, migration.ActionPlanned, testReportItemDetailConstant)
	report.AddError(testReportFailingItemNameConstant, errors.New(testReportFailureMessageConstant))

	require.Len(testInstance, report.Items, 2)
	require.Equal(testInstance, migration.ActionCreated, report.Items[0].Action)
	require.Equal(testInstance, testReportItemDetailConstant, report.Items[1].Detail)
	require.Len(testInstance, report.Errors, 1)
	require.Equal(testInstance, testReportFailureMessageConstant, report.Errors[0].Message)

	warnEntries := observedLogs.FilterMessage(testReportFailureWarnMessageConstant)
	require.Equal(testInstance, 1, warnEntries.Len())
	require.Equal(testInstance, zap.WarnLevel, warnEntries.All()[0].Level)
}

func TestReportEmitProducesIndentedJSON(testInstance *testing.T) {
	report := migration.NewReport(zap.NewNop(), testReportResourceNameConstant, true)
	report.AddItem(testReportItemNameConstant, migration.ActionPlanned)

	outputBuffer := &bytes.Buffer{}
	require.NoError(testInstance, report.Emit(outputBuffer))

	decodedReport := map[string]any{}
	require.NoError(testInstance, json.Unmarshal(outputBuffer.Bytes(), &decodedReport))
	require.Equal(testInstance, testReportResourceNameConstant, decodedReport["resource"])
	require.Equal(testInstance, true, decodedReport["dry_run"])
	require.Len(testInstance, decodedReport["items"], 1)
	require.Len(testInstance, decodedReport["errors"], 0)
}

func TestReportToleratesNilLogger(testInstance *testing.T) {
	report := migration.NewReport(nil, testReportResourceNameConstant, false)
	report.AddItem(testReportItemNameConstant, migration.ActionSkipped)
	report.AddError(testReportFailingItemNameConstant, errors.New(testReportFailureMessageConstant))

	require.Len(testInstance, report.Items, 1)
	require.Len(testInstance, report.Errors, 1)
}
