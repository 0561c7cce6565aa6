package report

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/verify"
)

func createTestRun(violations ...verify.Violation) CheckRun {
	start := time.Date(2024, 7, 8, 10, 0, 0, 0, time.UTC)
	return CheckRun{
		ID:        "7f8c1c2e-0d5b-4b8e-9a61-3c2f0e7d4a10",
		Schema:    "schema.txt",
		Data:      "out.jsonl",
		StartTime: start,
		EndTime:   start.Add(2 * time.Second),
		Result:    verify.Report{Rows: 3, Violations: violations},
	}
}

func TestForFormat(t *testing.T) {
	for _, format := range []string{"text", "json", "html"} {
		g, err := ForFormat(format)
		require.NoError(t, err, format)
		assert.NotNil(t, g)
	}
	_, err := ForFormat("pdf")
	assert.Error(t, err)
}

func TestTextReport(t *testing.T) {
	data, err := (&TextReportGenerator{}).GenerateCheckReport(createTestRun(
		verify.Violation{Line: 2, Field: "active", Message: "expected a boolean, got <nil>"},
	))
	require.NoError(t, err)
	assert.Contains(t, string(data), "3 rows checked, 1 violations")
	assert.Contains(t, string(data), `line 2: field "active"`)
}

func TestJSONReportRoundTrip(t *testing.T) {
	run := createTestRun(verify.Violation{Message: "expected 4 rows, found 3"})
	path := filepath.Join(t.TempDir(), "report.json")

	require.NoError(t, (&JSONReportGenerator{}).SaveReportToFile(run, path))

	loaded, err := ReportFromFilePath(path)
	require.NoError(t, err)
	assert.Equal(t, run.ID, loaded.ID)
	assert.Equal(t, run.Schema, loaded.Schema)
	assert.Equal(t, run.Result, loaded.Result)
	assert.True(t, run.StartTime.Equal(loaded.StartTime))
	assert.False(t, loaded.Passed())
}

func TestReportFromMissingFile(t *testing.T) {
	_, err := ReportFromFilePath(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestHTMLReport(t *testing.T) {
	data, err := (&HTMLReportGenerator{}).GenerateCheckReport(createTestRun(
		verify.Violation{Line: 1, Field: "<name>", Message: "string length 3 outside [50, 100]"},
	))
	require.NoError(t, err)

	html := string(data)
	assert.Contains(t, html, "status-fail")
	assert.Contains(t, html, "&lt;name&gt;", "field names are escaped")
	assert.Contains(t, html, "out.jsonl")
	assert.Contains(t, html, "7f8c1c2e-0d5b-4b8e-9a61-3c2f0e7d4a10")
}

func TestNewCheckRun(t *testing.T) {
	a := NewCheckRun("schema.txt", "out.jsonl")
	b := NewCheckRun("schema.txt", "out.jsonl")

	_, err := uuid.Parse(a.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.StartTime.IsZero())
}

func TestHTMLReportPassed(t *testing.T) {
	data, err := (&HTMLReportGenerator{}).GenerateCheckReport(createTestRun())
	require.NoError(t, err)

	html := string(data)
	assert.Contains(t, html, "status-pass")
	assert.Equal(t, 1, strings.Count(html, "None"))
}
