package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/verify"
)

// -----------------------------
// Report Data
// -----------------------------

// CheckRun describes one verification of a generated file.
type CheckRun struct {
	ID        string        `json:"id"`
	Schema    string        `json:"schema"`
	Data      string        `json:"data"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Result    verify.Report `json:"result"`
}

// NewCheckRun starts a run with a fresh ID.
func NewCheckRun(schemaPath, dataPath string) CheckRun {
	return CheckRun{
		ID:        uuid.NewString(),
		Schema:    schemaPath,
		Data:      dataPath,
		StartTime: time.Now(),
	}
}

// Passed reports whether the run found no violation.
func (r CheckRun) Passed() bool {
	return r.Result.OK()
}

// -----------------------------
// Report Generator Interfaces
// -----------------------------

// ReportGenerator defines the methods for generating reports.
type ReportGenerator interface {
	GenerateCheckReport(run CheckRun) ([]byte, error)
	SaveReportToFile(run CheckRun, filePath string) error
}

// ForFormat returns the generator for format: text, json or html.
func ForFormat(format string) (ReportGenerator, error) {
	switch format {
	case "text":
		return &TextReportGenerator{}, nil
	case "json":
		return &JSONReportGenerator{}, nil
	case "html":
		return &HTMLReportGenerator{}, nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

func save(g ReportGenerator, run CheckRun, filePath string) error {
	data, err := g.GenerateCheckReport(run)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0o644)
}

// -----------------------------
// Text Report Generator
// -----------------------------

// TextReportGenerator renders the one-line-per-violation summary.
type TextReportGenerator struct{}

func (g *TextReportGenerator) GenerateCheckReport(run CheckRun) ([]byte, error) {
	return []byte(run.Result.Summary()), nil
}

func (g *TextReportGenerator) SaveReportToFile(run CheckRun, filePath string) error {
	return save(g, run, filePath)
}

// -----------------------------
// JSON Report Generator
// -----------------------------

// JSONReportGenerator generates JSON reports.
type JSONReportGenerator struct{}

// GenerateCheckReport serializes the CheckRun to JSON.
func (g *JSONReportGenerator) GenerateCheckReport(run CheckRun) ([]byte, error) {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// SaveReportToFile saves the JSON report to a file.
func (g *JSONReportGenerator) SaveReportToFile(run CheckRun, filePath string) error {
	return save(g, run, filePath)
}

// ReportFromFilePath loads a JSON report written by SaveReportToFile.
func ReportFromFilePath(filePath string) (CheckRun, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return CheckRun{}, err
	}
	var run CheckRun
	if err := json.Unmarshal(data, &run); err != nil {
		return CheckRun{}, err
	}
	return run, nil
}

// -----------------------------
// HTML Report Generator
// -----------------------------

// HTMLReportGenerator generates HTML reports.
type HTMLReportGenerator struct{}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Generated Data Check</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        table { width: 100%; border-collapse: collapse; margin-top: 20px; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f4f4f4; }
        .status-pass { color: green; }
        .status-fail { color: red; }
    </style>
</head>
<body>
    <h1>Generated Data Check</h1>
    <p><strong>Run:</strong> {{.ID}}</p>
    <p><strong>Schema:</strong> {{.Schema}}</p>
    <p><strong>Data:</strong> {{.Data}}</p>
    <p><strong>Rows:</strong> {{.Result.Rows}}</p>
    <p><strong>Status:</strong> {{if .Passed}}<span class="status-pass">PASS</span>{{else}}<span class="status-fail">FAIL</span>{{end}}</p>

    <h2>Violations</h2>
    <table>
        <tr>
            <th>Line</th>
            <th>Field</th>
            <th>Message</th>
        </tr>
        {{range .Result.Violations}}
        <tr>
            <td>{{if .Line}}{{.Line}}{{else}}-{{end}}</td>
            <td>{{.Field}}</td>
            <td>{{.Message}}</td>
        </tr>
        {{else}}
        <tr><td colspan="3">None</td></tr>
        {{end}}
    </table>

    <footer>
        <p>Checked from {{.StartTime.Format "2006-01-02T15:04:05Z07:00"}} to {{.EndTime.Format "2006-01-02T15:04:05Z07:00"}}</p>
    </footer>
</body>
</html>
`

var htmlReport = template.Must(template.New("report").Parse(htmlTemplate))

// GenerateCheckReport generates an HTML report from the check run.
func (g *HTMLReportGenerator) GenerateCheckReport(run CheckRun) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlReport.Execute(&buf, run); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveReportToFile saves the HTML report to a file.
func (g *HTMLReportGenerator) SaveReportToFile(run CheckRun, filePath string) error {
	return save(g, run, filePath)
}
