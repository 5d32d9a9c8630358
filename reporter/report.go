package reporter

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"

	"infercheck/toolkit"
)

// TimestampLayout is the fixed pattern embedded in report filenames.
const TimestampLayout = "2006-01-02_15-04-05"

// WriteReport persists a run as a JSON report plus a small HTML rendering,
// both named <scope>_report_<timestamp>. Returns the two paths.
func WriteReport(dir, scope string, report toolkit.RunReport) (string, string, error) {
	ts := time.Now()
	if parsed, err := time.Parse(time.RFC3339, report.StartedAt); err == nil {
		ts = parsed
	}
	base := fmt.Sprintf("%s_report_%s", scope, ts.Format(TimestampLayout))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("prepare report directory %q: %w", dir, err)
	}

	report.Persisted = true
	jsonPath := filepath.Join(dir, base+".json")
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(jsonPath, raw, 0o644); err != nil {
		return "", "", fmt.Errorf("write report json %q: %w", jsonPath, err)
	}

	htmlPath := filepath.Join(dir, base+".html")
	if err := writeHTMLReport(htmlPath, report); err != nil {
		return "", "", err
	}

	return jsonPath, htmlPath, nil
}

var reportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Service}} conformance report</title></head>
<body>
<h1>{{.Service}} &mdash; {{.Environment}}</h1>
<p>Started {{.StartedAt}}. Total {{.Summary.Total}}, passed {{.Summary.Passed}}, failed {{.Summary.Failed}}.</p>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Endpoint</th><th>Method</th><th>Case</th><th>Status</th><th>Result</th><th>Why</th></tr>
{{range .Results}}<tr>
<td>{{.Endpoint}}</td><td>{{.Method}}</td><td>{{.CaseID}}</td><td>{{.Status}}</td>
<td>{{if .Passed}}PASS{{else}}FAIL ({{.Failure}}){{end}}</td><td>{{.Why}}</td>
</tr>
{{end}}</table>
</body>
</html>
`))

func writeHTMLReport(path string, report toolkit.RunReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report html %q: %w", path, err)
	}
	defer f.Close()

	if err := reportTmpl.Execute(f, report); err != nil {
		return fmt.Errorf("render report html %q: %w", path, err)
	}
	return nil
}
