package reporter

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"
)

// DefaultKeep is how many report runs survive pruning, per scope.
const DefaultKeep = 7

var reportNameRe = regexp.MustCompile(`^(personal|team)_report_(\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2})\.(json|html)$`)

type reportRun struct {
	Scope     string
	Timestamp time.Time
	Stamp     string
	HasHTML   bool
	HasJSON   bool
}

// scanRuns groups report files by (scope, timestamp) so a run's JSON and
// HTML halves are pruned together. Files that do not match the report
// pattern are left alone.
func scanRuns(dir string) (map[string]map[string]*reportRun, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read report directory %q: %w", dir, err)
	}

	runs := map[string]map[string]*reportRun{"personal": {}, "team": {}}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := reportNameRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		scope, stamp, ext := m[1], m[2], m[3]
		ts, err := time.Parse(TimestampLayout, stamp)
		if err != nil {
			continue
		}
		run, ok := runs[scope][stamp]
		if !ok {
			run = &reportRun{Scope: scope, Timestamp: ts, Stamp: stamp}
			runs[scope][stamp] = run
		}
		switch ext {
		case "html":
			run.HasHTML = true
		case "json":
			run.HasJSON = true
		}
	}
	return runs, nil
}

// Prune deletes report files beyond the keep newest runs of each scope and
// returns the removed filenames.
func Prune(dir string, keep int) ([]string, error) {
	if keep <= 0 {
		keep = DefaultKeep
	}

	runs, err := scanRuns(dir)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, byStamp := range runs {
		ordered := sortedRuns(byStamp)
		for i, run := range ordered {
			if i < keep {
				continue
			}
			for _, name := range runFiles(run) {
				path := filepath.Join(dir, name)
				if err := os.Remove(path); err != nil {
					return removed, fmt.Errorf("remove %q: %w", path, err)
				}
				removed = append(removed, name)
			}
		}
	}
	return removed, nil
}

func sortedRuns(byStamp map[string]*reportRun) []*reportRun {
	ordered := make([]*reportRun, 0, len(byStamp))
	for _, run := range byStamp {
		ordered = append(ordered, run)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.After(ordered[j].Timestamp)
	})
	return ordered
}

func runFiles(run *reportRun) []string {
	base := fmt.Sprintf("%s_report_%s", run.Scope, run.Stamp)
	var names []string
	if run.HasJSON {
		names = append(names, base+".json")
	}
	if run.HasHTML {
		names = append(names, base+".html")
	}
	return names
}

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Conformance reports</title></head>
<body>
<h1>Conformance reports</h1>
{{range .Sections}}<h2>{{.Title}}</h2>
<ul>
{{range .Items}}<li><a href="{{.Link}}">{{.Label}}</a></li>
{{end}}</ul>
{{end}}</body>
</html>
`))

type indexSection struct {
	Title string
	Items []indexItem
}

type indexItem struct {
	Link  string
	Label string
}

// WriteIndex rewrites index.html to list the surviving reports, newest
// first, split into personal and team sections.
func WriteIndex(dir string) (string, error) {
	runs, err := scanRuns(dir)
	if err != nil {
		return "", err
	}

	data := struct{ Sections []indexSection }{}
	for _, scope := range []string{"personal", "team"} {
		section := indexSection{Title: scope}
		for _, run := range sortedRuns(runs[scope]) {
			name := fmt.Sprintf("%s_report_%s", run.Scope, run.Stamp)
			link := name + ".html"
			if !run.HasHTML {
				link = name + ".json"
			}
			section.Items = append(section.Items, indexItem{
				Link:  link,
				Label: fmt.Sprintf("%s (%s)", name, run.Timestamp.Format("2006-01-02 15:04:05")),
			})
		}
		data.Sections = append(data.Sections, section)
	}

	path := filepath.Join(dir, "index.html")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create index %q: %w", path, err)
	}
	defer f.Close()

	if err := indexTmpl.Execute(f, data); err != nil {
		return "", fmt.Errorf("render index %q: %w", path, err)
	}
	return path, nil
}
