package toolkit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// LoadSuite reads a suite definition from a YAML or JSON file. JSON bodies
// may arrive wrapped in a {"response": ...} envelope when exported from the
// platform console; both forms are accepted.
func LoadSuite(path string) (SuiteSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SuiteSpec{}, fmt.Errorf("read suite file: %w", err)
	}

	var spec SuiteSpec
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		spec, err = decodeJSONSuite(raw)
	default:
		err = yaml.Unmarshal(raw, &spec)
	}
	if err != nil {
		return SuiteSpec{}, fmt.Errorf("parse suite file %q: %w", path, err)
	}

	if len(spec.Endpoints) == 0 {
		return SuiteSpec{}, fmt.Errorf("suite file %q contains no endpoints", path)
	}

	normalizeSuite(&spec)
	return spec, nil
}

func decodeJSONSuite(raw []byte) (SuiteSpec, error) {
	var direct SuiteSpec
	if err := json.Unmarshal(raw, &direct); err == nil && len(direct.Endpoints) > 0 {
		return direct, nil
	}

	var wrapper struct {
		Response json.RawMessage `json:"response"`
	}
	if err := json.Unmarshal(raw, &wrapper); err == nil && len(wrapper.Response) > 0 {
		var nested SuiteSpec
		if err := json.Unmarshal(wrapper.Response, &nested); err == nil {
			return nested, nil
		}
	}

	return SuiteSpec{}, fmt.Errorf("could not find a suite payload (expected top-level or response wrapper)")
}

// normalizeSuite canonicalizes expected content to JSON-decoded form so the
// shape matcher sees float64 numbers and map[string]any objects regardless of
// whether the suite came from YAML or JSON.
func normalizeSuite(spec *SuiteSpec) {
	for i := range spec.Endpoints {
		ep := &spec.Endpoints[i]
		ep.Method = strings.ToUpper(strings.TrimSpace(ep.Method))
		for j := range ep.Cases {
			tc := &ep.Cases[j]
			if tc.Expect.Content != nil {
				tc.Expect.Content = canonicalize(tc.Expect.Content)
			}
			if tc.Request.BodyJSON != nil {
				if m, ok := canonicalize(tc.Request.BodyJSON).(map[string]any); ok {
					tc.Request.BodyJSON = m
				}
			}
		}
	}
}

func canonicalize(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}
