package toolkit

// -- Suite definition

// SuiteSpec is a declarative set of endpoint conformance cases, usually
// loaded from a YAML file. BaseURL optionally pins the suite's target
// ahead of the environment profile; an explicit config base URL override
// still wins.
type SuiteSpec struct {
	Service   string     `json:"service" yaml:"service"`
	BaseURL   string     `json:"base_url" yaml:"base_url"`
	Endpoints []Endpoint `json:"endpoints" yaml:"endpoints"`
}

type Endpoint struct {
	Path   string     `json:"path" yaml:"path"`
	Method string     `json:"method" yaml:"method"`
	Cases  []TestCase `json:"cases" yaml:"cases"`
}

// TestCase is one (id, input, expected-status) tuple. Static literal data,
// never mutated after load.
type TestCase struct {
	ID      string      `json:"id" yaml:"id"`
	Request RequestSpec `json:"request" yaml:"request"`
	Expect  Expectation `json:"expect" yaml:"expect"`
}

type RequestSpec struct {
	PathParams map[string]string `json:"path_params" yaml:"path_params"`
	Query      map[string]string `json:"query" yaml:"query"`
	Headers    map[string]string `json:"headers" yaml:"headers"`
	BodyJSON   map[string]any    `json:"body_json" yaml:"body_json"`
}

// Expectation lists acceptable status codes (empty means any 2xx) and an
// optional JSON shape the response body must contain.
type Expectation struct {
	Status  []int `json:"status" yaml:"status"`
	Content any   `json:"content" yaml:"content"`
}

// -- Run report

type RunReport struct {
	Service     string       `json:"service"`
	Environment string       `json:"environment"`
	StartedAt   string       `json:"started_at"`
	Summary     RunSummary   `json:"summary"`
	Persisted   bool         `json:"persisted"`
	Results     []CaseResult `json:"results"`
}

type RunSummary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

type CaseResult struct {
	Endpoint string `json:"endpoint"`
	Method   string `json:"method"`
	CaseID   string `json:"case_id"`
	Passed   bool   `json:"passed"`
	Failure  string `json:"failure_type,omitempty"`
	Why      string `json:"why_failed,omitempty"`
	Error    string `json:"error,omitempty"`

	ExpectedStatus  []int `json:"expected_status,omitempty"`
	ExpectedContent any   `json:"expected_content,omitempty"`

	Status int    `json:"status"`
	Body   string `json:"body,omitempty"`

	LatencyMS int64 `json:"latency_ms"`
}
