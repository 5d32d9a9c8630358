package reporter

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"infercheck/shape"
	"infercheck/toolkit"
)

// Runner executes a suite sequentially against one resolved environment.
type Runner struct {
	client *toolkit.Client
	logger *zap.Logger
}

func NewRunner(client *toolkit.Client, logger *zap.Logger) *Runner {
	return &Runner{client: client, logger: logger}
}

// Run walks every endpoint and case in order. HTTP error statuses are
// ordinary expected outcomes; only the report records pass/fail.
func (r *Runner) Run(ctx context.Context, spec toolkit.SuiteSpec, environment string) toolkit.RunReport {
	report := toolkit.RunReport{
		Service:     spec.Service,
		Environment: environment,
		StartedAt:   time.Now().UTC().Format(time.RFC3339),
	}

	client := r.client.ForSuite(spec.BaseURL)

	r.logger.Info("run start",
		zap.String("service", spec.Service),
		zap.String("environment", environment),
		zap.String("base_url", client.BaseURL()),
		zap.Int("endpoints", len(spec.Endpoints)))

	for _, ep := range spec.Endpoints {
		r.logger.Info("endpoint start",
			zap.String("path", ep.Path),
			zap.String("method", ep.Method),
			zap.Int("cases", len(ep.Cases)))
		for _, tc := range ep.Cases {
			report.Summary.Total++
			res := r.runCase(ctx, client, ep, tc)
			report.Results = append(report.Results, res)
			if res.Passed {
				report.Summary.Passed++
			} else {
				report.Summary.Failed++
			}
			r.logger.Info("case done",
				zap.String("path", ep.Path),
				zap.String("case_id", tc.ID),
				zap.Bool("passed", res.Passed),
				zap.Int("status", res.Status),
				zap.String("failure", res.Failure))
		}
	}

	r.logger.Info("run complete",
		zap.Int("total", report.Summary.Total),
		zap.Int("passed", report.Summary.Passed),
		zap.Int("failed", report.Summary.Failed))
	return report
}

func (r *Runner) runCase(ctx context.Context, client *toolkit.Client, ep toolkit.Endpoint, tc toolkit.TestCase) toolkit.CaseResult {
	cr := toolkit.CaseResult{
		Endpoint:        ep.Path,
		Method:          ep.Method,
		CaseID:          tc.ID,
		ExpectedStatus:  append([]int(nil), tc.Expect.Status...),
		ExpectedContent: tc.Expect.Content,
	}

	path := toolkit.BuildPath(ep.Path, tc.Request.PathParams, tc.Request.Query)

	// rate-limit cases hammer the endpoint until the final attempt carries
	// the asserted status
	attempts := 1
	if n, ok := parseRateLimitCaseID(tc.ID); ok {
		attempts = n + 1
	}

	for i := 0; i < attempts; i++ {
		status, raw, latency, err := r.execute(ctx, client, ep, tc, path)
		cr.LatencyMS += latency
		if err != nil {
			r.logger.Warn("case transport failure",
				zap.String("case_id", tc.ID), zap.Error(err))
			cr.Passed = false
			cr.Failure = "transport_error"
			cr.Why = "Request did not complete successfully."
			cr.Error = err.Error()
			return cr
		}
		cr.Status = status
		cr.Body = string(raw)
	}

	if !shape.StatusAllowed(cr.Status, tc.Expect.Status) {
		cr.Passed = false
		cr.Failure = "status_mismatch"
		cr.Why = statusMismatchReason(tc.Expect.Status, cr.Status, cr.Body)
		cr.Error = fmt.Sprintf("status mismatch (got=%d expected=%v)", cr.Status, tc.Expect.Status)
		return cr
	}

	if tc.Expect.Content != nil {
		var actual any
		if err := json.Unmarshal([]byte(cr.Body), &actual); err != nil {
			cr.Passed = false
			cr.Failure = "response_parse_error"
			cr.Why = "Expected structured content, but response body is not valid JSON."
			cr.Error = "response content is not valid JSON"
			return cr
		}
		if !shape.Matches(actual, tc.Expect.Content, isSuccessCase(tc.ID)) {
			cr.Passed = false
			cr.Failure = "content_mismatch"
			cr.Why = contentMismatchReason(actual, tc.Expect.Content)
			cr.Error = "response content mismatch"
			return cr
		}
	}

	cr.Passed = true
	return cr
}

func (r *Runner) execute(ctx context.Context, client *toolkit.Client, ep toolkit.Endpoint, tc toolkit.TestCase, path string) (int, []byte, int64, error) {
	headers := make(map[string]string, len(tc.Request.Headers)+2)
	for k, v := range tc.Request.Headers {
		headers[k] = v
	}
	if _, ok := headers["Authorization"]; !ok && !shouldInjectAuth(tc.ID) {
		headers["Authorization"] = ""
	}
	if !shouldInjectContentType(tc.ID) {
		headers["Content-Type"] = ""
	}
	headers["X-Conformance-Case"] = tc.ID

	var body any
	if ep.Method != http.MethodGet && ep.Method != http.MethodDelete && len(tc.Request.BodyJSON) > 0 {
		body = tc.Request.BodyJSON
	}

	start := time.Now()
	status, raw, err := client.Do(ctx, ep.Method, path, body, headers)
	return status, raw, time.Since(start).Milliseconds(), err
}

// shouldInjectAuth reports whether the resolved Authorization header applies
// to this case. Cases probing missing or wrong credentials opt out via
// their ID.
func shouldInjectAuth(caseID string) bool {
	id := strings.ToLower(strings.TrimSpace(caseID))
	if strings.Contains(id, "missing-auth") || strings.Contains(id, "missing_auth") {
		return false
	}
	if strings.Contains(id, "missing-required-header-authorization") {
		return false
	}
	if strings.Contains(id, "wrong-header-value-authorization") {
		return false
	}
	return true
}

func shouldInjectContentType(caseID string) bool {
	id := strings.ToLower(strings.TrimSpace(caseID))
	return !strings.Contains(id, "missing-required-header-content-type")
}

func isSuccessCase(caseID string) bool {
	id := strings.ToLower(strings.TrimSpace(caseID))
	return strings.Contains(id, "success-valid-request")
}

func parseRateLimitCaseID(caseID string) (int, bool) {
	id := strings.ToLower(strings.TrimSpace(caseID))
	const prefix = "rate-limit-exceeded-"
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, prefix))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func statusMismatchReason(expected []int, got int, body string) string {
	base := fmt.Sprintf("Expected status in %v but received %d.", expected, got)
	if hint := shape.HintFromBody([]byte(body)); hint != "" {
		return base + " Response hint: " + hint
	}
	return base
}

func contentMismatchReason(actual, expected any) string {
	if path, exp, act, ok := shape.FirstDiff(actual, expected); ok {
		return fmt.Sprintf("Response content mismatch at %s (expected=%s got=%s).", path, exp, act)
	}
	return "Response content did not match expected structure."
}
