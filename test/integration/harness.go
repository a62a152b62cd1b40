// Package integration provides a reusable test harness for end-to-end
// testing of the msaada workflow server. It starts a full HTTP server with
// an in-memory store and a test JWT issuer, so requests travel the same
// middleware chain as production traffic.
package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pitabwire/msaada/internal/capability"
	"github.com/pitabwire/msaada/internal/config"
	"github.com/pitabwire/msaada/internal/observability"
	"github.com/pitabwire/msaada/internal/role"
	"github.com/pitabwire/msaada/internal/routes"
	"github.com/pitabwire/msaada/internal/transport"
	"github.com/pitabwire/msaada/internal/workflow"
)

// TestHarness encapsulates a fully wired server instance for integration
// testing.
type TestHarness struct {
	t      *testing.T
	server *httptest.Server
	issuer *tokenIssuer

	// Internal components exposed for advanced test scenarios.
	Store    *workflow.MemoryStore
	Engine   *workflow.Engine
	Visits   *workflow.VisitWorkflow
	Catalog  *role.Catalog
	Resolver *capability.Resolver
	Policy   *routes.Policy

	cfg *config.Config
}

// HarnessOption configures the test harness.
type HarnessOption func(*harnessConfig)

type harnessConfig struct {
	rolesFile      string
	routesFile     string
	cacheTTL       time.Duration
	handlerTimeout time.Duration
	override       routes.TestingOverridePolicy
}

// WithRolesFile loads extra role definitions into the catalog.
func WithRolesFile(path string) HarnessOption {
	return func(c *harnessConfig) { c.rolesFile = path }
}

// WithRoutesFile loads extra route definitions into the table.
func WithRoutesFile(path string) HarnessOption {
	return func(c *harnessConfig) { c.routesFile = path }
}

// WithCacheTTL sets the capability cache TTL. Zero disables caching.
func WithCacheTTL(ttl time.Duration) HarnessOption {
	return func(c *harnessConfig) { c.cacheTTL = ttl }
}

// WithHandlerTimeout sets the per-request handler timeout.
func WithHandlerTimeout(d time.Duration) HarnessOption {
	return func(c *harnessConfig) { c.handlerTimeout = d }
}

// WithOverridePolicy installs a route-policy override, as UI test modes do.
func WithOverridePolicy(p routes.TestingOverridePolicy) HarnessOption {
	return func(c *harnessConfig) { c.override = p }
}

// NewTestHarness creates and starts a full server instance. The server is
// automatically cleaned up when the test completes.
func NewTestHarness(t *testing.T, opts ...HarnessOption) *TestHarness {
	t.Helper()

	hc := &harnessConfig{
		handlerTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(hc)
	}

	h := &TestHarness{t: t}

	h.Catalog = role.NewCatalog()
	if hc.rolesFile != "" {
		if err := h.Catalog.LoadFile(hc.rolesFile); err != nil {
			t.Fatalf("load roles file: %v", err)
		}
	}
	evaluator := capability.NewEvaluator(h.Catalog)
	h.Resolver = capability.NewResolver(evaluator, hc.cacheTTL)

	table := routes.NewTable()
	if hc.routesFile != "" {
		if err := table.LoadFile(hc.routesFile); err != nil {
			t.Fatalf("load routes file: %v", err)
		}
	}
	h.Policy = routes.NewPolicy(table, hc.override, nil)

	h.Store = workflow.NewMemoryStore()
	h.Engine = workflow.NewEngine(workflow.NewGraph(), h.Store, h.Store, nil)
	h.Visits = workflow.NewVisitWorkflow(h.Store, nil)

	h.issuer = newTokenIssuer(t)

	h.cfg = config.Defaults()
	h.cfg.Server.HandlerTimeout = hc.handlerTimeout
	h.cfg.Identity.Issuer = h.issuer.Issuer()
	h.cfg.Identity.Audience = h.issuer.Audience()
	h.cfg.Identity.JWKSURL = h.issuer.JWKSURL()
	h.cfg.Observability.Metrics.Enabled = false

	jwks := transport.NewJWKSClient(h.issuer.JWKSURL(), time.Hour, nil)

	router := transport.NewRouter(transport.Dependencies{
		Config:       h.cfg,
		Authenticate: transport.JWTAuthenticator(h.cfg.Identity, jwks),
		Capabilities: h.Resolver,
		Handler:      transport.NewHandler(h.Engine, h.Visits, h.Catalog, evaluator, h.Policy, nil, nil),
		Policy:       h.Policy,
		Readiness: observability.ReadinessChecks{
			RolesLoaded:   func() bool { return len(h.Catalog.All()) > 0 },
			RoutesLoaded:  func() bool { return len(table.All()) > 0 },
			WorkflowStore: h.Store,
		},
	})

	h.server = httptest.NewServer(router)
	t.Cleanup(h.server.Close)

	return h
}

// BaseURL returns the test server's base URL.
func (h *TestHarness) BaseURL() string {
	return h.server.URL
}

// GenerateToken creates a valid JWT token with the given claims.
func (h *TestHarness) GenerateToken(claims TestClaims) string {
	return h.issuer.GenerateToken(claims)
}

// GenerateExpiredToken creates a JWT that has already expired.
func (h *TestHarness) GenerateExpiredToken(claims TestClaims) string {
	return h.issuer.GenerateExpiredToken(claims)
}

// --- HTTP client helpers ---

// GET performs an authenticated GET request.
func (h *TestHarness) GET(path, token string) *http.Response {
	h.t.Helper()
	return h.doRequest(http.MethodGet, path, nil, token)
}

// POST performs an authenticated POST request with a JSON body.
func (h *TestHarness) POST(path string, body any, token string) *http.Response {
	h.t.Helper()
	return h.doRequest(http.MethodPost, path, body, token)
}

func (h *TestHarness) doRequest(method, path string, body any, token string) *http.Response {
	h.t.Helper()

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal request body: %v", err)
		}
		bodyReader = strings.NewReader(string(data))
	}

	req, err := http.NewRequestWithContext(context.Background(), method, h.server.URL+path, bodyReader)
	if err != nil {
		h.t.Fatalf("create request: %v", err)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{
		Timeout: 10 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

// ParseJSON reads the response body and unmarshals it into the target.
func (h *TestHarness) ParseJSON(resp *http.Response, target any) {
	h.t.Helper()
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("read response body: %v", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		h.t.Fatalf("unmarshal response body: %v\nbody: %s", err, string(data))
	}
}

// AssertStatus checks that the response has the expected status code.
func (h *TestHarness) AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Errorf("status = %d, want %d\nbody: %s", resp.StatusCode, expected, string(body))
	}
}

// AssertJSON checks that the response has the expected status and parses the body.
func (h *TestHarness) AssertJSON(t *testing.T, resp *http.Response, expected int, target any) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("status = %d, want %d\nbody: %s", resp.StatusCode, expected, string(body))
	}
	h.ParseJSON(resp, target)
}

// --- Default test claims ---

// BeneficiaryClaims returns TestClaims for a regular authenticated user.
func BeneficiaryClaims() TestClaims {
	return TestClaims{
		SubjectID: "user-beneficiary",
		Email:     "amina@example.org",
		Role:      "user",
		Region:    "nyanza",
	}
}

// FieldOfficerClaims returns TestClaims for a field officer.
func FieldOfficerClaims() TestClaims {
	return TestClaims{
		SubjectID:   "user-field-officer",
		Email:       "otieno@example.org",
		Role:        "field_officer",
		Region:      "nyanza",
		StaffNumber: "FO-0042",
	}
}

// HeadOfProgramsClaims returns TestClaims for the head of programs.
func HeadOfProgramsClaims() TestClaims {
	return TestClaims{
		SubjectID:   "user-hop",
		Email:       "wanjiru@example.org",
		Role:        "head_of_programs",
		StaffNumber: "HP-0001",
	}
}

// DirectorClaims returns TestClaims for a director.
func DirectorClaims() TestClaims {
	return TestClaims{
		SubjectID:   "user-director",
		Email:       "njeri@example.org",
		Role:        "director",
		StaffNumber: "DR-0001",
	}
}

// CEOClaims returns TestClaims for the CEO.
func CEOClaims() TestClaims {
	return TestClaims{
		SubjectID:   "user-ceo",
		Email:       "kamau@example.org",
		Role:        "ceo",
		StaffNumber: "CE-0001",
	}
}

// PatronClaims returns TestClaims for the patron.
func PatronClaims() TestClaims {
	return TestClaims{
		SubjectID: "user-patron",
		Email:     "patron@example.org",
		Role:      "patron",
	}
}

// AdminClaims returns TestClaims for a system administrator.
func AdminClaims() TestClaims {
	return TestClaims{
		SubjectID:   "user-admin",
		Email:       "admin@example.org",
		Role:        "admin",
		StaffNumber: "AD-0001",
	}
}
