// Package cucumber is a godog harness that drives the media tracker HTTP API.
//
// Scenarios act as named users. Each user keeps its own last response, and
// response selections can be captured into ${variables} that later steps
// expand in paths, bodies and expectations.
package cucumber

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"
)

// TestDB gives steps direct access to the datastore behind the server under
// test.
type TestDB interface {
	// ClearAll removes every document. It runs before each scenario.
	ClearAll(ctx context.Context) error
	// CountItems returns how many documents a collection holds for owner.
	CountItems(ctx context.Context, collection, owner string) (int, error)
}

// TestSuite is shared by all scenarios of one feature run.
type TestSuite struct {
	APIURL   string
	DB       TestDB
	Client   *http.Client
	TestingT *testing.T
}

func NewTestSuite(apiURL string) *TestSuite {
	return &TestSuite{
		APIURL: strings.TrimRight(apiURL, "/"),
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

// StepModules register extra steps for every scenario. Test packages append
// to it from init.
var StepModules []func(ctx *godog.ScenarioContext, s *TestScenario)

// InitializeScenario is the godog scenario initializer of the suite.
func (suite *TestSuite) InitializeScenario(ctx *godog.ScenarioContext) {
	s := &TestScenario{
		Suite:     suite,
		Variables: map[string]any{},
		responses: map[string]*Response{},
	}
	if suite.DB != nil {
		ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
			return ctx, suite.DB.ClearAll(ctx)
		})
	}
	registerSteps(ctx, s)
	for _, module := range StepModules {
		module(ctx, s)
	}
}

// TestScenario is the state of one running scenario.
type TestScenario struct {
	Suite *TestSuite
	// CurrentUser is the user id requests authenticate as. Empty sends
	// anonymous requests.
	CurrentUser string
	Variables   map[string]any
	responses   map[string]*Response
}

func (s *TestScenario) Logf(format string, args ...any) {
	if s.Suite.TestingT != nil {
		s.Suite.TestingT.Logf(format, args...)
	}
}

// LastResponse returns the last response the current user received, or nil.
func (s *TestScenario) LastResponse() *Response {
	return s.responses[s.CurrentUser]
}

// DefaultOptions runs features one at a time in random order.
func DefaultOptions() godog.Options {
	opts := godog.Options{
		Output:      colors.Colored(os.Stdout),
		Format:      "progress",
		Randomize:   time.Now().UTC().UnixNano(),
		Concurrency: 1,
	}
	if testing.Verbose() {
		opts.Format = "pretty"
	}
	return opts
}

// ApplyReportOptions switches opts to a junit report under GODOG_REPORT_DIR
// when that variable is set. The returned function closes the report.
func ApplyReportOptions(opts *godog.Options, testName string) func() {
	dir := os.Getenv("GODOG_REPORT_DIR")
	if dir == "" {
		return func() {}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return func() {}
	}
	f, err := os.Create(filepath.Join(dir, strings.ReplaceAll(testName, "/", "-")+".xml"))
	if err != nil {
		return func() {}
	}
	opts.Output = f
	opts.Format = "junit"
	return func() { _ = f.Close() }
}

// RunFeature runs the feature file at path as a subtest of t.
func (suite *TestSuite) RunFeature(t *testing.T, path string) {
	name := strings.TrimSuffix(filepath.Base(path), ".feature")
	t.Run(name, func(t *testing.T) {
		opts := DefaultOptions()
		opts.TestingT = t
		opts.Paths = []string{path}
		defer ApplyReportOptions(&opts, t.Name())()

		run := *suite
		run.TestingT = t
		status := godog.TestSuite{
			Name:                name,
			Options:             &opts,
			ScenarioInitializer: run.InitializeScenario,
		}.Run()
		if status != 0 {
			t.Fail()
		}
	})
}
