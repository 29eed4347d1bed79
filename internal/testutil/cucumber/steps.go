package cucumber

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cucumber/godog"
	"github.com/goccy/go-json"
)

// Response is a received HTTP response with its body fully read.
type Response struct {
	Status int
	Header http.Header
	Body   []byte

	decoded any
	parsed  bool
}

// JSON decodes the body once and returns the result.
func (r *Response) JSON() (any, error) {
	if !r.parsed {
		if err := json.Unmarshal(r.Body, &r.decoded); err != nil {
			return nil, fmt.Errorf("response body is not json: %w\n%s", err, r.Body)
		}
		r.parsed = true
	}
	return r.decoded, nil
}

func registerSteps(ctx *godog.ScenarioContext, s *TestScenario) {
	ctx.Step(`^I (?:am authenticated|authenticate) as user "([^"]*)"$`, s.authenticateAs)

	ctx.Step(`^I (GET|POST|PUT|DELETE) path "([^"]*)"$`, s.call)
	ctx.Step(`^I (GET|POST|PUT|DELETE) path "([^"]*)" with json body:$`, s.callWithBody)
	ctx.Step(`^I call (GET|POST|PUT|DELETE) "([^"]*)" without authentication$`, s.callAnonymously)

	ctx.Step(`^the response code should be (\d+)$`, s.responseCodeShouldBe)
	ctx.Step(`^the response should match json:$`, s.responseShouldMatchJSON)
	ctx.Step(`^the response should contain json:$`, s.responseShouldContainJSON)
	ctx.Step(`^I store the "([^"]*)" selection from the response as \${([^}]*)}$`, s.storeSelection)
	ctx.Step(`^the "(.*)" selection from the response should match "([^"]*)"$`, s.selectionShouldBe)
	ctx.Step(`^the "(.*)" selection from the response should match json:$`, s.selectionShouldMatchJSON)
}

// authenticateAs makes later requests carry userID as their bearer token,
// which the server accepts as the caller's id in testing mode.
func (s *TestScenario) authenticateAs(userID string) error {
	s.CurrentUser = userID
	return nil
}

func (s *TestScenario) call(method, path string) error {
	return s.Send(method, path, "", s.CurrentUser)
}

func (s *TestScenario) callWithBody(method, path string, body *godog.DocString) error {
	return s.Send(method, path, body.Content, s.CurrentUser)
}

func (s *TestScenario) callAnonymously(method, path string) error {
	return s.Send(method, path, "", "")
}

// Send expands path and body, issues the request as user and records the
// response as the current user's last response. An empty user sends no
// Authorization header.
func (s *TestScenario) Send(method, path, body, user string) error {
	path, err := s.Expand(path)
	if err != nil {
		return err
	}
	body, err = s.Expand(body)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, s.Suite.APIURL+path, reader)
	if err != nil {
		return err
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+user)
	}

	resp, err := s.Suite.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	s.responses[s.CurrentUser] = &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}
	s.Logf("%s %s -> %d", method, path, resp.StatusCode)
	return nil
}

func (s *TestScenario) lastJSON() (any, error) {
	resp := s.LastResponse()
	if resp == nil {
		return nil, fmt.Errorf("no request sent yet")
	}
	return resp.JSON()
}

func (s *TestScenario) responseCodeShouldBe(expected int) error {
	resp := s.LastResponse()
	if resp == nil {
		return fmt.Errorf("no request sent yet")
	}
	if resp.Status != expected {
		return fmt.Errorf("expected status %d, got %d; body:\n%s", expected, resp.Status, resp.Body)
	}
	return nil
}

func (s *TestScenario) expected(doc *godog.DocString) (any, error) {
	text, err := s.Expand(doc.Content)
	if err != nil {
		return nil, err
	}
	return parseExpected(text)
}

func (s *TestScenario) responseShouldMatchJSON(doc *godog.DocString) error {
	actual, err := s.lastJSON()
	if err != nil {
		return err
	}
	expected, err := s.expected(doc)
	if err != nil {
		return err
	}
	return equalJSON(actual, expected)
}

func (s *TestScenario) responseShouldContainJSON(doc *godog.DocString) error {
	actual, err := s.lastJSON()
	if err != nil {
		return err
	}
	expected, err := s.expected(doc)
	if err != nil {
		return err
	}
	return containsJSON(actual, expected)
}

func (s *TestScenario) selection(selector string) (any, error) {
	doc, err := s.lastJSON()
	if err != nil {
		return nil, err
	}
	return selectFirst(doc, selector)
}

func (s *TestScenario) storeSelection(selector, name string) error {
	v, err := s.selection(selector)
	if err != nil {
		return err
	}
	s.Variables[name] = v
	return nil
}

func (s *TestScenario) selectionShouldBe(selector, expected string) error {
	v, err := s.selection(selector)
	if err != nil {
		return err
	}
	expected, err = s.Expand(expected)
	if err != nil {
		return err
	}
	if actual := stringify(v); actual != expected {
		return fmt.Errorf("%s: expected %q, got %q", selector, expected, actual)
	}
	return nil
}

func (s *TestScenario) selectionShouldMatchJSON(selector string, doc *godog.DocString) error {
	v, err := s.selection(selector)
	if err != nil {
		return err
	}
	expected, err := s.expected(doc)
	if err != nil {
		return err
	}
	return equalJSON(v, expected)
}
