package bdd

import (
	"context"
	"fmt"

	"github.com/chirino/media-tracker/internal/testutil/cucumber"
	"github.com/cucumber/godog"
)

func init() {
	cucumber.StepModules = append(cucumber.StepModules, func(ctx *godog.ScenarioContext, s *cucumber.TestScenario) {
		st := &storeSteps{s: s}
		ctx.Step(`^user "([^"]*)" should have (\d+) documents? in "([^"]*)"$`, st.userShouldHaveDocuments)
	})
}

type storeSteps struct {
	s *cucumber.TestScenario
}

func (st *storeSteps) userShouldHaveDocuments(owner string, expected int, collection string) error {
	if st.s.Suite.DB == nil {
		return godog.ErrPending
	}
	n, err := st.s.Suite.DB.CountItems(context.Background(), collection, owner)
	if err != nil {
		return err
	}
	if n != expected {
		return fmt.Errorf("expected %d documents in %s for %s, found %d", expected, collection, owner, n)
	}
	return nil
}
