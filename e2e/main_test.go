package e2e

import (
	"context"
	"os"
	"testing"

	"github.com/cucumber/godog"
)

// TestFeatures runs the Gherkin scenarios against CATALOG_E2E_URL, e.g.
//
//	CATALOG_E2E_URL=http://localhost:8080 go test ./...
func TestFeatures(t *testing.T) {
	baseURL := os.Getenv("CATALOG_E2E_URL")
	if baseURL == "" {
		t.Skip("CATALOG_E2E_URL not set")
	}

	tc := NewTestContext(baseURL)
	suite := godog.TestSuite{
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
				tc.Reset()
				return ctx, nil
			})
			RegisterSteps(ctx, tc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("e2e scenarios failed")
	}
}
