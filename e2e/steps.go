package e2e

import (
	"github.com/cucumber/godog"

	"countrycatalog/e2e/steps/catalog"
	"countrycatalog/e2e/steps/common"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// generic requests and assertions
	common.RegisterSteps(ctx, tc)

	// catalog-specific steps
	catalog.RegisterSteps(ctx, tc)
}
