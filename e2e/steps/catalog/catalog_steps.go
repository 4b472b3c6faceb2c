package catalog

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(ctx context.Context, path string) error
	POST(ctx context.Context, path string) error
	StatusCode() int
	Body() []byte
	GetResponseField(field string) (any, error)
	GetResponseList() ([]map[string]any, error)
}

// RegisterSteps registers catalog-specific step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &catalogSteps{tc: tc}

	ctx.Step(`^the catalog has been refreshed$`, steps.catalogRefreshed)
	ctx.Step(`^the list should be ordered by estimated GDP descending$`, steps.orderedByGDPDesc)
	ctx.Step(`^every listed country should have region "([^"]*)"$`, steps.everyRegion)
	ctx.Step(`^the response should be an 800x600 PNG$`, steps.isSummaryPNG)
	ctx.Step(`^I remember the first listed country$`, steps.rememberFirst)
	ctx.Step(`^I GET the remembered country$`, steps.getRemembered)
}

type catalogSteps struct {
	tc         TestContext
	remembered string
}

func (s *catalogSteps) catalogRefreshed(ctx context.Context) error {
	if err := s.tc.POST(ctx, "/countries/refresh"); err != nil {
		return err
	}
	if s.tc.StatusCode() != 200 {
		return fmt.Errorf("refresh failed with status %d: %s", s.tc.StatusCode(), s.tc.Body())
	}
	return nil
}

func (s *catalogSteps) orderedByGDPDesc() error {
	list, err := s.tc.GetResponseList()
	if err != nil {
		return err
	}
	seenNull := false
	prev := 0.0
	for i, c := range list {
		gdp, ok := c["estimated_gdp"].(float64)
		if !ok {
			seenNull = true
			continue
		}
		if seenNull {
			return fmt.Errorf("country %d has a GDP after a null one", i)
		}
		if i > 0 && gdp > prev {
			return fmt.Errorf("country %d out of order: %f > %f", i, gdp, prev)
		}
		prev = gdp
	}
	return nil
}

func (s *catalogSteps) everyRegion(region string) error {
	list, err := s.tc.GetResponseList()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return fmt.Errorf("expected countries in region %q, got none", region)
	}
	for _, c := range list {
		got, _ := c["region"].(string)
		if !strings.EqualFold(got, region) {
			return fmt.Errorf("country %v has region %q", c["name"], got)
		}
	}
	return nil
}

func (s *catalogSteps) isSummaryPNG() error {
	cfg, err := png.DecodeConfig(bytes.NewReader(s.tc.Body()))
	if err != nil {
		return fmt.Errorf("decode png: %w", err)
	}
	if cfg.Width != 800 || cfg.Height != 600 {
		return fmt.Errorf("expected 800x600, got %dx%d", cfg.Width, cfg.Height)
	}
	return nil
}

func (s *catalogSteps) rememberFirst() error {
	list, err := s.tc.GetResponseList()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return fmt.Errorf("list is empty")
	}
	name, _ := list[0]["name"].(string)
	s.remembered = name
	return nil
}

func (s *catalogSteps) getRemembered(ctx context.Context) error {
	return s.tc.GET(ctx, "/countries/"+strings.ReplaceAll(s.remembered, " ", "%20"))
}
