package common

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(ctx context.Context, path string) error
	POST(ctx context.Context, path string) error
	DELETE(ctx context.Context, path string) error
	StatusCode() int
	Header(key string) string
	GetResponseField(field string) (any, error)
}

// RegisterSteps registers request and response assertion steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^I POST to "([^"]*)"$`, steps.post)
	ctx.Step(`^I DELETE "([^"]*)"$`, steps.delete)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, steps.shouldContainField)
	ctx.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, steps.headerShouldBe)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) get(ctx context.Context, path string) error {
	return s.tc.GET(ctx, path)
}

func (s *commonSteps) post(ctx context.Context, path string) error {
	return s.tc.POST(ctx, path)
}

func (s *commonSteps) delete(ctx context.Context, path string) error {
	return s.tc.DELETE(ctx, path)
}

func (s *commonSteps) statusShouldBe(want int) error {
	if got := s.tc.StatusCode(); got != want {
		return fmt.Errorf("expected status %d, got %d", want, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldBe(field, want string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != want {
		return fmt.Errorf("expected %s=%q, got %q", field, want, got)
	}
	return nil
}

func (s *commonSteps) shouldContainField(field string) error {
	_, err := s.tc.GetResponseField(field)
	return err
}

func (s *commonSteps) headerShouldBe(key, want string) error {
	if got := s.tc.Header(key); got != want {
		return fmt.Errorf("expected header %s=%q, got %q", key, want, got)
	}
	return nil
}
