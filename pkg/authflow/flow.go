package authflow

import (
	"context"
	"sort"

	"github.com/clavionx/ecs-auth/pkg/device"
	"github.com/clavionx/ecs-auth/pkg/login"
	"github.com/clavionx/ecs-auth/pkg/twofa"
)

// FlowStep is a single step in the login pipeline
type FlowStep interface {
	// Name returns the unique name of this step
	Name() string

	// Order returns the execution order (lower numbers execute first)
	Order() int

	// Execute performs the step's logic
	Execute(ctx context.Context, flowContext *FlowContext) (StepResult, error)

	// ShouldSkip determines if this step should be skipped based on current context
	ShouldSkip(ctx context.Context, flowContext *FlowContext) bool
}

// FlowContext carries state between login flow steps
type FlowContext struct {
	Request Request

	// Current state
	User             login.User
	DeviceRecognized bool
	Result           *Result

	// Services (injected by the flow executor)
	Services *ServiceDependencies
}

// StepResult represents the result of executing a step
type StepResult struct {
	// Continue indicates whether the flow should continue to the next step
	Continue bool

	// EarlyReturn indicates the flow should return immediately with the current result
	EarlyReturn bool
}

// ServiceDependencies contains the services needed by flow steps
type ServiceDependencies struct {
	Login   *login.LoginService
	TwoFa   *twofa.TwoFaService
	Devices *device.DeviceService
}

// StepRegistry manages and orders flow steps
type StepRegistry struct {
	steps []FlowStep
}

// NewStepRegistry creates a new step registry
func NewStepRegistry() *StepRegistry {
	return &StepRegistry{
		steps: make([]FlowStep, 0),
	}
}

// AddStep adds a step to the registry
func (r *StepRegistry) AddStep(step FlowStep) *StepRegistry {
	r.steps = append(r.steps, step)
	return r
}

// GetOrderedSteps returns steps sorted by their order
func (r *StepRegistry) GetOrderedSteps() []FlowStep {
	orderedSteps := make([]FlowStep, len(r.steps))
	copy(orderedSteps, r.steps)

	sort.Slice(orderedSteps, func(i, j int) bool {
		return orderedSteps[i].Order() < orderedSteps[j].Order()
	})

	return orderedSteps
}

// FlowExecutor orchestrates the execution of login flow steps
type FlowExecutor struct {
	registry *StepRegistry
	services *ServiceDependencies
}

// NewFlowExecutor creates a new flow executor
func NewFlowExecutor(registry *StepRegistry, services *ServiceDependencies) *FlowExecutor {
	return &FlowExecutor{
		registry: registry,
		services: services,
	}
}

// Execute runs the flow. Step failures surface as sentinel errors; the
// partial Result is discarded on error.
func (e *FlowExecutor) Execute(ctx context.Context, request Request) (Result, error) {
	flowContext := &FlowContext{
		Request:  request,
		Result:   &Result{},
		Services: e.services,
	}

	for _, step := range e.registry.GetOrderedSteps() {
		if step.ShouldSkip(ctx, flowContext) {
			continue
		}

		stepResult, err := step.Execute(ctx, flowContext)
		if err != nil {
			return Result{}, err
		}

		if stepResult.EarlyReturn {
			return *flowContext.Result, nil
		}
		if !stepResult.Continue {
			break
		}
	}

	return *flowContext.Result, nil
}

// Step orders. Gaps leave room for custom steps in between.
const (
	OrderCredentialCheck   = 100
	OrderDeviceRecognition = 200
	OrderTwoFactorGate     = 300
	OrderPrincipal         = 400
)
