package costopt

import (
	"context"
	"maps"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openops/cost-optimization-server/internal/tools"
)

// missingWorkflow is returned for an accepted optimization type that has no
// template yet.
type missingWorkflow struct {
	Error          string   `json:"error"`
	AvailableTypes []string `json:"available_types"`
}

func (h *handlers) generateWorkflow(_ context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	optType, err := tools.RequiredString(args, "optimization_type")
	if err != nil {
		return nil, err
	}
	if err := oneOf("optimization_type", optType, optimizationTypes); err != nil {
		return nil, err
	}
	arns, err := tools.StringSlice(args, "resource_arns", []string{})
	if err != nil {
		return nil, err
	}

	title := "Optimization Workflow (" + optType + ")"

	tmpl, ok := h.catalog.Workflow(optType)
	if !ok {
		return tools.JSONResult(title, missingWorkflow{
			Error:          "Unknown optimization type: " + optType,
			AvailableTypes: h.catalog.WorkflowTypes(),
		})
	}
	return tools.JSONResult(title, instantiate(tmpl, arns))
}

// instantiate copies tmpl and binds arns to the steps that take them. The
// catalog template is left untouched.
func instantiate(tmpl Workflow, arns []string) Workflow {
	w := tmpl
	w.Steps = make([]WorkflowStep, len(tmpl.Steps))
	for i, step := range tmpl.Steps {
		if step.Parameters != nil {
			step.Parameters = maps.Clone(step.Parameters)
		}
		if step.TakesARNs {
			if step.Parameters == nil {
				step.Parameters = map[string]any{}
			}
			step.Parameters["arns"] = arns
		}
		w.Steps[i] = step
	}
	return w
}
