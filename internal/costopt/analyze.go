package costopt

import (
	"context"
	"regexp"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openops/cost-optimization-server/internal/tools"
)

const timePeriodPattern = `^[1-9][0-9]*d$`

var timePeriodRE = regexp.MustCompile(timePeriodPattern)

type costPatternReport struct {
	TimePeriod string `json:"time_period"`
	ProjectID  string `json:"project_id,omitempty"`
	CostPatterns
	SeededData seededData `json:"seeded_data"`
}

type seededData struct {
	CostExplorer bool `json:"cost_explorer"`
	CostAnalysis bool `json:"cost_analysis"`
}

func (h *handlers) analyzeCostPatterns(_ context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	period, err := tools.String(args, "time_period", "30d")
	if err != nil {
		return nil, err
	}
	if !timePeriodRE.MatchString(period) {
		return nil, tools.InvalidArgumentf("time_period must look like '30d', got %q", period)
	}
	filter, err := tools.StringSlice(args, "service_filter", nil)
	if err != nil {
		return nil, err
	}

	patterns := h.catalog.CostPatterns
	patterns.TopServices = filterServices(patterns.TopServices, filter)

	report := costPatternReport{
		TimePeriod:   period,
		ProjectID:    h.settings.ProjectID,
		CostPatterns: patterns,
		SeededData: seededData{
			CostExplorer: len(h.settings.CostExplorerData) > 0,
			CostAnalysis: len(h.settings.CostAnalysisData) > 0,
		},
	}
	return tools.JSONResult("Cost Pattern Analysis", report)
}

// filterServices keeps the services named in filter, compared without
// regard to case. An empty filter keeps everything.
func filterServices(services []ServiceCost, filter []string) []ServiceCost {
	if len(filter) == 0 {
		return services
	}
	out := make([]ServiceCost, 0, len(services))
	for _, s := range services {
		for _, f := range filter {
			if strings.EqualFold(s.Service, strings.TrimSpace(f)) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}
