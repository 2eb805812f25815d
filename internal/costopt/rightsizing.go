package costopt

import (
	"context"
	"math"
	"slices"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openops/cost-optimization-server/internal/tools"
)

type rightsizingReport struct {
	Opportunities       []Rightsizing `json:"rightsizing_opportunities"`
	TotalMonthlySavings float64       `json:"total_monthly_savings"`
}

func (h *handlers) recommendRightsizing(_ context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	ids, err := tools.StringSlice(args, "instance_ids", nil)
	if err != nil {
		return nil, err
	}
	threshold, err := tools.Number(args, "savings_threshold", 10)
	if err != nil {
		return nil, err
	}
	if err := checkPercent("savings_threshold", threshold); err != nil {
		return nil, err
	}

	report := rightsizingReport{Opportunities: []Rightsizing{}}
	var total float64
	for _, r := range h.catalog.Rightsizing {
		if len(ids) > 0 && !slices.Contains(ids, r.InstanceID) {
			continue
		}
		if r.SavingsPercentage < threshold {
			continue
		}
		report.Opportunities = append(report.Opportunities, r)
		total += r.MonthlySavings
	}
	report.TotalMonthlySavings = math.Round(total*100) / 100

	return tools.JSONResult("Rightsizing Recommendations (min savings: "+formatPercent(threshold)+"%)", report)
}
