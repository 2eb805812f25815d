package costopt

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openops/cost-optimization-server/internal/tools"
)

// severityRank orders anomaly severities. Unknown severities rank lowest.
var severityRank = map[string]int{
	"low":    1,
	"medium": 2,
	"high":   3,
}

// minSeverity is the lowest severity reported at each sensitivity: a
// sensitive detector reports more.
var minSeverity = map[string]int{
	"low":    severityRank["high"],
	"medium": severityRank["medium"],
	"high":   severityRank["low"],
}

type anomalyReport struct {
	DetectionPeriod string    `json:"detection_period"`
	Sensitivity     string    `json:"sensitivity"`
	Anomalies       []Anomaly `json:"anomalies_detected"`
}

func (h *handlers) detectAnomalies(_ context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	sensitivity, err := tools.String(args, "sensitivity", "medium")
	if err != nil {
		return nil, err
	}
	if err := oneOf("sensitivity", sensitivity, sensitivities); err != nil {
		return nil, err
	}

	feed := h.catalog.Anomalies
	report := anomalyReport{
		DetectionPeriod: feed.DetectionPeriod,
		Sensitivity:     sensitivity,
		Anomalies:       []Anomaly{},
	}
	floor := minSeverity[sensitivity]
	for _, a := range feed.Items {
		if severityRank[a.Severity] >= floor {
			report.Anomalies = append(report.Anomalies, a)
		}
	}

	return tools.JSONResult("Cost Anomaly Detection", report)
}
