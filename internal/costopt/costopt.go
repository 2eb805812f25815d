// Package costopt implements the cost-optimization tools: spend pattern
// analysis, idle resource discovery, rightsizing, anomaly detection and
// OpenOps workflow generation.
//
// Figures come from an embedded reference catalog. Each handler filters and
// shapes catalog data according to its arguments and renders it as a titled
// JSON document.
package costopt

import (
	"slices"
	"strconv"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/openops/cost-optimization-server/internal/registry"
	"github.com/openops/cost-optimization-server/internal/schema"
	"github.com/openops/cost-optimization-server/internal/tools"
)

// Tool names.
const (
	AnalyzeCostPatterns            = "analyze_cost_patterns"
	IdentifyUnderutilizedResources = "identify_underutilized_resources"
	RecommendRightsizing           = "recommend_rightsizing"
	DetectCostAnomalies            = "detect_cost_anomalies"
	GenerateOptimizationWorkflow   = "generate_optimization_workflow"
)

// Settings carries the deployment inputs the tools report on.
type Settings struct {
	ProjectID        string
	CostExplorerData map[string]any
	CostAnalysisData map[string]any
}

var (
	resourceTypes     = []string{"ec2", "ebs", "rds"}
	sensitivities     = []string{"low", "medium", "high"}
	optimizationTypes = []string{"rightsizing", "cleanup", "scheduling", "reserved_instances"}
)

// Tools returns the five cost tools bound to settings and the embedded
// catalog, in their advertised order.
func Tools(settings Settings) ([]tools.Tool, error) {
	cat, err := DefaultCatalog()
	if err != nil {
		return nil, err
	}
	return ToolsWithCatalog(settings, cat), nil
}

// ToolsWithCatalog is like [Tools] but reads figures from cat.
func ToolsWithCatalog(settings Settings, cat *Catalog) []tools.Tool {
	h := &handlers{settings: settings, catalog: cat}

	return []tools.Tool{
		{
			Descriptor: registry.Descriptor{
				Name:        AnalyzeCostPatterns,
				Description: "Analyze cost patterns and identify optimization opportunities",
				InputSchema: schema.Object(map[string]*jsonschema.Schema{
					"time_period": schema.WithDefault(
						schema.WithPattern(schema.String("Time period for analysis (e.g., '30d', '90d')"), timePeriodPattern),
						"30d"),
					"service_filter": schema.StringArray("Filter by specific AWS services"),
				}),
			},
			Handler: h.analyzeCostPatterns,
		},
		{
			Descriptor: registry.Descriptor{
				Name:        IdentifyUnderutilizedResources,
				Description: "Identify underutilized EC2, EBS, and RDS resources",
				InputSchema: schema.Object(map[string]*jsonschema.Schema{
					"resource_types": schema.WithDefault(
						schema.EnumArray("Resource types to analyze (ec2, ebs, rds)", resourceTypes...),
						resourceTypes),
					"utilization_threshold": schema.WithDefault(
						schema.WithRange(schema.Number("Utilization threshold percentage"), 0, 100),
						20),
				}),
			},
			Handler: h.identifyUnderutilized,
		},
		{
			Descriptor: registry.Descriptor{
				Name:        RecommendRightsizing,
				Description: "Recommend instance rightsizing opportunities",
				InputSchema: schema.Object(map[string]*jsonschema.Schema{
					"instance_ids": schema.StringArray("Specific instance IDs to analyze"),
					"savings_threshold": schema.WithDefault(
						schema.WithRange(schema.Number("Minimum savings percentage to recommend"), 0, 100),
						10),
				}),
			},
			Handler: h.recommendRightsizing,
		},
		{
			Descriptor: registry.Descriptor{
				Name:        DetectCostAnomalies,
				Description: "Detect cost anomalies and unusual spending patterns",
				InputSchema: schema.Object(map[string]*jsonschema.Schema{
					"sensitivity": schema.WithDefault(
						schema.Enum("Anomaly detection sensitivity", sensitivities...),
						"medium"),
				}),
			},
			Handler: h.detectAnomalies,
		},
		{
			Descriptor: registry.Descriptor{
				Name:        GenerateOptimizationWorkflow,
				Description: "Generate OpenOps workflow for implementing cost optimizations",
				InputSchema: schema.Object(map[string]*jsonschema.Schema{
					"optimization_type": schema.Enum("Type of optimization workflow to generate", optimizationTypes...),
					"resource_arns":     schema.StringArray("ARNs of resources to optimize"),
				}, "optimization_type"),
			},
			Handler: h.generateWorkflow,
		},
	}
}

type handlers struct {
	settings Settings
	catalog  *Catalog
}

// formatPercent renders a threshold the way it appears in result titles:
// 20 rather than 20.000000.
func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func checkPercent(name string, v float64) error {
	if v < 0 || v > 100 {
		return tools.InvalidArgumentf("%s must be between 0 and 100, got %s", name, formatPercent(v))
	}
	return nil
}

func oneOf(name, v string, allowed []string) error {
	if slices.Contains(allowed, v) {
		return nil
	}
	return tools.InvalidArgumentf("%s must be one of %v, got %q", name, allowed, v)
}
