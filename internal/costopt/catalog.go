package costopt

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog holds the reference cost figures the tools report.
//
// Field order matters: the JSON rendering of each type follows it.
type Catalog struct {
	CostPatterns  CostPatterns       `yaml:"cost_patterns"`
	Underutilized UnderutilizedFleet `yaml:"underutilized"`
	Rightsizing   []Rightsizing      `yaml:"rightsizing"`
	Anomalies     AnomalyFeed        `yaml:"anomalies"`
	Workflows     []Workflow         `yaml:"workflows"`
}

// CostPatterns is the spend summary for the analysis window.
type CostPatterns struct {
	TotalCost     float64       `yaml:"total_cost" json:"total_cost"`
	CostTrend     string        `yaml:"cost_trend" json:"cost_trend"`
	TopServices   []ServiceCost `yaml:"top_services" json:"top_services"`
	Opportunities []Opportunity `yaml:"optimization_opportunities" json:"optimization_opportunities"`
}

type ServiceCost struct {
	Service    string  `yaml:"service" json:"service"`
	Cost       float64 `yaml:"cost" json:"cost"`
	Percentage float64 `yaml:"percentage" json:"percentage"`
}

type Opportunity struct {
	Type             string  `yaml:"type" json:"type"`
	PotentialSavings float64 `yaml:"potential_savings" json:"potential_savings"`
	Confidence       string  `yaml:"confidence" json:"confidence"`
	Description      string  `yaml:"description" json:"description"`
}

// UnderutilizedFleet lists idle or oversized resources per resource type.
type UnderutilizedFleet struct {
	EC2 []EC2Instance `yaml:"ec2_instances"`
	EBS []EBSVolume   `yaml:"ebs_volumes"`
	RDS []RDSInstance `yaml:"rds_instances"`
}

type EC2Instance struct {
	InstanceID        string  `yaml:"instance_id" json:"instance_id"`
	InstanceType      string  `yaml:"instance_type" json:"instance_type"`
	CPUUtilization    float64 `yaml:"cpu_utilization" json:"cpu_utilization"`
	MemoryUtilization float64 `yaml:"memory_utilization" json:"memory_utilization"`
	MonthlyCost       float64 `yaml:"monthly_cost" json:"monthly_cost"`
	RecommendedAction string  `yaml:"recommended_action" json:"recommended_action"`
}

type EBSVolume struct {
	VolumeID          string  `yaml:"volume_id" json:"volume_id"`
	SizeGB            int     `yaml:"size_gb" json:"size_gb"`
	Utilization       float64 `yaml:"utilization" json:"utilization"`
	MonthlyCost       float64 `yaml:"monthly_cost" json:"monthly_cost"`
	Status            string  `yaml:"status" json:"status"`
	RecommendedAction string  `yaml:"recommended_action" json:"recommended_action"`
}

type RDSInstance struct {
	InstanceID        string  `yaml:"instance_id" json:"instance_id"`
	InstanceClass     string  `yaml:"instance_class" json:"instance_class"`
	CPUUtilization    float64 `yaml:"cpu_utilization" json:"cpu_utilization"`
	ConnectionCount   int     `yaml:"connection_count" json:"connection_count"`
	MonthlyCost       float64 `yaml:"monthly_cost" json:"monthly_cost"`
	RecommendedAction string  `yaml:"recommended_action" json:"recommended_action"`
}

type Rightsizing struct {
	InstanceID        string  `yaml:"instance_id" json:"instance_id"`
	CurrentType       string  `yaml:"current_type" json:"current_type"`
	RecommendedType   string  `yaml:"recommended_type" json:"recommended_type"`
	CurrentCost       float64 `yaml:"current_cost" json:"current_cost"`
	ProjectedCost     float64 `yaml:"projected_cost" json:"projected_cost"`
	MonthlySavings    float64 `yaml:"monthly_savings" json:"monthly_savings"`
	SavingsPercentage float64 `yaml:"savings_percentage" json:"savings_percentage"`
	Confidence        string  `yaml:"confidence" json:"confidence"`
	OpenOpsAction     string  `yaml:"openops_action" json:"openops_action"`
}

// AnomalyFeed is the set of spend anomalies found in the detection period.
type AnomalyFeed struct {
	DetectionPeriod string    `yaml:"detection_period"`
	Items           []Anomaly `yaml:"items"`
}

type Anomaly struct {
	Date               string   `yaml:"date" json:"date"`
	Service            string   `yaml:"service" json:"service"`
	ExpectedCost       float64  `yaml:"expected_cost" json:"expected_cost"`
	ActualCost         float64  `yaml:"actual_cost" json:"actual_cost"`
	Variance           float64  `yaml:"variance" json:"variance"`
	VariancePercentage float64  `yaml:"variance_percentage" json:"variance_percentage"`
	Severity           string   `yaml:"severity" json:"severity"`
	PossibleCauses     []string `yaml:"possible_causes" json:"possible_causes"`
}

// Workflow is an OpenOps workflow template for one optimization type.
type Workflow struct {
	Type             string         `yaml:"type" json:"-"`
	Name             string         `yaml:"name" json:"name"`
	Description      string         `yaml:"description" json:"description"`
	Steps            []WorkflowStep `yaml:"steps" json:"steps"`
	EstimatedSavings string         `yaml:"estimated_savings" json:"estimated_savings"`
	RiskAssessment   string         `yaml:"risk_assessment" json:"risk_assessment"`
}

// WorkflowStep is one action of a workflow. Steps that take ARNs receive the
// caller's resource_arns as the "arns" parameter.
type WorkflowStep struct {
	Step        int            `yaml:"-" json:"step"`
	Action      string         `yaml:"action" json:"action"`
	Description string         `yaml:"description" json:"description"`
	Parameters  map[string]any `yaml:"parameters" json:"parameters,omitempty"`
	RiskLevel   string         `yaml:"risk_level" json:"risk_level,omitempty"`
	TakesARNs   bool           `yaml:"takes_arns" json:"-"`
}

// LoadCatalog parses a catalog YAML document.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("costopt: decode catalog: %w", err)
	}

	seen := make(map[string]bool, len(c.Workflows))
	for i := range c.Workflows {
		w := &c.Workflows[i]
		if w.Type == "" {
			return nil, fmt.Errorf("costopt: workflow %d has no type", i)
		}
		if seen[w.Type] {
			return nil, fmt.Errorf("costopt: duplicate workflow %q", w.Type)
		}
		seen[w.Type] = true
		for j := range w.Steps {
			w.Steps[j].Step = j + 1
		}
	}
	return &c, nil
}

var (
	defaultCatalog     *Catalog
	defaultCatalogErr  error
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = LoadCatalog(bytes.NewReader(catalogYAML))
	})
	return defaultCatalog, defaultCatalogErr
}

// Workflow returns the template for optimization type t.
func (c *Catalog) Workflow(t string) (Workflow, bool) {
	for _, w := range c.Workflows {
		if w.Type == t {
			return w, true
		}
	}
	return Workflow{}, false
}

// WorkflowTypes returns the types that have a template, in catalog order.
func (c *Catalog) WorkflowTypes() []string {
	types := make([]string, len(c.Workflows))
	for i, w := range c.Workflows {
		types[i] = w.Type
	}
	return types
}
