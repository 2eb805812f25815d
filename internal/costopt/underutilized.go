package costopt

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openops/cost-optimization-server/internal/tools"
)

// underutilizedReport has one section per requested resource type. Sections
// that were not requested are omitted.
type underutilizedReport struct {
	EC2 *[]EC2Instance `json:"ec2_instances,omitempty"`
	EBS *[]EBSVolume   `json:"ebs_volumes,omitempty"`
	RDS *[]RDSInstance `json:"rds_instances,omitempty"`
}

func (h *handlers) identifyUnderutilized(_ context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	types, err := tools.StringSlice(args, "resource_types", resourceTypes)
	if err != nil {
		return nil, err
	}
	threshold, err := tools.Number(args, "utilization_threshold", 20)
	if err != nil {
		return nil, err
	}
	if err := checkPercent("utilization_threshold", threshold); err != nil {
		return nil, err
	}

	fleet := h.catalog.Underutilized
	var report underutilizedReport
	for _, t := range types {
		switch t {
		case "ec2":
			ec2 := make([]EC2Instance, 0, len(fleet.EC2))
			for _, i := range fleet.EC2 {
				if i.CPUUtilization < threshold {
					ec2 = append(ec2, i)
				}
			}
			report.EC2 = &ec2
		case "ebs":
			ebs := make([]EBSVolume, 0, len(fleet.EBS))
			for _, v := range fleet.EBS {
				// Unattached volumes cost money at any utilization.
				if v.Utilization < threshold || v.Status == "unattached" {
					ebs = append(ebs, v)
				}
			}
			report.EBS = &ebs
		case "rds":
			rds := make([]RDSInstance, 0, len(fleet.RDS))
			for _, i := range fleet.RDS {
				if i.CPUUtilization < threshold {
					rds = append(rds, i)
				}
			}
			report.RDS = &rds
		default:
			return nil, tools.InvalidArgumentf("unknown resource type %q, expected one of %v", t, resourceTypes)
		}
	}

	return tools.JSONResult("Underutilized Resources (threshold: "+formatPercent(threshold)+"%)", report)
}
