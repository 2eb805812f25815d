package costopt

import (
	"strings"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	cat, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}

	if cat.CostPatterns.TotalCost != 1250.75 {
		t.Errorf("total cost = %v, want 1250.75", cat.CostPatterns.TotalCost)
	}
	if len(cat.Underutilized.EC2) != 2 || len(cat.Underutilized.EBS) != 1 || len(cat.Underutilized.RDS) != 1 {
		t.Errorf("fleet sizes = %d/%d/%d, want 2/1/1",
			len(cat.Underutilized.EC2), len(cat.Underutilized.EBS), len(cat.Underutilized.RDS))
	}
	if got := cat.WorkflowTypes(); len(got) != 2 || got[0] != "rightsizing" || got[1] != "cleanup" {
		t.Errorf("workflow types = %v, want [rightsizing cleanup]", got)
	}

	w, ok := cat.Workflow("rightsizing")
	if !ok {
		t.Fatal("rightsizing workflow missing")
	}
	for i, step := range w.Steps {
		if step.Step != i+1 {
			t.Errorf("step %d numbered %d", i, step.Step)
		}
	}
	if !w.Steps[0].TakesARNs {
		t.Error("first rightsizing step should take ARNs")
	}
}

func TestLoadCatalogErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"unknown key", "cost_patterns:\n  total: 1\n", "decode catalog"},
		{"untyped workflow", "workflows:\n  - name: x\n", "has no type"},
		{"duplicate workflow", "workflows:\n  - type: a\n  - type: a\n", "duplicate workflow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalog(strings.NewReader(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadCatalog error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
