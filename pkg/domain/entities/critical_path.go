package entities

import (
	"fmt"
	"strings"
	"time"
)

// DependencyNode is one item in the dependency graph
type DependencyNode struct {
	ProjectID    ProjectID `json:"project_id"`
	ItemCode     ItemCode  `json:"item_code"`
	LeadTimeDays int       `json:"lead_time_days"` // shortest lead time among the item's options
	Betweenness  float64   `json:"betweenness"`
	Degree       int       `json:"degree"`
}

// CriticalPath is the longest lead-time chain through the dependency graph
type CriticalPath struct {
	TotalLeadTime  int              `json:"total_lead_time"`
	PathLength     int              `json:"path_length"`
	Path           []DependencyNode `json:"path"`
	BottleneckItem ItemRef          `json:"bottleneck_item"`
}

// DependencyAnalysis contains the results of dependency graph analysis.
// It is informational and never feeds back into optimization.
type DependencyAnalysis struct {
	AnalysisDate   time.Time        `json:"analysis_date"`
	NodeCount      int              `json:"node_count"`
	EdgeCount      int              `json:"edge_count"`
	ComponentCount int              `json:"component_count"`
	CriticalPath   CriticalPath     `json:"critical_path"`
	MostCentral    []DependencyNode `json:"most_central"`
}

// GetCriticalPathSummary returns a formatted summary of the critical path
func (analysis *DependencyAnalysis) GetCriticalPathSummary() string {
	if analysis.CriticalPath.PathLength == 0 {
		return "No critical path found"
	}

	cp := analysis.CriticalPath
	summary := fmt.Sprintf("Critical Path: %d days over %d items", cp.TotalLeadTime, cp.PathLength)
	if cp.BottleneckItem.ItemCode != "" {
		summary += fmt.Sprintf(" | Bottleneck: %s", cp.BottleneckItem)
	}
	return summary
}

// GetPathSummary renders the path as "code -> code -> ..."
func (path *CriticalPath) GetPathSummary() string {
	codes := make([]string, 0, len(path.Path))
	for _, node := range path.Path {
		codes = append(codes, string(node.ItemCode))
	}
	return strings.Join(codes, " -> ")
}
