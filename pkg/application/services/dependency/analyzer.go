package dependency

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vsinha/procure/pkg/domain/entities"
	"github.com/vsinha/procure/pkg/domain/services"
	"github.com/vsinha/procure/pkg/infrastructure/logging"
)

// DefaultTopCentral is how many nodes are reported as most central
const DefaultTopCentral = 5

// Analyzer builds the item dependency graph and computes its critical path.
//
// Items of one project are chained in item code order. No real dependency data exists, so the
// chain is a stand-in and the analysis is diagnostic only.
type Analyzer struct {
	comparator *services.ItemCodeComparator
	topCentral int
}

// NewAnalyzer creates an analyzer reporting the given number of central nodes
func NewAnalyzer(topCentral int) *Analyzer {
	if topCentral <= 0 {
		topCentral = DefaultTopCentral
	}
	return &Analyzer{
		comparator: services.NewItemCodeComparator(),
		topCentral: topCentral,
	}
}

// Analyze computes graph statistics for the items. Node weights are the shortest lead time
// among each item's options. Panics inside graph algorithms are returned as errors.
func (a *Analyzer) Analyze(
	ctx context.Context,
	items []*entities.ProjectItem,
	options map[entities.ItemCode][]*entities.ProcurementOption,
) (analysis *entities.DependencyAnalysis, err error) {
	defer func() {
		if r := recover(); r != nil {
			analysis, err = nil, fmt.Errorf("dependency analysis failed: %v", r)
		}
	}()

	sorted := make([]*entities.ProjectItem, len(items))
	copy(sorted, items)
	a.comparator.SortItems(sorted)

	g := simple.NewDirectedGraph()
	nodes := make([]entities.DependencyNode, len(sorted))
	for i, item := range sorted {
		g.AddNode(simple.Node(i))
		nodes[i] = entities.DependencyNode{
			ProjectID:    item.ProjectID,
			ItemCode:     item.ItemCode,
			LeadTimeDays: shortestLeadTime(options[item.ItemCode]),
		}
		if i > 0 && sorted[i-1].ProjectID == item.ProjectID {
			g.SetEdge(g.NewEdge(simple.Node(i-1), simple.Node(i)))
		}
	}

	analysis = &entities.DependencyAnalysis{
		AnalysisDate: time.Now(),
		NodeCount:    g.Nodes().Len(),
		EdgeCount:    g.Edges().Len(),
	}
	if len(sorted) == 0 {
		return analysis, nil
	}

	analysis.ComponentCount = len(topo.ConnectedComponents(graph.Undirect{G: g}))

	betweenness := network.Betweenness(g)
	for i := range nodes {
		id := int64(i)
		nodes[i].Betweenness = betweenness[id]
		nodes[i].Degree = g.From(id).Len() + g.To(id).Len()
	}

	path, err := longestPath(g, nodes)
	if err != nil {
		return nil, err
	}
	analysis.CriticalPath = path
	analysis.MostCentral = mostCentral(nodes, a.topCentral)

	logging.FromContext(ctx).Debug("Dependency analysis completed",
		zap.Int("nodes", analysis.NodeCount),
		zap.Int("edges", analysis.EdgeCount),
		zap.Int("components", analysis.ComponentCount),
		zap.Int("critical_path_days", path.TotalLeadTime),
	)
	return analysis, nil
}

func shortestLeadTime(options []*entities.ProcurementOption) int {
	shortest := -1
	for _, o := range options {
		if shortest < 0 || o.LeadTimeDays < shortest {
			shortest = o.LeadTimeDays
		}
	}
	if shortest < 0 {
		return 0
	}
	return shortest
}

// longestPath finds the chain with the largest total lead time by dynamic programming
// over a topological order
func longestPath(g *simple.DirectedGraph, nodes []entities.DependencyNode) (entities.CriticalPath, error) {
	order, err := topo.Sort(g)
	if err != nil {
		return entities.CriticalPath{}, fmt.Errorf("dependency graph is not acyclic: %w", err)
	}

	dist := make([]int, len(nodes))
	depth := make([]int, len(nodes))
	prev := make([]int64, len(nodes))
	for _, n := range order {
		id := n.ID()
		prev[id] = -1
		best := 0
		preds := g.To(id)
		for preds.Next() {
			p := preds.Node().ID()
			if dist[p] > best || prev[id] < 0 {
				best, prev[id] = dist[p], p
			}
		}
		dist[id] = best + nodes[id].LeadTimeDays
		if prev[id] >= 0 {
			depth[id] = depth[prev[id]] + 1
		}
	}

	// Ties favor the chain with more items
	end := int64(0)
	for id := range dist {
		if dist[id] > dist[end] || (dist[id] == dist[end] && depth[id] > depth[end]) {
			end = int64(id)
		}
	}

	var path []entities.DependencyNode
	for id := end; id >= 0; id = prev[id] {
		path = append(path, nodes[id])
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	bottleneck := path[0]
	for _, n := range path[1:] {
		if n.LeadTimeDays > bottleneck.LeadTimeDays {
			bottleneck = n
		}
	}

	return entities.CriticalPath{
		TotalLeadTime:  dist[end],
		PathLength:     len(path),
		Path:           path,
		BottleneckItem: entities.ItemRef{ProjectID: bottleneck.ProjectID, ItemCode: bottleneck.ItemCode},
	}, nil
}

func mostCentral(nodes []entities.DependencyNode, n int) []entities.DependencyNode {
	ranked := make([]entities.DependencyNode, len(nodes))
	copy(ranked, nodes)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Betweenness != ranked[j].Betweenness {
			return ranked[i].Betweenness > ranked[j].Betweenness
		}
		return ranked[i].Degree > ranked[j].Degree
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
