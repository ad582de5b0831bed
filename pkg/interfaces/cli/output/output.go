package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vsinha/procure/pkg/application/dto"
	"github.com/vsinha/procure/pkg/domain/entities"
)

const dateLayout = "2006-01-02"

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	Writer    io.Writer // defaults to stdout
}

func (c Config) writer() io.Writer {
	if c.Writer == nil {
		return os.Stdout
	}
	return c.Writer
}

// Generate renders an optimization response in the configured format
func Generate(resp *dto.OptimizationResponse, config Config) error {
	switch config.Format {
	case "text", "":
		return generateTextOutput(resp, config)
	case "json":
		return writeJSON(resp, "optimization_results.json", config)
	case "csv":
		return generateCSVOutput(resp, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// GenerateAnalysis renders a dependency analysis as text or JSON
func GenerateAnalysis(analysis *entities.DependencyAnalysis, config Config) error {
	switch config.Format {
	case "text", "":
		return generateAnalysisText(analysis, config)
	case "json":
		return writeJSON(analysis, "dependency_analysis.json", config)
	default:
		return fmt.Errorf("unsupported output format for analysis: %s", config.Format)
	}
}

// generateTextOutput creates human-readable text output
func generateTextOutput(resp *dto.OptimizationResponse, config Config) error {
	w := config.writer()

	fmt.Fprintf(w, "📊 Optimization Results\n")
	fmt.Fprintf(w, "=======================\n\n")

	fmt.Fprintf(w, "Run ID: %s\n", resp.RunID)
	fmt.Fprintf(w, "Status: %s\n", resp.Status)
	fmt.Fprintf(w, "Items Optimized: %d\n", resp.ItemsOptimized)
	fmt.Fprintf(w, "Execution Time: %.3fs\n", resp.ExecutionTimeSeconds)
	if resp.BestProposal != "" {
		fmt.Fprintf(w, "Best Proposal: %s\n", resp.BestProposal)
		fmt.Fprintf(w, "Total Cost: %s\n", resp.TotalCost.StringFixed(2))
	}
	if resp.DisplayTotalCost != nil {
		fmt.Fprintf(w, "Display Total: %s\n", resp.DisplayTotalCost)
	}
	if resp.Message != "" {
		fmt.Fprintf(w, "Message: %s\n", resp.Message)
	}
	fmt.Fprintln(w)

	for _, proposal := range resp.Proposals {
		fmt.Fprintf(w, "📋 %s [%s] - %d items, total %s\n",
			proposal.Name, proposal.Status, proposal.ItemsCount, proposal.TotalCost.StringFixed(2))

		if len(proposal.Decisions) > 0 {
			fmt.Fprintf(w, "%-6s %-15s %-20s %-12s %-12s %-6s %-16s %-s\n",
				"Proj", "Item", "Supplier", "Purchase", "Delivery", "Qty", "Cost", "Terms")
			fmt.Fprintf(w, "%-6s %-15s %-20s %-12s %-12s %-6s %-16s %-s\n",
				"------", "---------------", "--------------------", "------------", "------------",
				"------", "----------------", "-----")
			for _, d := range proposal.Decisions {
				fmt.Fprintf(w, "%-6d %-15s %-20s %-12s %-12s %-6d %-16s %-s\n",
					d.ProjectID,
					d.ItemCode,
					truncate(d.SupplierName, 20),
					d.PurchaseDate.Format(dateLayout),
					d.DeliveryDate.Format(dateLayout),
					d.Quantity,
					d.FinalCost.String(),
					d.PaymentTerms)
			}
		}

		if config.Verbose || !proposal.Status.HasSolution() {
			for _, note := range proposal.SummaryNotes {
				fmt.Fprintf(w, "  • %s\n", note)
			}
		}
		fmt.Fprintln(w)
	}

	if resp.DependencyAnalysis != nil && config.Verbose {
		fmt.Fprintf(w, "🔗 %s\n", resp.DependencyAnalysis.GetCriticalPathSummary())
	}
	return nil
}

func generateAnalysisText(analysis *entities.DependencyAnalysis, config Config) error {
	w := config.writer()

	fmt.Fprintf(w, "🔗 Dependency Analysis\n")
	fmt.Fprintf(w, "======================\n\n")
	fmt.Fprintf(w, "Items: %d\n", analysis.NodeCount)
	fmt.Fprintf(w, "Dependencies: %d\n", analysis.EdgeCount)
	fmt.Fprintf(w, "Independent Groups: %d\n\n", analysis.ComponentCount)

	fmt.Fprintf(w, "%s\n", analysis.GetCriticalPathSummary())
	if analysis.CriticalPath.PathLength > 0 {
		fmt.Fprintf(w, "Path: %s\n", analysis.CriticalPath.GetPathSummary())
	}
	fmt.Fprintln(w)

	if len(analysis.MostCentral) > 0 {
		fmt.Fprintf(w, "Most Central Items:\n")
		fmt.Fprintf(w, "%-6s %-15s %-10s %-12s %-6s\n", "Proj", "Item", "Lead Days", "Betweenness", "Degree")
		fmt.Fprintf(w, "%-6s %-15s %-10s %-12s %-6s\n", "------", "---------------", "----------", "------------", "------")
		for _, node := range analysis.MostCentral {
			fmt.Fprintf(w, "%-6d %-15s %-10d %-12.2f %-6d\n",
				node.ProjectID, node.ItemCode, node.LeadTimeDays, node.Betweenness, node.Degree)
		}
	}
	return nil
}

// writeJSON prints v to the writer, or saves it under OutputDir when one is set
func writeJSON(v any, filename string, config Config) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		fmt.Fprintln(config.writer(), string(jsonData))
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(config.OutputDir, filename)
	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.writer(), "💾 JSON results saved to: %s\n", path)
	}
	return nil
}

// generateCSVOutput writes one file of proposals and one of decisions
func generateCSVOutput(resp *dto.OptimizationResponse, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	proposalsFile := filepath.Join(config.OutputDir, "proposals.csv")
	if err := writeCSV(proposalsFile, proposalRows(resp)); err != nil {
		return fmt.Errorf("failed to write proposals CSV: %w", err)
	}

	decisionsFile := filepath.Join(config.OutputDir, "decisions.csv")
	if err := writeCSV(decisionsFile, decisionRows(resp)); err != nil {
		return fmt.Errorf("failed to write decisions CSV: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.writer(), "💾 CSV results saved to:\n")
		fmt.Fprintf(config.writer(), "  Proposals: %s\n", proposalsFile)
		fmt.Fprintf(config.writer(), "  Decisions: %s\n", decisionsFile)
	}
	return nil
}

func proposalRows(resp *dto.OptimizationResponse) [][]string {
	rows := [][]string{{"run_id", "proposal_name", "strategy", "status", "total_cost", "weighted_cost", "items_count", "best", "summary_notes"}}
	for _, p := range resp.Proposals {
		rows = append(rows, []string{
			resp.RunID,
			p.Name,
			string(p.Strategy),
			string(p.Status),
			p.TotalCost.StringFixed(2),
			p.WeightedCost.StringFixed(2),
			strconv.Itoa(p.ItemsCount),
			strconv.FormatBool(p.Name == resp.BestProposal),
			strings.Join(p.SummaryNotes, " | "),
		})
	}
	return rows
}

func decisionRows(resp *dto.OptimizationResponse) [][]string {
	rows := [][]string{{
		"proposal_name", "project_id", "item_code", "procurement_option_id", "supplier_name",
		"purchase_slot", "delivery_slot", "purchase_date", "delivery_date", "quantity",
		"unit_cost", "final_cost", "currency", "payment_terms",
	}}
	for _, p := range resp.Proposals {
		for _, d := range p.Decisions {
			rows = append(rows, []string{
				p.Name,
				strconv.FormatInt(int64(d.ProjectID), 10),
				string(d.ItemCode),
				strconv.FormatInt(int64(d.ProcurementOptionID), 10),
				d.SupplierName,
				strconv.Itoa(int(d.PurchaseSlot)),
				strconv.Itoa(int(d.DeliverySlot)),
				d.PurchaseDate.Format(dateLayout),
				d.DeliveryDate.Format(dateLayout),
				strconv.FormatInt(int64(d.Quantity), 10),
				d.UnitCost.Amount().StringFixed(2),
				d.FinalCost.Amount().StringFixed(2),
				string(d.FinalCost.Currency()),
				d.PaymentTerms,
			})
		}
	}
	return rows
}

func writeCSV(filename string, rows [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return file.Close()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
