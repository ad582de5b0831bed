package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/procure/pkg/domain/entities"
	"github.com/vsinha/procure/pkg/infrastructure/repositories/memory"
)

const dateLayout = "2006-01-02"

// File names read by LoadDirectory. Decisions are optional.
const (
	ProjectsFile        = "projects.csv"
	ItemsFile           = "items.csv"
	DeliveryOptionsFile = "delivery_options.csv"
	OptionsFile         = "options.csv"
	BudgetsFile         = "budgets.csv"
	DecisionsFile       = "decisions.csv"
)

var (
	projectsHeader = []string{"id", "name", "priority", "active"}
	itemsHeader    = []string{"id", "project_id", "item_code", "description", "quantity"}
	deliveryHeader = []string{"item_id", "delivery_date", "invoice_offset_days", "revenue_per_unit"}
	optionsHeader  = []string{
		"id", "item_code", "supplier_name", "cost", "currency", "shipping_cost", "lead_time_days",
		"bundle_threshold", "bundle_discount_percent", "payment_terms", "quoted_delivery_date",
		"finalized", "active",
	}
	budgetsHeader   = []string{"period_start", "currency", "amount"}
	decisionsHeader = []string{"project_id", "item_code", "option_id", "status"}
)

// Loader reads procurement scenarios from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadDirectory reads every scenario file from dir
func (l *Loader) LoadDirectory(dir string) (*memory.Snapshot, error) {
	projects, err := l.LoadProjects(filepath.Join(dir, ProjectsFile))
	if err != nil {
		return nil, err
	}
	items, err := l.LoadItems(filepath.Join(dir, ItemsFile), filepath.Join(dir, DeliveryOptionsFile))
	if err != nil {
		return nil, err
	}
	options, err := l.LoadOptions(filepath.Join(dir, OptionsFile))
	if err != nil {
		return nil, err
	}
	budgets, err := l.LoadBudgets(filepath.Join(dir, BudgetsFile))
	if err != nil {
		return nil, err
	}

	decisions, err := l.LoadDecisions(filepath.Join(dir, DecisionsFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return &memory.Snapshot{
		Projects:  projects,
		Items:     items,
		Options:   options,
		Budgets:   budgets,
		Decisions: decisions,
	}, nil
}

// LoadProjects loads projects from a CSV file
func (l *Loader) LoadProjects(filename string) ([]*entities.Project, error) {
	records, err := readRecords(filename, "projects", projectsHeader)
	if err != nil {
		return nil, err
	}

	var projects []*entities.Project
	for i, record := range records {
		project, err := parseProject(record)
		if err != nil {
			return nil, fmt.Errorf("projects CSV row %d: %w", i+2, err)
		}
		projects = append(projects, project)
	}
	return projects, nil
}

// LoadItems loads items and attaches their delivery options. The delivery file is optional;
// items without delivery options are valued by the fallback rule.
func (l *Loader) LoadItems(itemsFile, deliveryFile string) ([]*entities.ProjectItem, error) {
	records, err := readRecords(itemsFile, "items", itemsHeader)
	if err != nil {
		return nil, err
	}

	delivery, err := l.loadDeliveryOptions(deliveryFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var items []*entities.ProjectItem
	for i, record := range records {
		item, err := parseItem(record, delivery)
		if err != nil {
			return nil, fmt.Errorf("items CSV row %d: %w", i+2, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (l *Loader) loadDeliveryOptions(filename string) (map[int64][]entities.DeliveryOption, error) {
	records, err := readRecords(filename, "delivery options", deliveryHeader)
	if err != nil {
		return nil, err
	}

	byItem := make(map[int64][]entities.DeliveryOption)
	for i, record := range records {
		itemID, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("delivery options CSV row %d: invalid item_id: %s", i+2, record[0])
		}
		date, err := time.Parse(dateLayout, record[1])
		if err != nil {
			return nil, fmt.Errorf("delivery options CSV row %d: invalid delivery_date format: %s (expected YYYY-MM-DD)", i+2, record[1])
		}
		offset, err := parseOptionalInt(record[2])
		if err != nil {
			return nil, fmt.Errorf("delivery options CSV row %d: invalid invoice_offset_days: %s", i+2, record[2])
		}
		revenue, err := decimal.NewFromString(record[3])
		if err != nil {
			return nil, fmt.Errorf("delivery options CSV row %d: invalid revenue_per_unit: %s", i+2, record[3])
		}
		byItem[itemID] = append(byItem[itemID], entities.DeliveryOption{
			DeliveryDate:      date,
			InvoiceOffsetDays: offset,
			RevenuePerUnit:    revenue,
		})
	}
	return byItem, nil
}

// LoadOptions loads procurement options from a CSV file
func (l *Loader) LoadOptions(filename string) ([]*entities.ProcurementOption, error) {
	records, err := readRecords(filename, "options", optionsHeader)
	if err != nil {
		return nil, err
	}

	var options []*entities.ProcurementOption
	for i, record := range records {
		option, err := parseOption(record)
		if err != nil {
			return nil, fmt.Errorf("options CSV row %d: %w", i+2, err)
		}
		options = append(options, option)
	}
	return options, nil
}

// LoadBudgets loads budgets in long form, one row per (period, currency)
func (l *Loader) LoadBudgets(filename string) ([]*entities.BudgetPeriod, error) {
	records, err := readRecords(filename, "budgets", budgetsHeader)
	if err != nil {
		return nil, err
	}

	byStart := make(map[time.Time]*entities.BudgetPeriod)
	var periods []*entities.BudgetPeriod
	for i, record := range records {
		start, err := time.Parse(dateLayout, record[0])
		if err != nil {
			return nil, fmt.Errorf("budgets CSV row %d: invalid period_start format: %s (expected YYYY-MM-DD)", i+2, record[0])
		}
		currency := entities.CurrencyCode(strings.ToUpper(strings.TrimSpace(record[1])))
		if currency == "" {
			return nil, fmt.Errorf("budgets CSV row %d: currency cannot be empty", i+2)
		}
		amount, err := decimal.NewFromString(record[2])
		if err != nil {
			return nil, fmt.Errorf("budgets CSV row %d: invalid amount: %s", i+2, record[2])
		}

		period, ok := byStart[start]
		if !ok {
			period, err = entities.NewBudgetPeriod(int64(len(periods)+1), start, make(map[entities.CurrencyCode]decimal.Decimal))
			if err != nil {
				return nil, fmt.Errorf("budgets CSV row %d: %w", i+2, err)
			}
			byStart[start] = period
			periods = append(periods, period)
		}
		if _, dup := period.Amounts[currency]; dup {
			return nil, fmt.Errorf("budgets CSV row %d: duplicate %s budget for %s", i+2, currency, record[0])
		}
		period.Amounts[currency] = amount
	}
	return periods, nil
}

// LoadDecisions loads earlier decisions from a CSV file
func (l *Loader) LoadDecisions(filename string) ([]*entities.FinalizedDecision, error) {
	records, err := readRecords(filename, "decisions", decisionsHeader)
	if err != nil {
		return nil, err
	}

	var decisions []*entities.FinalizedDecision
	for i, record := range records {
		projectID, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decisions CSV row %d: invalid project_id: %s", i+2, record[0])
		}
		optionID, err := strconv.ParseInt(record[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decisions CSV row %d: invalid option_id: %s", i+2, record[2])
		}
		status, err := parseDecisionStatus(record[3])
		if err != nil {
			return nil, fmt.Errorf("decisions CSV row %d: %w", i+2, err)
		}
		decisions = append(decisions, &entities.FinalizedDecision{
			ProjectID: entities.ProjectID(projectID),
			ItemCode:  entities.ItemCode(record[1]),
			OptionID:  entities.OptionID(optionID),
			Status:    status,
		})
	}
	return decisions, nil
}

// Helper functions for parsing CSV records

// readRecords opens a file, checks its header and returns the data rows
func readRecords(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header", kind)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, header)
	}

	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", kind, i+2, len(expectedHeader), len(record))
		}
	}
	return records[1:], nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseProject(record []string) (*entities.Project, error) {
	id, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %s", record[0])
	}
	priority, err := strconv.Atoi(record[2])
	if err != nil {
		return nil, fmt.Errorf("invalid priority: %s", record[2])
	}
	active, err := parseBool(record[3], true)
	if err != nil {
		return nil, fmt.Errorf("invalid active flag: %s", record[3])
	}
	return entities.NewProject(entities.ProjectID(id), record[1], priority, active)
}

func parseItem(record []string, delivery map[int64][]entities.DeliveryOption) (*entities.ProjectItem, error) {
	id, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %s", record[0])
	}
	projectID, err := strconv.ParseInt(record[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid project_id: %s", record[1])
	}
	quantity, err := strconv.ParseInt(record[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity: %s", record[4])
	}

	return entities.NewProjectItem(
		id,
		entities.ProjectID(projectID),
		entities.ItemCode(record[2]),
		record[3],
		entities.Quantity(quantity),
		delivery[id],
	)
}

func parseOption(record []string) (*entities.ProcurementOption, error) {
	id, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %s", record[0])
	}
	cost, err := decimal.NewFromString(record[3])
	if err != nil {
		return nil, fmt.Errorf("invalid cost: %s", record[3])
	}
	money, err := entities.NewMoney(cost, entities.CurrencyCode(strings.ToUpper(strings.TrimSpace(record[4]))))
	if err != nil {
		return nil, err
	}
	shipping, err := parseOptionalDecimal(record[5])
	if err != nil {
		return nil, fmt.Errorf("invalid shipping_cost: %s", record[5])
	}
	leadTime, err := strconv.Atoi(record[6])
	if err != nil {
		return nil, fmt.Errorf("invalid lead_time_days: %s", record[6])
	}
	threshold, err := parseOptionalInt(record[7])
	if err != nil {
		return nil, fmt.Errorf("invalid bundle_threshold: %s", record[7])
	}
	bundleDiscount, err := parseOptionalDecimal(record[8])
	if err != nil {
		return nil, fmt.Errorf("invalid bundle_discount_percent: %s", record[8])
	}
	terms, err := entities.ParsePaymentTerms(record[9])
	if err != nil {
		return nil, err
	}

	option, err := entities.NewProcurementOption(
		entities.OptionID(id),
		entities.ItemCode(record[1]),
		record[2],
		money,
		shipping,
		leadTime,
		terms,
	)
	if err != nil {
		return nil, err
	}
	option.BundleThreshold = entities.Quantity(threshold)
	option.BundleDiscountPercent = bundleDiscount

	if s := strings.TrimSpace(record[10]); s != "" {
		quoted, err := time.Parse(dateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("invalid quoted_delivery_date format: %s (expected YYYY-MM-DD)", s)
		}
		option.QuotedDeliveryDate = &quoted
	}
	if option.Finalized, err = parseBool(record[11], true); err != nil {
		return nil, fmt.Errorf("invalid finalized flag: %s", record[11])
	}
	if option.Active, err = parseBool(record[12], true); err != nil {
		return nil, fmt.Errorf("invalid active flag: %s", record[12])
	}
	return option, nil
}

func parseDecisionStatus(s string) (entities.DecisionStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOCKED":
		return entities.DecisionLocked, nil
	case "PROPOSED":
		return entities.DecisionProposed, nil
	case "REVERTED":
		return entities.DecisionReverted, nil
	default:
		return "", fmt.Errorf("invalid status: %s (expected: LOCKED, PROPOSED, or REVERTED)", s)
	}
}

func parseBool(s string, fallback bool) (bool, error) {
	if strings.TrimSpace(s) == "" {
		return fallback, nil
	}
	return strconv.ParseBool(strings.TrimSpace(s))
}

func parseOptionalInt(s string) (int, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return strconv.Atoi(strings.TrimSpace(s))
}

func parseOptionalDecimal(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.TrimSpace(s))
}
