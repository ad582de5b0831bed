package yaml

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/vsinha/procure/pkg/domain/entities"
	"github.com/vsinha/procure/pkg/infrastructure/repositories/memory"
)

const dateLayout = "2006-01-02"

// scenarioFile mirrors the on-disk layout. Amounts and dates are kept as strings so that
// decimals never pass through float64.
type scenarioFile struct {
	Projects  []projectDoc  `yaml:"projects"`
	Options   []optionDoc   `yaml:"options"`
	Budgets   []budgetDoc   `yaml:"budgets"`
	Decisions []decisionDoc `yaml:"decisions"`
}

type projectDoc struct {
	ID       int64     `yaml:"id"`
	Name     string    `yaml:"name"`
	Priority int       `yaml:"priority"`
	Active   *bool     `yaml:"active"`
	Items    []itemDoc `yaml:"items"`
}

type itemDoc struct {
	ID              int64         `yaml:"id"`
	ItemCode        string        `yaml:"item_code"`
	Description     string        `yaml:"description"`
	Quantity        int64         `yaml:"quantity"`
	DeliveryOptions []deliveryDoc `yaml:"delivery_options"`
}

type deliveryDoc struct {
	Date              string `yaml:"date"`
	InvoiceOffsetDays int    `yaml:"invoice_offset_days"`
	RevenuePerUnit    string `yaml:"revenue_per_unit"`
}

type optionDoc struct {
	ID                    int64  `yaml:"id"`
	ItemCode              string `yaml:"item_code"`
	Supplier              string `yaml:"supplier"`
	Cost                  string `yaml:"cost"`
	Currency              string `yaml:"currency"`
	ShippingCost          string `yaml:"shipping_cost"`
	LeadTimeDays          int    `yaml:"lead_time_days"`
	BundleThreshold       int64  `yaml:"bundle_threshold"`
	BundleDiscountPercent string `yaml:"bundle_discount_percent"`
	PaymentTerms          string `yaml:"payment_terms"`
	QuotedDeliveryDate    string `yaml:"quoted_delivery_date"`
	Finalized             *bool  `yaml:"finalized"`
	Active                *bool  `yaml:"active"`
}

type budgetDoc struct {
	PeriodStart string            `yaml:"period_start"`
	Amounts     map[string]string `yaml:"amounts"`
}

type decisionDoc struct {
	ProjectID int64  `yaml:"project_id"`
	ItemCode  string `yaml:"item_code"`
	OptionID  int64  `yaml:"option_id"`
	Status    string `yaml:"status"`
}

// Loader reads a whole procurement scenario from one YAML document
type Loader struct{}

// NewLoader creates a new YAML loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadFile reads a scenario from path
func (l *Loader) LoadFile(path string) (*memory.Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scenario file %s: %w", path, err)
	}
	defer file.Close()

	snapshot, err := l.Load(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snapshot, nil
}

// Load reads a scenario from r. Unknown keys are rejected.
func (l *Loader) Load(r io.Reader) (*memory.Snapshot, error) {
	decoder := yamlv3.NewDecoder(r)
	decoder.KnownFields(true)

	var doc scenarioFile
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("scenario document is empty")
		}
		return nil, fmt.Errorf("failed to decode scenario: %w", err)
	}

	snapshot := &memory.Snapshot{}
	for i, p := range doc.Projects {
		project, err := entities.NewProject(entities.ProjectID(p.ID), p.Name, p.Priority, boolOr(p.Active, true))
		if err != nil {
			return nil, fmt.Errorf("projects[%d]: %w", i, err)
		}
		snapshot.Projects = append(snapshot.Projects, project)

		for j, it := range p.Items {
			item, err := convertItem(project.ID, it)
			if err != nil {
				return nil, fmt.Errorf("projects[%d].items[%d]: %w", i, j, err)
			}
			snapshot.Items = append(snapshot.Items, item)
		}
	}

	for i, o := range doc.Options {
		option, err := convertOption(o)
		if err != nil {
			return nil, fmt.Errorf("options[%d]: %w", i, err)
		}
		snapshot.Options = append(snapshot.Options, option)
	}

	for i, b := range doc.Budgets {
		period, err := convertBudget(int64(i+1), b)
		if err != nil {
			return nil, fmt.Errorf("budgets[%d]: %w", i, err)
		}
		snapshot.Budgets = append(snapshot.Budgets, period)
	}

	for i, d := range doc.Decisions {
		status := entities.DecisionStatus(strings.ToUpper(strings.TrimSpace(d.Status)))
		switch status {
		case entities.DecisionLocked, entities.DecisionProposed, entities.DecisionReverted:
		default:
			return nil, fmt.Errorf("decisions[%d]: invalid status: %s", i, d.Status)
		}
		snapshot.Decisions = append(snapshot.Decisions, &entities.FinalizedDecision{
			ProjectID: entities.ProjectID(d.ProjectID),
			ItemCode:  entities.ItemCode(d.ItemCode),
			OptionID:  entities.OptionID(d.OptionID),
			Status:    status,
		})
	}

	return snapshot, nil
}

func convertItem(projectID entities.ProjectID, doc itemDoc) (*entities.ProjectItem, error) {
	delivery := make([]entities.DeliveryOption, 0, len(doc.DeliveryOptions))
	for k, d := range doc.DeliveryOptions {
		date, err := time.Parse(dateLayout, d.Date)
		if err != nil {
			return nil, fmt.Errorf("delivery_options[%d]: invalid date %q (expected YYYY-MM-DD)", k, d.Date)
		}
		revenue, err := parseDecimal(d.RevenuePerUnit)
		if err != nil {
			return nil, fmt.Errorf("delivery_options[%d]: invalid revenue_per_unit %q", k, d.RevenuePerUnit)
		}
		delivery = append(delivery, entities.DeliveryOption{
			DeliveryDate:      date,
			InvoiceOffsetDays: d.InvoiceOffsetDays,
			RevenuePerUnit:    revenue,
		})
	}
	return entities.NewProjectItem(
		doc.ID,
		projectID,
		entities.ItemCode(doc.ItemCode),
		doc.Description,
		entities.Quantity(doc.Quantity),
		delivery,
	)
}

func convertOption(doc optionDoc) (*entities.ProcurementOption, error) {
	cost, err := decimal.NewFromString(strings.TrimSpace(doc.Cost))
	if err != nil {
		return nil, fmt.Errorf("invalid cost %q", doc.Cost)
	}
	money, err := entities.NewMoney(cost, entities.CurrencyCode(strings.ToUpper(strings.TrimSpace(doc.Currency))))
	if err != nil {
		return nil, err
	}
	shipping, err := parseDecimal(doc.ShippingCost)
	if err != nil {
		return nil, fmt.Errorf("invalid shipping_cost %q", doc.ShippingCost)
	}
	bundleDiscount, err := parseDecimal(doc.BundleDiscountPercent)
	if err != nil {
		return nil, fmt.Errorf("invalid bundle_discount_percent %q", doc.BundleDiscountPercent)
	}
	terms, err := entities.ParsePaymentTerms(doc.PaymentTerms)
	if err != nil {
		return nil, err
	}

	option, err := entities.NewProcurementOption(
		entities.OptionID(doc.ID),
		entities.ItemCode(doc.ItemCode),
		doc.Supplier,
		money,
		shipping,
		doc.LeadTimeDays,
		terms,
	)
	if err != nil {
		return nil, err
	}
	option.BundleThreshold = entities.Quantity(doc.BundleThreshold)
	option.BundleDiscountPercent = bundleDiscount
	option.Finalized = boolOr(doc.Finalized, true)
	option.Active = boolOr(doc.Active, true)

	if doc.QuotedDeliveryDate != "" {
		quoted, err := time.Parse(dateLayout, doc.QuotedDeliveryDate)
		if err != nil {
			return nil, fmt.Errorf("invalid quoted_delivery_date %q (expected YYYY-MM-DD)", doc.QuotedDeliveryDate)
		}
		option.QuotedDeliveryDate = &quoted
	}
	return option, nil
}

func convertBudget(id int64, doc budgetDoc) (*entities.BudgetPeriod, error) {
	start, err := time.Parse(dateLayout, doc.PeriodStart)
	if err != nil {
		return nil, fmt.Errorf("invalid period_start %q (expected YYYY-MM-DD)", doc.PeriodStart)
	}
	amounts := make(map[entities.CurrencyCode]decimal.Decimal, len(doc.Amounts))
	for code, raw := range doc.Amounts {
		amount, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid %s amount %q", code, raw)
		}
		currency := entities.CurrencyCode(strings.ToUpper(strings.TrimSpace(code)))
		if _, dup := amounts[currency]; dup {
			return nil, fmt.Errorf("duplicate %s budget", currency)
		}
		amounts[currency] = amount
	}
	return entities.NewBudgetPeriod(id, start, amounts)
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.TrimSpace(s))
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
