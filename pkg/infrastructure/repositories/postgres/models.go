package postgres

import (
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/vsinha/procure/pkg/domain/entities"
)

const (
	termsCash         = "CASH"
	termsInstallments = "INSTALLMENTS"
)

type projectModel struct {
	ID       int64  `gorm:"primaryKey"`
	Name     string `gorm:"not null"`
	Priority int    `gorm:"not null"`
	Active   bool   `gorm:"not null;default:true"`
}

func (projectModel) TableName() string { return "projects" }

type itemModel struct {
	ID              int64                 `gorm:"primaryKey"`
	ProjectID       int64                 `gorm:"not null;index"`
	ItemCode        string                `gorm:"not null"`
	Description     string                `gorm:""`
	Quantity        int64                 `gorm:"not null"`
	DeliveryOptions []deliveryOptionModel `gorm:"foreignKey:ItemID"`
}

func (itemModel) TableName() string { return "project_items" }

type deliveryOptionModel struct {
	ID                int64           `gorm:"primaryKey"`
	ItemID            int64           `gorm:"not null;index"`
	DeliveryDate      time.Time       `gorm:"type:date;not null"`
	InvoiceOffsetDays int             `gorm:"not null;default:0"`
	RevenuePerUnit    decimal.Decimal `gorm:"type:numeric(18,4);not null"`
}

func (deliveryOptionModel) TableName() string { return "delivery_options" }

type optionModel struct {
	ID                    int64           `gorm:"primaryKey"`
	ItemCode              string          `gorm:"not null;index"`
	SupplierName          string          `gorm:"not null"`
	Cost                  decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	Currency              string          `gorm:"type:char(3);not null"`
	ShippingCost          decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	LeadTimeDays          int             `gorm:"not null"`
	BundleThreshold       int64           `gorm:"not null;default:0"`
	BundleDiscountPercent decimal.Decimal `gorm:"type:numeric(7,4);not null;default:0"`
	PaymentKind           string          `gorm:"not null;default:CASH"`
	CashDiscountPercent   decimal.Decimal `gorm:"type:numeric(7,4);not null;default:0"`
	InstallmentDays       pq.Int64Array   `gorm:"type:bigint[]"`
	InstallmentPercents   pq.Float64Array `gorm:"type:double precision[]"`
	QuotedDeliveryDate    *time.Time      `gorm:"type:date"`
	Finalized             bool            `gorm:"not null;default:false"`
	Active                bool            `gorm:"not null;default:true"`
}

func (optionModel) TableName() string { return "procurement_options" }

type budgetModel struct {
	ID          int64           `gorm:"primaryKey"`
	PeriodStart time.Time       `gorm:"type:date;not null;uniqueIndex:idx_budget_period_currency"`
	Currency    string          `gorm:"type:char(3);not null;uniqueIndex:idx_budget_period_currency"`
	Amount      decimal.Decimal `gorm:"type:numeric(18,4);not null"`
}

func (budgetModel) TableName() string { return "budgets" }

type decisionModel struct {
	ID        int64  `gorm:"primaryKey"`
	ProjectID int64  `gorm:"not null;index"`
	ItemCode  string `gorm:"not null"`
	OptionID  int64  `gorm:"not null"`
	Status    string `gorm:"not null"`
}

func (decisionModel) TableName() string { return "finalized_decisions" }

type runModel struct {
	RunID           string `gorm:"primaryKey"`
	Status          string `gorm:"not null"`
	StartedAt       time.Time
	ExecutionMillis int64
	Message         string
	BestProposal    string
	Proposals       []proposalModel `gorm:"foreignKey:RunID;references:RunID"`
}

func (runModel) TableName() string { return "optimization_runs" }

type proposalModel struct {
	ID           int64  `gorm:"primaryKey"`
	RunID        string `gorm:"not null;index"`
	Name         string
	Strategy     string
	Status       string
	TotalCost    decimal.Decimal `gorm:"type:numeric(18,4)"`
	WeightedCost decimal.Decimal `gorm:"type:numeric(18,4)"`
	ItemsCount   int
	SummaryNotes pq.StringArray      `gorm:"type:text[]"`
	Decisions    []proposalLineModel `gorm:"foreignKey:ProposalID"`
}

func (proposalModel) TableName() string { return "run_proposals" }

type proposalLineModel struct {
	ID           int64 `gorm:"primaryKey"`
	ProposalID   int64 `gorm:"not null;index"`
	ProjectID    int64
	ItemCode     string
	OptionID     int64
	SupplierName string
	PurchaseSlot int
	DeliverySlot int
	PurchaseDate time.Time `gorm:"type:date"`
	DeliveryDate time.Time `gorm:"type:date"`
	Quantity     int64
	FinalCost    decimal.Decimal `gorm:"type:numeric(18,4)"`
	Currency     string          `gorm:"type:char(3)"`
	PaymentTerms string
}

func (proposalLineModel) TableName() string { return "run_decisions" }

// allModels lists every table for AutoMigrate
var allModels = []any{
	&projectModel{},
	&itemModel{},
	&deliveryOptionModel{},
	&optionModel{},
	&budgetModel{},
	&decisionModel{},
	&runModel{},
	&proposalModel{},
	&proposalLineModel{},
}

func (m projectModel) toEntity() (*entities.Project, error) {
	return entities.NewProject(entities.ProjectID(m.ID), m.Name, m.Priority, m.Active)
}

func (m itemModel) toEntity() (*entities.ProjectItem, error) {
	delivery := make([]entities.DeliveryOption, 0, len(m.DeliveryOptions))
	for _, d := range m.DeliveryOptions {
		delivery = append(delivery, entities.DeliveryOption{
			DeliveryDate:      d.DeliveryDate,
			InvoiceOffsetDays: d.InvoiceOffsetDays,
			RevenuePerUnit:    d.RevenuePerUnit,
		})
	}
	return entities.NewProjectItem(
		m.ID,
		entities.ProjectID(m.ProjectID),
		entities.ItemCode(m.ItemCode),
		m.Description,
		entities.Quantity(m.Quantity),
		delivery,
	)
}

func (m optionModel) paymentTerms() (entities.PaymentTerms, error) {
	switch m.PaymentKind {
	case termsCash, "":
		return entities.CashTerms{DiscountPercent: m.CashDiscountPercent}, nil
	case termsInstallments:
		if len(m.InstallmentDays) != len(m.InstallmentPercents) {
			return nil, fmt.Errorf("%w: option %d has %d installment days but %d percentages",
				entities.ErrMalformedPaymentTerms, m.ID, len(m.InstallmentDays), len(m.InstallmentPercents))
		}
		schedule := make([]entities.Installment, len(m.InstallmentDays))
		for i := range m.InstallmentDays {
			schedule[i] = entities.Installment{
				DayOffset: int(m.InstallmentDays[i]),
				Percent:   decimal.NewFromFloat(m.InstallmentPercents[i]),
			}
		}
		return entities.InstallmentTerms{Schedule: schedule}, nil
	default:
		return nil, fmt.Errorf("%w: option %d has payment kind %q", entities.ErrMalformedPaymentTerms, m.ID, m.PaymentKind)
	}
}

func (m optionModel) toEntity() (*entities.ProcurementOption, error) {
	cost, err := entities.NewMoney(m.Cost, entities.CurrencyCode(m.Currency))
	if err != nil {
		return nil, err
	}
	terms, err := m.paymentTerms()
	if err != nil {
		return nil, err
	}
	option, err := entities.NewProcurementOption(
		entities.OptionID(m.ID),
		entities.ItemCode(m.ItemCode),
		m.SupplierName,
		cost,
		m.ShippingCost,
		m.LeadTimeDays,
		terms,
	)
	if err != nil {
		return nil, err
	}
	option.BundleThreshold = entities.Quantity(m.BundleThreshold)
	option.BundleDiscountPercent = m.BundleDiscountPercent
	option.QuotedDeliveryDate = m.QuotedDeliveryDate
	option.Finalized = m.Finalized
	option.Active = m.Active
	return option, nil
}

// groupBudgets folds long-form rows into one period per start date, preserving row order
func groupBudgets(rows []budgetModel) ([]*entities.BudgetPeriod, error) {
	byStart := make(map[time.Time]*entities.BudgetPeriod)
	var periods []*entities.BudgetPeriod
	for _, row := range rows {
		period, ok := byStart[row.PeriodStart]
		if !ok {
			var err error
			period, err = entities.NewBudgetPeriod(row.ID, row.PeriodStart, make(map[entities.CurrencyCode]decimal.Decimal))
			if err != nil {
				return nil, err
			}
			byStart[row.PeriodStart] = period
			periods = append(periods, period)
		}
		period.Amounts[entities.CurrencyCode(row.Currency)] = row.Amount
	}
	return periods, nil
}

func newRunModel(run *entities.OptimizationRun) runModel {
	model := runModel{
		RunID:           run.RunID,
		Status:          run.Status,
		StartedAt:       run.StartedAt,
		ExecutionMillis: run.ExecutionTime.Milliseconds(),
		Message:         run.Message,
	}
	if run.Best != nil {
		model.BestProposal = run.Best.Name
	}
	for _, p := range run.Proposals {
		proposal := proposalModel{
			RunID:        run.RunID,
			Name:         p.Name,
			Strategy:     string(p.Strategy),
			Status:       string(p.Status),
			TotalCost:    p.TotalCost,
			WeightedCost: p.WeightedCost,
			ItemsCount:   p.ItemsCount,
			SummaryNotes: pq.StringArray(p.SummaryNotes),
		}
		for _, d := range p.Decisions {
			proposal.Decisions = append(proposal.Decisions, proposalLineModel{
				ProjectID:    int64(d.ProjectID),
				ItemCode:     string(d.ItemCode),
				OptionID:     int64(d.ProcurementOptionID),
				SupplierName: d.SupplierName,
				PurchaseSlot: int(d.PurchaseSlot),
				DeliverySlot: int(d.DeliverySlot),
				PurchaseDate: d.PurchaseDate,
				DeliveryDate: d.DeliveryDate,
				Quantity:     int64(d.Quantity),
				FinalCost:    d.FinalCost.Amount(),
				Currency:     string(d.FinalCost.Currency()),
				PaymentTerms: d.PaymentTerms,
			})
		}
		model.Proposals = append(model.Proposals, proposal)
	}
	return model
}
