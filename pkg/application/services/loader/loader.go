package loader

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/procure/pkg/domain/entities"
	"github.com/vsinha/procure/pkg/domain/repositories"
	"github.com/vsinha/procure/pkg/domain/services"
	"github.com/vsinha/procure/pkg/infrastructure/logging"
)

// Filter restricts what a run loads
type Filter struct {
	ProjectIDs []entities.ProjectID
	Window     entities.DateRange // applied to budget periods
}

// Dataset is the validated, read-only snapshot an optimization run works on
type Dataset struct {
	Projects map[entities.ProjectID]*entities.Project
	Items    []*entities.ProjectItem                             // eligible items ordered by project, item code
	Options  map[entities.ItemCode][]*entities.ProcurementOption // eligible options ordered by id
	Calendar *entities.Calendar
	Budgets  map[entities.TimeSlot]map[entities.CurrencyCode]entities.Money
	Excluded []entities.ItemRef
	Warnings []string
}

// OptionsFor returns the eligible options for an item
func (d *Dataset) OptionsFor(item *entities.ProjectItem) []*entities.ProcurementOption {
	return d.Options[item.ItemCode]
}

// Budget returns the budget for a (slot, currency) pair, if one was loaded
func (d *Dataset) Budget(slot entities.TimeSlot, currency entities.CurrencyCode) (entities.BudgetEntry, bool) {
	amounts, ok := d.Budgets[slot]
	if !ok {
		return entities.BudgetEntry{}, false
	}
	limit, ok := amounts[currency]
	if !ok {
		return entities.BudgetEntry{}, false
	}
	return entities.BudgetEntry{Slot: slot, Limit: limit}, true
}

// Priority returns the project's priority, or the lowest priority for unknown projects
func (d *Dataset) Priority(id entities.ProjectID) int {
	if p, ok := d.Projects[id]; ok {
		return p.Priority
	}
	return 1
}

// DataLoader reads and validates optimization input from the persistence collaborator
type DataLoader struct {
	catalog        repositories.Catalog
	validator      *services.CatalogValidator
	comparator     *services.ItemCodeComparator
	slotLengthDays int
}

// NewDataLoader creates a new data loader
func NewDataLoader(catalog repositories.Catalog, slotLengthDays int) *DataLoader {
	if slotLengthDays <= 0 {
		slotLengthDays = 1
	}
	return &DataLoader{
		catalog:        catalog,
		validator:      services.NewCatalogValidator(),
		comparator:     services.NewItemCodeComparator(),
		slotLengthDays: slotLengthDays,
	}
}

// Load reads projects, items, options and budgets, applying exclusion and validation rules.
// Data problems are returned as *ValidationError; repository failures are wrapped as-is.
func (l *DataLoader) Load(ctx context.Context, filter Filter) (*Dataset, error) {
	logger := logging.FromContext(ctx)

	projects, err := l.catalog.Projects.GetActiveProjects(ctx, filter.ProjectIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}
	projects = activeOnly(projects)
	if len(projects) == 0 {
		return nil, newValidationError(NoActiveProjects, "no active projects found%s", describeFilter(filter))
	}

	projectIDs := make([]entities.ProjectID, 0, len(projects))
	byID := make(map[entities.ProjectID]*entities.Project, len(projects))
	for _, p := range projects {
		projectIDs = append(projectIDs, p.ID)
		byID[p.ID] = p
	}

	items, err := l.catalog.Projects.GetItems(ctx, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load project items: %w", err)
	}

	decisions, err := l.catalog.Decisions.GetFinalizedDecisions(ctx, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load finalized decisions: %w", err)
	}

	eligible, excluded := excludeDecided(items, decisions)
	if len(eligible) == 0 {
		return nil, newValidationError(NoEligibleItems,
			"no items left to optimize: %d items loaded, %d already decided", len(items), len(excluded))
	}
	l.comparator.SortItems(eligible)

	options, err := l.catalog.Options.GetFinalizedOptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load procurement options: %w", err)
	}
	options = eligibleOnly(options)
	if len(options) == 0 {
		return nil, newValidationError(NoFinalizedOptions, "no finalized, active procurement options found")
	}

	validation := l.validator.ValidateCatalog(eligible, options)
	if !validation.IsValid() {
		return nil, newValidationError(InvalidCatalog, "%s", strings.Join(validation.Errors, "; "))
	}

	byCode := matchOptions(eligible, options)
	if len(byCode) == 0 {
		return nil, newValidationError(NoMatchingOptions,
			"none of the %d remaining items has a finalized procurement option", len(eligible))
	}

	periods, err := l.catalog.Budgets.GetBudgetPeriods(ctx, filter.Window)
	if err != nil {
		return nil, fmt.Errorf("failed to load budget periods: %w", err)
	}
	periods = withinWindow(periods, filter.Window)
	if len(periods) == 0 {
		return nil, newValidationError(NoBudgetData, "no budget periods found%s", describeFilter(filter))
	}

	calendar, budgets, err := l.buildBudgets(periods)
	if err != nil {
		return nil, err
	}

	dataset := &Dataset{
		Projects: byID,
		Items:    eligible,
		Options:  byCode,
		Calendar: calendar,
		Budgets:  budgets,
		Excluded: excluded,
		Warnings: validation.Warnings,
	}

	logger.Info("Optimization data loaded",
		zap.Int("projects", len(projects)),
		zap.Int("items", len(eligible)),
		zap.Int("excluded_items", len(excluded)),
		zap.Int("options", len(options)),
		zap.Int("budget_periods", len(periods)),
	)
	for _, warning := range validation.Warnings {
		logger.Warn("Catalog warning", zap.String("warning", warning))
	}

	return dataset, nil
}

// buildBudgets maps periods to sequential 1-based slots in date order
func (l *DataLoader) buildBudgets(
	periods []*entities.BudgetPeriod,
) (*entities.Calendar, map[entities.TimeSlot]map[entities.CurrencyCode]entities.Money, error) {
	sort.SliceStable(periods, func(i, j int) bool {
		return periods[i].PeriodStart.Before(periods[j].PeriodStart)
	})

	starts := make([]time.Time, 0, len(periods))
	for _, p := range periods {
		starts = append(starts, p.PeriodStart)
	}
	calendar, err := entities.NewCalendar(starts, l.slotLengthDays)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid budget periods: %w", err)
	}

	budgets := make(map[entities.TimeSlot]map[entities.CurrencyCode]entities.Money, len(periods))
	for i, p := range periods {
		slot := entities.TimeSlot(i + 1)
		amounts := make(map[entities.CurrencyCode]entities.Money, len(p.Amounts))
		for code, amount := range p.Amounts {
			money, err := entities.NewMoney(amount, code)
			if err != nil {
				return nil, nil, fmt.Errorf("budget period %d: %w", p.ID, err)
			}
			amounts[code] = money
		}
		budgets[slot] = amounts
	}
	return calendar, budgets, nil
}

func activeOnly(projects []*entities.Project) []*entities.Project {
	active := make([]*entities.Project, 0, len(projects))
	for _, p := range projects {
		if p.Active {
			active = append(active, p)
		}
	}
	return active
}

func eligibleOnly(options []*entities.ProcurementOption) []*entities.ProcurementOption {
	eligible := make([]*entities.ProcurementOption, 0, len(options))
	for _, o := range options {
		if o.Eligible() {
			eligible = append(eligible, o)
		}
	}
	return eligible
}

// excludeDecided drops items that already carry a LOCKED or PROPOSED decision
func excludeDecided(
	items []*entities.ProjectItem,
	decisions []*entities.FinalizedDecision,
) ([]*entities.ProjectItem, []entities.ItemRef) {
	decided := make(map[entities.ItemRef]bool, len(decisions))
	for _, d := range decisions {
		if d.Status.ExcludesFromOptimization() {
			decided[entities.ItemRef{ProjectID: d.ProjectID, ItemCode: d.ItemCode}] = true
		}
	}

	eligible := make([]*entities.ProjectItem, 0, len(items))
	excluded := make([]entities.ItemRef, 0)
	for _, item := range items {
		if decided[item.Ref()] {
			excluded = append(excluded, item.Ref())
			continue
		}
		eligible = append(eligible, item)
	}
	return eligible, excluded
}

// matchOptions indexes options by item code, keeping only codes some eligible item needs
func matchOptions(
	items []*entities.ProjectItem,
	options []*entities.ProcurementOption,
) map[entities.ItemCode][]*entities.ProcurementOption {
	needed := make(map[entities.ItemCode]bool, len(items))
	for _, item := range items {
		needed[item.ItemCode] = true
	}

	byCode := make(map[entities.ItemCode][]*entities.ProcurementOption)
	for _, o := range options {
		if needed[o.ItemCode] {
			byCode[o.ItemCode] = append(byCode[o.ItemCode], o)
		}
	}
	for code := range byCode {
		opts := byCode[code]
		sort.Slice(opts, func(i, j int) bool { return opts[i].ID < opts[j].ID })
	}
	return byCode
}

func withinWindow(periods []*entities.BudgetPeriod, window entities.DateRange) []*entities.BudgetPeriod {
	kept := make([]*entities.BudgetPeriod, 0, len(periods))
	for _, p := range periods {
		if window.Contains(p.PeriodStart) {
			kept = append(kept, p)
		}
	}
	return kept
}

func describeFilter(filter Filter) string {
	var parts []string
	if len(filter.ProjectIDs) > 0 {
		parts = append(parts, fmt.Sprintf("projects %v", filter.ProjectIDs))
	}
	if !filter.Window.Start.IsZero() || !filter.Window.End.IsZero() {
		parts = append(parts, fmt.Sprintf("window %s..%s",
			formatDate(filter.Window.Start), formatDate(filter.Window.End)))
	}
	if len(parts) == 0 {
		return ""
	}
	return " for " + strings.Join(parts, ", ")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "open"
	}
	return t.Format("2006-01-02")
}
