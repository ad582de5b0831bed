package entities

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// TimeSlot is a 1-based index of a discretized budget period, ordered chronologically
type TimeSlot int

// BudgetPeriod holds the available amount per currency for one period.
// Currencies are never converted or merged.
type BudgetPeriod struct {
	ID          int64
	PeriodStart time.Time
	Amounts     map[CurrencyCode]decimal.Decimal
}

// NewBudgetPeriod creates a validated BudgetPeriod
func NewBudgetPeriod(id int64, periodStart time.Time, amounts map[CurrencyCode]decimal.Decimal) (*BudgetPeriod, error) {
	if periodStart.IsZero() {
		return nil, fmt.Errorf("budget period start cannot be empty")
	}
	for currency := range amounts {
		if currency == "" {
			return nil, fmt.Errorf("budget currency cannot be empty")
		}
	}
	return &BudgetPeriod{ID: id, PeriodStart: periodStart, Amounts: amounts}, nil
}

// BudgetEntry is the budget available for one (slot, currency) pair
type BudgetEntry struct {
	Slot  TimeSlot
	Limit Money
}

// Calendar maps time slots to dates. Slot k (1-based) starts on the k-th budget period;
// slots outside the known periods are extrapolated by SlotLengthDays.
type Calendar struct {
	starts         []time.Time
	slotLengthDays int
}

// NewCalendar creates a calendar from chronologically distinct period starts
func NewCalendar(periodStarts []time.Time, slotLengthDays int) (*Calendar, error) {
	if len(periodStarts) == 0 {
		return nil, fmt.Errorf("calendar needs at least one period")
	}
	if slotLengthDays <= 0 {
		return nil, fmt.Errorf("slot length must be positive, got %d", slotLengthDays)
	}

	starts := make([]time.Time, len(periodStarts))
	copy(starts, periodStarts)
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	for i := 1; i < len(starts); i++ {
		if starts[i].Equal(starts[i-1]) {
			return nil, fmt.Errorf("duplicate budget period start %s", starts[i].Format("2006-01-02"))
		}
	}

	return &Calendar{starts: starts, slotLengthDays: slotLengthDays}, nil
}

// Len returns the number of slots backed by budget periods
func (c *Calendar) Len() int {
	return len(c.starts)
}

// SlotLengthDays returns the nominal slot length used for lead times and extrapolation
func (c *Calendar) SlotLengthDays() int {
	return c.slotLengthDays
}

// Date returns the start date of a slot
func (c *Calendar) Date(slot TimeSlot) time.Time {
	n := TimeSlot(len(c.starts))
	switch {
	case slot < 1:
		return c.starts[0].AddDate(0, 0, int(slot-1)*c.slotLengthDays)
	case slot > n:
		return c.starts[n-1].AddDate(0, 0, int(slot-n)*c.slotLengthDays)
	default:
		return c.starts[slot-1]
	}
}

// SlotOf returns the slot whose period contains date, or 0 when date precedes the first period.
// Dates after the last period start belong to the last slot.
func (c *Calendar) SlotOf(date time.Time) TimeSlot {
	idx := sort.Search(len(c.starts), func(i int) bool { return c.starts[i].After(date) })
	return TimeSlot(idx)
}

// LeadTimeSlots converts a lead time in days to whole slots, rounding up
func (c *Calendar) LeadTimeSlots(days int) int {
	if days <= 0 {
		return 0
	}
	return (days + c.slotLengthDays - 1) / c.slotLengthDays
}

// DateRange is an optional inclusive date window; zero bounds are open
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies in the range
func (r DateRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}
