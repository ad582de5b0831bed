package services

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/vsinha/procure/pkg/domain/entities"
)

// ItemCodeComparator orders item codes with numeric-aware sorting, so "PUMP-9" precedes "PUMP-10"
type ItemCodeComparator struct {
	codePattern *regexp.Regexp
}

// NewItemCodeComparator creates a new comparator with the default pattern
func NewItemCodeComparator() *ItemCodeComparator {
	// Matches codes like PUMP-10, VALVE7, AB_003
	pattern := regexp.MustCompile(`^(.*?)(\d+)$`)
	return &ItemCodeComparator{
		codePattern: pattern,
	}
}

// Compare compares two item codes.
// Returns: -1 if a < b, 0 if equal, 1 if a > b
func (c *ItemCodeComparator) Compare(a, b entities.ItemCode) int {
	if a == b {
		return 0
	}

	prefixA, numA, errA := c.parseCode(a)
	prefixB, numB, errB := c.parseCode(b)

	// Codes without a numeric suffix fall back to plain string order
	if errA != nil || errB != nil {
		return strings.Compare(string(a), string(b))
	}

	if prefixA != prefixB {
		return strings.Compare(prefixA, prefixB)
	}

	if numA < numB {
		return -1
	} else if numA > numB {
		return 1
	}
	// Same number with different zero padding
	return strings.Compare(string(a), string(b))
}

// parseCode splits an item code into prefix and numeric suffix
func (c *ItemCodeComparator) parseCode(code entities.ItemCode) (string, int, error) {
	matches := c.codePattern.FindStringSubmatch(string(code))
	if len(matches) != 3 {
		return "", 0, fmt.Errorf("item code has no numeric suffix: %s", code)
	}

	num, err := strconv.Atoi(matches[2])
	if err != nil {
		return "", 0, fmt.Errorf("invalid numeric portion in item code %s: %v", code, err)
	}

	return matches[1], num, nil
}

// SortItems orders items by project, then item code
func (c *ItemCodeComparator) SortItems(items []*entities.ProjectItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].ProjectID != items[j].ProjectID {
			return items[i].ProjectID < items[j].ProjectID
		}
		return c.Compare(items[i].ItemCode, items[j].ItemCode) < 0
	})
}

// SortDecisions orders decisions by purchase slot, project, then item code
func (c *ItemCodeComparator) SortDecisions(decisions []entities.Decision) {
	sort.SliceStable(decisions, func(i, j int) bool {
		if decisions[i].PurchaseSlot != decisions[j].PurchaseSlot {
			return decisions[i].PurchaseSlot < decisions[j].PurchaseSlot
		}
		if decisions[i].ProjectID != decisions[j].ProjectID {
			return decisions[i].ProjectID < decisions[j].ProjectID
		}
		return c.Compare(decisions[i].ItemCode, decisions[j].ItemCode) < 0
	})
}
