package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ProjectID identifies a project
type ProjectID int64

// ItemCode identifies a catalog item; procurement options reference items by code
type ItemCode string

// Quantity represents an integer quantity of discrete units
type Quantity int64

// Project groups items that are procured together
type Project struct {
	ID       ProjectID
	Name     string
	Priority int // 1 (lowest) .. 10 (highest)
	Active   bool
}

// NewProject creates a validated Project
func NewProject(id ProjectID, name string, priority int, active bool) (*Project, error) {
	if id <= 0 {
		return nil, fmt.Errorf("project id must be positive, got %d", id)
	}
	if priority < 1 || priority > 10 {
		return nil, fmt.Errorf("project priority must be between 1 and 10, got %d", priority)
	}
	return &Project{ID: id, Name: name, Priority: priority, Active: active}, nil
}

// DeliveryOption is one acceptable delivery date for an item along with its revenue
type DeliveryOption struct {
	DeliveryDate      time.Time
	InvoiceOffsetDays int // days after delivery the customer is invoiced
	RevenuePerUnit    decimal.Decimal
}

// ProjectItem is a line of demand within a project
type ProjectItem struct {
	ID              int64
	ProjectID       ProjectID
	ItemCode        ItemCode
	Description     string
	Quantity        Quantity
	DeliveryOptions []DeliveryOption
}

// NewProjectItem creates a validated ProjectItem
func NewProjectItem(
	id int64,
	projectID ProjectID,
	itemCode ItemCode,
	description string,
	quantity Quantity,
	deliveryOptions []DeliveryOption,
) (*ProjectItem, error) {
	if projectID <= 0 {
		return nil, fmt.Errorf("project id must be positive, got %d", projectID)
	}
	if itemCode == "" {
		return nil, fmt.Errorf("item code cannot be empty")
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	for _, opt := range deliveryOptions {
		if opt.RevenuePerUnit.IsNegative() {
			return nil, fmt.Errorf("revenue per unit cannot be negative, got %s", opt.RevenuePerUnit)
		}
	}
	return &ProjectItem{
		ID:              id,
		ProjectID:       projectID,
		ItemCode:        itemCode,
		Description:     description,
		Quantity:        quantity,
		DeliveryOptions: deliveryOptions,
	}, nil
}

// Ref returns the (project, item) identity of this item
func (i *ProjectItem) Ref() ItemRef {
	return ItemRef{ProjectID: i.ProjectID, ItemCode: i.ItemCode}
}

// FirstDeliveryOption returns the first delivery option, if any
func (i *ProjectItem) FirstDeliveryOption() (DeliveryOption, bool) {
	if len(i.DeliveryOptions) == 0 {
		return DeliveryOption{}, false
	}
	return i.DeliveryOptions[0], true
}

// ItemRef identifies an item within a project
type ItemRef struct {
	ProjectID ProjectID
	ItemCode  ItemCode
}

func (r ItemRef) String() string {
	return fmt.Sprintf("%d/%s", r.ProjectID, r.ItemCode)
}
