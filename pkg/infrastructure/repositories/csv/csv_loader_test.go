package csv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/procure/pkg/domain/entities"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func writeScenario(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, ProjectsFile, `id,name,priority,active
1,Alpha,8,true
2,Beta,3,
`)
	writeFile(t, dir, ItemsFile, `id,project_id,item_code,description,quantity
10,1,PUMP-1,Feed pump,2
11,2,VALVE-2,Gate valve,1
`)
	writeFile(t, dir, DeliveryOptionsFile, `item_id,delivery_date,invoice_offset_days,revenue_per_unit
10,2025-03-01,30,1200
10,2025-04-01,,1100
`)
	writeFile(t, dir, OptionsFile, `id,item_code,supplier_name,cost,currency,shipping_cost,lead_time_days,bundle_threshold,bundle_discount_percent,payment_terms,quoted_delivery_date,finalized,active
100,PUMP-1,Acme,500,eur,10,14,2,5,cash:2,,true,true
101,PUMP-1,Beta,450,USD,,21,,,installments:0=30;30=70,2025-03-15,true,false
102,VALVE-2,Gamma,80,EUR,0,7,,,cash,,,
`)
	writeFile(t, dir, BudgetsFile, `period_start,currency,amount
2025-01-01,EUR,1000
2025-01-01,USD,500
2025-02-01,EUR,800
`)
	return dir
}

func TestLoader_LoadDirectory(t *testing.T) {
	snapshot, err := NewLoader().LoadDirectory(writeScenario(t))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(snapshot.Projects) != 2 {
		t.Fatalf("Expected 2 projects, got %d", len(snapshot.Projects))
	}
	if !snapshot.Projects[1].Active {
		t.Error("Expected empty active flag to default to true")
	}

	if len(snapshot.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(snapshot.Items))
	}
	pump := snapshot.Items[0]
	if len(pump.DeliveryOptions) != 2 {
		t.Fatalf("Expected 2 delivery options for PUMP-1, got %d", len(pump.DeliveryOptions))
	}
	if pump.DeliveryOptions[0].InvoiceOffsetDays != 30 {
		t.Errorf("Expected invoice offset 30, got %d", pump.DeliveryOptions[0].InvoiceOffsetDays)
	}
	if len(snapshot.Items[1].DeliveryOptions) != 0 {
		t.Errorf("Expected VALVE-2 to have no delivery options, got %d", len(snapshot.Items[1].DeliveryOptions))
	}

	if len(snapshot.Options) != 3 {
		t.Fatalf("Expected 3 options, got %d", len(snapshot.Options))
	}
	acme := snapshot.Options[0]
	if acme.Cost.Currency() != "EUR" {
		t.Errorf("Expected currency to be upper-cased to EUR, got %s", acme.Cost.Currency())
	}
	if acme.BundleThreshold != 2 || !acme.BundleDiscountPercent.Equal(decimal.NewFromInt(5)) {
		t.Errorf("Expected bundle 2 @ 5%%, got %d @ %s", acme.BundleThreshold, acme.BundleDiscountPercent)
	}
	if acme.PaymentTerms.Summary() != "CASH 2% discount" {
		t.Errorf("Expected 'CASH 2%% discount', got '%s'", acme.PaymentTerms.Summary())
	}

	beta := snapshot.Options[1]
	if beta.Active {
		t.Error("Expected option 101 to be inactive")
	}
	if beta.QuotedDeliveryDate == nil || beta.QuotedDeliveryDate.Format(dateLayout) != "2025-03-15" {
		t.Errorf("Expected quoted delivery 2025-03-15, got %v", beta.QuotedDeliveryDate)
	}
	if _, ok := beta.PaymentTerms.(entities.InstallmentTerms); !ok {
		t.Errorf("Expected installment terms, got %T", beta.PaymentTerms)
	}

	if len(snapshot.Budgets) != 2 {
		t.Fatalf("Expected budgets grouped into 2 periods, got %d", len(snapshot.Budgets))
	}
	if len(snapshot.Budgets[0].Amounts) != 2 {
		t.Errorf("Expected 2 currencies in first period, got %d", len(snapshot.Budgets[0].Amounts))
	}

	if len(snapshot.Decisions) != 0 {
		t.Errorf("Expected no decisions without decisions.csv, got %d", len(snapshot.Decisions))
	}
}

func TestLoader_LoadDecisions(t *testing.T) {
	dir := writeScenario(t)
	writeFile(t, dir, DecisionsFile, `project_id,item_code,option_id,status
1,PUMP-1,100,locked
`)

	snapshot, err := NewLoader().LoadDirectory(dir)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(snapshot.Decisions) != 1 {
		t.Fatalf("Expected 1 decision, got %d", len(snapshot.Decisions))
	}
	if snapshot.Decisions[0].Status != entities.DecisionLocked {
		t.Errorf("Expected LOCKED, got %s", snapshot.Decisions[0].Status)
	}
}

func TestLoader_Errors(t *testing.T) {
	testCases := []struct {
		name        string
		file        string
		content     string
		expectError string
	}{
		{
			"header mismatch",
			ProjectsFile,
			"id,title,priority,active\n1,Alpha,5,true\n",
			"projects CSV header mismatch",
		},
		{
			"wrong column count",
			ItemsFile,
			"id,project_id,item_code,description,quantity\n10,1,PUMP-1,2\n",
			"items CSV row 2: expected 5 columns, got 4",
		},
		{
			"invalid priority",
			ProjectsFile,
			"id,name,priority,active\n1,Alpha,high,true\n",
			"projects CSV row 2: invalid priority: high",
		},
		{
			"priority out of range",
			ProjectsFile,
			"id,name,priority,active\n1,Alpha,11,true\n",
			"project priority must be between 1 and 10",
		},
		{
			"malformed payment terms",
			OptionsFile,
			"id,item_code,supplier_name,cost,currency,shipping_cost,lead_time_days,bundle_threshold,bundle_discount_percent,payment_terms,quoted_delivery_date,finalized,active\n" +
				"100,PUMP-1,Acme,500,EUR,0,14,,,barter,,true,true\n",
			"options CSV row 2",
		},
		{
			"bad budget date",
			BudgetsFile,
			"period_start,currency,amount\n01/02/2025,EUR,100\n",
			"invalid period_start format",
		},
		{
			"duplicate budget",
			BudgetsFile,
			"period_start,currency,amount\n2025-01-01,EUR,100\n2025-01-01,eur,200\n",
			"duplicate EUR budget",
		},
		{
			"bad decision status",
			DecisionsFile,
			"project_id,item_code,option_id,status\n1,PUMP-1,100,MAYBE\n",
			"invalid status: MAYBE",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := writeScenario(t)
			writeFile(t, dir, tc.file, tc.content)

			_, err := NewLoader().LoadDirectory(dir)
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			if !strings.Contains(err.Error(), tc.expectError) {
				t.Errorf("Expected error containing '%s', got '%s'", tc.expectError, err.Error())
			}
		})
	}
}

func TestLoader_MissingRequiredFile(t *testing.T) {
	dir := writeScenario(t)
	if err := os.Remove(filepath.Join(dir, OptionsFile)); err != nil {
		t.Fatalf("Failed to remove options file: %v", err)
	}
	if _, err := NewLoader().LoadDirectory(dir); err == nil {
		t.Error("Expected error when options.csv is missing")
	}
}
