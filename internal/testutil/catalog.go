// Package testutil holds fixtures and helpers shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SalesCatalog is a small FoodMart-style catalog with inline members.
//
// The Store hierarchy holds, in pre-order:
//
//	All Stores
//	  USA
//	    CA: Los Angeles, San Francisco
//	    WA: Seattle, Spokane
//	  Canada
//	    BC: Vancouver
const SalesCatalog = `
catalogs:
  - name: FoodMart
    description: FoodMart sample catalog
    roles: [analyst, manager]
    schemas:
      - name: FoodMart
        cubes:
          - name: Sales
            caption: Sales Cube
            dimensions:
              - name: Store
                hierarchies:
                  - all_member_name: All Stores
                    levels:
                      - name: Store Country
                      - name: Store State
                      - name: Store City
                        unique_members: false
                    members:
                      - name: USA
                        children:
                          - name: CA
                            children:
                              - name: Los Angeles
                              - name: San Francisco
                          - name: WA
                            children:
                              - name: Seattle
                              - name: Spokane
                      - name: Canada
                        children:
                          - name: BC
                            children:
                              - name: Vancouver
              - name: Time
                type: time
                hierarchies:
                  - has_all: false
                    levels:
                      - name: Year
                        type: time_years
                      - name: Quarter
                        type: time_quarters
                    members:
                      - name: "1997"
                        children:
                          - name: Q1
                          - name: Q2
                      - name: "1998"
                        children:
                          - name: Q1
              - name: Product
                description: Products sold
                hierarchies:
                  - levels:
                      - name: Product Family
                    members:
                      - name: Drink
                      - name: Food
                      - name: Non-Consumable
                        hidden: true
                  - name: Brand
                    levels:
                      - name: Brand Name
                    members:
                      - name: Best Choice
                      - name: Golden
            measures:
              - name: Unit Sales
                aggregator: sum
                data_type: Numeric
                format_string: Standard
              - name: Profit
                formula: "[Measures].[Store Sales] - [Measures].[Store Cost]"
                format_string: "$#,##0.00"
              - name: Store Sales
                aggregator: sum
                data_type: Numeric
                format_string: "#,###.00"
              - name: Sales Count
                aggregator: count
                data_type: Integer
              - name: Internal Cost
                hidden: true
            sets:
              - name: Top Stores
                caption: Best stores
                formula: "TopCount([Store].[Store City].Members, 5)"
          - name: Warehouse
            description: Warehouse inventory
            dimensions:
              - name: Warehouse
                hierarchies:
                  - levels:
                      - name: Country
                    members:
                      - name: USA
            measures:
              - name: Units Shipped
                aggregator: sum
                data_type: Integer
`

// WriteFile writes content to name inside a fresh temp directory and
// returns the file path.
func WriteFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
