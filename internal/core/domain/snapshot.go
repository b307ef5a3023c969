package domain

import (
	"fmt"
	"math"
	"time"
)

// InventoryMetrics summarizes the inventory ledger for the dashboard.
type InventoryMetrics struct {
	TotalItems int64   `json:"totalItems"`
	LowStock   int64   `json:"lowStock"`
	OutOfStock int64   `json:"outOfStock"`
	TotalValue float64 `json:"totalValue"`
}

// RentalMetrics summarizes the equipment rental book.
type RentalMetrics struct {
	ActiveRentals  int64   `json:"activeRentals"`
	OverdueRentals int64   `json:"overdueRentals"`
	UtilizationPct float64 `json:"utilizationPct"`
	MonthlyRevenue float64 `json:"monthlyRevenue"`
}

// FinanceMetrics summarizes the finance ledger. NetChange is the one
// signed field in the snapshot; everything else must be non-negative.
type FinanceMetrics struct {
	Revenue             float64 `json:"revenue"`
	Expenses            float64 `json:"expenses"`
	NetChange           float64 `json:"netChange"`
	OutstandingInvoices int64   `json:"outstandingInvoices"`
}

// HRMetrics summarizes the HR records.
type HRMetrics struct {
	ActiveEmployees int64 `json:"activeEmployees"`
	OnLeave         int64 `json:"onLeave"`
	OpenPositions   int64 `json:"openPositions"`
}

// MaintenanceMetrics summarizes the maintenance work-order queue.
type MaintenanceMetrics struct {
	OpenWorkOrders    int64 `json:"openWorkOrders"`
	OverdueWorkOrders int64 `json:"overdueWorkOrders"`
	ScheduledThisWeek int64 `json:"scheduledThisWeek"`
}

// DashboardSnapshot is one complete cross-domain metrics payload. A new
// value is produced per aggregation tick; it is never mutated in place.
type DashboardSnapshot struct {
	Inventory   InventoryMetrics   `json:"inventory"`
	Rental      RentalMetrics      `json:"rental"`
	Finance     FinanceMetrics     `json:"finance"`
	HR          HRMetrics          `json:"hr"`
	Maintenance MaintenanceMetrics `json:"maintenance"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

// Validate checks that every numeric field is finite and non-negative,
// with the exception of the signed finance delta.
func (s DashboardSnapshot) Validate() error {
	counts := map[string]int64{
		"inventory.totalItems":          s.Inventory.TotalItems,
		"inventory.lowStock":            s.Inventory.LowStock,
		"inventory.outOfStock":          s.Inventory.OutOfStock,
		"rental.activeRentals":          s.Rental.ActiveRentals,
		"rental.overdueRentals":         s.Rental.OverdueRentals,
		"finance.outstandingInvoices":   s.Finance.OutstandingInvoices,
		"hr.activeEmployees":            s.HR.ActiveEmployees,
		"hr.onLeave":                    s.HR.OnLeave,
		"hr.openPositions":              s.HR.OpenPositions,
		"maintenance.openWorkOrders":    s.Maintenance.OpenWorkOrders,
		"maintenance.overdueWorkOrders": s.Maintenance.OverdueWorkOrders,
		"maintenance.scheduledThisWeek": s.Maintenance.ScheduledThisWeek,
	}
	for field, v := range counts {
		if v < 0 {
			return fmt.Errorf("snapshot field %s is negative: %d", field, v)
		}
	}

	unsigned := map[string]float64{
		"inventory.totalValue":  s.Inventory.TotalValue,
		"rental.utilizationPct": s.Rental.UtilizationPct,
		"rental.monthlyRevenue": s.Rental.MonthlyRevenue,
		"finance.revenue":       s.Finance.Revenue,
		"finance.expenses":      s.Finance.Expenses,
	}
	for field, v := range unsigned {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("snapshot field %s is not finite", field)
		}
		if v < 0 {
			return fmt.Errorf("snapshot field %s is negative: %f", field, v)
		}
	}

	if math.IsNaN(s.Finance.NetChange) || math.IsInf(s.Finance.NetChange, 0) {
		return fmt.Errorf("snapshot field finance.netChange is not finite")
	}

	return nil
}
