package client

import (
	"encoding/json"
	"time"
)

// Snapshot mirrors the dashboard-update payload pushed by the hub. The
// client keeps a read-only cached copy of the last one it received.
type Snapshot struct {
	Inventory struct {
		TotalItems int64   `json:"totalItems"`
		LowStock   int64   `json:"lowStock"`
		OutOfStock int64   `json:"outOfStock"`
		TotalValue float64 `json:"totalValue"`
	} `json:"inventory"`
	Rental struct {
		ActiveRentals  int64   `json:"activeRentals"`
		OverdueRentals int64   `json:"overdueRentals"`
		UtilizationPct float64 `json:"utilizationPct"`
		MonthlyRevenue float64 `json:"monthlyRevenue"`
	} `json:"rental"`
	Finance struct {
		Revenue             float64 `json:"revenue"`
		Expenses            float64 `json:"expenses"`
		NetChange           float64 `json:"netChange"`
		OutstandingInvoices int64   `json:"outstandingInvoices"`
	} `json:"finance"`
	HR struct {
		ActiveEmployees int64 `json:"activeEmployees"`
		OnLeave         int64 `json:"onLeave"`
		OpenPositions   int64 `json:"openPositions"`
	} `json:"hr"`
	Maintenance struct {
		OpenWorkOrders    int64 `json:"openWorkOrders"`
		OverdueWorkOrders int64 `json:"overdueWorkOrders"`
		ScheduledThisWeek int64 `json:"scheduledThisWeek"`
	} `json:"maintenance"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Alert mirrors the alert payload pushed to the dashboard room.
type Alert struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	SubjectID string    `json:"subjectId,omitempty"`
}

// serverMessage is the wire envelope for hub-to-client pushes.
type serverMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// clientMessage is the wire envelope for client-to-hub messages.
type clientMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Server event types understood by the manager.
const (
	eventDashboardUpdate = "dashboard-update"
	eventAlert           = "alert"
	eventPing            = "ping"
	msgPong              = "pong"
)
