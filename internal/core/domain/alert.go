package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AlertType classifies an alert for dashboard presentation.
type AlertType string

const (
	AlertWarning AlertType = "warning"
	AlertError   AlertType = "error"
	AlertInfo    AlertType = "info"
	AlertSuccess AlertType = "success"
)

// Alert is synthesized by the hub when a domain event crosses a threshold.
// Alerts are delivered at most once per triggering event and are not
// persisted here; durable alert history is an external concern.
type Alert struct {
	ID        string    `json:"id"`
	Type      AlertType `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	SubjectID string    `json:"subjectId,omitempty"`
}

// NewMaintenanceDueAlert flags a piece of equipment whose status update
// reported maintenance as due.
func NewMaintenanceDueAlert(equipmentID string, now time.Time) Alert {
	return Alert{
		ID:        uuid.NewString(),
		Type:      AlertWarning,
		Title:     "Maintenance due",
		Message:   fmt.Sprintf("Equipment %s is due for maintenance", equipmentID),
		Timestamp: now,
		SubjectID: equipmentID,
	}
}

// NewLowStockAlert flags an inventory item at or below its reorder point.
func NewLowStockAlert(p InventoryUpdatePayload, now time.Time) Alert {
	name := p.Name
	if name == "" {
		name = p.ItemID
	}
	return Alert{
		ID:        uuid.NewString(),
		Type:      AlertWarning,
		Title:     "Low stock",
		Message:   fmt.Sprintf("%s is low on stock (%d remaining)", name, p.Quantity),
		Timestamp: now,
		SubjectID: p.ItemID,
	}
}

// NewSafetyAlert wraps a safety notification for the dashboard. Severity
// "critical" maps to an error alert, everything else to a warning.
func NewSafetyAlert(p SafetyAlertPayload, now time.Time) Alert {
	alertType := AlertWarning
	if p.Severity == "critical" {
		alertType = AlertError
	}
	return Alert{
		ID:        uuid.NewString(),
		Type:      alertType,
		Title:     "Safety alert",
		Message:   p.Message,
		Timestamp: now,
		SubjectID: p.EquipmentID,
	}
}
