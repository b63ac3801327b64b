package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/operalog/api/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventReportCreated EventType = "report_created"
	EventReportUpdated EventType = "report_updated"
	EventReportDeleted EventType = "report_deleted"
	EventShipCreated   EventType = "ship_created"
	EventShipUpdated   EventType = "ship_updated"
	EventShipDeleted   EventType = "ship_deleted"
	EventShipLoggedIn  EventType = "ship_logged_in"
)

// AllEventTypes lists every event type, for subscribers interested in all of them.
var AllEventTypes = []EventType{
	EventReportCreated,
	EventReportUpdated,
	EventReportDeleted,
	EventShipCreated,
	EventShipUpdated,
	EventShipDeleted,
	EventShipLoggedIn,
}

// Actor identifies the principal that caused an event.
type Actor struct {
	Type domain.PrincipalType `json:"type"`
	ID   int64                `json:"id"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	ResourceID int64     `json:"resource_id"`
	Actor      Actor     `json:"actor"`
	Timestamp  time.Time `json:"timestamp"`
	Payload    any       `json:"payload,omitempty"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, resourceID int64, actor Actor, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		ResourceID: resourceID,
		Actor:      actor,
		Timestamp:  time.Now().UTC(),
		Payload:    payload,
	}
}

// ReportPayload describes a created or deleted report.
type ReportPayload struct {
	ShipID     int64    `json:"ship_id"`
	ReportDate string   `json:"report_date"`
	GoConsumed *float64 `json:"go_consumed,omitempty"`
}

// ReportUpdatedPayload lists the columns a partial update touched.
type ReportUpdatedPayload struct {
	ShipID int64    `json:"ship_id"`
	Fields []string `json:"fields"`
}

// ShipPayload describes a ship lifecycle change.
type ShipPayload struct {
	Name     string   `json:"name"`
	Username string   `json:"username"`
	Fields   []string `json:"fields,omitempty"`
}
