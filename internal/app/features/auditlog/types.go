// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/organigram/internal/app/store/audit"
	"github.com/dalemusser/organigram/internal/app/system/paging"
)

// listItem is a single audit event as returned by the API, with actor
// and target names resolved.
type listItem struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"eventType"`
	ActorID       string            `json:"actorId,omitempty"`
	ActorName     string            `json:"actorName,omitempty"` // resolved from ActorID
	TargetID      string            `json:"targetId,omitempty"`
	TargetName    string            `json:"targetName,omitempty"` // resolved from UserID
	NodeID        string            `json:"nodeId,omitempty"`
	IP            string            `json:"ip"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failureReason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

// listResponse is the body of GET /api/admin/audit.
type listResponse struct {
	Items []listItem `json:"items"`
	paging.Result
}

// categoryOption represents a category for the filter dropdown.
type categoryOption struct {
	Value      string   `json:"value"`
	Label      string   `json:"label"`
	EventTypes []string `json:"eventTypes"`
}

// allCategories returns the available categories for filtering.
func allCategories() []categoryOption {
	return []categoryOption{
		{Value: audit.CategoryAuth, Label: "Authentication", EventTypes: eventTypesForCategory(audit.CategoryAuth)},
		{Value: audit.CategoryOrgChart, Label: "Org chart", EventTypes: eventTypesForCategory(audit.CategoryOrgChart)},
	}
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventUserRegistered,
		audit.EventLoginSuccess,
		audit.EventLoginFailedUserNotFound,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginFailedRateLimit,
		audit.EventLogout,
	}

	orgEvents := []string{
		audit.EventNodeCreated,
		audit.EventNodeUpdated,
		audit.EventNodeDeleted,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryOrgChart:
		return orgEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(orgEvents))
		all = append(all, authEvents...)
		all = append(all, orgEvents...)
		return all
	default:
		return nil
	}
}
