// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"time"

	uierrors "github.com/dalemusser/organigram/internal/app/features/errors"
	"github.com/dalemusser/organigram/internal/app/store/audit"
	"github.com/dalemusser/organigram/internal/app/system/locale"
	"github.com/dalemusser/organigram/internal/app/system/normalize"
	"github.com/dalemusser/organigram/internal/app/system/paging"
	"github.com/dalemusser/organigram/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeList handles GET /api/admin/audit. Query parameters:
// category, event_type, node_id, user_id, start_date, end_date (YYYY-MM-DD)
// and page.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := normalize.QueryParam(q.Get("category"))
	eventType := normalize.QueryParam(q.Get("event_type"))

	page := paging.ParsePage(r)

	filter := audit.QueryFilter{
		Category:  category,
		EventType: eventType,
		Limit:     paging.PageSize,
		Offset:    paging.Offset(page),
	}

	if raw := normalize.QueryParam(q.Get("node_id")); raw != "" {
		oid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			h.ErrLog.LogBadRequest(w, r, "bad node_id", err, locale.MsgInvalidPayload)
			return
		}
		filter.NodeID = &oid
	}
	if raw := normalize.QueryParam(q.Get("user_id")); raw != "" {
		oid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			h.ErrLog.LogBadRequest(w, r, "bad user_id", err, locale.MsgInvalidPayload)
			return
		}
		filter.UserID = &oid
	}

	if s := normalize.QueryParam(q.Get("start_date")); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			filter.StartTime = &t
		}
	}
	if s := normalize.QueryParam(q.Get("end_date")); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			// End of day
			endOfDay := t.Add(24*time.Hour - time.Second)
			filter.EndTime = &endOfDay
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "failed to query audit events", err)
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "failed to count audit events", err)
		return
	}

	// Collect unique user IDs for name resolution
	userIDs := make(map[primitive.ObjectID]struct{})
	for _, e := range events {
		if e.ActorID != nil {
			userIDs[*e.ActorID] = struct{}{}
		}
		if e.UserID != nil {
			userIDs[*e.UserID] = struct{}{}
		}
	}

	userNames := make(map[primitive.ObjectID]string)
	if len(userIDs) > 0 {
		ids := make([]primitive.ObjectID, 0, len(userIDs))
		for id := range userIDs {
			ids = append(ids, id)
		}
		users, err := h.Users.GetByIDs(ctx, ids)
		if err != nil {
			h.Log.Warn("failed to fetch user names for audit log", zap.Error(err))
		} else {
			for _, u := range users {
				userNames[u.ID] = u.Username
			}
		}
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:            e.ID.Hex(),
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		}
		if e.ActorID != nil {
			item.ActorID = e.ActorID.Hex()
			item.ActorName = nameOr(userNames, *e.ActorID)
		}
		if e.UserID != nil {
			item.TargetID = e.UserID.Hex()
			item.TargetName = nameOr(userNames, *e.UserID)
		}
		if e.NodeID != nil {
			item.NodeID = e.NodeID.Hex()
		}
		items = append(items, item)
	}

	uierrors.WriteJSON(w, http.StatusOK, listResponse{
		Items:  items,
		Result: paging.Compute(page, total),
	})
}

// ServeCategories handles GET /api/admin/audit/categories.
func (h *Handler) ServeCategories(w http.ResponseWriter, r *http.Request) {
	uierrors.WriteJSON(w, http.StatusOK, allCategories())
}

func nameOr(names map[primitive.ObjectID]string, id primitive.ObjectID) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id.Hex()
}
