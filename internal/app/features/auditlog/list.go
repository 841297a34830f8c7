// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	uierrors "github.com/dalemusser/circlehub/internal/app/features/errors"
	"github.com/dalemusser/circlehub/internal/app/store/audit"
	"github.com/dalemusser/circlehub/internal/app/system/apperr"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// eventTypes is every type the audit logger records.
var eventTypes = []string{
	audit.EventReconcileRun,
	audit.EventCardMoved,
	audit.EventFormEchoed,
	audit.EventAIMemberAdded,
	audit.EventProfileUpdated,
}

// ServeList handles GET /admin/audit. Optional query parameters:
// event_type narrows to one type, community_id to one community, limit caps
// the result (default 50, at most 500). Events are newest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	const op = "auditlog.ServeList"
	q := r.URL.Query()

	types := eventTypes
	if t := strings.TrimSpace(q.Get("event_type")); t != "" {
		if !known(t) {
			uierrors.Write(w, r, h.Log, apperr.Validation(op, "event_type", "unknown event type"))
			return
		}
		types = []string{t}
	}
	limit := defaultLimit
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			uierrors.Write(w, r, h.Log, apperr.Validation(op, "limit", "limit must be a positive integer"))
			return
		}
		limit = min(n, maxLimit)
	}
	communityID := strings.TrimSpace(q.Get("community_id"))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Scan(), h.Log, "audit log list")
	defer cancel()

	events := []audit.Event{}
	for _, t := range types {
		batch, err := h.Events.ListByType(ctx, t, 0)
		if err != nil {
			uierrors.Write(w, r, h.Log, apperr.FromStore(op, err))
			return
		}
		for _, e := range batch {
			if communityID == "" || e.CommunityID == communityID {
				events = append(events, e)
			}
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].CreatedAt.After(events[j].CreatedAt) })
	if len(events) > limit {
		events = events[:limit]
	}
	uierrors.WriteJSON(w, http.StatusOK, events)
}

func known(t string) bool {
	for _, et := range eventTypes {
		if et == t {
			return true
		}
	}
	return false
}
