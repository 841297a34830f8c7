// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/circlehub/internal/app/store/audit"
	"github.com/dalemusser/circlehub/internal/app/system/reconcile"
	"go.uber.org/zap"
)

// Config holds audit logging configuration. Each field takes
// "all" (store + zap), "db" (store only), "log" (zap only) or "off".
type Config struct {
	// Sync covers reconciliation runs, card moves, echoes and AI members.
	Sync string
	// Profile covers profile edits.
	Profile string
}

// Logger records audit events to the audit store and to zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// clientIP extracts the client IP from the request. r may be nil for events
// raised by the CLI or the scheduler.
func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func userAgent(r *http.Request) string {
	if r == nil {
		return ""
	}
	return r.UserAgent()
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.CommunityID != "" {
		fields = append(fields, zap.String("community_id", event.CommunityID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event according to the category's setting.
// A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategorySync:
		setting = l.config.Sync
	case audit.CategoryProfile:
		setting = l.config.Profile
	default:
		setting = "all"
	}
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}
	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func outcome(event *audit.Event, err error) {
	event.Success = err == nil
	if err != nil {
		event.FailureReason = err.Error()
	}
}

// ReconcileRun logs a reconciliation run. userID is empty for a full run.
func (l *Logger) ReconcileRun(ctx context.Context, r *http.Request, actorID, userID string, res reconcile.Result, err error) {
	event := audit.Event{
		Category:  audit.CategorySync,
		EventType: audit.EventReconcileRun,
		ActorID:   actorID,
		IP:        clientIP(r),
		UserAgent: userAgent(r),
		Details: map[string]string{
			"communities_scanned": strconv.Itoa(res.CommunitiesScanned),
			"members_synced":      strconv.Itoa(res.MembersSynced),
			"issues_fixed":        strconv.Itoa(res.IssuesFixed),
			"chunks_committed":    strconv.Itoa(res.ChunksCommitted),
			"chunks_total":        strconv.Itoa(res.ChunksTotal),
		},
	}
	if userID != "" {
		event.Details["user_id"] = userID
	}
	outcome(&event, err)
	l.Log(ctx, event)
}

// CardMoved logs a card move attempt.
func (l *Logger) CardMoved(ctx context.Context, r *http.Request, actorID, sourceColumnID, targetColumnID, cardID string, moved bool, err error) {
	event := audit.Event{
		Category:  audit.CategorySync,
		EventType: audit.EventCardMoved,
		ActorID:   actorID,
		IP:        clientIP(r),
		UserAgent: userAgent(r),
		Details: map[string]string{
			"source_column_id": sourceColumnID,
			"target_column_id": targetColumnID,
			"card_id":          cardID,
			"moved":            strconv.FormatBool(moved),
		},
	}
	outcome(&event, err)
	l.Log(ctx, event)
}

// FormEchoed logs an echo attempt. newFormID is empty on failure.
func (l *Logger) FormEchoed(ctx context.Context, r *http.Request, actorID, sourceCommunityID, sourceFormID, targetCommunityID, newFormID string, err error) {
	event := audit.Event{
		Category:    audit.CategorySync,
		EventType:   audit.EventFormEchoed,
		ActorID:     actorID,
		CommunityID: targetCommunityID,
		IP:          clientIP(r),
		UserAgent:   userAgent(r),
		Details: map[string]string{
			"source_community_id": sourceCommunityID,
			"source_form_id":      sourceFormID,
		},
	}
	if newFormID != "" {
		event.Details["new_form_id"] = newFormID
	}
	outcome(&event, err)
	l.Log(ctx, event)
}

// AIMemberAdded logs a generated AI member joining a community.
func (l *Logger) AIMemberAdded(ctx context.Context, r *http.Request, actorID, communityID, memberName string, err error) {
	event := audit.Event{
		Category:    audit.CategorySync,
		EventType:   audit.EventAIMemberAdded,
		ActorID:     actorID,
		CommunityID: communityID,
		IP:          clientIP(r),
		UserAgent:   userAgent(r),
		Details:     map[string]string{"member_name": memberName},
	}
	outcome(&event, err)
	l.Log(ctx, event)
}

// ProfileUpdated logs a user editing their own profile.
func (l *Logger) ProfileUpdated(ctx context.Context, r *http.Request, userID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryProfile,
		EventType: audit.EventProfileUpdated,
		ActorID:   userID,
		IP:        clientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
	})
}
