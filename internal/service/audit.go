package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/sakif/kuvote/internal/model"
	"github.com/sakif/kuvote/internal/repository"
)

// Requester carries the request metadata that goes into audit entries.
// Handlers fill it from the HTTP request (client IP, User-Agent); services
// never touch *http.Request themselves.
type Requester struct {
	SourceIP string
	Client   string
}

// Auditor records security-relevant events, best-effort.
//
// BEST-EFFORT MEANS BEST-EFFORT:
// A failed audit write is logged locally and then forgotten. It never
// propagates to the caller and never rolls back the action it describes —
// a vote that was cast stays cast even if the log insert failed.
type Auditor struct {
	repo   repository.AuditRepository
	logger *slog.Logger
}

// NewAuditor creates an Auditor.
func NewAuditor(repo repository.AuditRepository, logger *slog.Logger) *Auditor {
	return &Auditor{repo: repo, logger: logger}
}

// Record appends one entry. detail (may be nil) is serialized to JSON.
//
// context.WithoutCancel: if the client disconnected right after the primary
// write, the audit entry should still land, so the append is detached from
// the request's cancellation while keeping its values.
func (a *Auditor) Record(ctx context.Context, action, actorEmail string, req Requester, detail any) {
	entry := &model.AuditEntry{
		Action:     action,
		ActorEmail: actorEmail,
		SourceIP:   req.SourceIP,
		Client:     req.Client,
	}

	if detail != nil {
		payload, err := json.Marshal(detail)
		if err != nil {
			a.logger.Warn("audit detail not serializable",
				slog.String("action", action),
				slog.String("error", err.Error()),
			)
		} else {
			entry.Detail = string(payload)
		}
	}

	if err := a.repo.Append(context.WithoutCancel(ctx), entry); err != nil {
		a.logger.Warn("audit write failed",
			slog.String("action", action),
			slog.String("actor", actorEmail),
			slog.String("error", err.Error()),
		)
	}
}
