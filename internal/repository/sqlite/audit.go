package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/kuvote/internal/model"
	"github.com/sakif/kuvote/internal/repository"
)

// AuditStore implements repository.AuditRepository over the audit_log table.
type AuditStore struct {
	conn *sql.DB
}

var _ repository.AuditRepository = (*AuditStore)(nil)

// maxAuditPage bounds how many entries a single List call can return.
const maxAuditPage = 100

// Append writes one audit entry. ID and CreatedAt are filled in here.
//
// Callers treat this as best-effort — the services log and swallow any error
// from Append rather than failing the action being audited.
func (s *AuditStore) Append(ctx context.Context, entry *model.AuditEntry) error {
	entry.ID = xid.New().String()
	entry.CreatedAt = time.Now().UTC()

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO audit_log (id, action, actor_email, source_ip, client, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Action,
		entry.ActorEmail,
		entry.SourceIP,
		entry.Client,
		entry.Detail,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: appending audit entry: %w", err)
	}

	return nil
}

// List returns the newest entries first, at most limit (clamped to 100).
// xid sorts chronologically, so (created_at, id) gives a stable order even
// for entries written in the same clock tick.
func (s *AuditStore) List(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	if limit <= 0 || limit > maxAuditPage {
		limit = maxAuditPage
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, action, actor_email, source_ip, client, detail, created_at
		 FROM audit_log ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing audit entries: %w", err)
	}
	defer rows.Close()

	entries := []model.AuditEntry{}
	for rows.Next() {
		var e model.AuditEntry
		err := rows.Scan(
			&e.ID,
			&e.Action,
			&e.ActorEmail,
			&e.SourceIP,
			&e.Client,
			&e.Detail,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: listing audit entries: %w", err)
	}

	return entries, nil
}
