package sqlite

import (
	"context"
	"fmt"
	"testing"

	"github.com/sakif/kuvote/internal/model"
)

func TestAuditAppendAndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := &model.AuditEntry{
		Action:     model.AuditRegister,
		ActorEmail: "a@ku.th",
		SourceIP:   "10.1.2.3",
		Client:     "test-agent",
	}
	if err := db.AuditLog().Append(ctx, first); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if first.ID == "" || first.CreatedAt.IsZero() {
		t.Fatal("Append did not assign ID and CreatedAt")
	}

	second := &model.AuditEntry{Action: model.AuditLoginSuccess, ActorEmail: "a@ku.th"}
	if err := db.AuditLog().Append(ctx, second); err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries, err := db.AuditLog().List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Action != model.AuditLoginSuccess || entries[1].Action != model.AuditRegister {
		t.Errorf("order = [%s, %s], want newest first", entries[0].Action, entries[1].Action)
	}
	if entries[1].SourceIP != "10.1.2.3" || entries[1].Client != "test-agent" {
		t.Errorf("requester fields did not round-trip: %+v", entries[1])
	}
}

func TestAuditList_LimitClamp(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < maxAuditPage+10; i++ {
		entry := &model.AuditEntry{
			Action:     model.AuditLoginFailed,
			ActorEmail: fmt.Sprintf("u%d@ku.th", i),
		}
		if err := db.AuditLog().Append(ctx, entry); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	tests := []struct {
		limit int
		want  int
	}{
		{5, 5},
		{0, maxAuditPage},                 // zero means "the page"
		{-3, maxAuditPage},                // nonsense means "the page"
		{maxAuditPage + 50, maxAuditPage}, // never more than the page
	}
	for _, tt := range tests {
		entries, err := db.AuditLog().List(ctx, tt.limit)
		if err != nil {
			t.Fatalf("List(%d): %v", tt.limit, err)
		}
		if len(entries) != tt.want {
			t.Errorf("List(%d) returned %d entries, want %d", tt.limit, len(entries), tt.want)
		}
	}
}
