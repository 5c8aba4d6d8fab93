package service

// Shared in-memory fakes for the service tests. Fakes instead of a mock
// framework, matching the repository interfaces closely enough that the
// services can't tell the difference — including the conditional-write
// semantics of MarkVoted, which the concurrency tests depend on.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sakif/kuvote/internal/apperror"
	"github.com/sakif/kuvote/internal/auth"
	"github.com/sakif/kuvote/internal/model"
	"github.com/sakif/kuvote/internal/repository"
)

// ---------------------------------------------------------------------------
// fakeUserRepo

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*model.User // keyed by internal ID
	nextID int

	// set to simulate store failures
	createErr error
	deleteErr error

	deleted []string // IDs passed to Delete, in order
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User), nextID: 1}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.Conflict("email already registered")
		}
	}
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	user.CreatedAt = time.Now()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user")
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user")
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) MarkVerified(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user")
	}
	if u.IsVerified {
		return apperror.ValidationFailed("token", "email already verified")
	}
	u.IsVerified = true
	return nil
}

// MarkVoted mirrors the store's conditional write: check-and-set under one
// lock, so concurrent callers race exactly the way they do against SQL.
func (f *fakeUserRepo) MarkVoted(ctx context.Context, id string, candidateID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user")
	}
	if u.HasVoted {
		return apperror.Forbidden("voting rights already used")
	}
	u.HasVoted = true
	u.VotedCandidate = &candidateID
	return nil
}

func (f *fakeUserRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user")
	}
	u.LoginPasswordHash = hash
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user")
	}
	delete(f.users, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeUserRepo) DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	for id, u := range f.users {
		if !u.IsVerified && u.CreatedAt.Before(cutoff) {
			delete(f.users, id)
			removed++
		}
	}
	return removed, nil
}

// count returns how many users the fake holds.
func (f *fakeUserRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

// ---------------------------------------------------------------------------
// fakeCandidateRepo

type fakeCandidateRepo struct {
	mu         sync.Mutex
	candidates map[int64]*model.Candidate
	seq        int64
}

func newFakeCandidateRepo() *fakeCandidateRepo {
	return &fakeCandidateRepo{candidates: make(map[int64]*model.Candidate)}
}

func (f *fakeCandidateRepo) NextCandidateID(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return f.seq, nil
}

func (f *fakeCandidateRepo) Create(ctx context.Context, candidate *model.Candidate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	candidate.CreatedAt = time.Now()
	copied := *candidate
	f.candidates[candidate.CandidateID] = &copied
	return nil
}

func (f *fakeCandidateRepo) GetByCandidateID(ctx context.Context, candidateID int64) (*model.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.candidates[candidateID]
	if !ok {
		return nil, apperror.NotFound("candidate")
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCandidateRepo) List(ctx context.Context, order repository.CandidateOrder) ([]model.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Candidate, 0, len(f.candidates))
	for id := int64(1); id <= f.seq; id++ {
		if c, ok := f.candidates[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCandidateRepo) AdjustVotes(ctx context.Context, candidateID, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.candidates[candidateID]
	if !ok {
		return apperror.NotFound("candidate")
	}
	c.Votes += delta
	return nil
}

// votes returns the current tally for a candidate.
func (f *fakeCandidateRepo) votes(candidateID int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.candidates[candidateID]; ok {
		return c.Votes
	}
	return 0
}

// ---------------------------------------------------------------------------
// fakeAuditRepo

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditEntry
}

func (f *fakeAuditRepo) Append(ctx context.Context, entry *model.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.AuditEntry, len(f.entries))
	copy(out, f.entries)
	// newest first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// actions returns the recorded action tags, oldest first.
func (f *fakeAuditRepo) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.entries))
	for i, e := range f.entries {
		out[i] = e.Action
	}
	return out
}

// ---------------------------------------------------------------------------
// fakeMailer

type fakeMailer struct {
	mu       sync.Mutex
	sent     []sentMail
	sendErr  error
	lastHTML string
}

type sentMail struct {
	To      string
	Subject string
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, html string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject})
	f.lastHTML = html
	return nil
}

// ---------------------------------------------------------------------------
// helpers

var errStoreDown = errors.New("store is down")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

// Cost 4 is the bcrypt minimum — keeps hashing-heavy tests fast.
func newTestPasswords() *auth.PasswordService {
	return auth.NewPasswordServiceForTest(4)
}

func newTestAuditor(repo *fakeAuditRepo) *Auditor {
	return NewAuditor(repo, testLogger())
}
