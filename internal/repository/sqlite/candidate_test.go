package sqlite

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/sakif/kuvote/internal/apperror"
	"github.com/sakif/kuvote/internal/model"
	"github.com/sakif/kuvote/internal/repository"
)

func TestNextCandidateID_Consecutive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for want := int64(1); want <= 5; want++ {
		got, err := db.Candidates().NextCandidateID(ctx)
		if err != nil {
			t.Fatalf("NextCandidateID: %v", err)
		}
		if got != want {
			t.Fatalf("NextCandidateID = %d, want %d", got, want)
		}
	}
}

func TestCandidateCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created := insertCandidate(t, db, "Somsak Jaidee")

	got, err := db.Candidates().GetByCandidateID(ctx, created.CandidateID)
	if err != nil {
		t.Fatalf("GetByCandidateID: %v", err)
	}
	if got.Name != "Somsak Jaidee" || got.Position != "President" {
		t.Errorf("round-trip = %+v", got)
	}
	if !reflect.DeepEqual(got.Policies, []string{"policy one"}) {
		t.Errorf("Policies = %v, want [policy one]", got.Policies)
	}
	if got.Votes != 0 {
		t.Errorf("Votes = %d, want 0", got.Votes)
	}
}

func TestCandidateCreate_RequiresBallotNumber(t *testing.T) {
	db := newTestDB(t)

	err := db.Candidates().Create(context.Background(), &model.Candidate{Name: "No Number"})
	if err == nil {
		t.Fatal("Create accepted a candidate without a ballot number")
	}
}

func TestCandidateGet_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Candidates().GetByCandidateID(context.Background(), 42)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetByCandidateID error = %v, want ErrNotFound", err)
	}
}

func TestCandidateList_Orders(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a := insertCandidate(t, db, "Alpha") // ballot 1
	b := insertCandidate(t, db, "Beta")  // ballot 2
	c := insertCandidate(t, db, "Gamma") // ballot 3

	// Beta leads, Alpha and Gamma tie at 1.
	for _, adj := range []struct {
		id    int64
		delta int64
	}{{a.CandidateID, 1}, {b.CandidateID, 2}, {c.CandidateID, 1}} {
		if err := db.Candidates().AdjustVotes(ctx, adj.id, adj.delta); err != nil {
			t.Fatalf("AdjustVotes: %v", err)
		}
	}

	ballot, err := db.Candidates().List(ctx, repository.OrderByCandidateID)
	if err != nil {
		t.Fatalf("List by ballot: %v", err)
	}
	if got := names(ballot); !reflect.DeepEqual(got, []string{"Alpha", "Beta", "Gamma"}) {
		t.Errorf("ballot order = %v", got)
	}

	// Votes descending, ballot number breaking the Alpha/Gamma tie.
	results, err := db.Candidates().List(ctx, repository.OrderByVotes)
	if err != nil {
		t.Fatalf("List by votes: %v", err)
	}
	if got := names(results); !reflect.DeepEqual(got, []string{"Beta", "Alpha", "Gamma"}) {
		t.Errorf("results order = %v", got)
	}
}

func TestCandidateList_Empty(t *testing.T) {
	db := newTestDB(t)

	got, err := db.Candidates().List(context.Background(), repository.OrderByCandidateID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("List on empty table = %v, want empty non-nil slice", got)
	}
}

func TestAdjustVotes(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	c := insertCandidate(t, db, "Somsak")

	if err := db.Candidates().AdjustVotes(ctx, c.CandidateID, 1); err != nil {
		t.Fatalf("AdjustVotes +1: %v", err)
	}
	if err := db.Candidates().AdjustVotes(ctx, c.CandidateID, 1); err != nil {
		t.Fatalf("AdjustVotes +1: %v", err)
	}
	if err := db.Candidates().AdjustVotes(ctx, c.CandidateID, -1); err != nil {
		t.Fatalf("AdjustVotes -1: %v", err)
	}

	got, _ := db.Candidates().GetByCandidateID(ctx, c.CandidateID)
	if got.Votes != 1 {
		t.Errorf("Votes = %d, want 1", got.Votes)
	}

	err := db.Candidates().AdjustVotes(ctx, 42, 1)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("AdjustVotes unknown error = %v, want ErrNotFound", err)
	}
}

func names(candidates []model.Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Name
	}
	return out
}
