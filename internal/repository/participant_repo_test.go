package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/garagesale/internal/database"
	"github.com/hitoshi/garagesale/internal/model"
)

func TestSQLParticipantRepo_CreateAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewSQLParticipantRepo(db, database.DialectSQLite)
	ctx := context.Background()
	g := seedGarage(t, db, "Sale", "sale")

	p := &model.Participant{
		ID:        uuid.NewString(),
		GarageID:  g.ID,
		Name:      "Ana",
		Email:     "ana@example.com",
		CreatedAt: time.Now(),
	}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got == nil || got.Name != "Ana" || got.Email != "ana@example.com" || got.Phone != "" {
		t.Errorf("FindByID = %+v", got)
	}

	missing, err := repo.FindByID(ctx, uuid.NewString())
	if err != nil || missing != nil {
		t.Errorf("FindByID(missing) = %v, %v", missing, err)
	}
}

func TestSQLParticipantRepo_DeleteStale(t *testing.T) {
	db := newTestDB(t)
	repo := NewSQLParticipantRepo(db, database.DialectSQLite)
	interests := NewSQLInterestRepo(db, database.DialectSQLite)
	ctx := context.Background()
	g := seedGarage(t, db, "Sale", "sale")
	item := seedItem(t, db, g.ID, "Lamp", time.Now())

	old := time.Now().AddDate(0, 0, -200)
	staleNoInterest := seedParticipant(t, db, g.ID, "stale", old)
	staleWithInterest := seedParticipant(t, db, g.ID, "keeper", old)
	fresh := seedParticipant(t, db, g.ID, "fresh", time.Now())

	if err := interests.Create(ctx, &model.Interest{
		ID: uuid.NewString(), ItemID: item.ID, ParticipantID: staleWithInterest.ID,
		Name: "keeper", CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("interest Create failed: %v", err)
	}

	n, err := repo.DeleteStale(ctx, time.Now().AddDate(0, 0, -180))
	if err != nil {
		t.Fatalf("DeleteStale failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}

	if p, _ := repo.FindByID(ctx, staleNoInterest.ID); p != nil {
		t.Error("stale participant without interest should be deleted")
	}
	if p, _ := repo.FindByID(ctx, staleWithInterest.ID); p == nil {
		t.Error("participant with interest should be kept")
	}
	if p, _ := repo.FindByID(ctx, fresh.ID); p == nil {
		t.Error("fresh participant should be kept")
	}

	// 冪等: 2回目は削除対象なし
	n, err = repo.DeleteStale(ctx, time.Now().AddDate(0, 0, -180))
	if err != nil || n != 0 {
		t.Errorf("second DeleteStale = %d, %v; want 0, nil", n, err)
	}
}
