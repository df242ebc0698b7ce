package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/garagesale/internal/database"
	"github.com/hitoshi/garagesale/internal/model"
)

// newTestDB はマイグレーション済みの一時SQLiteデータベースを返す。
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := "sqlite://" + filepath.Join(t.TempDir(), "repo.db")
	if err := database.RunMigrations(dbURL); err != nil {
		t.Fatalf("マイグレーション実行に失敗: %v", err)
	}

	db, err := database.Open(dbURL)
	if err != nil {
		t.Fatalf("データベースのオープンに失敗: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedGarage はテスト用のガレージを作成する。
func seedGarage(t *testing.T, db *sql.DB, title, slug string) *model.Garage {
	t.Helper()
	g := &model.Garage{
		ID:         uuid.NewString(),
		Title:      title,
		Slug:       slug,
		OwnerEmail: slug + "@example.com",
		CreatedAt:  time.Now(),
	}
	if err := NewSQLGarageRepo(db, database.DialectSQLite).Create(context.Background(), g); err != nil {
		t.Fatalf("ガレージの作成に失敗: %v", err)
	}
	return g
}

// seedItem はテスト用の品物を作成する。
func seedItem(t *testing.T, db *sql.DB, garageID, title string, createdAt time.Time) *model.Item {
	t.Helper()
	item := &model.Item{
		ID:        uuid.NewString(),
		GarageID:  garageID,
		Title:     title,
		Status:    model.ItemStatusAvailable,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := NewSQLItemRepo(db, database.DialectSQLite).Create(context.Background(), item); err != nil {
		t.Fatalf("品物の作成に失敗: %v", err)
	}
	return item
}

// seedParticipant はテスト用の来場者を作成する。
func seedParticipant(t *testing.T, db *sql.DB, garageID, name string, createdAt time.Time) *model.Participant {
	t.Helper()
	p := &model.Participant{
		ID:        uuid.NewString(),
		GarageID:  garageID,
		Name:      name,
		CreatedAt: createdAt,
	}
	if err := NewSQLParticipantRepo(db, database.DialectSQLite).Create(context.Background(), p); err != nil {
		t.Fatalf("来場者の作成に失敗: %v", err)
	}
	return p
}
