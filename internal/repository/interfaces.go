// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/garagesale/internal/model"
)

// GarageRepository はガレージデータの永続化インターフェース。
type GarageRepository interface {
	// FindBySlug はslugでガレージを取得する。見つからない場合はnilを返す。
	FindBySlug(ctx context.Context, slug string) (*model.Garage, error)

	// FindByID は指定IDのガレージを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Garage, error)

	// SlugExists はslugが使用済みかを返す。読み取りのみで副作用はない。
	SlugExists(ctx context.Context, slug string) (bool, error)

	// Create はガレージを作成する。
	// slugの一意制約に違反した場合はErrSlugConflictを返す。
	Create(ctx context.Context, garage *model.Garage) error

	// List は全ガレージをタイトル昇順で返す。
	List(ctx context.Context) ([]*model.Garage, error)
}

// ItemRepository は品物データの永続化インターフェース。
type ItemRepository interface {
	// FindByID は指定IDの品物を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Item, error)

	// ListByGarage はガレージの品物を作成日時の降順で返す。
	ListByGarage(ctx context.Context, garageID string) ([]*model.Item, error)

	// Create は品物を作成する。
	Create(ctx context.Context, item *model.Item) error

	// Update は品物を部分更新する。updの未指定フィールドは変更しない。
	// 対象が存在しない場合はErrNotFoundを返す。
	Update(ctx context.Context, id string, upd model.ItemUpdate, updatedAt time.Time) error

	// Delete は品物を削除する。関連する関心はCASCADE削除される。
	// 対象が存在しない場合はErrNotFoundを返す。
	Delete(ctx context.Context, id string) error
}

// ParticipantRepository は来場者データの永続化インターフェース。
type ParticipantRepository interface {
	// FindByID は指定IDの来場者を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Participant, error)

	// Create は来場者を作成する。
	Create(ctx context.Context, participant *model.Participant) error
}

// InterestRepository は関心データの永続化インターフェース。
type InterestRepository interface {
	// Create は関心を作成する。
	Create(ctx context.Context, interest *model.Interest) error

	// CountByItemIDs は品物ごとの関心数を返す。関心のない品物はマップに含まれない。
	CountByItemIDs(ctx context.Context, itemIDs []string) (map[string]int, error)

	// ListByItem は品物への関心を作成日時の降順で返す。
	ListByItem(ctx context.Context, itemID string) ([]*model.Interest, error)
}

// ParticipantCleaner は保持期間を過ぎた来場者を削除するインターフェース。
type ParticipantCleaner interface {
	// DeleteStale はcutoffより前に作成され、関心を1件も持たない来場者を削除し、削除件数を返す。
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}
