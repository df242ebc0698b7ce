package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/hitoshi/garagesale/internal/database"
	"github.com/hitoshi/garagesale/internal/model"
)

var itemColumns = []string{
	"id", "garage_id", "title", "price_cents", "description", "photo_url",
	"status", "created_at", "updated_at",
}

// SQLItemRepo はSQLデータベースを使用した品物リポジトリ。
type SQLItemRepo struct {
	sb sq.StatementBuilderType
}

// NewSQLItemRepo はSQLItemRepoを生成する。
func NewSQLItemRepo(db *sql.DB, dialect database.Dialect) *SQLItemRepo {
	return &SQLItemRepo{sb: statementBuilder(dialect).RunWith(db)}
}

func scanItem(row sq.RowScanner) (*model.Item, error) {
	item := &model.Item{}
	var price sql.NullInt64
	var description, photoURL sql.NullString
	var status string
	var createdAt, updatedAt int64

	err := row.Scan(
		&item.ID, &item.GarageID, &item.Title, &price, &description, &photoURL,
		&status, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.PriceCents = nullInt64Value(price)
	item.Description = nullStringValue(description)
	item.PhotoURL = nullStringValue(photoURL)
	item.Status = model.ItemStatus(status)
	item.CreatedAt = fromMillis(createdAt)
	item.UpdatedAt = fromMillis(updatedAt)
	return item, nil
}

// FindByID は指定IDの品物を取得する。見つからない場合はnilを返す。
func (r *SQLItemRepo) FindByID(ctx context.Context, id string) (*model.Item, error) {
	row := r.sb.Select(itemColumns...).From("items").Where(sq.Eq{"id": id}).QueryRowContext(ctx)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("品物の取得に失敗しました: %w", err)
	}
	return item, nil
}

// ListByGarage はガレージの品物を作成日時の降順で返す。
func (r *SQLItemRepo) ListByGarage(ctx context.Context, garageID string) ([]*model.Item, error) {
	rows, err := r.sb.Select(itemColumns...).From("items").
		Where(sq.Eq{"garage_id": garageID}).
		OrderBy("created_at DESC", "id ASC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("品物一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var items []*model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("品物のスキャンに失敗しました: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("品物一覧の読み取りに失敗しました: %w", err)
	}
	return items, nil
}

// Create は品物を作成する。
func (r *SQLItemRepo) Create(ctx context.Context, item *model.Item) error {
	_, err := r.sb.Insert("items").
		SetMap(map[string]interface{}{
			"id":          item.ID,
			"garage_id":   item.GarageID,
			"title":       item.Title,
			"price_cents": nullInt64(item.PriceCents),
			"description": nullString(item.Description),
			"photo_url":   nullString(item.PhotoURL),
			"status":      string(item.Status),
			"created_at":  toMillis(item.CreatedAt),
			"updated_at":  toMillis(item.UpdatedAt),
		}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("品物の作成に失敗しました: %w", err)
	}
	return nil
}

// itemChangeSet は部分更新の内容をカラム名と値のマップに変換する。
func itemChangeSet(upd model.ItemUpdate, updatedAt time.Time) map[string]interface{} {
	m := map[string]interface{}{"updated_at": toMillis(updatedAt)}
	if upd.Title != nil {
		m["title"] = *upd.Title
	}
	if upd.SetPrice {
		m["price_cents"] = nullInt64(upd.PriceCents)
	}
	if upd.SetDescription {
		m["description"] = nullString(upd.Description)
	}
	if upd.SetPhotoURL {
		m["photo_url"] = nullString(upd.PhotoURL)
	}
	if upd.Status != nil {
		m["status"] = string(*upd.Status)
	}
	return m
}

// Update は品物を部分更新する。
// 対象が存在しない場合はErrNotFoundを返す。
func (r *SQLItemRepo) Update(ctx context.Context, id string, upd model.ItemUpdate, updatedAt time.Time) error {
	res, err := r.sb.Update("items").
		SetMap(itemChangeSet(upd, updatedAt)).
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("品物の更新に失敗しました: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return fmt.Errorf("品物の更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は品物を削除する。
// 対象が存在しない場合はErrNotFoundを返す。
func (r *SQLItemRepo) Delete(ctx context.Context, id string) error {
	res, err := r.sb.Delete("items").Where(sq.Eq{"id": id}).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("品物の削除に失敗しました: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return fmt.Errorf("品物の削除に失敗しました: %w", err)
	}
	return nil
}

var _ ItemRepository = (*SQLItemRepo)(nil)
