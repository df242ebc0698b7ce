package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/hitoshi/garagesale/internal/database"
	"github.com/hitoshi/garagesale/internal/model"
)

var garageColumns = []string{"id", "title", "slug", "owner_email", "created_at"}

// SQLGarageRepo はSQLデータベースを使用したガレージリポジトリ。
type SQLGarageRepo struct {
	sb sq.StatementBuilderType
}

// NewSQLGarageRepo はSQLGarageRepoを生成する。
func NewSQLGarageRepo(db *sql.DB, dialect database.Dialect) *SQLGarageRepo {
	return &SQLGarageRepo{sb: statementBuilder(dialect).RunWith(db)}
}

func scanGarage(row sq.RowScanner) (*model.Garage, error) {
	g := &model.Garage{}
	var createdAt int64
	if err := row.Scan(&g.ID, &g.Title, &g.Slug, &g.OwnerEmail, &createdAt); err != nil {
		return nil, err
	}
	g.CreatedAt = fromMillis(createdAt)
	return g, nil
}

func (r *SQLGarageRepo) findOne(ctx context.Context, where sq.Eq) (*model.Garage, error) {
	row := r.sb.Select(garageColumns...).From("garages").Where(where).QueryRowContext(ctx)
	g, err := scanGarage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

// FindBySlug はslugでガレージを取得する。見つからない場合はnilを返す。
func (r *SQLGarageRepo) FindBySlug(ctx context.Context, slug string) (*model.Garage, error) {
	g, err := r.findOne(ctx, sq.Eq{"slug": slug})
	if err != nil {
		return nil, fmt.Errorf("ガレージの取得に失敗しました: %w", err)
	}
	return g, nil
}

// FindByID は指定IDのガレージを取得する。見つからない場合はnilを返す。
func (r *SQLGarageRepo) FindByID(ctx context.Context, id string) (*model.Garage, error) {
	g, err := r.findOne(ctx, sq.Eq{"id": id})
	if err != nil {
		return nil, fmt.Errorf("ガレージの取得に失敗しました: %w", err)
	}
	return g, nil
}

// SlugExists はslugが使用済みかを返す。
func (r *SQLGarageRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int
	err := r.sb.Select("COUNT(*)").From("garages").
		Where(sq.Eq{"slug": slug}).
		QueryRowContext(ctx).
		Scan(&n)
	if err != nil {
		return false, fmt.Errorf("slugの存在確認に失敗しました: %w", err)
	}
	return n > 0, nil
}

// Create はガレージを作成する。
// slugの一意制約に違反した場合はErrSlugConflictを返す。
func (r *SQLGarageRepo) Create(ctx context.Context, garage *model.Garage) error {
	_, err := r.sb.Insert("garages").
		SetMap(map[string]interface{}{
			"id":          garage.ID,
			"title":       garage.Title,
			"slug":        garage.Slug,
			"owner_email": garage.OwnerEmail,
			"created_at":  toMillis(garage.CreatedAt),
		}).
		ExecContext(ctx)
	if isUniqueViolation(err) {
		return fmt.Errorf("slug %q: %w", garage.Slug, ErrSlugConflict)
	}
	if err != nil {
		return fmt.Errorf("ガレージの作成に失敗しました: %w", err)
	}
	return nil
}

// List は全ガレージをタイトル昇順で返す。
func (r *SQLGarageRepo) List(ctx context.Context) ([]*model.Garage, error) {
	rows, err := r.sb.Select(garageColumns...).From("garages").
		OrderBy("title ASC", "created_at ASC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("ガレージ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var garages []*model.Garage
	for rows.Next() {
		g, err := scanGarage(rows)
		if err != nil {
			return nil, fmt.Errorf("ガレージのスキャンに失敗しました: %w", err)
		}
		garages = append(garages, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ガレージ一覧の読み取りに失敗しました: %w", err)
	}
	return garages, nil
}

var _ GarageRepository = (*SQLGarageRepo)(nil)
