package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/hitoshi/garagesale/internal/database"
	"github.com/hitoshi/garagesale/internal/model"
)

// SQLInterestRepo はSQLデータベースを使用した関心リポジトリ。
type SQLInterestRepo struct {
	sb sq.StatementBuilderType
}

// NewSQLInterestRepo はSQLInterestRepoを生成する。
func NewSQLInterestRepo(db *sql.DB, dialect database.Dialect) *SQLInterestRepo {
	return &SQLInterestRepo{sb: statementBuilder(dialect).RunWith(db)}
}

// Create は関心を作成する。
func (r *SQLInterestRepo) Create(ctx context.Context, interest *model.Interest) error {
	_, err := r.sb.Insert("interests").
		SetMap(map[string]interface{}{
			"id":             interest.ID,
			"item_id":        interest.ItemID,
			"participant_id": interest.ParticipantID,
			"message":        nullString(interest.Message),
			"name":           nullString(interest.Name),
			"created_at":     toMillis(interest.CreatedAt),
		}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("関心の作成に失敗しました: %w", err)
	}
	return nil
}

// CountByItemIDs は品物ごとの関心数を返す。
// itemIDsが空の場合はクエリを発行せず空のマップを返す。
func (r *SQLInterestRepo) CountByItemIDs(ctx context.Context, itemIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(itemIDs))
	if len(itemIDs) == 0 {
		return counts, nil
	}

	rows, err := r.sb.Select("item_id", "COUNT(*)").From("interests").
		Where(sq.Eq{"item_id": itemIDs}).
		GroupBy("item_id").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("関心数の集計に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID string
		var n int
		if err := rows.Scan(&itemID, &n); err != nil {
			return nil, fmt.Errorf("関心数のスキャンに失敗しました: %w", err)
		}
		counts[itemID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("関心数の読み取りに失敗しました: %w", err)
	}
	return counts, nil
}

// ListByItem は品物への関心を作成日時の降順で返す。
func (r *SQLInterestRepo) ListByItem(ctx context.Context, itemID string) ([]*model.Interest, error) {
	rows, err := r.sb.Select("id", "item_id", "participant_id", "message", "name", "created_at").
		From("interests").
		Where(sq.Eq{"item_id": itemID}).
		OrderBy("created_at DESC", "id ASC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("関心一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var interests []*model.Interest
	for rows.Next() {
		in := &model.Interest{}
		var message, name sql.NullString
		var createdAt int64
		if err := rows.Scan(&in.ID, &in.ItemID, &in.ParticipantID, &message, &name, &createdAt); err != nil {
			return nil, fmt.Errorf("関心のスキャンに失敗しました: %w", err)
		}
		in.Message = nullStringValue(message)
		in.Name = nullStringValue(name)
		in.CreatedAt = fromMillis(createdAt)
		interests = append(interests, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("関心一覧の読み取りに失敗しました: %w", err)
	}
	return interests, nil
}

var _ InterestRepository = (*SQLInterestRepo)(nil)
