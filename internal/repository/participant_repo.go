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

// SQLParticipantRepo はSQLデータベースを使用した来場者リポジトリ。
type SQLParticipantRepo struct {
	sb sq.StatementBuilderType
}

// NewSQLParticipantRepo はSQLParticipantRepoを生成する。
func NewSQLParticipantRepo(db *sql.DB, dialect database.Dialect) *SQLParticipantRepo {
	return &SQLParticipantRepo{sb: statementBuilder(dialect).RunWith(db)}
}

// FindByID は指定IDの来場者を取得する。見つからない場合はnilを返す。
func (r *SQLParticipantRepo) FindByID(ctx context.Context, id string) (*model.Participant, error) {
	p := &model.Participant{}
	var email, phone sql.NullString
	var createdAt int64

	err := r.sb.Select("id", "garage_id", "name", "email", "phone", "created_at").
		From("participants").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(&p.ID, &p.GarageID, &p.Name, &email, &phone, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("来場者の取得に失敗しました: %w", err)
	}

	p.Email = nullStringValue(email)
	p.Phone = nullStringValue(phone)
	p.CreatedAt = fromMillis(createdAt)
	return p, nil
}

// Create は来場者を作成する。
func (r *SQLParticipantRepo) Create(ctx context.Context, participant *model.Participant) error {
	_, err := r.sb.Insert("participants").
		SetMap(map[string]interface{}{
			"id":         participant.ID,
			"garage_id":  participant.GarageID,
			"name":       participant.Name,
			"email":      nullString(participant.Email),
			"phone":      nullString(participant.Phone),
			"created_at": toMillis(participant.CreatedAt),
		}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("来場者の作成に失敗しました: %w", err)
	}
	return nil
}

// DeleteStale はcutoffより前に作成され、関心を1件も持たない来場者を削除する。
// 冪等: 削除対象がない場合は0を返す。
func (r *SQLParticipantRepo) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.sb.Delete("participants").
		Where(sq.Lt{"created_at": toMillis(cutoff)}).
		Where("NOT EXISTS (SELECT 1 FROM interests WHERE interests.participant_id = participants.id)").
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("来場者の削除に失敗しました: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return n, nil
}

var (
	_ ParticipantRepository = (*SQLParticipantRepo)(nil)
	_ ParticipantCleaner    = (*SQLParticipantRepo)(nil)
)
