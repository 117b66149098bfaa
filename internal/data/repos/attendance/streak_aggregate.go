package attendance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/saehim/attendance-backend/internal/domain"
	"github.com/saehim/attendance-backend/internal/platform/dbctx"
	"github.com/saehim/attendance-backend/internal/platform/logger"
)

type StreakAggregateRepo interface {
	Get(dbc dbctx.Context, memberID uuid.UUID, activityType string) (*domain.StreakAggregate, error)
	Create(dbc dbctx.Context, row *domain.StreakAggregate) error
	DisableByMembers(dbc dbctx.Context, memberIDs []uuid.UUID, activityType string) (int64, error)
}

type streakAggregateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStreakAggregateRepo(db *gorm.DB, baseLog *logger.Logger) StreakAggregateRepo {
	return &streakAggregateRepo{
		db:  db,
		log: baseLog.With("repo", "StreakAggregateRepo"),
	}
}

func (r *streakAggregateRepo) base(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *streakAggregateRepo) Get(dbc dbctx.Context, memberID uuid.UUID, activityType string) (*domain.StreakAggregate, error) {
	if memberID == uuid.Nil || activityType == "" {
		return nil, nil
	}
	var row domain.StreakAggregate
	err := r.base(dbc).
		Where("member_id = ? AND activity_type = ?", memberID, activityType).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *streakAggregateRepo) Create(dbc dbctx.Context, row *domain.StreakAggregate) error {
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.base(dbc).Create(row).Error
}

// DisableByMembers freezes the aggregates of the given members without
// touching counters or history. Version moves so in-flight writers conflict.
func (r *streakAggregateRepo) DisableByMembers(dbc dbctx.Context, memberIDs []uuid.UUID, activityType string) (int64, error) {
	if len(memberIDs) == 0 {
		return 0, nil
	}
	q := r.base(dbc).Model(&domain.StreakAggregate{}).
		Where("member_id IN ?", memberIDs).
		Where("disabled = ?", false)
	if activityType != "" {
		q = q.Where("activity_type = ?", activityType)
	}
	res := q.Updates(map[string]any{
		"disabled":   true,
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now().UTC(),
	})
	return res.RowsAffected, res.Error
}
