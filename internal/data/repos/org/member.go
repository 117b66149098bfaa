package org

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/saehim/attendance-backend/internal/domain"
	"github.com/saehim/attendance-backend/internal/platform/dbctx"
	"github.com/saehim/attendance-backend/internal/platform/logger"
)

type MemberRepo interface {
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Member, error)
	CountNewInWindow(dbc dbctx.Context, memberIDs []uuid.UUID, from, to time.Time) (int64, error)
}

type memberRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMemberRepo(db *gorm.DB, baseLog *logger.Logger) MemberRepo {
	return &memberRepo{
		db:  db,
		log: baseLog.With("repo", "MemberRepo"),
	}
}

func (r *memberRepo) base(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *memberRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Member, error) {
	out := []*domain.Member{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := r.base(dbc).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *memberRepo) CountNewInWindow(dbc dbctx.Context, memberIDs []uuid.UUID, from, to time.Time) (int64, error) {
	if len(memberIDs) == 0 {
		return 0, nil
	}
	var n int64
	err := r.base(dbc).Model(&domain.Member{}).
		Where("id IN ?", memberIDs).
		Where("is_new_member = ?", true).
		Where("registered_at >= ? AND registered_at < ?", from, to).
		Count(&n).Error
	if err != nil {
		return 0, err
	}
	return n, nil
}
