package org

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/saehim/attendance-backend/internal/domain"
	"github.com/saehim/attendance-backend/internal/platform/dbctx"
	"github.com/saehim/attendance-backend/internal/platform/logger"
)

type MemberRoleRepo interface {
	// ListByOrgIDs returns live role assignments with members preloaded, so
	// callers can build member→role and member→name indexes in one pass.
	ListByOrgIDs(dbc dbctx.Context, orgIDs []uuid.UUID) ([]*domain.MemberRole, error)
	// CountDistinctMembersAsOf counts the population whose assignment existed
	// before the cutoff.
	CountDistinctMembersAsOf(dbc dbctx.Context, orgIDs []uuid.UUID, cutoff time.Time) (int64, error)
	ListMemberIDsAsOf(dbc dbctx.Context, orgIDs []uuid.UUID, cutoff time.Time) ([]uuid.UUID, error)
}

type memberRoleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMemberRoleRepo(db *gorm.DB, baseLog *logger.Logger) MemberRoleRepo {
	return &memberRoleRepo{
		db:  db,
		log: baseLog.With("repo", "MemberRoleRepo"),
	}
}

func (r *memberRoleRepo) base(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *memberRoleRepo) ListByOrgIDs(dbc dbctx.Context, orgIDs []uuid.UUID) ([]*domain.MemberRole, error) {
	out := []*domain.MemberRole{}
	if len(orgIDs) == 0 {
		return out, nil
	}
	if err := r.base(dbc).
		Preload("Member").
		Where("organization_id IN ?", orgIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *memberRoleRepo) CountDistinctMembersAsOf(dbc dbctx.Context, orgIDs []uuid.UUID, cutoff time.Time) (int64, error) {
	if len(orgIDs) == 0 {
		return 0, nil
	}
	var n int64
	err := r.base(dbc).Model(&domain.MemberRole{}).
		Distinct("member_id").
		Where("organization_id IN ?", orgIDs).
		Where("created_at < ?", cutoff).
		Count(&n).Error
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *memberRoleRepo) ListMemberIDsAsOf(dbc dbctx.Context, orgIDs []uuid.UUID, cutoff time.Time) ([]uuid.UUID, error) {
	out := []uuid.UUID{}
	if len(orgIDs) == 0 {
		return out, nil
	}
	err := r.base(dbc).Model(&domain.MemberRole{}).
		Distinct("member_id").
		Where("organization_id IN ?", orgIDs).
		Where("created_at < ?", cutoff).
		Pluck("member_id", &out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
