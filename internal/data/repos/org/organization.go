package org

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/saehim/attendance-backend/internal/domain"
	"github.com/saehim/attendance-backend/internal/platform/dbctx"
	"github.com/saehim/attendance-backend/internal/platform/logger"
)

type OrganizationRepo interface {
	ListBySeason(dbc dbctx.Context, seasonID uuid.UUID) ([]*domain.Organization, error)
	FindByNamePrefix(dbc dbctx.Context, seasonID uuid.UUID, prefix string) ([]*domain.Organization, error)
	FindByName(dbc dbctx.Context, seasonID uuid.UUID, name string) ([]*domain.Organization, error)
	FindChildren(dbc dbctx.Context, parentID uuid.UUID) ([]*domain.Organization, error)
}

type organizationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrganizationRepo(db *gorm.DB, baseLog *logger.Logger) OrganizationRepo {
	return &organizationRepo{
		db:  db,
		log: baseLog.With("repo", "OrganizationRepo"),
	}
}

func (r *organizationRepo) base(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *organizationRepo) ListBySeason(dbc dbctx.Context, seasonID uuid.UUID) ([]*domain.Organization, error) {
	out := []*domain.Organization{}
	if seasonID == uuid.Nil {
		return out, nil
	}
	if err := r.base(dbc).
		Where("season_id = ?", seasonID).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *organizationRepo) FindByNamePrefix(dbc dbctx.Context, seasonID uuid.UUID, prefix string) ([]*domain.Organization, error) {
	out := []*domain.Organization{}
	if seasonID == uuid.Nil || prefix == "" {
		return out, nil
	}
	if err := r.base(dbc).
		Where("season_id = ?", seasonID).
		Where("name LIKE ?", escapeLike(prefix)+"%").
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *organizationRepo) FindByName(dbc dbctx.Context, seasonID uuid.UUID, name string) ([]*domain.Organization, error) {
	out := []*domain.Organization{}
	if seasonID == uuid.Nil || name == "" {
		return out, nil
	}
	if err := r.base(dbc).
		Where("season_id = ? AND name = ?", seasonID, name).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *organizationRepo) FindChildren(dbc dbctx.Context, parentID uuid.UUID) ([]*domain.Organization, error) {
	out := []*domain.Organization{}
	if parentID == uuid.Nil {
		return out, nil
	}
	if err := r.base(dbc).
		Where("parent_id = ?", parentID).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// escapeLike guards hierarchy names against LIKE metacharacters. Names are
// operator-entered, not user input, but "_" is the hierarchy separator itself.
func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
