package attendance

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/saehim/attendance-backend/internal/domain"
	"github.com/saehim/attendance-backend/internal/platform/dbctx"
	"github.com/saehim/attendance-backend/internal/platform/logger"
)

// orgScopeBatchSize bounds the IN-list of one scoped event query so a large
// department never turns into a single unbounded statement.
const orgScopeBatchSize = 200

type AttendanceEventRepo interface {
	Create(dbc dbctx.Context, ev *domain.AttendanceEvent) error
	UpdateStatus(dbc dbctx.Context, id uuid.UUID, status domain.AttendanceStatus) error
	GetByOccurrence(dbc dbctx.Context, memberID uuid.UUID, activityType string, occurredAt time.Time) (*domain.AttendanceEvent, error)
	LatestByMemberAndType(dbc dbctx.Context, memberID uuid.UUID, activityType string) (*domain.AttendanceEvent, error)
	ListByMemberAndType(dbc dbctx.Context, memberID uuid.UUID, activityType string) ([]*domain.AttendanceEvent, error)
	ListInWindow(dbc dbctx.Context, orgIDs []uuid.UUID, activityType string, from, to time.Time) ([]*domain.AttendanceEvent, error)
	CountAttendedByPattern(dbc dbctx.Context, orgIDs []uuid.UUID, activityPattern string, populationCutoff, from, to time.Time) (int64, error)
	ListAttendedInRange(dbc dbctx.Context, activityType string, from, to time.Time) ([]*domain.AttendanceEvent, error)
}

type attendanceEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttendanceEventRepo(db *gorm.DB, baseLog *logger.Logger) AttendanceEventRepo {
	return &attendanceEventRepo{
		db:  db,
		log: baseLog.With("repo", "AttendanceEventRepo"),
	}
}

func (r *attendanceEventRepo) base(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *attendanceEventRepo) Create(dbc dbctx.Context, ev *domain.AttendanceEvent) error {
	if ev == nil {
		return nil
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	return r.base(dbc).Create(ev).Error
}

func (r *attendanceEventRepo) UpdateStatus(dbc dbctx.Context, id uuid.UUID, status domain.AttendanceStatus) error {
	if id == uuid.Nil {
		return nil
	}
	return r.base(dbc).Model(&domain.AttendanceEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *attendanceEventRepo) GetByOccurrence(dbc dbctx.Context, memberID uuid.UUID, activityType string, occurredAt time.Time) (*domain.AttendanceEvent, error) {
	if memberID == uuid.Nil || activityType == "" || occurredAt.IsZero() {
		return nil, nil
	}
	var row domain.AttendanceEvent
	err := r.base(dbc).
		Where("member_id = ? AND activity_type = ? AND occurred_at = ?", memberID, activityType, occurredAt).
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

func (r *attendanceEventRepo) LatestByMemberAndType(dbc dbctx.Context, memberID uuid.UUID, activityType string) (*domain.AttendanceEvent, error) {
	if memberID == uuid.Nil || activityType == "" {
		return nil, nil
	}
	var row domain.AttendanceEvent
	err := r.base(dbc).
		Where("member_id = ? AND activity_type = ?", memberID, activityType).
		Order("occurred_at DESC").
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

func (r *attendanceEventRepo) ListByMemberAndType(dbc dbctx.Context, memberID uuid.UUID, activityType string) ([]*domain.AttendanceEvent, error) {
	out := []*domain.AttendanceEvent{}
	if memberID == uuid.Nil || activityType == "" {
		return out, nil
	}
	if err := r.base(dbc).
		Where("member_id = ? AND activity_type = ?", memberID, activityType).
		Order("occurred_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListInWindow returns events for every member holding a live role assignment
// in one of orgIDs, newest first. One query per org-id batch; callers build a
// member→events index from the result instead of querying per member.
// A member holding role rows in more than one batch comes back once per batch,
// so results are merged through mergeEventBatches before returning.
func (r *attendanceEventRepo) ListInWindow(dbc dbctx.Context, orgIDs []uuid.UUID, activityType string, from, to time.Time) ([]*domain.AttendanceEvent, error) {
	if len(orgIDs) == 0 || activityType == "" {
		return []*domain.AttendanceEvent{}, nil
	}
	batches := [][]*domain.AttendanceEvent{}
	for start := 0; start < len(orgIDs); start += orgScopeBatchSize {
		end := start + orgScopeBatchSize
		if end > len(orgIDs) {
			end = len(orgIDs)
		}
		batch := []*domain.AttendanceEvent{}
		err := r.base(dbc).Model(&domain.AttendanceEvent{}).
			Distinct("attendance_event.*").
			Joins("JOIN member_role mr ON mr.member_id = attendance_event.member_id AND mr.deleted_at IS NULL").
			Where("mr.organization_id IN ?", orgIDs[start:end]).
			Where("attendance_event.activity_type = ?", activityType).
			Where("attendance_event.occurred_at >= ? AND attendance_event.occurred_at < ?", from, to).
			Order("attendance_event.occurred_at DESC").
			Find(&batch).Error
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}
	return mergeEventBatches(batches), nil
}

// mergeEventBatches flattens per-batch query results into one newest-first
// slice. Per-batch Distinct cannot see across batches, so the same event row
// reappears whenever a member's role assignments span batches; rows already
// seen are dropped by event id.
func mergeEventBatches(batches [][]*domain.AttendanceEvent) []*domain.AttendanceEvent {
	out := []*domain.AttendanceEvent{}
	seen := map[uuid.UUID]bool{}
	for _, batch := range batches {
		for _, ev := range batch {
			if seen[ev.ID] {
				continue
			}
			seen[ev.ID] = true
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	return out
}

// CountAttendedByPattern counts attended events whose member belonged to the
// population as of populationCutoff, so numerator and denominator of a weekly
// rate describe the same member set. Ids accumulate across batches because a
// per-batch distinct count would tally a multi-role member once per batch.
func (r *attendanceEventRepo) CountAttendedByPattern(dbc dbctx.Context, orgIDs []uuid.UUID, activityPattern string, populationCutoff, from, to time.Time) (int64, error) {
	if len(orgIDs) == 0 || activityPattern == "" {
		return 0, nil
	}
	ids := map[uuid.UUID]bool{}
	for start := 0; start < len(orgIDs); start += orgScopeBatchSize {
		end := start + orgScopeBatchSize
		if end > len(orgIDs) {
			end = len(orgIDs)
		}
		batchIDs := []uuid.UUID{}
		err := r.base(dbc).Model(&domain.AttendanceEvent{}).
			Joins("JOIN member_role mr ON mr.member_id = attendance_event.member_id AND mr.deleted_at IS NULL").
			Where("mr.organization_id IN ?", orgIDs[start:end]).
			Where("mr.created_at < ?", populationCutoff).
			Where("attendance_event.activity_type LIKE ?", activityPattern).
			Where("attendance_event.status = ?", domain.StatusAttended).
			Where("attendance_event.occurred_at >= ? AND attendance_event.occurred_at < ?", from, to).
			Distinct().
			Pluck("attendance_event.id", &batchIDs).Error
		if err != nil {
			return 0, err
		}
		for _, id := range batchIDs {
			ids[id] = true
		}
	}
	return int64(len(ids)), nil
}

// ListAttendedInRange is the unscoped trend fetch: all attended events of one
// activity type, oldest first, across every organization.
func (r *attendanceEventRepo) ListAttendedInRange(dbc dbctx.Context, activityType string, from, to time.Time) ([]*domain.AttendanceEvent, error) {
	out := []*domain.AttendanceEvent{}
	if activityType == "" {
		return out, nil
	}
	if err := r.base(dbc).
		Where("activity_type = ? AND status = ?", activityType, domain.StatusAttended).
		Where("occurred_at >= ? AND occurred_at < ?", from, to).
		Order("occurred_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
