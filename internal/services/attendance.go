package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/saehim/attendance-backend/internal/data/repos"
	"github.com/saehim/attendance-backend/internal/domain"
	domainagg "github.com/saehim/attendance-backend/internal/domain/aggregates"
	"github.com/saehim/attendance-backend/internal/platform/dbctx"
	"github.com/saehim/attendance-backend/internal/platform/logger"
)

type RecordAttendanceInput struct {
	MemberID     uuid.UUID               `json:"member_id"`
	ActivityType string                  `json:"activity_type"`
	OccurredAt   time.Time               `json:"occurred_at"`
	Status       domain.AttendanceStatus `json:"status"`
}

type AttendanceService interface {
	// RecordOrCorrect routes one submission to either a fresh fold or a
	// correction of the newest recorded instance, based on whether an event
	// already exists at OccurredAt.
	RecordOrCorrect(ctx context.Context, in RecordAttendanceInput) (domainagg.StreakResult, error)
}

type attendanceService struct {
	log       *logger.Logger
	events    repos.AttendanceEventRepo
	aggregate domainagg.AttendanceStreakAggregate
}

func NewAttendanceService(log *logger.Logger, events repos.AttendanceEventRepo, aggregate domainagg.AttendanceStreakAggregate) AttendanceService {
	return &attendanceService{
		log:       log.With("service", "AttendanceService"),
		events:    events,
		aggregate: aggregate,
	}
}

func (s *attendanceService) RecordOrCorrect(ctx context.Context, in RecordAttendanceInput) (domainagg.StreakResult, error) {
	const op = "Attendance.RecordOrCorrect"
	var out domainagg.StreakResult
	if in.MemberID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "member id is required", nil)
	}
	if in.ActivityType == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "activity type is required", nil)
	}
	if in.OccurredAt.IsZero() {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "occurrence timestamp is required", nil)
	}
	if !in.Status.Valid() {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "status must be attended or absent", nil)
	}

	// The routing read runs outside the write transaction; the aggregate
	// re-checks inside it, so a racing duplicate still resolves to conflict.
	existing, err := s.events.GetByOccurrence(dbctx.Context{Ctx: ctx}, in.MemberID, in.ActivityType, in.OccurredAt)
	if err != nil {
		return out, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if existing == nil {
		return s.aggregate.Apply(ctx, domainagg.ApplyStreakInput{
			MemberID:     in.MemberID,
			ActivityType: in.ActivityType,
			OccurredAt:   in.OccurredAt,
			Status:       in.Status,
		})
	}
	return s.aggregate.ApplyCorrection(ctx, domainagg.CorrectStreakInput{
		MemberID:     in.MemberID,
		ActivityType: in.ActivityType,
		OccurredAt:   in.OccurredAt,
		NewStatus:    in.Status,
	})
}
