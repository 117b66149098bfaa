package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/saehim/attendance-backend/internal/domain"
	domainagg "github.com/saehim/attendance-backend/internal/domain/aggregates"
	"github.com/saehim/attendance-backend/internal/platform/apierr"
	"github.com/saehim/attendance-backend/internal/services"
)

type AttendanceHandler struct {
	attendanceService services.AttendanceService
}

func NewAttendanceHandler(attendanceService services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService}
}

type recordAttendanceRequest struct {
	MemberID     uuid.UUID `json:"member_id" binding:"required"`
	ActivityType string    `json:"activity_type" binding:"required"`
	OccurredAt   time.Time `json:"occurred_at" binding:"required"`
	Status       string    `json:"status" binding:"required"`
}

func (ah *AttendanceHandler) Record(c *gin.Context) {
	var req recordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondDomainError(c, apierr.New(http.StatusBadRequest, string(domainagg.CodeValidation), err))
		return
	}
	result, err := ah.attendanceService.RecordOrCorrect(c.Request.Context(), services.RecordAttendanceInput{
		MemberID:     req.MemberID,
		ActivityType: req.ActivityType,
		OccurredAt:   req.OccurredAt,
		Status:       domain.AttendanceStatus(req.Status),
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, result)
}
