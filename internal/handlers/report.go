package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/saehim/attendance-backend/internal/domain/aggregates"
	"github.com/saehim/attendance-backend/internal/services"
)

type ReportHandler struct {
	continuityService services.ContinuityService
	weeklyRateService services.WeeklyRateService
	trendService      services.TrendService
}

func NewReportHandler(continuityService services.ContinuityService, weeklyRateService services.WeeklyRateService, trendService services.TrendService) *ReportHandler {
	return &ReportHandler{
		continuityService: continuityService,
		weeklyRateService: weeklyRateService,
		trendService:      trendService,
	}
}

func scopeQuery(c *gin.Context) (uuid.UUID, services.ScopeFilter, time.Time, error) {
	seasonID, err := uuid.Parse(c.Query("season_id"))
	if err != nil {
		return uuid.Nil, services.ScopeFilter{}, time.Time{},
			domainagg.NewError(domainagg.CodeValidation, "", "season_id must be a uuid", err)
	}
	filter := services.ScopeFilter{
		Department: c.Query("department"),
		Group:      c.Query("group"),
		Team:       c.Query("team"),
	}
	at := time.Now().UTC()
	if raw := c.Query("at"); raw != "" {
		at, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return uuid.Nil, services.ScopeFilter{}, time.Time{},
				domainagg.NewError(domainagg.CodeValidation, "", "at must be RFC3339", err)
		}
	}
	return seasonID, filter, at, nil
}

func (rh *ReportHandler) GetContinuousMembers(c *gin.Context) {
	seasonID, filter, at, err := scopeQuery(c)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	report, err := rh.continuityService.GetContinuousMembers(c.Request.Context(), seasonID, filter, at)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, report)
}

func (rh *ReportHandler) GetWeeklyAggregation(c *gin.Context) {
	seasonID, filter, at, err := scopeQuery(c)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	result, err := rh.weeklyRateService.GetWeeklyAggregation(c.Request.Context(), seasonID, filter, at)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, result)
}

func (rh *ReportHandler) GetTrend(c *gin.Context) {
	activityType := c.Query("activity_type")
	at := time.Now().UTC()
	if raw := c.Query("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			RespondDomainError(c, domainagg.NewError(domainagg.CodeValidation, "", "at must be RFC3339", err))
			return
		}
		at = parsed
	}
	result, err := rh.trendService.GetTrend(c.Request.Context(), activityType, at)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, result)
}
