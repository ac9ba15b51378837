package handlers

import (
	"lifebit/api/filters"
	rankingservice "lifebit/api/services/ranking"
	"lifebit/pkg/messages"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const userIDContextKey = "userID"

// Period types accepted by the period endpoints.
var validPeriodTypes = map[string]bool{
	"daily":   true,
	"weekly":  true,
	"monthly": true,
	"season":  true,
}

// RankingHandler is the handler for the ranking endpoints.
type RankingHandler struct {
	rankingService *rankingservice.RankingService
}

// NewRankingHandler creates a new instance of the ranking handler.
func NewRankingHandler(service *rankingservice.RankingService) *RankingHandler {
	return &RankingHandler{
		rankingService: service,
	}
}

// RequireUser resolves the caller identity from the X-User-ID header set by
// the gateway and stores it on the context. Aborts when it is missing.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.ParseUint(c.GetHeader("X-User-ID"), 10, 64)
		if err != nil || userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": messages.MissingUserIdentity})
			return
		}

		c.Set(userIDContextKey, uint(userID))
		c.Next()
	}
}

// currentUser reads the identity stored by RequireUser.
func currentUser(c *gin.Context) uint {
	return c.GetUint(userIDContextKey)
}

// GetRankingData handles the main ranking screen request.
func (h *RankingHandler) GetRankingData(c *gin.Context) {
	result, err := h.rankingService.GetRankingData(c.Request.Context(), currentUser(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GetMyRanking handles requests for the caller's own standing.
func (h *RankingHandler) GetMyRanking(c *gin.Context) {
	result, err := h.rankingService.GetMyRanking(c.Request.Context(), currentUser(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GetRankingStats handles requests for the caller's aggregate counters.
func (h *RankingHandler) GetRankingStats(c *gin.Context) {
	result, err := h.rankingService.GetRankingStats(c.Request.Context(), currentUser(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GetSeasonRankings handles requests for the top rankers of one season.
func (h *RankingHandler) GetSeasonRankings(c *gin.Context) {
	season, ok := seasonParam(c)
	if !ok {
		return
	}

	result, err := h.rankingService.GetSeasonRankings(c.Request.Context(), season)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GetPeriodRankings handles requests for the most recent period snapshots.
func (h *RankingHandler) GetPeriodRankings(c *gin.Context) {
	periodType, ok := periodTypeParam(c)
	if !ok {
		return
	}

	result, err := h.rankingService.GetPeriodRankings(c.Request.Context(), periodType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GetRankingHistory handles requests for archived snapshots.
func (h *RankingHandler) GetRankingHistory(c *gin.Context) {
	var qp filters.RankingHistoryQueryParams
	if err := c.ShouldBindQuery(&qp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if qp.PeriodType != "" && !validPeriodTypes[qp.PeriodType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": messages.InvalidPeriodType})
		return
	}

	result, err := h.rankingService.GetRankingHistory(c.Request.Context(), qp.AsFilter())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GetSeasonRewards handles requests for the season reward table.
func (h *RankingHandler) GetSeasonRewards(c *gin.Context) {
	season, ok := seasonParam(c)
	if !ok {
		return
	}

	result, err := h.rankingService.GetSeasonRewards(c.Request.Context(), season)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GetPeriodRewards handles requests for the period reward table.
func (h *RankingHandler) GetPeriodRewards(c *gin.Context) {
	periodType, ok := periodTypeParam(c)
	if !ok {
		return
	}

	result, err := h.rankingService.GetPeriodRewards(c.Request.Context(), periodType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GetStreakRewards handles requests for the streak reward table.
func (h *RankingHandler) GetStreakRewards(c *gin.Context) {
	result, err := h.rankingService.GetStreakRewards(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GetMyReward handles requests for the caller's own reward.
func (h *RankingHandler) GetMyReward(c *gin.Context) {
	result, err := h.rankingService.GetMyReward(c.Request.Context(), currentUser(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// PostGoalScore recomputes the caller's goal achievement score.
func (h *RankingHandler) PostGoalScore(c *gin.Context) {
	if err := h.rankingService.UpdateGoalAchievementScore(c.Request.Context(), currentUser(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": "score updated"})
}

// PostExerciseScore is the best-effort hook fired after a workout is recorded.
func (h *RankingHandler) PostExerciseScore(c *gin.Context) {
	h.rankingService.HandleExerciseCompletion(c.Request.Context(), currentUser(c))
	c.JSON(http.StatusAccepted, gin.H{"result": "score update requested"})
}

// PostNutritionScore is the best-effort hook fired after a meal is logged.
func (h *RankingHandler) PostNutritionScore(c *gin.Context) {
	h.rankingService.HandleMealCompletion(c.Request.Context(), currentUser(c))
	c.JSON(http.StatusAccepted, gin.H{"result": "score update requested"})
}

// PostRecomputePositions resorts the whole active population.
func (h *RankingHandler) PostRecomputePositions(c *gin.Context) {
	if err := h.rankingService.UpdateRankingPositions(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": "positions updated"})
}

// PostSeasonClose archives the running season and starts the next one.
func (h *RankingHandler) PostSeasonClose(c *gin.Context) {
	if err := h.rankingService.TriggerSeasonClose(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": messages.SeasonCloseFailed})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": "season closed"})
}

// seasonParam parses and validates the season path param.
func seasonParam(c *gin.Context) (int, bool) {
	season, err := strconv.Atoi(c.Param("season"))
	if err != nil || season < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": messages.InvalidSeason})
		return 0, false
	}
	return season, true
}

// periodTypeParam validates the period type path param.
func periodTypeParam(c *gin.Context) (string, bool) {
	periodType := c.Param("periodType")
	if !validPeriodTypes[periodType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": messages.InvalidPeriodType})
		return "", false
	}
	return periodType, true
}
