package routes

import (
	"lifebit/api/handlers"

	"github.com/gin-gonic/gin"
)

type Router struct {
	engine *gin.Engine
	api    *gin.RouterGroup
}

func NewRouter(engine *gin.Engine) *Router {
	return &Router{
		api:    engine.Group("/api/v1"),
		engine: engine,
	}
}

func (r *Router) SetupRoutes(handlerList ...any) {
	for _, h := range handlerList {
		switch handler := h.(type) {
		case *handlers.RankingHandler:
			r.registerRankingHandler(handler)
		}
	}
}

// Register the ranking handler.
func (r *Router) registerRankingHandler(handler *handlers.RankingHandler) {
	ranking := r.api.Group("/ranking")
	ranking.Use(handlers.RequireUser())
	{
		ranking.GET("", handler.GetRankingData)
		ranking.GET("/me", handler.GetMyRanking)
		ranking.GET("/stats", handler.GetRankingStats)
		ranking.GET("/seasons/:season", handler.GetSeasonRankings)
		ranking.GET("/periods/:periodType", handler.GetPeriodRankings)
		ranking.GET("/history", handler.GetRankingHistory)
		ranking.GET("/rewards/season/:season", handler.GetSeasonRewards)
		ranking.GET("/rewards/period/:periodType", handler.GetPeriodRewards)
		ranking.GET("/rewards/streak", handler.GetStreakRewards)
		ranking.GET("/rewards/me", handler.GetMyReward)

		ranking.POST("/score/goal", handler.PostGoalScore)
		ranking.POST("/score/exercise", handler.PostExerciseScore)
		ranking.POST("/score/nutrition", handler.PostNutritionScore)
		ranking.POST("/positions/recompute", handler.PostRecomputePositions)
	}

	admin := r.api.Group("/ranking/admin")
	{
		admin.POST("/season/close", handler.PostSeasonClose)
	}
}

// Start the router.
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
