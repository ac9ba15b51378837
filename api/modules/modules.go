package modules

import (
	"fmt"
	"lifebit/api/cache"
	"lifebit/api/clients/platform"
	"lifebit/api/handlers"
	"lifebit/api/services/notification"
	rankingservice "lifebit/api/services/ranking"
	"lifebit/api/services/score"
	"lifebit/pkg/config"
	"lifebit/pkg/database"
	"lifebit/pkg/redis"
	"time"

	"github.com/gin-gonic/gin"
)

// Module containing the necessary handlers.
type Module struct {
	Router         *gin.Engine
	RankingHandler *handlers.RankingHandler
}

// Create a new module with all the necessary handlers initialized.
func NewModule(cfg *config.Config) (*Module, error) {
	router := gin.Default()

	db, err := database.NewConnection(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("couldn't connect to the database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("couldn't access the underlying connection: %w", err)
	}
	if err := database.RunMigrations(cfg, sqlDB); err != nil {
		return nil, fmt.Errorf("couldn't run the migrations: %w", err)
	}

	redisClient := redis.NewClient(cfg.Redis)
	memCache := cache.NewMemCache(time.Minute)

	calculator := score.NewCalculator(&score.CalculatorDeps{
		Exercise:  platform.NewExerciseStats(db),
		Nutrition: platform.NewNutritionStats(db),
		Goals:     platform.NewGoalProvider(db),
	})

	notifier := notification.NewTrigger(notification.NewStoredSink(db, redisClient))

	rankingService := rankingservice.NewRankingService(&rankingservice.RankingServiceDeps{
		DB:         db,
		MemCache:   memCache,
		Redis:      redisClient,
		Users:      platform.NewUserDirectory(db),
		Calculator: calculator,
		Notifier:   notifier,
	})

	rankingHandler := handlers.NewRankingHandler(rankingService)

	// Return the module with all handlers.
	return &Module{
		Router:         router,
		RankingHandler: rankingHandler,
	}, nil
}
