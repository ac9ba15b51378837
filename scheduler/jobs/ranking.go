package jobs

import (
	"context"
	"fmt"
	"lifebit/api/cache"
	"lifebit/api/clients/platform"
	"lifebit/api/services/notification"
	rankingservice "lifebit/api/services/ranking"
	"lifebit/api/services/score"
	"lifebit/pkg/config"
	"lifebit/pkg/database"
	"lifebit/pkg/logger"
	"lifebit/pkg/redis"
	"log"
	"time"
)

// RunScheduledRankingUpdate recomputes every active user's score, tier and
// position from the latest activity facts.
func RunScheduledRankingUpdate(cfg *config.Config) error {
	log.Println("Starting scheduled ranking update.")

	jobLog, err := logger.CreateLogger()
	if err != nil {
		return fmt.Errorf("couldn't create the job logger: %w", err)
	}

	service, cleanup, err := newRankingService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	startTime := time.Now()
	jobLog.Infof("Scheduled ranking update started.")

	if err := service.ScheduledRankingUpdate(context.Background()); err != nil {
		jobLog.Errorf("Scheduled ranking update failed: %v", err)
		uploadJobLog(cfg, jobLog, "ranking-update")
		return err
	}

	jobLog.Infof("Scheduled ranking update finished in %v.", time.Since(startTime))
	uploadJobLog(cfg, jobLog, "ranking-update")

	log.Println("Finished scheduled ranking update.")
	return nil
}

// RunSeasonClose archives the running season and starts the next one.
func RunSeasonClose(cfg *config.Config) error {
	log.Println("Starting season close.")

	jobLog, err := logger.CreateLogger()
	if err != nil {
		return fmt.Errorf("couldn't create the job logger: %w", err)
	}

	service, cleanup, err := newRankingService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	startTime := time.Now()
	jobLog.Infof("Season close started.")

	if err := service.CloseSeasonAndResetRankings(context.Background()); err != nil {
		jobLog.Errorf("Season close failed: %v", err)
		uploadJobLog(cfg, jobLog, "season-close")
		return err
	}

	jobLog.Infof("Season close finished in %v.", time.Since(startTime))
	uploadJobLog(cfg, jobLog, "season-close")

	log.Println("Finished season close.")
	return nil
}

// newRankingService wires a job-scoped service with fresh connections. The
// returned cleanup closes them.
func newRankingService(cfg *config.Config) (*rankingservice.RankingService, func(), error) {
	db, err := database.NewConnection(cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't get database connection: %w", err)
	}

	redisClient := redis.NewClient(cfg.Redis)
	memCache := cache.NewMemCache(time.Minute)

	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
		redisClient.Close()
		memCache.Close()
	}

	calculator := score.NewCalculator(&score.CalculatorDeps{
		Exercise:  platform.NewExerciseStats(db),
		Nutrition: platform.NewNutritionStats(db),
		Goals:     platform.NewGoalProvider(db),
	})

	service := rankingservice.NewRankingService(&rankingservice.RankingServiceDeps{
		DB:         db,
		MemCache:   memCache,
		Redis:      redisClient,
		Users:      platform.NewUserDirectory(db),
		Calculator: calculator,
		Notifier:   notification.NewTrigger(notification.NewStoredSink(db, redisClient)),
	})

	return service, cleanup, nil
}

// uploadJobLog ships the run log, skipping silently when no bucket is set.
func uploadJobLog(cfg *config.Config, jobLog *logger.NewLogger, jobName string) {
	if cfg.Bucket.LogBucket == "" {
		return
	}

	objectKey := fmt.Sprintf("%s/%s.log", jobName, time.Now().Format("2006-01-02T15-04-05"))
	if err := jobLog.UploadToS3Bucket(cfg.Bucket, objectKey); err != nil {
		log.Printf("Couldn't upload the job log: %v", err)
	}
}
