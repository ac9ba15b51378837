package main

import (
	"lifebit/api/modules"
	"lifebit/api/routes"
	"lifebit/pkg/config"
	"log"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Load the environment variables if not running on Docker.
	if os.Getenv("ENVIRONMENT") != "docker" {
		err := godotenv.Load()
		if err != nil {
			log.Fatal("Error loading .env file")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading the configuration: %v", err)
	}

	// Create a module with all necessary handlers.
	module, err := modules.NewModule(cfg)
	if err != nil {
		log.Fatalf("Error initializing the module: %v", err)
	}

	// Create a new router with the routes setup.
	router := routes.NewRouter(module.Router)
	router.SetupRoutes(
		module.RankingHandler,
	)

	// Start the server.
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Error running the server: %v", err)
	}
}
