package main

import (
	"os"

	"github.com/Brownie44l1/breed-api/internal/config"
	"github.com/Brownie44l1/breed-api/internal/handlers"
	"github.com/Brownie44l1/breed-api/internal/logger"
	"github.com/Brownie44l1/breed-api/internal/metric"
	"github.com/Brownie44l1/breed-api/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.AppName, cfg.LogLevel)
	if cfg.AppEnv == "prod" || cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics, err := metric.New(cfg.StatsDAddr, cfg.AppName, cfg.AppEnv)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics client")
	}
	defer metrics.Close()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("Failed to create upload directory")
	}

	modelServer, err := model.NewServer(cfg, metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize model server")
	}

	router := handlers.NewRouter(handlers.NewHandler(modelServer, cfg), metrics)

	log.Info().
		Str("port", cfg.Port).
		Str("deployment_id", modelServer.DeploymentID()).
		Dur("timeout", cfg.Timeout).
		Msg("Server starting")
	log.Info().Msg("Endpoints: GET /health, GET / (upload form), POST /, POST /predict, POST /predict/image")
	log.Info().Msgf("Upload test: curl -X POST -F \"image=@dog.jpg\" http://localhost:%s/predict/image", cfg.Port)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
