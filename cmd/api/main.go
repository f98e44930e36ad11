package main

import (
	"os"

	"github.com/atlasedu/rollcall/internal/pkg/logger"
	"github.com/atlasedu/rollcall/internal/server"
)

// @title Rollcall API
// @version 1.0
// @description Attendance session engine: time-bounded sessions with location-verified student check-ins

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
