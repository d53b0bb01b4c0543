package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jd-116/announcement-hub/env"
)

// Starts the announcement hub API and waits for termination signals.
// This function blocks.
func main() {
	envPath := flag.String("env", "", "path to .env file")
	logFormat := flag.String("log-format", "console", "log format (one of 'json', 'console')")
	flag.Parse()

	logger, err := newLogger(*logFormat, os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Str("log_format", *logFormat).Msg("could not set up logging")
	}

	// Route the standard logger through zerolog
	stdlog.SetFlags(0)
	stdlog.SetOutput(logger)

	// Load the .env file if it is specified
	if *envPath != "" {
		if err := godotenv.Load(*envPath); err != nil {
			logger.Fatal().Err(err).Str("env_path", *envPath).Msg("error loading .env file")
		}
		logger.Info().Str("env_path", *envPath).Msg("loaded environment variables from file")
	}

	apiPort, err := env.GetIntEnv("server port", "PORT")
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load PORT from env")
	}

	serverCtx, cancel := context.WithCancel(context.Background())
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	// Propagate termination signals to the cancellation of the server context
	go func() {
		sig := <-done
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	server, err := NewAPIServer(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not initialize API server object")
	}

	connectCtx, connectCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer connectCancel()
	if err := server.Connect(connectCtx); err != nil {
		logger.Fatal().Err(err).Msg("could not connect to downstream services")
	}

	defer func() {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer disconnectCancel()
		if err := server.Disconnect(disconnectCtx); err != nil {
			logger.Error().Err(err).Msg("error disconnecting from downstream services")
		}
	}()

	server.Serve(serverCtx, apiPort)
}

// newLogger builds the process logger in the given format,
// human-readable for "console" and one JSON object per line for "json"
func newLogger(format string, out io.Writer) (zerolog.Logger, error) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	switch format {
	case "console":
		return zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger(), nil
	case "json":
		return zerolog.New(out).With().Timestamp().Logger(), nil
	}
	return zerolog.Nop(), fmt.Errorf("unknown log format '%s'", format)
}
