package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-rooms/config"
	room_repo "github.com/xenn00/chat-rooms/internal/repo/room"
	"github.com/xenn00/chat-rooms/internal/routers"
	"github.com/xenn00/chat-rooms/internal/websocket"
	"github.com/xenn00/chat-rooms/internal/worker"
	"github.com/xenn00/chat-rooms/state"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// initialize the application
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if !config.Conf.IsDevelopment() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	appState, err := state.InitAppState(ctx, stop)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application state")
	}
	defer appState.Close()

	if repo, ok := room_repo.NewRoomRepo(appState).(*room_repo.RoomRepo); ok {
		indexCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := repo.EnsureIndexes(indexCtx); err != nil {
			log.Warn().Err(err).Msg("failed to ensure room indexes")
		}
		cancel()
	}

	wsHub := websocket.NewHub()
	defer wsHub.Close()
	log.Info().Msg("Websocket hub initialized")

	relay := websocket.NewRelay(appState.Redis, wsHub)
	if err := relay.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start websocket relay")
	}

	workerPool := worker.NewWorkerPool(appState.Redis, config.Conf.WORKER.Count, relay)
	workerPool.Start(ctx)

	r := routers.NewRouter(config.Conf, appState, wsHub)

	server := &http.Server{
		Addr:              config.Conf.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// serve the application
	go func() {
		log.Info().Msgf("Starting server on http://localhost%s", config.Conf.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("ListenAndServe failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutdown initiated...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		log.Info().Msg("Server exited gracefully.")
	}

	workerPool.Wait()
	relay.Wait()
}
