package app

import (
	"context"
	"net/http"

	"auth-gateway/internal/config"
	"auth-gateway/internal/session"
)

type App struct {
	httpServer *http.Server
	cleanup    func() error

	sweepCancel context.CancelFunc
	sweepDone   chan struct{}
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	router, sessionStore, cleanup, err := setupHTTP(ctx, cfg)
	if err != nil {
		return nil, err
	}

	server := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: router,
	}

	// The expiry sweep lives for the whole process; Shutdown cancels it
	// and waits for it to drain.
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	sweepDone := make(chan struct{})

	sweeper := session.NewSweeper(sessionStore, session.SweepInterval)
	go func() {
		defer close(sweepDone)
		sweeper.Run(sweepCtx)
	}()

	return &App{
		httpServer:  server,
		cleanup:     cleanup,
		sweepCancel: sweepCancel,
		sweepDone:   sweepDone,
	}, nil
}

func (a *App) Run() error {
	return a.httpServer.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		return err
	}

	a.sweepCancel()
	select {
	case <-a.sweepDone:
	case <-ctx.Done():
	}

	if a.cleanup != nil {
		return a.cleanup()
	}
	return nil
}
