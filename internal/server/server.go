package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/anshu-man26/EngageSphere-sub001/internal/observability"
	"github.com/anshu-man26/EngageSphere-sub001/internal/router"
	"github.com/anshu-man26/EngageSphere-sub001/internal/server/middleware"
	"github.com/anshu-man26/EngageSphere-sub001/pkg/config"
	"github.com/anshu-man26/EngageSphere-sub001/pkg/presence"
	"github.com/anshu-man26/EngageSphere-sub001/pkg/transport"
	"github.com/coder/websocket"
)

type App struct {
	logger      *slog.Logger
	registry    presence.Registry
	sink        presence.Sink
	notifier    router.Notifier
	eventRouter *router.EventRouter
	metrics     *observability.Metrics
	wg          sync.WaitGroup
	http        *http.Server
	config      *config.Config

	ctx context.Context
}

func NewApp(logger *slog.Logger, rootCtx context.Context, cfg *config.Config, registry presence.Registry, sink presence.Sink, notifier router.Notifier, metrics *observability.Metrics, metricsHandler http.Handler) *App {
	app := &App{
		logger:      logger,
		registry:    registry,
		sink:        sink,
		notifier:    notifier,
		eventRouter: router.NewEventRouter(logger, registry, notifier),
		metrics:     metrics,
		config:      cfg,
		ctx:         rootCtx,
	}

	authed := func(h http.Handler) http.Handler {
		return middleware.Chain(h,
			middleware.RequestMetadataMiddleware(),
			middleware.NewRequestLogger(app.logger),
			middleware.NewAuthMiddleware(logger, cfg.Server.Auth.JWTSecret),
		)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", authed(http.HandlerFunc(app.upgradeHandler)))
	mux.Handle("/admin/presence", authed(http.HandlerFunc(app.adminPresenceHandler)))
	mux.Handle("/internal/notify", authed(http.HandlerFunc(app.notifyHandler)))
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}

	app.http = &http.Server{Addr: cfg.Server.Address, Handler: mux, BaseContext: func(l net.Listener) context.Context {
		return app.ctx
	}}

	return app
}

func (a *App) Run() error {
	go func() {
		a.logger.Info("Server starting", slog.String("addr", a.http.Addr))
		if err := a.http.ListenAndServe(); err != http.ErrServerClosed {
			a.logger.Error("HTTP server failed", slog.Any("error", err))
		}
	}()

	<-a.ctx.Done()
	return a.Shutdown()
}

func (a *App) upgradeHandler(w http.ResponseWriter, r *http.Request) {
	reqMeta, _ := middleware.ReqMetadataFrom(r.Context())
	connLogger := a.logger.With(
		slog.String("remoteAddr", reqMeta.IP),
		slog.String("userID", reqMeta.UserID),
	)

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		a.logger.Error("Failed to accept websocket connection", slog.Any("error", err))
		return
	}

	conn := transport.NewConnection(
		r.Context(),
		&a.wg,
		wsConn,
		transport.ConnectionConfig(a.config.Transport),
		reqMeta.UserID,
		a.logger,
	)
	conn.SetOnMessageHandler(a.eventRouter.HandleMessage)
	conn.SetOnCloseHandler(func(closed *transport.Connection, err error) {
		// Keyed on the handle so a late close cannot evict a fresh reconnect.
		if removed := a.registry.RemoveConnectionHandle(closed.UserID(), closed.ID()); removed {
			if a.metrics != nil {
				a.metrics.ConnectionsClosed.Inc()
			}
			a.sink.PublishOnlineUserIDs(a.registry.ListOnlineUserIDs())
		}
	})

	// Register: an existing connection for this user is replaced, not joined.
	a.registry.RegisterConnection(reqMeta.UserID, conn)
	if a.metrics != nil {
		a.metrics.ConnectionsOpened.Inc()
	}
	a.sink.PublishOnlineUserIDs(a.registry.ListOnlineUserIDs())

	connLogger.Info("User connection fully established")
	conn.Run()
	<-conn.Done()
}

// Shutdown runs the graceful shutdown sequence.
func (a *App) Shutdown() error {
	a.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.http.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// close all active WebSocket connections.
	a.logger.Info("Closing all active connections...")
	for _, handle := range a.registry.Snapshot() {
		handle.Close(errors.New("graceful shutdown"))
	}

	// wait for all connection goroutines to finish their cleanup.
	a.wg.Wait()
	a.logger.Info("Server shut down gracefully.")
	return nil
}
