package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cwrk-planet/presence-relay/config"
	"github.com/cwrk-planet/presence-relay/internal/memory"
	"github.com/cwrk-planet/presence-relay/internal/netutil"
	"github.com/cwrk-planet/presence-relay/internal/service"
	grpcx "github.com/cwrk-planet/presence-relay/internal/transport/grpc"
	httpx "github.com/cwrk-planet/presence-relay/internal/transport/http"
	"github.com/cwrk-planet/presence-relay/internal/transport/ws"
	"github.com/cwrk-planet/presence-relay/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		Level:     logger.ParseLevel(cfg.Logging.Level),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting presence-relay",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- registry & services ---
	participantRepo := memory.NewParticipantRepository()
	memberSvc := service.NewMemberService(participantRepo)
	memberSvc.SetMaxNameLength(cfg.Relay.MaxNameLength)
	chatSvc := service.NewChatService(cfg.Relay.SystemName)

	// --- WS Hub & relay ---
	hub := ws.NewHub()
	relay := service.NewRelay(memberSvc, chatSvc, hub, service.RelayOptions{
		BindSender: cfg.Relay.BindSender,
		InboxSize:  cfg.Relay.InboxSize,
	})
	wsServer := ws.NewServer(hub, relay, ws.Options{
		PingEvery:  cfg.WS.PingEvery,
		WriteWait:  cfg.WS.WriteWait,
		ReadLimit:  cfg.WS.ReadLimit,
		SendBuffer: cfg.WS.SendBuffer,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	relayCtx, stopRelay := context.WithCancel(context.Background())
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		_ = relay.Run(relayCtx)
	}()

	// --- HTTP ---
	handler := httpx.NewHandler(relay)
	router := httpx.NewRouter(handler, wsServer, httpx.RouterOptions{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		StaticDir:      cfg.HTTP.StaticDir,
	})
	httpSrv := &http.Server{
		Addr:        cfg.HTTP.Addr(),
		Handler:     router,
		ReadTimeout: cfg.HTTP.ReadTimeout,
		IdleTimeout: cfg.HTTP.IdleTimeout,
	}

	// --- gRPC health (optional) ---
	var grpcSrv *grpcx.Server
	if cfg.GRPC.Addr != "" {
		grpcSrv = grpcx.NewServer()
	}

	// --- run servers ---
	errCh := make(chan error, 2)

	go func() {
		slog.Info("http listen", "addr", httpSrv.Addr,
			"lan_url", fmt.Sprintf("http://%s", net.JoinHostPort(netutil.LocalIPv4(), strconv.Itoa(cfg.HTTP.Port))))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if grpcSrv != nil {
		go func() {
			lis, err := net.Listen("tcp", cfg.GRPC.Addr)
			if err != nil {
				errCh <- err
				return
			}
			slog.Info("grpc listen", "addr", cfg.GRPC.Addr)
			if err := grpcSrv.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	// --- graceful shutdown ---
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal")
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcSrv != nil {
		grpcSrv.SetServing(false)
	}
	// ws sessions are hijacked: Shutdown does not wait for them
	_ = httpSrv.Shutdown(ctxShutdown)
	hub.CloseAll()
	// let closing sessions publish their leave events before the relay stops
	if err := wsServer.Wait(ctxShutdown); err != nil {
		slog.Warn("ws sessions still open", "err", err)
	}
	if grpcSrv != nil {
		grpcSrv.Stop(ctxShutdown)
	}

	stopRelay()
	<-relayDone
	slog.Info("stopped")
}
