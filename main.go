package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mama165/sdk-go/logs"
	"github.com/rs/cors"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"briar-gateway/internal/config"
	"briar-gateway/internal/db"
	"briar-gateway/internal/eventbus"
	grpchealth "briar-gateway/internal/grpc"
	"briar-gateway/internal/handlers"
	"briar-gateway/internal/ingest"
	"briar-gateway/internal/observability"
	"briar-gateway/internal/rabbitmq"
	"briar-gateway/internal/repositories"
	"briar-gateway/internal/telemetry"
	"briar-gateway/internal/views"
	"briar-gateway/internal/ws"
)

const (
	auditRoutingKey = "audit.gateway"
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	token, err := cfg.AuthToken()
	if err != nil {
		return fmt.Errorf("auth token: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.Environment)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			log.Warn("Tracer shutdown failed", "err", err)
		}
	}()

	database, err := db.Connect(ctx, cfg.DBDSN, log)
	if err != nil {
		return err
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, log)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	log.Info("Telemetry publisher ready", "mode", rabbitmq.PublisherMode(publisher), "noop_reason", rabbitmq.PublisherNoopReason(publisher))
	auditor := telemetry.NewAuditEmitter(publisher, auditRoutingKey, cfg.ServiceName, cfg.Environment, log)

	bus := eventbus.New(cfg.EventBufferSize, log)
	busDone := make(chan struct{})
	go func() {
		defer close(busDone)
		bus.Run(context.Background())
	}()
	defer func() {
		bus.Close()
		<-busDone
	}()

	identity, err := repositories.NewIdentityRepo(ctx, database, cfg.Nickname)
	if err != nil {
		return err
	}
	contacts := repositories.NewContactRepo(database, identity, bus, log)
	conversations := repositories.NewConversationRepo(database, bus, log)
	connections := repositories.NewConnectionRegistry(bus)
	forums := repositories.NewForumRepo(database)
	blogs := repositories.NewBlogRepo(database, identity)
	log.Info("Local identity loaded", "nickname", identity.LocalAuthor().Name)

	sessions := ws.NewRegistry()
	encoder := views.NewEncoder()
	broadcaster := ws.NewBroadcaster(sessions, encoder, log)

	contactHandler := handlers.NewContactHandler(contacts, conversations, connections, broadcaster, encoder, auditor, log)
	messageHandler := handlers.NewMessageHandler(contacts, conversations, conversations, broadcaster, encoder, auditor, log)
	defer bus.Subscribe(contactHandler.OnEvent)()
	defer bus.Subscribe(messageHandler.OnEvent)()

	eventsWS := ws.NewEventsWebSocketHandler(sessions, token, log, ws.Options{
		AuthTimeout:    cfg.WSAuthTimeout,
		WriteTimeout:   cfg.WSWriteTimeout,
		OutboxSize:     cfg.WSOutboxSize,
		AllowedOrigins: cfg.Origins(),
	})

	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware(cfg.ServiceName), observability.RequestIDMiddleware(),
		observability.RequestLogger(log), observability.HTTPMetricsMiddleware())
	registerRoutes(router, token, routes{
		contacts: contactHandler,
		messages: messageHandler,
		forums:   handlers.NewForumHandler(forums, encoder, auditor, log),
		blogs:    handlers.NewBlogHandler(blogs, encoder, auditor, log),
		events:   eventsWS,
		sessions: sessions,
		auditor:  auditor,
		encoder:  encoder,
		log:      log,
		debug:    cfg.Debug,
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newCORS(cfg.Origins()).Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 3)
	go func() {
		log.Info("Starting HTTP server", "address", server.Addr, "debug", cfg.Debug)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if cfg.GRPCHealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCHealthAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.GRPCHealthAddr, err)
		}
		health := grpchealth.NewHealthServer(log)
		health.SetServing(true)
		go func() {
			if err := health.Serve(ctx, lis); err != nil {
				errChan <- fmt.Errorf("gRPC health server error: %w", err)
			}
		}()
	}

	if cfg.AMQPURL != "" {
		ingester := ingest.New(contacts, conversations, connections, blogs, log)
		consumer, err := rabbitmq.NewConsumer(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, ingester.Handle, log)
		if err != nil {
			log.Warn("Core report consumer disabled", "err", err)
		} else {
			defer consumer.Close()
			go func() {
				if err := consumer.Run(ctx); err != nil {
					errChan <- fmt.Errorf("core report consumer: %w", err)
				}
			}()
		}
	}

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		shutdownHTTP(server, log)
		return err
	}

	shutdownHTTP(server, log)
	log.Info("Program stopped cleanly")
	return nil
}

func shutdownHTTP(server *http.Server, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Warn("HTTP server shutdown failed", "err", err)
	}
}

func newCORS(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", observability.RequestIDHeader},
		ExposedHeaders: []string{"Content-Length", observability.RequestIDHeader},
		MaxAge:         300,
	})
}
