package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oratio-labs/oratio-svc/api/handlers"
	"github.com/oratio-labs/oratio-svc/config"
	"github.com/oratio-labs/oratio-svc/internal/metrics"
	"github.com/oratio-labs/oratio-svc/internal/mongodb"
	"github.com/oratio-labs/oratio-svc/internal/server"
	"github.com/oratio-labs/oratio-svc/internal/telemetry"
	"github.com/oratio-labs/oratio-svc/llm/embedding"
	"github.com/oratio-labs/oratio-svc/llm/providers/azure"
	"github.com/oratio-labs/oratio-svc/llm/tokenizer"
	"github.com/oratio-labs/oratio-svc/rag"
)

// Server owns the wired service: the API server, the metrics server, and
// the resources their shutdown must release.
type Server struct {
	cfg        *config.Config
	logger     *zap.Logger
	apiServer  *server.Manager
	metricsSrv *server.Manager
	mongo      *mongodb.Client
	telemetry  *telemetry.Providers
}

// NewServer connects the backing services and assembles the pipeline and
// HTTP surface.
func NewServer(cfg *config.Config, logger *zap.Logger, otelProviders *telemetry.Providers) (*Server, error) {
	ctx := context.Background()

	mongoClient, err := mongodb.Connect(ctx, cfg.Mongo, logger)
	if err != nil {
		return nil, err
	}

	ref, err := cfg.Collection(cfg.Domain)
	if err != nil {
		_ = mongoClient.Close(ctx)
		return nil, err
	}

	collector := metrics.NewCollector("oratio", nil)
	chatProvider := azure.New(cfg.Chat, logger)
	embedder := embedding.NewAzureProvider(cfg.Embeddings)

	store := rag.NewMongoVectorStore(
		mongoClient.Collection(ref.Database, ref.Collection),
		embedder,
		rag.StoreOptions{DefaultTitle: ref.Title, DefaultSource: ref.Source},
		logger,
	)

	pipeline := rag.NewPipeline(
		rag.NewExpander(chatProvider, cfg.Expander, logger),
		store,
		rag.NewSynthesizer(chatProvider, cfg.Synthesizer, logger),
		tokenizer.ForModel(cfg.Synthesizer.Model),
		cfg.Pipeline,
		collector,
		logger,
	)

	router := handlers.NewRouter(
		handlers.NewAnswerHandler(pipeline, logger),
		handlers.NewHealthHandler(mongoClient, Version, logger),
		collector,
	)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	return &Server{
		cfg:        cfg,
		logger:     logger,
		apiServer:  server.NewManager(router, cfg.Server, logger),
		metricsSrv: server.NewManager(metricsMux, server.Config{Addr: cfg.MetricsAddr}, logger),
		mongo:      mongoClient,
		telemetry:  otelProviders,
	}, nil
}

// Run starts both listeners and blocks until a termination signal or a
// server failure, then shuts everything down.
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.apiServer.Start(); err != nil {
		return err
	}
	if err := s.metricsSrv.Start(); err != nil {
		_ = s.apiServer.Shutdown()
		return err
	}
	s.logger.Info("oratio ready",
		zap.String("api_addr", s.apiServer.Addr()),
		zap.String("metrics_addr", s.metricsSrv.Addr()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.apiServer.Wait(gctx) })
	g.Go(func() error { return s.metricsSrv.Wait(gctx) })
	err := g.Wait()

	s.close()
	return err
}

// close releases backing resources after the listeners have drained.
func (s *Server) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if cerr := s.mongo.Close(ctx); cerr != nil {
		s.logger.Warn("mongodb close failed", zap.Error(cerr))
	}
	if terr := s.telemetry.Shutdown(ctx); terr != nil {
		s.logger.Warn("telemetry shutdown failed", zap.Error(terr))
	}
}
