package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/dannyrandall/movies/internal/copilot"
	"github.com/dannyrandall/movies/internal/handlers"
	"github.com/dannyrandall/movies/internal/logging"
	"github.com/dannyrandall/movies/internal/otel"
	"github.com/dannyrandall/movies/internal/store"
	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/contrib/detectors/aws/ecs"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type env struct {
	MoviesTable string    `envconfig:"MOVIES_NAME" required:"true"`
	Port        int       `envconfig:"PORT" default:"8080"`
	Tracing     otel.Mode `envconfig:"TRACING" default:"otel"`
	LogLevel    string    `envconfig:"LOG_LEVEL" default:"info"`
}

func main() {
	var e env
	if err := envconfig.Process("", &e); err != nil {
		log.Fatalf("unable to process env: %s", err)
	}

	logger, err := logging.New(e.LogLevel)
	if err != nil {
		log.Fatalf("unable to setup logger: %s", err)
	}
	logger.Infof("Using %q as the DynamoDB movies table", e.MoviesTable)

	cp, err := copilot.Load()
	if err != nil {
		logger.Fatalf("unable to load copilot env: %s", err)
	}
	svcName := cp.ServiceName("movies")

	// Timeout for setup functions
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if e.Tracing == otel.ModeOTel {
		tp, err := otel.SetupTracer(ctx, svcName, ecs.NewResourceDetector())
		if err != nil {
			logger.Fatalf("unable to setup otel tracer: %s", err)
		}
		defer tp.Shutdown(context.Background())
	}

	// Load AWS SDK config
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Fatalf("unable to load aws config: %s", err)
	}
	otel.InstrumentAWS(e.Tracing, &cfg)

	table := &store.Table{
		Dynamo: dynamodb.NewFromConfig(cfg),
		Name:   e.MoviesTable,
	}

	mh := &MovieHandler{
		Movies: table,
		Ingest: &handlers.Ingest{Store: table, Log: logger},
		Log:    logger,
	}

	var handler http.Handler = mh.Routes()
	switch e.Tracing {
	case otel.ModeOTel:
		handler = otelhttp.NewHandler(handler, "movie")
	case otel.ModeXRay:
		handler = xray.Handler(xray.NewFixedSegmentNamer(svcName), handler)
	}

	addr := fmt.Sprintf(":%d", e.Port)
	logger.Infof("Starting server on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatalf("error serving: %s", err)
	}
}
