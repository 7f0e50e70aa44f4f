package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/dannyrandall/movies/internal/copilot"
	"github.com/dannyrandall/movies/internal/logging"
	"github.com/dannyrandall/movies/internal/moviequeue"
	"github.com/dannyrandall/movies/internal/otel"
	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/contrib/detectors/aws/ecs"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	otelotel "go.opentelemetry.io/otel"
)

type env struct {
	// Defaults to the movies backend service in the same Copilot environment.
	CreateMovieURL string    `envconfig:"CREATE_MOVIE_URL"`
	Tracing        otel.Mode `envconfig:"TRACING" default:"otel"`
	LogLevel       string    `envconfig:"LOG_LEVEL" default:"info"`
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

	cp, err := copilot.Load()
	if err != nil {
		logger.Fatalf("unable to load copilot env: %s", err)
	}
	if cp.QueueURI == "" {
		logger.Fatalf("COPILOT_QUEUE_URI is not set")
	}
	if e.CreateMovieURL == "" {
		e.CreateMovieURL = cp.ServiceEndpoint("movies-backend-service", 8080, "/movies/api/movie")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if e.Tracing == otel.ModeOTel {
		tp, err := otel.SetupTracer(ctx, cp.ServiceName("movies-processor"), ecs.NewResourceDetector())
		if err != nil {
			logger.Fatalf("unable to setup otel tracer: %s", err)
		}
		defer tp.Shutdown(context.Background())
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Fatalf("unable to load aws config: %s", err)
	}
	otel.InstrumentAWS(e.Tracing, &cfg)

	q := &moviequeue.Queue{
		SQS:            sqs.NewFromConfig(cfg),
		HTTP:           otelhttp.DefaultClient,
		Tracer:         otelotel.Tracer(""),
		Log:            logger,
		QueueName:      fmt.Sprintf("%s-%s-createMovie", cp.App, cp.Environment),
		QueueURL:       cp.QueueURI,
		CreateMovieURL: e.CreateMovieURL,
	}

	logger.Infof("Waiting for events from %s", q.QueueURL)

	if err := q.ReceiveAndProcess(ctx); err != nil {
		logger.Fatalf("unable to receive and process: %s", err)
	}
}
