package main

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/dannyrandall/movies/internal/handlers"
	"github.com/dannyrandall/movies/internal/logging"
	"github.com/dannyrandall/movies/internal/otel"
	"github.com/dannyrandall/movies/internal/store"
	"github.com/kelseyhightower/envconfig"
)

type env struct {
	// Not required: an invocation without a table fails at write time.
	TableName string    `envconfig:"TABLE_NAME"`
	Tracing   otel.Mode `envconfig:"TRACING" default:"xray"`
	LogLevel  string    `envconfig:"LOG_LEVEL" default:"info"`
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

	if e.TableName == "" {
		logger.Warn("TABLE_NAME is not set, every request will fail")
	}

	// Timeout for setup functions
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Fatalf("unable to load aws config: %s", err)
	}
	otel.InstrumentAWS(e.Tracing, &cfg)

	ingest := &handlers.Ingest{
		Store: &store.Table{
			Dynamo: dynamodb.NewFromConfig(cfg),
			Name:   e.TableName,
		},
		Log: logger,
	}

	handler := ingest.Handle
	if e.Tracing == otel.ModeOTel {
		svcName := lambdacontext.FunctionName
		if svcName == "" {
			svcName = "movie-ingest"
		}

		tp, err := otel.SetupTracer(ctx, svcName)
		if err != nil {
			logger.Fatalf("unable to setup otel tracer: %s", err)
		}

		// The sandbox may freeze as soon as the handler returns.
		handler = func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
			defer func() {
				if err := tp.ForceFlush(ctx); err != nil {
					logger.WithError(err).Warn("unable to flush spans")
				}
			}()
			return ingest.Handle(ctx, req)
		}
	}

	logger.WithField("table", e.TableName).WithField("tracing", e.Tracing).Info("Starting movie ingest")
	lambda.Start(handler)
}
