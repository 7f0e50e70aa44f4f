package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/dannyrandall/movies/internal/movies"
	"github.com/dannyrandall/movies/internal/otel"
	"github.com/dannyrandall/movies/internal/store"
	"github.com/sirupsen/logrus"
	otelotel "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const successMessage = "Successfully inserted data!"

type MovieStore interface {
	Put(ctx context.Context, movie movies.Movie) error
}

// Ingest writes the movie carried by an API Gateway request to the store.
type Ingest struct {
	Store  MovieStore
	Log    *logrus.Logger
	Tracer trace.Tracer
}

type message struct {
	Message string `json:"message"`
}

// Handle stores one movie per request: the decoded body, or movies.Default
// when the body is empty. Failures are logged and returned as *IngestError
// without a response.
func (i *Ingest) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	ctx, span := i.tracer().Start(otel.ContextWithLambdaTrace(ctx), "ingest", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	log := i.logger().WithField("requestId", correlationID(ctx, req))
	if id := otel.TraceIDFromContext(ctx); id != "" {
		log = log.WithField("xrayTraceId", id)
	}
	log.WithFields(auditFields(req)).Info("Request received")

	movie, err := i.movie(log, req)
	if err != nil {
		return i.fail(log, span, &IngestError{Kind: KindPayload, Err: err})
	}

	if err := i.Store.Put(ctx, movie); err != nil {
		kind := KindStore
		if errors.Is(err, store.ErrNoTable) {
			kind = KindConfig
		}
		return i.fail(log, span, &IngestError{Kind: kind, Err: err})
	}

	log.WithField("id", movie.ID).Debug("Inserted movie")

	body, err := json.Marshal(message{Message: successMessage})
	if err != nil {
		return i.fail(log, span, fmt.Errorf("encode response: %w", err))
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}, nil
}

func (i *Ingest) movie(log *logrus.Entry, req events.APIGatewayProxyRequest) (movies.Movie, error) {
	if req.Body == "" {
		log.Info("Request without payload, using default data")
		return movies.Default(), nil
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		var err error
		if body, err = base64.StdEncoding.DecodeString(req.Body); err != nil {
			return movies.Movie{}, fmt.Errorf("%w: decode base64 body: %s", movies.ErrInvalidPayload, err)
		}
	}

	item, err := movies.DecodeFields(body)
	if err != nil {
		return movies.Movie{}, err
	}

	// Logged as sent, before any field is checked.
	log.WithField("item", item).Info("Processing payload")
	return movies.FromFields(item)
}

func (i *Ingest) fail(log *logrus.Entry, span trace.Span, err error) (events.APIGatewayProxyResponse, error) {
	span.SetStatus(codes.Error, err.Error())
	log.WithError(err).Error("Error processing request")
	return events.APIGatewayProxyResponse{}, err
}

func (i *Ingest) logger() *logrus.Logger {
	if i.Log == nil {
		return logrus.StandardLogger()
	}
	return i.Log
}

func (i *Ingest) tracer() trace.Tracer {
	if i.Tracer == nil {
		return otelotel.Tracer("")
	}
	return i.Tracer
}
