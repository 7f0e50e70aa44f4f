// Package moviequeue forwards movies queued in SQS to the movies service.
package moviequeue

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/dannyrandall/movies/internal/movies"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultBatchSize = 10

	// Long polling keeps empty receives cheap.
	waitTimeSeconds = 20
)

// SQSAPI is the part of *sqs.Client used by Queue.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type Queue struct {
	SQS    SQSAPI
	HTTP   *http.Client
	Tracer trace.Tracer
	Log    *logrus.Logger

	CreateMovieURL string
	QueueName      string
	QueueURL       string
	// BatchSize is the most messages taken per receive, 1-10. Zero means 10.
	BatchSize int32
}

// ReceiveAndProcess polls the queue until ctx is done. A message that fails
// to forward stays on the queue and is redelivered once its visibility
// timeout expires.
func (q *Queue) ReceiveAndProcess(ctx context.Context) error {
	for ctx.Err() == nil {
		failed, err := q.poll(ctx)
		if err != nil {
			q.Log.WithError(err).Error("Unable to receive messages")
			continue
		}
		if failed > 0 {
			q.Log.WithField("failed", failed).Warn("Messages left on the queue")
		}
	}
	return nil
}

// poll receives one batch and forwards every message in it, returning how
// many could not be forwarded.
func (q *Queue) poll(ctx context.Context) (int, error) {
	ctx, span := q.Tracer.Start(ctx, "poll",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystemKey.String("AmazonSQS"),
			semconv.MessagingDestinationKey.String(q.QueueName),
			semconv.MessagingDestinationKindQueue,
		))
	defer span.End()

	batch := q.BatchSize
	if batch == 0 {
		batch = defaultBatchSize
	}

	res, err := q.SQS.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.QueueURL),
		MaxNumberOfMessages: batch,
		WaitTimeSeconds:     waitTimeSeconds,
	})
	switch {
	case ctx.Err() != nil:
		return 0, nil
	case err != nil:
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("receive message: %w", err)
	}

	span.SetAttributes(attribute.Int("messaging.batch.size", len(res.Messages)))

	var failed int
	for _, msg := range res.Messages {
		log := q.Log.WithField("messageId", aws.ToString(msg.MessageId))
		if err := q.forward(ctx, msg); err != nil {
			failed++
			log.WithError(err).Error("Unable to forward movie")
			continue
		}
		log.Info("Forwarded movie")
	}

	if failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d messages failed", failed, len(res.Messages)))
	}
	return failed, nil
}

// forward posts one message body to the movies service and deletes the
// message once the service accepted it.
func (q *Queue) forward(ctx context.Context, msg types.Message) (err error) {
	ctx, span := q.Tracer.Start(ctx, "forward",
		trace.WithAttributes(semconv.MessagingMessageIDKey.String(aws.ToString(msg.MessageId))))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	body := []byte(aws.ToString(msg.Body))

	// An empty message asks for the default movie, like an empty request.
	if len(body) > 0 {
		movie, err := movies.Decode(body)
		if err != nil {
			return err
		}
		span.SetAttributes(attribute.String("movie.id", movie.ID))
	}

	if err := q.post(ctx, body); err != nil {
		return err
	}
	span.AddEvent("movie created")

	_, err = q.SQS.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.QueueURL),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

func (q *Queue) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, q.CreateMovieURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("post movie: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("post movie: movies service answered %s", resp.Status)
	}
	return nil
}
