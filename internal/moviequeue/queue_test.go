package moviequeue

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/dannyrandall/movies/internal/movies"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

type fakeSQS struct {
	msgs     []types.Message
	deleted  []string
	cancel   context.CancelFunc
	recvErr  error
	maxCount int32
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	if f.recvErr != nil {
		return nil, f.recvErr
	}
	f.maxCount = in.MaxNumberOfMessages
	msgs := f.msgs
	f.msgs = nil
	if len(msgs) == 0 && f.cancel != nil {
		f.cancel()
	}
	return &sqs.ReceiveMessageOutput{Messages: msgs}, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func message(id, body string) types.Message {
	return types.Message{
		MessageId:     aws.String(id),
		ReceiptHandle: aws.String("rh-" + id),
		Body:          aws.String(body),
	}
}

func newQueue(t *testing.T, q *fakeSQS, status int) (*Queue, *[]string, *test.Hook) {
	t.Helper()
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		bodies = append(bodies, string(b))
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	log, hook := test.NewNullLogger()
	return &Queue{
		SQS:            q,
		HTTP:           srv.Client(),
		Tracer:         trace.NewNoopTracerProvider().Tracer(""),
		Log:            log,
		CreateMovieURL: srv.URL + "/movies/api/movie",
		QueueName:      "movies-test-createMovie",
		QueueURL:       "https://sqs.example/movies-test-createMovie",
	}, &bodies, hook
}

func TestQueue_ReceiveAndProcess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := &fakeSQS{cancel: cancel, msgs: []types.Message{
		message("m1", `{"year":1999,"title":"The Matrix","id":"abc"}`),
	}}
	q, bodies, _ := newQueue(t, f, http.StatusOK)

	require.NoError(t, q.ReceiveAndProcess(ctx))
	assert.Equal(t, int32(defaultBatchSize), f.maxCount)

	assert.Equal(t, []string{`{"year":1999,"title":"The Matrix","id":"abc"}`}, *bodies)
	assert.Equal(t, []string{"rh-m1"}, f.deleted)
}

func TestQueue_EmptyMessageForwarded(t *testing.T) {
	f := &fakeSQS{msgs: []types.Message{message("m1", "")}}
	q, bodies, _ := newQueue(t, f, http.StatusOK)

	failed, err := q.poll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, failed)
	assert.Equal(t, []string{""}, *bodies)
	assert.Equal(t, []string{"rh-m1"}, f.deleted)
}

func TestQueue_InvalidMessageKept(t *testing.T) {
	f := &fakeSQS{msgs: []types.Message{
		message("m1", `{"title":"no year"}`),
		message("m2", `{"year":1999,"title":"The Matrix","id":"abc"}`),
	}}
	q, bodies, hook := newQueue(t, f, http.StatusOK)

	failed, err := q.poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, failed)

	// The bad message does not hold back the rest of the batch.
	assert.Equal(t, []string{`{"year":1999,"title":"The Matrix","id":"abc"}`}, *bodies)
	assert.Equal(t, []string{"rh-m2"}, f.deleted)

	first := hook.AllEntries()[0]
	assert.Equal(t, logrus.ErrorLevel, first.Level)
	assert.Equal(t, "m1", first.Data["messageId"])
	assert.ErrorIs(t, first.Data[logrus.ErrorKey].(error), movies.ErrInvalidPayload)
}

func TestQueue_ServiceErrorKept(t *testing.T) {
	f := &fakeSQS{msgs: []types.Message{message("m1", `{"year":1999,"title":"The Matrix","id":"abc"}`)}}
	q, _, hook := newQueue(t, f, http.StatusBadGateway)

	failed, err := q.poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, failed)
	assert.Empty(t, f.deleted)
	assert.Contains(t, hook.LastEntry().Data[logrus.ErrorKey].(error).Error(), "502")
}

func TestQueue_ReceiveError(t *testing.T) {
	f := &fakeSQS{recvErr: errors.New("AccessDenied")}
	q, _, _ := newQueue(t, f, http.StatusOK)

	_, err := q.poll(context.Background())
	assert.ErrorContains(t, err, "receive message")
}
