package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/dannyrandall/movies/internal/handlers"
	"github.com/dannyrandall/movies/internal/movies"
	"github.com/dannyrandall/movies/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

const (
	maxBodyBytes = 1 << 20

	// requestTimeFormat is the layout API Gateway uses for requestContext.requestTime.
	requestTimeFormat = "02/Jan/2006:15:04:05 -0700"
)

type MovieGetter interface {
	Get(ctx context.Context, id string) (movies.Movie, error)
}

// MovieHandler serves the ingest handler over plain HTTP.
type MovieHandler struct {
	Movies MovieGetter
	Ingest *handlers.Ingest
	Log    *logrus.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

func (m *MovieHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/movies/api/movie", m.getMovie)
	r.Post("/movies/api/movie", m.createMovie)

	return r
}

func (m *MovieHandler) getMovie(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	log := m.Log.WithField("requestId", middleware.GetReqID(r.Context()))

	id := r.URL.Query().Get("id")
	log.WithField("id", id).Info("Getting movie")

	movie, err := m.Movies.Get(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		m.httpError(w, r, http.StatusNotFound, log, "no movie found with id %q", id)
		return
	case err != nil:
		m.httpError(w, r, http.StatusInternalServerError, log, "get movie: %s", err)
		return
	}

	render.JSON(w, r, movie)
}

func (m *MovieHandler) createMovie(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	log := m.Log.WithField("requestId", middleware.GetReqID(r.Context()))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		m.httpError(w, r, http.StatusRequestEntityTooLarge, log, "body exceeds %d bytes", tooLarge.Limit)
		return
	case err != nil:
		m.httpError(w, r, http.StatusBadRequest, log, "read body: %s", err)
		return
	}

	resp, err := m.Ingest.Handle(ctx, proxyRequest(r, body))
	if err != nil {
		// Handle already logged the failure.
		render.Status(r, handlers.StatusCode(err))
		render.JSON(w, r, errorResponse{Error: err.Error()})
		return
	}

	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.WriteString(w, resp.Body); err != nil {
		log.WithError(err).Warn("unable to write response")
	}
}

// proxyRequest describes r the way API Gateway's proxy integration would.
func proxyRequest(r *http.Request, body []byte) events.APIGatewayProxyRequest {
	sourceIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		sourceIP = r.RemoteAddr
	}

	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}

	return events.APIGatewayProxyRequest{
		Path:       r.URL.Path,
		HTTPMethod: r.Method,
		Headers:    headers,
		Body:       string(body),
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID:   middleware.GetReqID(r.Context()),
			RequestTime: time.Now().UTC().Format(requestTimeFormat),
			HTTPMethod:  r.Method,
			Path:        r.URL.Path,
			Identity: events.APIGatewayRequestIdentity{
				SourceIP:  sourceIP,
				UserAgent: r.UserAgent(),
			},
		},
	}
}

func (m *MovieHandler) httpError(w http.ResponseWriter, r *http.Request, code int, log *logrus.Entry, format string, a ...any) {
	str := fmt.Sprintf(format, a...)
	log.Warnf("returning error: %s", str)
	render.Status(r, code)
	render.JSON(w, r, errorResponse{Error: str})
}
