package otel

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-xray-sdk-go/header"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"github.com/aws/aws-xray-sdk-go/xray"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	otelxray "go.opentelemetry.io/contrib/propagators/aws/xray"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Mode selects how a process reports traces.
type Mode string

const (
	// ModeXRay uses the X-Ray SDK, which picks up the segment Lambda opens
	// for each invocation.
	ModeXRay Mode = "xray"
	// ModeOTel exports through an OTLP collector.
	ModeOTel Mode = "otel"
	ModeNone Mode = "none"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeXRay, ModeOTel, ModeNone:
		return m, nil
	case "":
		return ModeNone, nil
	default:
		return "", fmt.Errorf("unknown tracing mode %q", s)
	}
}

// Decode implements envconfig.Decoder.
func (m *Mode) Decode(value string) error {
	mode, err := ParseMode(value)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// InstrumentAWS traces every call made by clients built from cfg.
func InstrumentAWS(mode Mode, cfg *aws.Config) {
	switch mode {
	case ModeOTel:
		otelaws.AppendMiddlewares(&cfg.APIOptions)
	case ModeXRay:
		awsv2.AWSV2Instrumentor(&cfg.APIOptions)
	}
}

// TraceIDFromContext returns the X-Ray formatted trace id of the active
// trace, or "" when there is none.
func TraceIDFromContext(ctx context.Context) string {
	if span := trace.SpanFromContext(ctx); span.SpanContext().HasTraceID() {
		return XRayTraceID(span)
	}

	if seg := xray.GetSegment(ctx); seg != nil {
		return seg.TraceID
	}

	// Lambda hands the invocation's trace header to the handler context.
	if h, ok := ctx.Value(xray.LambdaTraceHeaderKey).(string); ok && h != "" {
		return header.FromString(h).TraceID
	}

	return ""
}

// ContextWithLambdaTrace makes the trace Lambda opened for the invocation the
// remote parent of spans started from the returned context.
func ContextWithLambdaTrace(ctx context.Context) context.Context {
	if trace.SpanContextFromContext(ctx).IsValid() {
		return ctx
	}

	h, ok := ctx.Value(xray.LambdaTraceHeaderKey).(string)
	if !ok || h == "" {
		return ctx
	}

	return otelxray.Propagator{}.Extract(ctx, propagation.MapCarrier{"X-Amzn-Trace-Id": h})
}
