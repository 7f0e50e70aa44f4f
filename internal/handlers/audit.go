package handlers

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/sirupsen/logrus"
)

// correlationID prefers the Lambda invocation id and falls back to the id
// API Gateway assigned to the request.
func correlationID(ctx context.Context, req events.APIGatewayProxyRequest) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return req.RequestContext.RequestID
}

// auditFields describes the caller of a request. Fields the gateway did not
// fill in are left out.
func auditFields(req events.APIGatewayProxyRequest) logrus.Fields {
	rc := req.RequestContext
	fields := logrus.Fields{}
	for k, v := range map[string]string{
		"sourceIp":    rc.Identity.SourceIP,
		"userAgent":   rc.Identity.UserAgent,
		"requestTime": rc.RequestTime,
		"httpMethod":  rc.HTTPMethod,
		"path":        rc.Path,
	} {
		if v != "" {
			fields[k] = v
		}
	}
	return fields
}
