package copilot

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Env holds the variables Copilot injects into every service.
type Env struct {
	App         string `envconfig:"COPILOT_APPLICATION_NAME"`
	Environment string `envconfig:"COPILOT_ENVIRONMENT_NAME"`
	Service     string `envconfig:"COPILOT_SERVICE_NAME"`
	QueueURI    string `envconfig:"COPILOT_QUEUE_URI"`
}

func Load() (Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return Env{}, fmt.Errorf("process copilot env: %w", err)
	}
	return env, nil
}

// ServiceName returns app-env-svc, or fallback outside of a Copilot deployment.
func (e Env) ServiceName(fallback string) string {
	if e.App == "" || e.Environment == "" || e.Service == "" {
		return fallback
	}

	return fmt.Sprintf("%s-%s-%s", e.App, e.Environment, e.Service)
}

// ServiceEndpoint is the service discovery URL of another service in the
// same environment.
func (e Env) ServiceEndpoint(svc string, port int, path string) string {
	return fmt.Sprintf("http://%s.%s.%s.local:%d%s", svc, e.Environment, e.App, port, path)
}
