//go:build !gcloud

package main

import (
	"context"
	"os"

	"github.com/KasumiMercury/primind-itinerary/internal/observability"
	"github.com/KasumiMercury/primind-itinerary/internal/observability/logging"
)

func initObservability(ctx context.Context) (*observability.Resources, error) {
	serviceName := os.Getenv("SERVICE_NAME")
	if serviceName == "" {
		serviceName = "itinerary"
	}

	env := logging.EnvDev
	if e := os.Getenv("ENV"); e != "" {
		env = logging.Environment(e)
	}

	return observability.Init(ctx, observability.Config{
		ServiceInfo: logging.ServiceInfo{
			Name:    serviceName,
			Version: Version,
		},
		Environment:   env,
		SamplingRate:  1.0,
		DefaultModule: logging.Module("itinerary"),
	})
}
