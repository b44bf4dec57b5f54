package langid

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"langpredict/internal/domain/services"
)

// HealthCheckInterval is how often dependency health is re-evaluated
const HealthCheckInterval = 10 * time.Second

// Check reports the health of one dependency
type Check func(ctx context.Context) error

// RegisterHealthServer registers the standard gRPC health service. The service
// is serving while a profile set is loaded and every check passes. Status is
// refreshed until ctx is done.
func RegisterHealthServer(ctx context.Context, grpcServer *grpc.Server, registry *services.ProfileRegistry, checks ...Check) *health.Server {
	healthServer := health.NewServer()
	update := func() {
		status := grpc_health_v1.HealthCheckResponse_SERVING
		if !healthy(ctx, registry, checks) {
			status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		}
		healthServer.SetServingStatus("", status)
		healthServer.SetServingStatus(ServiceName, status)
	}
	update()

	go func() {
		ticker := time.NewTicker(HealthCheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				healthServer.Shutdown()
				return
			case <-ticker.C:
				update()
			}
		}
	}()

	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	return healthServer
}

func healthy(ctx context.Context, registry *services.ProfileRegistry, checks []Check) bool {
	if !registry.Ready() {
		return false
	}
	for _, check := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := check(checkCtx)
		cancel()
		if err != nil {
			return false
		}
	}
	return true
}
