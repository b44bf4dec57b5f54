package langid

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"langpredict/internal/detection"
	"langpredict/internal/domain/models"
	"langpredict/internal/domain/services"
	"langpredict/internal/streaming"
	"langpredict/pkg/logger"
)

// Server implements the LanguageDetection gRPC service
type Server struct {
	detection *services.DetectionService
	registry  *services.ProfileRegistry
	bus       *streaming.EventBus
	logger    *logger.Logger
}

// NewServer creates a new gRPC server. bus may be nil, in which case
// StreamDetections is unavailable.
func NewServer(svc *services.DetectionService, registry *services.ProfileRegistry, bus *streaming.EventBus, log *logger.Logger) *Server {
	return &Server{
		detection: svc,
		registry:  registry,
		bus:       bus,
		logger:    log.WithComponent("grpc-server"),
	}
}

// Register registers the server with a gRPC server
func (s *Server) Register(grpcServer *grpc.Server) {
	RegisterLanguageDetectionServer(grpcServer, s)
}

// Detect identifies the language of one text
func (s *Server) Detect(ctx context.Context, req *models.DetectionRequest) (*models.DetectionResult, error) {
	if !s.registry.Ready() {
		return nil, status.Error(codes.Unavailable, "no language profiles loaded")
	}
	result, err := s.detection.Detect(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return result, nil
}

// ListLanguages returns the languages of the active profile set
func (s *Server) ListLanguages(ctx context.Context, _ *ListLanguagesRequest) (*ListLanguagesResponse, error) {
	info, err := s.registry.Info()
	if err != nil {
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	return &ListLanguagesResponse{Languages: info.Languages, Fingerprint: info.Fingerprint}, nil
}

// StreamDetections streams events until the client goes away
func (s *Server) StreamDetections(req *StreamDetectionsRequest, stream EventStream) error {
	if s.bus == nil {
		return status.Error(codes.Unimplemented, "event streaming is disabled")
	}
	ctx := stream.Context()

	events, unsubscribe := s.bus.Subscribe(ctx, &streaming.Subscription{Types: req.Types, Languages: req.Languages})
	defer unsubscribe()

	s.logger.Info().Msg("client connected to detection stream")
	defer s.logger.Info().Msg("client disconnected from detection stream")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return status.Error(codes.Unavailable, "event bus closed")
			}
			if err := stream.Send(event); err != nil {
				return err
			}
		}
	}
}

// toStatus maps detection errors to gRPC status codes
func toStatus(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	switch detection.KindOf(err) {
	case detection.KindConfiguration:
		return status.Error(codes.InvalidArgument, err.Error())
	case detection.KindNoFeatures:
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
