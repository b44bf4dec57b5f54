// Package langid exposes language detection over gRPC. Messages are the
// service's Go models encoded with a JSON codec, so the service descriptor is
// declared by hand instead of generated.
package langid

import (
	"context"

	"google.golang.org/grpc"

	"langpredict/internal/domain/models"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "langpredict.v1.LanguageDetection"

const (
	detectMethod           = "/" + ServiceName + "/Detect"
	listLanguagesMethod    = "/" + ServiceName + "/ListLanguages"
	streamDetectionsMethod = "/" + ServiceName + "/StreamDetections"
)

// ListLanguagesRequest asks for the active profile set
type ListLanguagesRequest struct{}

// ListLanguagesResponse describes the active profile set
type ListLanguagesResponse struct {
	Languages   []string `json:"languages"`
	Fingerprint string   `json:"fingerprint"`
}

// StreamDetectionsRequest filters the event stream. Empty fields match all.
type StreamDetectionsRequest struct {
	Types     []models.EventType `json:"types,omitempty"`
	Languages []string           `json:"languages,omitempty"`
}

// LanguageDetectionServer is the server API of the service
type LanguageDetectionServer interface {
	Detect(context.Context, *models.DetectionRequest) (*models.DetectionResult, error)
	ListLanguages(context.Context, *ListLanguagesRequest) (*ListLanguagesResponse, error)
	StreamDetections(*StreamDetectionsRequest, EventStream) error
}

// EventStream is the server side of StreamDetections
type EventStream interface {
	Send(*models.Event) error
	grpc.ServerStream
}

type eventStream struct {
	grpc.ServerStream
}

func (s *eventStream) Send(e *models.Event) error {
	return s.ServerStream.SendMsg(e)
}

// RegisterLanguageDetectionServer registers srv with s
func RegisterLanguageDetectionServer(s grpc.ServiceRegistrar, srv LanguageDetectionServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LanguageDetectionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Detect", Handler: detectHandler},
		{MethodName: "ListLanguages", Handler: listLanguagesHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "StreamDetections", Handler: streamDetectionsHandler, ServerStreams: true},
	},
	Metadata: "langpredict/v1/langid",
}

func detectHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(models.DetectionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LanguageDetectionServer).Detect(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: detectMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LanguageDetectionServer).Detect(ctx, req.(*models.DetectionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listLanguagesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListLanguagesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LanguageDetectionServer).ListLanguages(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listLanguagesMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LanguageDetectionServer).ListLanguages(ctx, req.(*ListLanguagesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func streamDetectionsHandler(srv any, stream grpc.ServerStream) error {
	in := new(StreamDetectionsRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(LanguageDetectionServer).StreamDetections(in, &eventStream{stream})
}
