package langid

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"

	"langpredict/internal/domain/models"
)

// Client calls the LanguageDetection service
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a client on cc
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

// Detect identifies the language of one text
func (c *Client) Detect(ctx context.Context, req *models.DetectionRequest, opts ...grpc.CallOption) (*models.DetectionResult, error) {
	out := new(models.DetectionResult)
	if err := c.cc.Invoke(ctx, detectMethod, req, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// ListLanguages returns the languages of the server's profile set
func (c *Client) ListLanguages(ctx context.Context, opts ...grpc.CallOption) (*ListLanguagesResponse, error) {
	out := new(ListLanguagesResponse)
	if err := c.cc.Invoke(ctx, listLanguagesMethod, &ListLanguagesRequest{}, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// StreamDetections opens an event stream. Recv returns io.EOF when the server
// ends the stream.
func (c *Client) StreamDetections(ctx context.Context, req *StreamDetectionsRequest, opts ...grpc.CallOption) (*EventReceiver, error) {
	stream, err := c.cc.NewStream(ctx, &serviceDesc.Streams[0], streamDetectionsMethod, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &EventReceiver{stream: stream}, nil
}

// EventReceiver is the client side of StreamDetections
type EventReceiver struct {
	stream grpc.ClientStream
}

// Recv blocks for the next event
func (r *EventReceiver) Recv() (*models.Event, error) {
	event := new(models.Event)
	if err := r.stream.RecvMsg(event); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	return event, nil
}
