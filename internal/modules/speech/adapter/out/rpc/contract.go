package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey  = "recognizer"
	serviceName   = "murmur.recognizer.v1.Recognizer"
	jsonCodecName = "json"
	methodProbe   = "/" + serviceName + "/Probe"
	methodListen  = "/" + serviceName + "/Listen"
	methodStop    = "/" + serviceName + "/Stop"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "MURMUR_RECOGNIZER",
	MagicCookieValue: "murmur",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type ProbeResponse struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Supported bool     `json:"supported"`
	Languages []string `json:"languages"`
}

type ListenRequest struct {
	Language string `json:"language"`
	// Source is recognizer specific, e.g. an input device or a replay script.
	Source     string `json:"source"`
	IntervalMS int32  `json:"interval_ms"`
}

type Fragment struct {
	Index int32  `json:"index"`
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

type RecognizerServer interface {
	Probe(ctx context.Context, in *Empty) (*ProbeResponse, error)
	Listen(in *ListenRequest, stream ListenServer) error
	Stop(ctx context.Context, in *Empty) (*Empty, error)
}

type ListenServer interface {
	Send(*Fragment) error
	Context() context.Context
}

type RecognizerClient interface {
	Probe(ctx context.Context) (*ProbeResponse, error)
	Listen(ctx context.Context, in *ListenRequest) (ListenClient, error)
	Stop(ctx context.Context) error
}

type ListenClient interface {
	Recv() (*Fragment, error)
}

var listenStream = grpc.StreamDesc{StreamName: "Listen", ServerStreams: true}

type recognizerClient struct {
	conn *grpc.ClientConn
}

func NewRecognizerClient(conn *grpc.ClientConn) RecognizerClient {
	return &recognizerClient{conn: conn}
}

func (c *recognizerClient) Probe(ctx context.Context) (*ProbeResponse, error) {
	out := &ProbeResponse{}
	if err := c.conn.Invoke(ctx, methodProbe, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *recognizerClient) Listen(ctx context.Context, in *ListenRequest) (ListenClient, error) {
	stream, err := c.conn.NewStream(ctx, &listenStream, methodListen, grpc.CallContentSubtype(jsonCodecName))
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &listenClient{stream: stream}, nil
}

func (c *recognizerClient) Stop(ctx context.Context) error {
	return c.conn.Invoke(ctx, methodStop, &Empty{}, &Empty{}, grpc.CallContentSubtype(jsonCodecName))
}

type listenClient struct {
	stream grpc.ClientStream
}

func (c *listenClient) Recv() (*Fragment, error) {
	out := &Fragment{}
	if err := c.stream.RecvMsg(out); err != nil {
		return nil, err
	}
	return out, nil
}

type listenServer struct {
	stream grpc.ServerStream
}

func (s *listenServer) Send(f *Fragment) error { return s.stream.SendMsg(f) }

func (s *listenServer) Context() context.Context { return s.stream.Context() }

func unaryEmpty(method string, call func(ctx context.Context, in *Empty) (any, error)) grpc.MethodDesc {
	name := method[len(serviceName)+2:]
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := &Empty{}
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
			handler := func(ctx context.Context, req any) (any, error) {
				empty, ok := req.(*Empty)
				if !ok {
					return nil, fmt.Errorf("invalid request type")
				}
				return call(ctx, empty)
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func RegisterRecognizerServer(server grpc.ServiceRegistrar, impl RecognizerServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*RecognizerServer)(nil),
		Methods: []grpc.MethodDesc{
			unaryEmpty(methodProbe, func(ctx context.Context, in *Empty) (any, error) { return impl.Probe(ctx, in) }),
			unaryEmpty(methodStop, func(ctx context.Context, in *Empty) (any, error) { return impl.Stop(ctx, in) }),
		},
		Streams: []grpc.StreamDesc{
			{
				StreamName:    listenStream.StreamName,
				ServerStreams: true,
				Handler: func(_ any, stream grpc.ServerStream) error {
					in := &ListenRequest{}
					if err := stream.RecvMsg(in); err != nil {
						return err
					}
					return impl.Listen(in, &listenServer{stream: stream})
				},
			},
		},
		Metadata: "schemas/recognizer-rpc-v1.proto",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl RecognizerServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterRecognizerServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewRecognizerClient(conn), nil
}

func PluginMap(impl RecognizerServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
