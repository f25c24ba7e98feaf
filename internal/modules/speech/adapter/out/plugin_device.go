package out

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	recognizerrpc "murmur/internal/modules/speech/adapter/out/rpc"
	"murmur/internal/modules/speech/domain"
	speechout "murmur/internal/modules/speech/port/out"
	apperrors "murmur/internal/platform/errors"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 5 * time.Second
)

type PluginDeviceConfig struct {
	Binary   string
	Source   string
	Language string
	Interval time.Duration
}

// PluginDevice runs an out-of-process recognizer for each capture.
type PluginDevice struct {
	cfg    PluginDeviceConfig
	logger zerolog.Logger
}

func NewPluginDevice(cfg PluginDeviceConfig, logger zerolog.Logger) speechout.Device {
	return &PluginDevice{cfg: cfg, logger: logger}
}

func (d *PluginDevice) Supported() bool {
	if d.cfg.Binary == "" {
		return false
	}
	info, err := os.Stat(d.cfg.Binary)
	return err == nil && !info.IsDir()
}

func (d *PluginDevice) Open(ctx context.Context) (speechout.Stream, error) {
	client, closeFn, err := d.connect()
	if err != nil {
		return nil, err
	}

	probeCtx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
	defer cancel()
	probe, err := client.Probe(probeCtx)
	if err != nil {
		closeFn()
		return nil, fmt.Errorf("probe recognizer: %w", err)
	}
	if !probe.Supported {
		closeFn()
		return nil, fmt.Errorf("%w: recognizer %s", apperrors.ErrCaptureUnsupported, probe.Name)
	}

	// the stream outlives the caller that opened it
	streamCtx, cancelStream := context.WithCancel(context.WithoutCancel(ctx))
	listen, err := client.Listen(streamCtx, &recognizerrpc.ListenRequest{
		Language:   d.cfg.Language,
		Source:     d.cfg.Source,
		IntervalMS: int32(d.cfg.Interval / time.Millisecond),
	})
	if err != nil {
		cancelStream()
		closeFn()
		return nil, fmt.Errorf("listen: %w", err)
	}

	s := &pluginStream{
		client:    client,
		fragments: make(chan domain.Fragment),
		cancel:    cancelStream,
		logger:    d.logger,
	}
	go s.pump(listen, closeFn)
	d.logger.Debug().Str("recognizer", probe.Name).Str("version", probe.Version).Msg("recognizer listening")
	return s, nil
}

func (d *PluginDevice) connect() (recognizerrpc.RecognizerClient, func(), error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  recognizerrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          recognizerrpc.PluginMap(nil),
		Cmd:              exec.Command(d.cfg.Binary),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger:           hclog.New(&hclog.LoggerOptions{Output: io.Discard, Level: hclog.NoLevel}),
	})
	closeFn := func() { client.Kill() }

	rpcClient, err := client.Client()
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("start recognizer: %w", err)
	}
	raw, err := rpcClient.Dispense(recognizerrpc.PluginMapKey)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("dispense recognizer: %w", err)
	}
	typed, ok := raw.(recognizerrpc.RecognizerClient)
	if !ok {
		closeFn()
		return nil, nil, fmt.Errorf("recognizer rpc client type mismatch")
	}
	return typed, closeFn, nil
}

type pluginStream struct {
	client    recognizerrpc.RecognizerClient
	fragments chan domain.Fragment
	cancel    context.CancelFunc
	logger    zerolog.Logger

	mu  sync.Mutex
	err error
}

func (s *pluginStream) Fragments() <-chan domain.Fragment { return s.fragments }

// Stop asks the recognizer to finish. It keeps streaming any final result
// and then ends the stream. If the request fails the stream is torn down.
func (s *pluginStream) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultCallTimeout)
	defer cancel()
	if err := s.client.Stop(ctx); err != nil {
		s.cancel()
		return fmt.Errorf("stop recognizer: %w", err)
	}
	return nil
}

func (s *pluginStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *pluginStream) pump(listen recognizerrpc.ListenClient, closeFn func()) {
	defer closeFn()
	defer s.cancel()
	defer close(s.fragments)
	for {
		f, err := listen.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) && status.Code(err) != codes.Canceled {
				s.mu.Lock()
				s.err = fmt.Errorf("recognizer stream: %w", err)
				s.mu.Unlock()
			}
			return
		}
		s.fragments <- domain.Fragment{Index: int(f.Index), Text: f.Text, Final: f.Final}
	}
}
