// Command recognizer is a reference speech recognizer plugin. It replays a
// script file, one utterance per line, as interim and final fragments.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	recognizerrpc "murmur/internal/modules/speech/adapter/out/rpc"

	"github.com/hashicorp/go-plugin"
)

const defaultInterval = 150 * time.Millisecond

// server handles one capture; the host starts a fresh process per capture.
type server struct {
	once sync.Once
	stop chan struct{}
}

func newServer() *server {
	return &server{stop: make(chan struct{})}
}

func (s *server) Probe(_ context.Context, _ *recognizerrpc.Empty) (*recognizerrpc.ProbeResponse, error) {
	return &recognizerrpc.ProbeResponse{
		Name:      "script-recognizer",
		Version:   "1.0.0",
		Supported: true,
		Languages: []string{"en-US"},
	}, nil
}

func (s *server) Listen(in *recognizerrpc.ListenRequest, stream recognizerrpc.ListenServer) error {
	lines, err := readScript(in.Source)
	if err != nil {
		return err
	}
	interval := time.Duration(in.IntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = defaultInterval
	}
	stop := s.stop
	ctx := stream.Context()

	for index, line := range lines {
		words := strings.Fields(line)
		for n := 1; n <= len(words); n++ {
			fragment := &recognizerrpc.Fragment{Index: int32(index), Text: strings.Join(words[:n], " "), Final: n == len(words)}
			if err := stream.Send(fragment); err != nil {
				return err
			}
			if fragment.Final {
				break
			}
			select {
			case <-time.After(interval):
			case <-ctx.Done():
				return ctx.Err()
			case <-stop:
				// a stop request still yields the final result for the current line
				return stream.Send(&recognizerrpc.Fragment{Index: int32(index), Text: line, Final: true})
			}
		}
	}

	select {
	case <-stop:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *server) Stop(_ context.Context, _ *recognizerrpc.Empty) (*recognizerrpc.Empty, error) {
	s.once.Do(func() { close(s.stop) })
	return &recognizerrpc.Empty{}, nil
}

func readScript(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	var lines []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" && !strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: recognizerrpc.HandshakeConfig,
		Plugins:         recognizerrpc.PluginMap(newServer()),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
