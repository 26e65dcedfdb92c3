package e2etest

import (
	"context"
	"fmt"
	"github.com/labqa/inspection/internal/errors"
	"github.com/labqa/inspection/internal/logging"
	"io"
	"log/slog"
)

// LogAddrKey is the attribute the application logs its listening address with.
const LogAddrKey = "addr"

// ReadyPath is polled until the application answers with 200 OK.
const ReadyPath = "/api/healthy"

// RunFunc starts the application and blocks until ctx is done. It has the signature of the web binary's run.
type RunFunc func(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error

// Server is a running instance of the application started by [StartServer].
type Server struct {
	url    string
	client *Client
	cancel context.CancelFunc
	done   chan error
}

// StartServer runs the application in the background and returns once it answers on [ReadyPath].
//
// The application logs go to logSink, usually [io.Discard]. lookupEnv replaces [os.LookupEnv] for the configuration.
// The address is picked up from the first log record carrying [LogAddrKey] so that "localhost:0" can be used.
func StartServer(ctx context.Context, logSink io.Writer, lookupEnv func(string) (string, bool), run RunFunc) (
	*Server, error) {
	ctx, cancel := context.WithCancel(ctx)

	addrCh := make(chan string, 1)
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == LogAddrKey {
				select {
				case addrCh <- a.Value.String():
				default:
				}
			}
			return a
		},
	})))

	s := &Server{cancel: cancel, done: make(chan error, 1)}
	go func() {
		s.done <- run(ctx, logger, lookupEnv)
		close(s.done)
	}()

	var addr string
	select {
	case err := <-s.done:
		cancel()
		if err == nil {
			err = errors.New("server stopped before listening")
		}
		return nil, errors.Wrap(err, "run server")
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "context cancelled")
	case addr = <-addrCh:
	}

	s.url = fmt.Sprintf("http://%s", addr)
	var err error
	if s.client, err = NewClient(s.url); err != nil {
		_ = s.Stop()
		return nil, errors.Wrap(err, "new client")
	}
	if err = s.client.WaitForReady(ctx, ReadyPath); err != nil {
		_ = s.Stop()
		return nil, errors.Wrap(err, "wait for ready")
	}
	return s, nil
}

// Stop cancels the application and waits for it to return.
func (s *Server) Stop() error {
	s.cancel()
	return <-s.done
}

func (s *Server) Client() *Client {
	return s.client
}

func (s *Server) URL() string {
	return s.url
}
