// Package schemasource fetches the inspection schema document from a remote URL and falls back to a local file.
package schemasource

import (
	"context"
	"fmt"
	"github.com/labqa/inspection/internal/errors"
	"github.com/labqa/inspection/internal/schema"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// MaxDocumentBytes limits the size of a remote schema document.
const MaxDocumentBytes = 10 << 20

// DefaultTimeout bounds the remote fetch when the client has no timeout of its own.
const DefaultTimeout = 15 * time.Second

var ErrNoSource = errors.NewSentinel("no schema source available")

// Fetch returns the raw schema document. The remote url is tried first when set, then the file at fallbackPath.
func Fetch(ctx context.Context, client *http.Client, url string, fallbackPath string, logger *slog.Logger) ([]byte,
	error) {
	return fetch(ctx, client, url, fallbackPath, logger, func([]byte) error { return nil })
}

// Load fetches and decodes the schema and logs its diagnostics. A remote document that does not decode is treated
// like an unreachable remote and the local file is used instead.
//
// When no source yields a schema the error wraps [ErrNoSource] and the cause of every failed source, so decoding
// failures still match [schema.ErrSchema].
func Load(ctx context.Context, client *http.Client, url string, fallbackPath string, logger *slog.Logger) (
	*schema.Schema, error) {
	var s *schema.Schema
	_, err := fetch(ctx, client, url, fallbackPath, logger, func(raw []byte) error {
		var loadErr error
		s, loadErr = schema.Load(raw)
		return loadErr
	})
	if err != nil {
		return nil, err
	}
	for _, d := range s.Diagnostics() {
		logger.LogAttrs(ctx, slog.LevelWarn, "schema problem",
			slog.String("sector", d.Sector),
			slog.String("process", d.Process),
			slog.String("field", d.Field),
			slog.String("problem", string(d.Problem)),
			slog.String("detail", d.Detail))
	}
	return s, nil
}

// fetch returns the first document that accept takes, remote before local.
func fetch(ctx context.Context, client *http.Client, url string, fallbackPath string, logger *slog.Logger,
	accept func([]byte) error) ([]byte, error) {
	var errs []error
	if url != "" {
		raw, err := fetchRemote(ctx, client, url)
		if err == nil {
			err = accept(raw)
		}
		if err == nil {
			logger.LogAttrs(ctx, slog.LevelInfo, "loaded schema from remote", slog.String("url", url))
			return raw, nil
		}
		err = errors.Wrap(err, "remote schema", slog.String("url", url))
		logger.LogAttrs(ctx, slog.LevelWarn, "remote schema unusable, trying local file", errors.SlogError(err))
		errs = append(errs, err)
	}
	if fallbackPath != "" {
		raw, err := os.ReadFile(fallbackPath)
		if err == nil {
			err = accept(raw)
		}
		if err == nil {
			logger.LogAttrs(ctx, slog.LevelInfo, "loaded schema from file", slog.String("path", fallbackPath))
			return raw, nil
		}
		errs = append(errs, errors.Wrap(err, "local schema", slog.String("path", fallbackPath)))
	}
	return nil, errors.Join(errors.Wrap(ErrNoSource, "fetch schema"), errors.Join(errs...))
}

func fetchRemote(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if client.Timeout == 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	req.Header.Set("Accept", "application/json")
	res, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.StatusCode != http.StatusOK {
		return nil, errors.New(fmt.Sprintf("unexpected status %d", res.StatusCode),
			slog.Int("status", res.StatusCode))
	}
	raw, err := io.ReadAll(io.LimitReader(res.Body, MaxDocumentBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	if len(raw) > MaxDocumentBytes {
		return nil, errors.New("schema document too large", slog.Int("limit", MaxDocumentBytes))
	}
	return raw, nil
}
