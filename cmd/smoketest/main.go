package main

import (
	"context"
	"encoding/json"
	"github.com/labqa/inspection/internal/e2etest"
	"github.com/labqa/inspection/internal/errors"
	"github.com/labqa/inspection/internal/logging"
	"log/slog"
	"net/url"
	"os"
	"time"
)

// TestHealthy checks that the server and its database respond.
func TestHealthy(ctx context.Context, client *e2etest.Client) error {
	body, _, err := client.Download(ctx, "/api/healthy")
	if err != nil {
		return errors.Wrap(err, "get health")
	}
	var health struct {
		Status string `json:"status"`
	}
	if err = json.Unmarshal(body, &health); err != nil {
		return errors.Wrap(err, "decode health")
	}
	if health.Status != "ok" {
		return errors.New("unhealthy", slog.String("status", health.Status))
	}
	return nil
}

// TestBasicInfoGuard submits an empty basic-information form. Nothing is stored, the server only has to report the
// missing fields.
func TestBasicInfoGuard(ctx context.Context, client *e2etest.Client) error {
	doc, err := client.GetDoc(ctx, "/")
	if err != nil {
		return errors.Wrap(err, "get home")
	}
	if doc, err = client.SubmitForm(ctx, doc, "/inspection/basic-info", url.Values{}); err != nil {
		return errors.Wrap(err, "submit basic info")
	}
	if doc.Find(".missing li").Length() == 0 {
		return errors.New("empty basic info accepted")
	}
	if _, err = client.GetDoc(ctx, "/history"); err != nil {
		return errors.Wrap(err, "get history")
	}
	return nil
}

func main() {
	logger := logging.NewLogger(os.Stdout, slog.LevelDebug)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		baseURL  = "https://" + hostname
		client   *e2etest.Client
		err      error
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", baseURL))
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	if client, err = e2etest.NewClient(baseURL); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", errors.SlogError(err))
		os.Exit(1)
	}
	if err = TestHealthy(ctx, client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing health", errors.SlogError(err))
		os.Exit(1)
	}
	if err = TestBasicInfoGuard(ctx, client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing wizard", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌")
}
