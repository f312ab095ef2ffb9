// Command track fetches one ride and prints its tracking view as JSON.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/example/ride-tracking/internal/app"
	"github.com/example/ride-tracking/internal/config"
	"github.com/example/ride-tracking/internal/logging"
	"github.com/example/ride-tracking/internal/tracking"
	"github.com/example/ride-tracking/internal/view"
)

func main() {
	var (
		rideID   string
		baseURL  string
		lang     string
		watch    bool
		interval time.Duration
	)
	flag.StringVar(&rideID, "ride", "", "ride id to track (required)")
	flag.StringVar(&baseURL, "base-url", "", "functions base URL, overrides FUNCTIONS_BASE_URL")
	flag.StringVar(&lang, "lang", "", "label language: es or en (default DEFAULT_LANG)")
	flag.BoolVar(&watch, "watch", false, "keep polling and print every change")
	flag.DurationVar(&interval, "interval", 0, "poll interval for -watch (default POLL_INTERVAL)")
	flag.Parse()
	if strings.TrimSpace(rideID) == "" {
		flag.Usage()
		os.Exit(2)
	}

	config.LoadEnvFiles(".")
	cfg, err := config.LoadServerConfig()
	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	if baseURL != "" {
		cfg.FunctionsBaseURL = baseURL
	}
	if lang == "" {
		lang = cfg.DefaultLang
	}
	if interval <= 0 {
		interval = cfg.PollInterval
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dirs, err := app.Directions(cfg, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "track:", err)
		os.Exit(1)
	}
	svc := &view.Service{
		Fetcher:    tracking.NewClient(cfg.FunctionsBaseURL, cfg.FetchTimeout),
		Directions: dirs,
		MapsKey:    cfg.MapsAPIKey,
		Logger:     logger,
	}
	labels := view.LabelsFor(lang, view.Spanish)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if !watch {
		v, err := svc.Lookup(ctx, rideID, labels)
		if err != nil {
			fmt.Fprintln(os.Stderr, "track:", err)
			os.Exit(1)
		}
		_ = enc.Encode(v)
		return
	}

	printer := &changePrinter{w: os.Stdout}
	tr := view.NewTracker(svc, labels)
	tr.OnUpdate = func(v view.View) {
		if !v.Loading {
			printer.Print(v)
		}
	}
	if _, err := tr.Open(ctx, rideID); errors.Is(err, tracking.ErrMissingBaseURL) {
		fmt.Fprintln(os.Stderr, "track:", err)
		os.Exit(1)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = tr.Refresh(ctx)
		}
	}
}

// changePrinter writes a view only when it differs from the last one written.
type changePrinter struct {
	w    io.Writer
	last []byte
}

func (p *changePrinter) Print(v view.View) bool {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil || bytes.Equal(b, p.last) {
		return false
	}
	p.last = b
	_, _ = p.w.Write(append(b, '\n'))
	return true
}
