package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/angelmondragon/yoypulse/internal/cron"
	"github.com/angelmondragon/yoypulse/internal/live"
	"github.com/angelmondragon/yoypulse/internal/narrative"
	"github.com/angelmondragon/yoypulse/internal/pulse"
	"github.com/angelmondragon/yoypulse/internal/sources"
	"github.com/angelmondragon/yoypulse/internal/terminal"
	"github.com/angelmondragon/yoypulse/internal/yoy"
	"github.com/angelmondragon/yoypulse/pkg/bigquery"
	"github.com/angelmondragon/yoypulse/pkg/config"
	"github.com/angelmondragon/yoypulse/pkg/logger"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "dashboard"})

	_ = godotenv.Load()

	view := flag.String("view", "live", "view: live|decliners|growers|onepager|narrative")
	customer := flag.String("customer", "", "customer id (for onepager and narrative)")
	limit := flag.Int("limit", 50, "rows per ranking")
	rankGeo := flag.Bool("rank-geo", true, "order one-pager branches worst first")
	noColor := flag.Bool("no-color", false, "disable ANSI colors")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "dashboard",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var querier sources.Querier
	if cfg.HasWarehouse() {
		bq, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
		requireResource(ctx, logg, "bigquery", err)
		defer bq.Close()
		querier = bq
	}
	source := sources.New(cfg, querier, logg)

	svc, err := pulse.NewService(pulse.ServiceParams{
		Source:     source,
		Narrator:   narrative.NewClient(cfg.AI),
		Logger:     logg,
		SampleSize: cfg.Source.SampleSize,
	})
	requireResource(ctx, logg, "pulse service", err)

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	renderer := terminal.Renderer{
		Width: terminalWidth(),
		Color: interactive && !*noColor,
		Clear: interactive,
	}

	switch *view {
	case "live":
		err = runLive(ctx, cfg, svc, renderer, logg)
	case "decliners", "growers":
		var res *pulse.RankingResult
		res, err = svc.Rankings(ctx, yoy.Direction(*view), *limit, 0)
		if err == nil {
			err = renderer.Rankings(os.Stdout, *res)
		}
	case "onepager":
		var bundle *yoy.CustomerBundle
		bundle, err = svc.OnePager(ctx, requireCustomer(*customer), *rankGeo)
		if err == nil {
			err = renderer.OnePager(os.Stdout, *bundle)
		}
	case "narrative":
		var res *pulse.NarrativeResult
		res, err = svc.Narrative(ctx, requireCustomer(*customer))
		if err == nil {
			for i, rec := range res.Recommendations {
				fmt.Printf("%d. %s\n", i+1, rec)
			}
		}
	default:
		fmt.Fprintln(os.Stderr, "unknown -view value:", *view)
		os.Exit(1)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "dashboard: %v\n", err)
		os.Exit(1)
	}
}

// runLive refreshes the board in the background and redraws it every
// interval until interrupted.
func runLive(ctx context.Context, cfg *config.Config, svc pulse.Service, r terminal.Renderer, logg *logger.Logger) error {
	liveCfg := cfg.Live
	refresher, err := live.NewRefresher(live.RefresherParams{
		Config:  liveCfg,
		Service: svc,
		Logger:  logg,
		Lock:    cron.NewLocalLock(),
	})
	if err != nil {
		return err
	}
	go func() {
		if err := refresher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "live refresher stopped", err)
		}
	}()

	ticker := time.NewTicker(liveCfg.Interval)
	defer ticker.Stop()
	for {
		r.Width = terminalWidth()
		if err := r.Dashboard(os.Stdout, refresher.Board().View(), time.Now()); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return terminal.MinWidth
	}
	return width
}

func requireCustomer(id string) string {
	if id == "" {
		fmt.Fprintln(os.Stderr, "missing -customer")
		os.Exit(1)
	}
	return id
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
