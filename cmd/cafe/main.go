package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"cafeteria/internal/api"
	"cafeteria/internal/composer"
	"cafeteria/internal/config"
	"cafeteria/internal/coordinator"
	"cafeteria/internal/logging"
	"cafeteria/internal/monitor"
	"cafeteria/internal/monitoring"
	"cafeteria/internal/push"
	"cafeteria/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

const fallbackWidth = 80

var (
	configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")
	backendURL = flag.String("backend", "", "Backend base URL, overrides the configuration")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *backendURL != "" {
		cfg.BackendURL = *backendURL
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid backend URL: %v\n", err)
			os.Exit(1)
		}
	}

	logger, logCloser, err := logging.OpenFile(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("terminal exited with error")
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *logrus.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metrics := monitoring.NewMonitor()
	if cfg.Metrics.Enabled {
		srv := monitoring.NewServer(metrics, cfg.Metrics.Port, cfg.Metrics.Path)
		go startMetricsServer(logger, srv)
		defer srv.Close()
	}

	client, err := api.NewClient(cfg.BackendURL,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithLogger(logger),
		api.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}
	_, pushURL, err := api.Endpoints(cfg.BackendURL)
	if err != nil {
		return err
	}

	mon := monitor.New(client,
		monitor.WithInterval(cfg.PollInterval),
		monitor.WithLogger(logger),
		monitor.WithMetrics(metrics),
	)
	coord := coordinator.New(client, mon, terminalWidth(), cfg.NarrowWidth, coordinator.WithLogger(logger))
	comp := composer.New(client,
		composer.WithLogger(logger),
		composer.WithMetrics(metrics),
		composer.OnOrderCreated(coord.OrderCreated),
	)

	model := tui.New(ctx, comp, mon, coord, tui.WithLogger(logger))
	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	channel := push.New(pushURL, coord.HandleEvent,
		push.WithBackoff(push.Backoff{
			Initial:    cfg.Push.InitialDelay,
			Max:        cfg.Push.MaxDelay,
			Multiplier: cfg.Push.Multiplier,
			Jitter:     cfg.Push.Jitter,
			MaxRetries: cfg.Push.MaxRetries,
		}),
		push.WithReadTimeout(cfg.Push.ReadTimeout),
		push.WithStatusHook(func(connected bool) {
			coord.SetConnected(connected)
			program.Send(tui.ConnectionMsg{Connected: connected})
		}),
		push.WithLogger(logger),
		push.WithMetrics(metrics),
	)

	logger.WithFields(logrus.Fields{
		"backend": cfg.BackendURL,
		"push":    pushURL,
		"view":    coord.View(),
	}).Info("starting terminal")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := channel.Run(ctx); err != nil && !errors.Is(err, push.ErrClosed) {
			logger.WithError(err).Error("push channel stopped")
		}
	}()
	go func() {
		defer wg.Done()
		tui.WatchMonitor(ctx, mon, program.Send)
	}()

	// the model seeds and activates the initial view from Init
	_, err = program.Run()
	interrupted := ctx.Err() != nil
	cancel()
	model.Close()
	channel.Close()
	wg.Wait()

	if interrupted {
		return nil
	}
	return err
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return width
}

func startMetricsServer(logger logrus.FieldLogger, srv *http.Server) {
	logger.WithField("addr", srv.Addr).Info("starting metrics server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("metrics server error")
	}
}
