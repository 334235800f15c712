package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"typeahead/internal/config"
	"typeahead/internal/eventbus"
	"typeahead/internal/logging"
	"typeahead/internal/ui"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "typeahead",
		Usage:     "Search a remote endpoint as you type and pick a result",
		UsageText: "typeahead [options]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the TOML config file",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Dotenv file loaded before reading the environment",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:    "api-url",
				Aliases: []string{"u"},
				Usage:   "Search endpoint URL",
			},
			&cli.IntFlag{
				Name:  "min-length",
				Usage: "Minimum query length in characters",
			},
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "Delay after the last keystroke before searching",
			},
			&cli.IntFlag{
				Name:  "max-results",
				Usage: "Maximum number of results requested",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Log file path",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
			&cli.BoolFlag{
				Name:  "keep-open",
				Usage: "Keep running after a result is selected",
			},
		},
		Action: runCommand,
		Commands: []*cli.Command{
			{
				Name:   "init-config",
				Usage:  "Write the default configuration file",
				Action: initConfigCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
			},
		},
	}
}

// loadConfig resolves configuration from file, environment and flags, in
// increasing order of precedence
func loadConfig(c *cli.Context) (*config.Config, config.ConfigService, error) {
	if err := config.LoadEnvFile(c.String("env-file")); err != nil {
		return nil, nil, err
	}

	svc := config.NewConfigServiceWithBus(nil, c.String("config"))
	var (
		cfg *config.Config
		err error
	)
	if c.IsSet("config") {
		cfg, err = svc.LoadFromPath(c.String("config"))
	} else {
		cfg, err = svc.Load()
	}
	if err != nil {
		return nil, nil, err
	}

	if err := config.ApplyEnv(cfg, os.Getenv); err != nil {
		return nil, nil, err
	}
	applyFlags(c, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, svc, nil
}

func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("api-url") {
		cfg.APIURL = c.String("api-url")
	}
	if c.IsSet("min-length") {
		cfg.MinQueryLength = c.Int("min-length")
	}
	if c.IsSet("debounce") {
		cfg.Debounce = config.Duration(c.Duration("debounce"))
	}
	if c.IsSet("max-results") {
		cfg.MaxResults = c.Int("max-results")
	}
	if c.IsSet("log-file") {
		cfg.Log.Path = c.String("log-file")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
}

func runCommand(c *cli.Context) error {
	cfg, svc, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger, logFile, err := logging.Open(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logFile.Close()

	bus := eventbus.New(logger)
	defer bus.Close()

	bus.SubscribeAll(func(e eventbus.DomainEvent) {
		logger.Debug("event", "type", e.Type())
	})
	bus.Publish(eventbus.ConfigLoadedEvent{Path: svc.Path(), APIURL: cfg.APIURL})
	logger.Info("starting", "api_url", cfg.APIURL, "min_query_length", cfg.MinQueryLength, "debounce", cfg.Debounce)

	model, err := ui.NewModel(bus, cfg, ui.Options{
		Logger:       logger,
		ExitOnSelect: !c.Bool("keep-open"),
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithReportFocus(),
	)
	model.SetProgram(p)

	// Forward events to the UI
	unsubscribe := bus.SubscribeAll(func(e eventbus.DomainEvent) {
		p.Send(ui.EventMsg{Event: e})
	})
	defer unsubscribe()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		if _, ok := <-sigChan; ok {
			p.Quit()
		}
	}()

	if os.Getenv("TYPEAHEAD_E2E_TEST") == "1" {
		fmt.Print("__READY__")
	}

	if _, err := p.Run(); err != nil {
		logger.Error("program failed", "err", err)
		return fmt.Errorf("error running program: %w", err)
	}
	model.Controller().Dispose()

	if result, ok := model.Selected(); ok {
		logger.Info("exiting with selection", "id", result.ID)
		return printResult(c.App.Writer, result)
	}
	logger.Info("exited without selection")
	return nil
}

func printResult(w io.Writer, result any) error {
	enc := json.NewEncoder(w)
	return enc.Encode(result)
}

func initConfigCommand(c *cli.Context) error {
	svc := config.NewConfigServiceWithBus(nil, c.String("config"))
	path := svc.Path()

	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := svc.Save(config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	return nil
}
