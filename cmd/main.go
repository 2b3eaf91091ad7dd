package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/brettbedarf/adaptergw/config"
	"github.com/brettbedarf/adaptergw/internal/util"
	"github.com/brettbedarf/adaptergw/server"
)

func main() {
	// Parse command line arguments
	var (
		configPath string
		envPath    string
		port       int
		verbose    int
	)
	flag.StringVar(&configPath, "config", "", "Path to a YAML or JSON config file")
	flag.StringVar(&configPath, "c", "", "--config (shorthand)")
	flag.StringVar(&envPath, "env", ".env", "Path to a .env file read for unset environment variables")
	flag.StringVar(&envPath, "e", ".env", "--env (shorthand)")
	flag.IntVar(&port, "port", config.DefaultServicePort, "Port the gateway listens on. Overrides SERVICE_PORT.")
	flag.IntVar(&port, "p", config.DefaultServicePort, "--port (shorthand)")
	flag.IntVar(&verbose, "verbose", config.InfoVerbose, "Log verbosity level between 1 (error) and 5 (trace). Default is 3 (info).")
	flag.IntVar(&verbose, "v", config.InfoVerbose, "--verbose (shorthand)")
	flag.Parse()

	// Only flags given explicitly override file and environment values
	flagOverride := &config.ConfigOverride{}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port", "p":
			flagOverride.ServicePort = &port
		case "verbose", "v":
			flagOverride.LogLvl = &verbose
		}
	})

	util.InitializeLogger(config.VerboseToLogLevel(verbose))
	logger := util.GetLogger("main")

	// Load config: defaults < file < environment < flags
	var fileOverride *config.ConfigOverride
	if configPath != "" {
		var err error
		fileOverride, err = config.LoadConfigOverrideFile(configPath)
		if err != nil {
			logger.Fatal().Err(err).Str("config", configPath).Msg("Failed to load config file")
		}
		logger.Debug().Str("config", configPath).Msg("Config file loaded successfully")
	}
	envOverride, err := config.LoadEnvOverride(envPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load environment")
	}

	cfg := config.NewConfig(fileOverride, envOverride, flagOverride)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	util.InitializeLogger(cfg.LogLvl)
	logger = util.GetLogger("main")

	logger.Info().
		Int("port", cfg.ServicePort).
		Str("registry", cfg.Registry().Addr()).
		Bool("metrics", cfg.MetricsEnabled).
		Msg("Adapter gateway initializing")

	gw, err := server.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create gateway")
	}

	// Serve
	done := gw.ServeAsync()

	// Setup signal handling for graceful shutdown
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-done:
		if err != nil {
			logger.Fatal().Err(err).Msg("Gateway stopped unexpectedly")
		}
		return
	case sig := <-signalChan:
		logger.Info().Str("signal", sig.String()).Msg("Received signal, shutting down gateway")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeoutDuration())
	defer cancel()
	if err := gw.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to shut down cleanly")
	} else {
		logger.Info().Msg("Gateway shut down successfully")
	}
	<-done
}
