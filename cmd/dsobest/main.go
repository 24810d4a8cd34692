// Command dsobest plans which deep-sky objects are worth observing tonight or
// in which month of the year.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yetanothergithubaccount/DSObest/internal/catalog"
	"github.com/yetanothergithubaccount/DSObest/internal/config"
	"github.com/yetanothergithubaccount/DSObest/internal/ephem"
	"github.com/yetanothergithubaccount/DSObest/internal/logging"
	"github.com/yetanothergithubaccount/DSObest/internal/notify"
	"github.com/yetanothergithubaccount/DSObest/internal/plan"
	"github.com/yetanothergithubaccount/DSObest/internal/storage"
	"github.com/yetanothergithubaccount/DSObest/internal/version"
)

// Persistent flags
var (
	configFile string
	debug      bool
	logLevel   string
	latitude   float64
	longitude  float64
	elevation  float64
	locName    string
	timezone   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "dsobest",
		Short:        "Deep-sky object observation planner",
		Long:         "Ranks Messier and Caldwell objects by how well they can be observed from one location",
		Version:      version.Version,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "config file path")
	pf.BoolVar(&debug, "debug", false, "debug logging")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.Float64Var(&latitude, "lat", 0, "observer latitude in degrees")
	pf.Float64Var(&longitude, "lon", 0, "observer longitude in degrees, east positive")
	pf.Float64Var(&elevation, "elevation", 0, "observer elevation in meters")
	pf.StringVar(&locName, "location", "", "observer location name")
	pf.StringVar(&timezone, "timezone", "", "IANA time zone of the location")

	rootCmd.AddCommand(tonightCmd())
	rootCmd.AddCommand(bestCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds the components shared by all commands.
type app struct {
	cfg     *config.Config
	log     *logging.Logger
	db      *storage.Database // nil when storage is disabled
	planner *plan.Planner
}

// loadConfig reads the config file and applies the flags that were set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var o config.Overrides
	flags := cmd.Flags()
	if flags.Changed("lat") {
		o.Latitude = &latitude
	}
	if flags.Changed("lon") {
		o.Longitude = &longitude
	}
	if flags.Changed("elevation") {
		o.Elevation = &elevation
	}
	if flags.Changed("location") {
		o.Name = &locName
	}
	if flags.Changed("timezone") {
		o.Timezone = &timezone
	}
	if flags.Changed("log-level") {
		o.LogLevel = &logLevel
	}
	cfg.Apply(o)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	level := logging.ParseLevel(cfg.LogLevel)
	if debug {
		level = logging.LevelDebug
	}
	log := logging.New(level)

	a := &app{cfg: cfg, log: log}

	rc := cfg.Resolver
	retry := catalog.DefaultRetryConfig()
	retry.MaxRetries = rc.MaxRetries

	var resolver catalog.Resolver = catalog.NewSesameResolver(
		catalog.WithURL(rc.SesameURL),
		catalog.WithTimeout(rc.Timeout),
		catalog.WithRateLimit(rc.RequestsPerSecond),
		catalog.WithRetry(retry),
		catalog.WithLogger(log.With("sesame")),
	)
	if cfg.Storage.Enabled {
		db, err := storage.Open(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		log.Debug("Database opened at %s", cfg.Storage.Path)
		a.db = db
		resolver = catalog.NewChain(db, resolver, log.With("resolver"))
	}

	meta := catalog.NewSimbadLookup(
		catalog.WithURL(rc.SimbadURL),
		catalog.WithTimeout(rc.Timeout),
		catalog.WithRateLimit(rc.RequestsPerSecond),
		catalog.WithRetry(retry),
		catalog.WithLogger(log.With("simbad")),
	)

	eph := ephem.NewCached(ephem.NewAnalytic())
	a.planner = plan.New(cfg.Location, resolver, meta, eph, plan.OptionsFromConfig(cfg), log.With("plan"))
	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("close database: %v", err)
		}
	}
}

// dispatcher returns the log dispatcher, plus MQTT when it is configured.
// The returned func releases the broker connection.
func (a *app) dispatcher() (notify.Dispatcher, func()) {
	logD := notify.NewLogDispatcher(a.log.With("notify"))
	if !a.cfg.MQTT.Enabled {
		return logD, func() {}
	}

	m := a.cfg.MQTT
	mq, err := notify.NewMQTTDispatcher(notify.MQTTConfig{
		Broker:      m.Broker,
		ClientID:    m.ClientID,
		Username:    m.Username,
		Password:    m.Password,
		TopicPrefix: m.TopicPrefix,
		Enabled:     m.Enabled,
	}, a.log.With("mqtt"))
	if err != nil {
		a.log.Warn("MQTT connection failed: %v", err)
		return logD, func() {}
	}
	return notify.Multi{logD, mq}, mq.Close
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
