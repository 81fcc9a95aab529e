package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "github.com/berfenger/rfxcom2mqtt/internal/adapter/actor"
	"github.com/berfenger/rfxcom2mqtt/internal/adapter/store"
	"github.com/berfenger/rfxcom2mqtt/internal/adapter/telemetry"
	"github.com/berfenger/rfxcom2mqtt/internal/config"
	"github.com/berfenger/rfxcom2mqtt/internal/core/actor"
	"github.com/berfenger/rfxcom2mqtt/internal/core/domain"
	"github.com/berfenger/rfxcom2mqtt/internal/core/port"
	"github.com/berfenger/rfxcom2mqtt/internal/core/service"
	"github.com/berfenger/rfxcom2mqtt/internal/server"
	"github.com/berfenger/rfxcom2mqtt/internal/util/actorutil"
	"github.com/berfenger/rfxcom2mqtt/pkg/rfxcom"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		os.Exit(1)
	}
	safePrintConfig(*cfg)

	// zap logger, its level is changed at runtime through bridge requests
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())
	defer logger.Sync()

	levels := service.NewLogLevelController(zapCfg.Level, logger)

	stateStore, err := store.NewStateStore(cfg.State, logger)
	if err != nil {
		logger.Fatal("main: state store", zap.Error(err))
	}

	var telemetrySink port.TelemetrySink
	if cfg.InfluxDB.Enabled {
		sink, err := telemetry.NewInfluxSink(cfg.InfluxDB, logger)
		if err != nil {
			logger.Error("main: influxdb disabled", zap.Error(err))
		} else {
			telemetrySink = sink
		}
	}

	transceiver, err := rfxcom.CreateTransceiver(cfg.Rfxcom.UsbPort)
	if err != nil {
		logger.Fatal("main: transceiver, no serial driver is bundled, set rfxcom.usbport to "+rfxcom.DUMMY_PORT,
			zap.String("port", cfg.Rfxcom.UsbPort), zap.Error(err))
	}

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewBridgeActor(cfg, stateStore, levels, telemetrySink,
			rfxcomActorProvider(transceiver, logger), mqttActorProvider(cfg, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	if err != nil {
		logger.Fatal("main: spawn master", zap.Error(err))
	}

	server := server.NewServer(*cfg, ctx, pid)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	// stopping the master flushes the state store
	if err := ctx.StopFuture(pid).Wait(); err != nil {
		logger.Error("main: master stop", zap.Error(err))
	}
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => RFXCOM2MQTT_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("RFXCOM2MQTT_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("rfxcom2mqtt")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn", "warning":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	// check and fix base topic
	baseTopic, err := config.CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	haDiscoveryTopic, err := config.CheckMQTTTopic(cfg.Homeassistant.DiscoveryTopic)
	if err != nil {
		return nil, errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.Homeassistant.DiscoveryTopic = haDiscoveryTopic

	// check bounds
	if cfg.MQTT.QoS > 2 {
		return nil, errors.New("config param mqtt.qos should be 0, 1 or 2")
	}
	if cfg.State.SaveIntervalSeconds < 1 {
		return nil, errors.New("config param state.save_interval_seconds should be >= 1")
	}
	if cfg.Rfxcom.UsbPort == "" {
		return nil, errors.New("config param rfxcom.usbport is required")
	}
	for _, dev := range cfg.Rfxcom.Devices {
		if dev.Id == "" {
			return nil, errors.New("config param rfxcom.devices[].id is required")
		}
	}

	return &cfg, nil
}

func rfxcomActorProvider(transceiver rfxcom.Transceiver, logger *zap.Logger) actor.RfxcomActorProvider {
	return func() *adactor.RfxcomActor {
		return adactor.NewRfxcomActor(transceiver, logger)
	}
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(filters []string) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, filters, logger)
	}
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("mqtt.host", "localhost")
	viper.SetDefault("mqtt.port", 1883)
	viper.SetDefault("mqtt.base_topic", "rfxcom2mqtt")
	viper.SetDefault("mqtt.qos", 0)
	viper.SetDefault("homeassistant.discovery", false)
	viper.SetDefault("homeassistant.discovery_topic", "homeassistant")
	viper.SetDefault("homeassistant.discovery_device", "rfxcom2mqtt")
	viper.SetDefault("rfxcom.usbport", rfxcom.DUMMY_PORT)
	viper.SetDefault("state.path", "rfxcom2mqtt.db")
	viper.SetDefault("state.save_interval_seconds", 60)
	viper.SetDefault("influxdb.enabled", false)
	viper.SetDefault("influxdb.url", "http://localhost:8086")
	viper.SetDefault("port", 8080)
	viper.SetDefault("http_log", false)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	cfg.InfluxDB.Token = "*redacted*"
	slog.Info("Using", "config", cfg)
}
