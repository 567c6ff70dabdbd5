package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Entry point for the gas minder.
func main() {
	configFile := flag.String("config", defaultConfigPath, "path to config.json")
	flag.Parse()

	cfgMgr := ConfigManager{Path: *configFile}
	if err := cfgMgr.Load(); err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	cfg := cfgMgr.Get()

	logger, err := NewEventLogger(cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups)
	if err != nil {
		log.Fatalf("failed to initialise logger: %v", err)
	}
	defer logger.Close()

	board, err := openBoard(cfg, logger)
	if err != nil {
		logger.Zap().Fatal("initialisation error", zap.Error(err))
	}
	defer board.Close()

	lcd := NewLCD(board.LCDRS, board.LCDE, board.LCDData, time.Sleep)
	if err := lcd.Init(); err != nil {
		logger.Error("lcd init failed", err)
	}
	presenter := NewStatusPresenter(lcd, lcdColumns, logger)
	actuator := NewAlertActuator(board.Red, board.Green, board.Relay, board.Buzzer, time.Sleep, logger)

	// A missing modem must not stop the loop: messages are written nowhere.
	var modemPort io.Writer = io.Discard
	if port, err := OpenModemPort(cfg.Modem); err != nil {
		logger.Error("modem unavailable, sms disabled", err)
	} else {
		defer port.Close()
		modemPort = port
	}
	modem := NewModem(modemPort, cfg.Modem.Recipient, time.Sleep)
	notifier := initNotifiers(cfg, modem, logger)

	ctrl := NewController(NewGasSensor(board.ADC, logger), presenter, actuator, notifier,
		cfg.Threshold, cfg.PollInterval(), time.Sleep, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Status.Port != 0 {
		status := NewStatusServer(cfg, logger)
		ctrl.AddObserver(status)
		go func() {
			if err := status.Start(ctx); err != nil {
				logger.Error("status api stopped", err)
			}
		}()
	}
	if cfg.MQTT.Broker != "" {
		telemetry, client, err := NewTelemetry(cfg.MQTT, logger)
		if err != nil {
			logger.Error("telemetry disabled", err)
		} else {
			defer client.Disconnect(250)
			ctrl.AddObserver(telemetry)
		}
	}

	logger.Zap().Info("gas minder started",
		zap.Int("threshold", cfg.Threshold),
		zap.Duration("poll_interval", cfg.PollInterval()),
		zap.String("notifiers", notifier.Name()),
	)
	ctrl.Start()
	ctrl.Run(ctx)

	actuator.Reset()
	presenter.ShowMessage("Gas Scan is OFF")
}
