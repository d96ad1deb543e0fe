package logger_test

import (
	"errors"

	"github.com/wonny/qstudy/pkg/config"
	"github.com/wonny/qstudy/pkg/logger"
)

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"symbols": []string{"C", "GS", "IBM", "HNZ"},
		"step":    0.1,
	}).Info("Sharpe scan started")

	// Domain components receive a tagged zerolog.Logger
	scanLog := log.Component("allocation.scanner")
	scanLog.Info().Int("allocations", 286).Msg("scan completed")

	log.WithError(errors.New("no events")).Warn("event study skipped")
}
