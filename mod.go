// Package acta defines the logger.
//
// Acta is an action-driven kernel for permissioned applications. It defines
// the modules that are combined to deploy a node hosting components and the
// actions allowed to mutate them.
//
// Documentation Last Review: 08.10.2020
package acta

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// EnvLogLevel is the name of the environment variable to change the logging
// level.
const EnvLogLevel = "LLVL"

const defaultLevel = zerolog.NoLevel

func init() {
	lvl := os.Getenv(EnvLogLevel)

	var level zerolog.Level

	switch lvl {
	case "error":
		level = zerolog.ErrorLevel
	case "warn":
		level = zerolog.WarnLevel
	case "info":
		level = zerolog.InfoLevel
	case "debug":
		level = zerolog.DebugLevel
	case "trace":
		level = zerolog.TraceLevel
	case "":
		level = defaultLevel
	default:
		level = zerolog.TraceLevel
	}

	Logger = Logger.Level(level)

	PromCollectors = append(PromCollectors, promWarns, promErrs)
}

var logout = zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: time.RFC3339,
}

// Logger is a globally available logger instance. By default, it only prints
// error level messages but it can be changed through the environment variable.
var Logger = zerolog.New(logout).Level(defaultLevel).
	With().Timestamp().Logger().
	Hook(promHook{})

// PromCollectors exposes the Prometheus collectors created in acta. By
// default, it has a counter of warnings and errors from the logs. Note that
// the collectors must be registered before the node starts.
var PromCollectors []prometheus.Collector

var promWarns = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "acta_log_warns",
	Help: "total number of warnings from the logs",
})

var promErrs = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "acta_log_errs",
	Help: "total number of errors from the logs",
})

// promHook is a zerolog hook to count the number of warnings and errors.
//
// - implements zerolog.Hook
type promHook struct{}

// Run implements zerolog.Hook. It increments the warning or error counter
// when such an event is logged.
func (promHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	switch level {
	case zerolog.WarnLevel:
		promWarns.Inc()
	case zerolog.ErrorLevel:
		promErrs.Inc()
	}
}
