package session

import (
	"github.com/LdDl/mot-tracker/config"
	"github.com/sirupsen/logrus"
)

type options struct {
	tuning     *config.TuningConfig
	logger     logrus.FieldLogger
	maxPending int
}

func defaultOptions() options {
	return options{
		logger: logrus.StandardLogger(),
	}
}

// Option customizes Session on Create
type Option func(*options)

// WithTuning applies tuning configuration instead of built-in defaults
func WithTuning(tuning *config.TuningConfig) Option {
	return func(o *options) {
		o.tuning = tuning
	}
}

// WithLogger sets logger of the session. Session adds its own fields to every record
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMaxPendingObservations limits the pending batch. Overrides tuning configuration
func WithMaxPendingObservations(n int) Option {
	return func(o *options) {
		o.maxPending = n
	}
}
