package main

import (
	"go.uber.org/zap"
)

// zapLogger adapts a zap sugared logger to the invoice.Logger interface.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

func newLogger(debug bool) (*zapLogger, func()) {
	var base *zap.Logger
	var err error
	if debug {
		base, err = zap.NewDevelopment()
	} else {
		base, err = zap.NewProduction()
	}
	if err != nil {
		base = zap.NewNop()
	}
	sugar := base.Sugar()
	return &zapLogger{sugar: sugar}, func() { _ = base.Sync() }
}

func (l *zapLogger) Debugf(format string, args ...any) {
	l.sugar.Debugf(format, args...)
}

func (l *zapLogger) Infof(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

func (l *zapLogger) Errorf(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}
