package main

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alnah/go-pdfprint/internal/config"
)

// newLogger returns a console logger writing to w at the named level.
// Unknown levels fall back to warn.
func newLogger(w io.Writer, level string) *zap.Logger {
	lvl := zapcore.WarnLevel
	switch level {
	case config.LevelDebug:
		lvl = zapcore.DebugLevel
	case config.LevelInfo:
		lvl = zapcore.InfoLevel
	case config.LevelError:
		lvl = zapcore.ErrorLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = "" // progress lines already mark time passing
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), lvl)
	return zap.New(core).Named("pdfprint")
}
