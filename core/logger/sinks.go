package logger

import (
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	coreconfig "github.com/m3rciful/hungrylogs/core/config"
)

// levelAll lets a sink accept every record regardless of the handler level.
const levelAll = slog.Level(-1 << 10)

// buildOutputs returns stdout plus the rotated bot and error files.
// A file sink that cannot be prepared is reported on the std logger and skipped.
func buildOutputs(cfg *coreconfig.Config) ([]output, []io.Closer) {
	outputs := []output{{w: os.Stdout, min: levelAll}}
	if cfg == nil {
		return outputs, nil
	}
	lc := cfg.Logging
	dir := strings.TrimSpace(lc.Dir)
	if dir == "" {
		return outputs, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("logger: failed to create log dir %s: %v", dir, err)
		return outputs, nil
	}

	var closers []io.Closer
	if name := strings.TrimSpace(lc.BotFile); name != "" {
		lj := rotated(filepath.Join(dir, name), lc.MaxSizeMB, lc.MaxBackups, lc.Compress)
		outputs = append(outputs, output{w: lj, min: levelAll})
		closers = append(closers, lj)
	}
	if name := strings.TrimSpace(lc.ErrorsFile); name != "" {
		lj := rotated(filepath.Join(dir, name), lc.ErrorsMaxSizeMB, lc.ErrorsMaxBackups, lc.Compress)
		outputs = append(outputs, output{w: lj, min: slog.LevelWarn})
		closers = append(closers, lj)
	}
	return outputs, closers
}

func rotated(path string, sizeMB, backups int, compress bool) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    sizeMB,
		MaxBackups: backups,
		Compress:   compress,
	}
}
