package cmd

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

// newLogger returns a console logger, the markdown reports stay on stdout.
func newLogger(level string) arbor.ILogger {
	if level == "" {
		level = "warn"
	}
	return arbor.NewLogger().WithConsoleWriter(models.WriterConfiguration{
		Type:       models.LogWriterTypeConsole,
		TimeFormat: "15:04:05",
	}).WithLevelFromString(level)
}
