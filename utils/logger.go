package utils

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the application logger.
var Log = logrus.New()

// InitLogger sets level and format. Unknown levels fall back to info.
func InitLogger(level, format string) *logrus.Logger {
	Log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return Log
}
