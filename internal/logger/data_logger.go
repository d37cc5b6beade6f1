// Package logger provides data-fetch logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// DataLogger provides dedicated logging for data fetch operations.
type DataLogger struct {
	*logrus.Entry
}

// NewDataLogger creates a new data logger.
func NewDataLogger(baseLogger *logrus.Logger) *DataLogger {
	return &DataLogger{
		Entry: baseLogger.WithField("component", "data"),
	}
}

// LogFetch logs a completed fetch across seasons.
func (dl *DataLogger) LogFetch(years []int, games, ratings, lines, records int, durationMs float64) {
	dl.WithFields(logrus.Fields{
		"years":         years,
		"games":         games,
		"sp_ratings":    ratings,
		"betting_lines": lines,
		"records":       records,
		"duration_ms":   durationMs,
	}).Info("Bowl data fetch completed")
}

// LogCacheRefresh logs a scheduled flat-file cache refresh.
func (dl *DataLogger) LogCacheRefresh(cacheDir string, games int, success bool) {
	entry := dl.WithFields(logrus.Fields{
		"cache_dir": cacheDir,
		"games":     games,
		"success":   success,
	})
	if success {
		entry.Info("Cache refresh completed")
		return
	}
	entry.Warn("Cache refresh failed")
}
