// Package logger provides model-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// ModelLogger provides dedicated logging for model operations.
type ModelLogger struct {
	*logrus.Entry
}

// NewModelLogger creates a new model logger.
func NewModelLogger(baseLogger *logrus.Logger) *ModelLogger {
	return &ModelLogger{
		Entry: baseLogger.WithField("component", "model"),
	}
}

// LogModelTraining logs a completed model fit.
func (ml *ModelLogger) LogModelTraining(kind string, observations, featureCount int, trainingDuration float64) {
	ml.WithFields(logrus.Fields{
		"kind":              kind,
		"observations":      observations,
		"feature_count":     featureCount,
		"training_duration": trainingDuration,
	}).Info("Model training completed")
}

// LogEvaluation logs evaluation metrics for a fitted model.
func (ml *ModelLogger) LogEvaluation(kind string, mse, rmse, mae, r2 float64) {
	ml.WithFields(logrus.Fields{
		"kind": kind,
		"mse":  mse,
		"rmse": rmse,
		"mae":  mae,
		"r2":   r2,
	}).Info("Model evaluation completed")
}

// LogConvergenceWarning logs a parameter whose chains have not mixed.
func (ml *ModelLogger) LogConvergenceWarning(parameter string, rhat float64) {
	ml.WithFields(logrus.Fields{
		"parameter": parameter,
		"rhat":      rhat,
	}).Warn("Parameter may not have converged")
}

// LogBacktestResult logs the outcome of a profit backtest.
func (ml *ModelLogger) LogBacktestResult(bets, wins, losses int, profit, roi, winRate float64) {
	ml.WithFields(logrus.Fields{
		"bets":     bets,
		"wins":     wins,
		"losses":   losses,
		"profit":   profit,
		"roi":      roi,
		"win_rate": winRate,
	}).Info("Backtest completed")
}
