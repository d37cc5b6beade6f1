// Package main provides the bowlmania CLI: fetching CFBD data, training
// spread models, backtesting betting strategies, and running the cache
// refresh scheduler.
package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/macks26/capital-one-bowl-mania/internal/analytics"
	"github.com/macks26/capital-one-bowl-mania/internal/cfbd"
	"github.com/macks26/capital-one-bowl-mania/internal/config"
	"github.com/macks26/capital-one-bowl-mania/internal/dataset"
	"github.com/macks26/capital-one-bowl-mania/internal/features"
	"github.com/macks26/capital-one-bowl-mania/internal/logger"
	"github.com/macks26/capital-one-bowl-mania/internal/metrics"
	"github.com/macks26/capital-one-bowl-mania/internal/regression"
	"github.com/macks26/capital-one-bowl-mania/internal/scheduler"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const rhatWarnThreshold = 1.1

var (
	configFile string
	cfg        *config.Config
	appLogger  *logrus.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")

	trainCmd.Flags().String("kind", "", "Model kind override (point or bayesian)")
	backtestCmd.Flags().String("kind", "", "Model kind override (point or bayesian)")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "bowlmania",
	Short: "College bowl game spread prediction toolkit",
	Long: `Bowl Mania fetches college football data from CollegeFootballData.com,
fits point-estimate and Bayesian spread models, and evaluates betting
strategies against historical closing lines.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		var err error
		cfg, err = config.LoadWithDefaults(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := config.LoadSecretsFromAWS(cmd.Context(), cfg); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		appLogger = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
		metrics.InitRegistry()
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bowlmania %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch bowl data from the CFBD API and cache it to CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFetch(cmd.Context())
	},
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit a spread model on cached bowl data",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		return runTrain(kind)
	},
}

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Evaluate cover probabilities and betting profit on held-out games",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		return runBacktest(kind)
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run the scheduled cache refresher until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRefresh(cmd.Context())
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func newCFBDClient() *cfbd.Client {
	httpCfg := cfbd.DefaultHTTPClientConfig()
	httpCfg.Timeout = cfg.HTTPTimeout()
	httpCfg.MaxRetries = cfg.CFBD.MaxRetries
	httpCfg.RateLimit = cfg.CFBD.RateLimit

	return cfbd.NewClient(cfbd.ClientOptions{
		BaseURL:  cfg.CFBD.BaseURL,
		APIKey:   cfg.CFBD.APIKey,
		HTTP:     httpCfg,
		CacheTTL: cfbd.CacheTTL{Expiration: cfg.CacheTTL()},
		Logger:   appLogger,
	})
}

func runFetch(ctx context.Context) error {
	client := newCFBDClient()
	defer client.Close()

	start := time.Now()
	data, err := client.FetchBowlData(ctx, cfg.CFBD.Years)
	if err != nil {
		return err
	}

	fileCache, err := cfbd.NewFileCache(cfg.CFBD.CacheDir)
	if err != nil {
		return err
	}
	if err := fileCache.SaveBowlData(data); err != nil {
		return fmt.Errorf("saving cache: %w", err)
	}

	logger.NewDataLogger(appLogger).LogFetch(cfg.CFBD.Years,
		len(data.Games), len(data.SPRatings), len(data.Lines), len(data.Records),
		float64(time.Since(start).Milliseconds()))
	return nil
}

func loadFeatureSet() (*features.Set, error) {
	fileCache, err := cfbd.NewFileCache(cfg.CFBD.CacheDir)
	if err != nil {
		return nil, err
	}
	data, err := fileCache.LoadBowlData()
	if err != nil {
		return nil, fmt.Errorf("loading cache (run fetch first): %w", err)
	}
	metrics.RecordCacheHit("file")
	return features.Build(data, appLogger)
}

func buildModel(kindOverride string) (regression.SpreadModel, regression.Kind, error) {
	kindName := cfg.Model.Kind
	if kindOverride != "" {
		kindName = kindOverride
	}
	kind := regression.Kind(kindName)

	switch kind {
	case regression.KindPoint:
		return regression.NewPointModel(regression.PointOptions{
			Normalize: cfg.Model.Normalize,
			SpreadStd: cfg.Model.SpreadStd,
			Seed:      cfg.Model.Seed,
		}), kind, nil
	case regression.KindBayesian:
		return regression.NewBayesianModel(regression.BayesianOptions{
			Hierarchical: cfg.Model.Hierarchical,
			Draws:        cfg.Model.Draws,
			Tune:         cfg.Model.Tune,
			Chains:       cfg.Model.Chains,
			ProposalStd:  cfg.Model.ProposalStd,
			Seed:         cfg.Model.Seed,
		}), kind, nil
	default:
		return nil, kind, fmt.Errorf("%q (available: %v): %w", kindName, regression.Available(), regression.ErrUnknownKind)
	}
}

func runTrain(kindOverride string) error {
	set, err := loadFeatureSet()
	if err != nil {
		return err
	}

	model, kind, err := buildModel(kindOverride)
	if err != nil {
		return err
	}

	modelLogger := logger.NewModelLogger(appLogger)
	start := time.Now()
	if err := model.Fit(set.X, set.Y, set.Groups); err != nil {
		return fmt.Errorf("fitting %s model: %w", kind, err)
	}
	elapsed := time.Since(start).Seconds()
	metrics.RecordModelFit(string(kind), elapsed)
	modelLogger.LogModelTraining(string(kind), set.X.NumRows(), set.X.NumCols(), elapsed)

	eval, err := model.Evaluate(set.X, set.Y, set.Groups)
	if err != nil {
		return err
	}
	modelLogger.LogEvaluation(string(kind), eval.MSE, eval.RMSE, eval.MAE, eval.R2)

	if err := os.MkdirAll(cfg.Model.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	if err := set.X.SaveCSV(filepath.Join(cfg.Model.OutputDir, "features.csv")); err != nil {
		return fmt.Errorf("writing feature table: %w", err)
	}

	switch m := model.(type) {
	case *regression.PointModel:
		if err := reportPointModel(m); err != nil {
			return err
		}
	case *regression.BayesianModel:
		if err := reportBayesianModel(m, modelLogger); err != nil {
			return err
		}
	}

	return exportModel(model, kind)
}

func reportPointModel(m *regression.PointModel) error {
	weights, err := m.FeatureImportance()
	if err != nil {
		return err
	}
	fmt.Println("Feature importance:")
	for _, w := range weights {
		fmt.Printf("  %-16s %+.4f\n", w.Feature, w.Coefficient)
	}
	fmt.Printf("Intercept: %+.4f\n", m.Intercept())
	return nil
}

func reportBayesianModel(m *regression.BayesianModel, modelLogger *logger.ModelLogger) error {
	summary, err := m.Summary()
	if err != nil {
		return err
	}

	fmt.Printf("%-28s %10s %10s %10s %10s %8s\n", "parameter", "mean", "sd", "2.5%", "97.5%", "r_hat")
	for _, p := range summary {
		fmt.Printf("%-28s %10.4f %10.4f %10.4f %10.4f %8.3f\n", p.Name, p.Mean, p.SD, p.Q2_5, p.Q97_5, p.RHat)
		if p.RHat > rhatWarnThreshold {
			modelLogger.LogConvergenceWarning(p.Name, p.RHat)
		}
	}

	plotPath := filepath.Join(cfg.Model.OutputDir, "diagnostics.html")
	if err := m.WriteDiagnostics(plotPath); err != nil {
		return fmt.Errorf("writing diagnostics: %w", err)
	}
	fmt.Printf("Diagnostics written to %s\n", plotPath)
	return nil
}

func exportModel(model regression.SpreadModel, kind regression.Kind) error {
	exporter, ok := model.(interface{ ExportJSON() ([]byte, error) })
	if !ok {
		return nil
	}
	raw, err := exporter.ExportJSON()
	if err != nil {
		return err
	}
	path := filepath.Join(cfg.Model.OutputDir, fmt.Sprintf("model_%s.json", kind))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing model export: %w", err)
	}
	fmt.Printf("Model exported to %s\n", path)
	return nil
}

func runBacktest(kindOverride string) error {
	set, err := loadFeatureSet()
	if err != nil {
		return err
	}

	bt := set.WithSpreads()
	if bt.X.NumRows() < 4 {
		return fmt.Errorf("only %d games have closing spreads, not enough to backtest", bt.X.NumRows())
	}

	split, err := dataset.TrainTestSplit(bt.X, bt.Y, cfg.Betting.TestFraction, cfg.Model.Seed)
	if err != nil {
		return err
	}

	takeStrings := func(src []string, idx []int) []string {
		out := make([]string, len(idx))
		for i, id := range idx {
			out[i] = src[id]
		}
		return out
	}
	takeFloats := func(src []float64, idx []int) []float64 {
		out := make([]float64, len(idx))
		for i, id := range idx {
			out[i] = src[id]
		}
		return out
	}

	trainGroups := takeStrings(bt.Groups, split.TrainIdx)
	testGroups := takeStrings(bt.Groups, split.TestIdx)
	// models take the margin the home side must beat, not the quoted line
	testThresholds := takeFloats(bt.CoverThresholds(), split.TestIdx)

	model, kind, err := buildModel(kindOverride)
	if err != nil {
		return err
	}
	if err := model.Fit(split.TrainX, split.TrainY, trainGroups); err != nil {
		return fmt.Errorf("fitting %s model: %w", kind, err)
	}

	probs, err := model.PredictCoverProbability(split.TestX, testThresholds, testGroups)
	if err != nil {
		return err
	}
	preds, err := model.Predict(split.TestX, testGroups)
	if err != nil {
		return err
	}

	actualCovers := make([]bool, len(split.TestY))
	predictedCovers := make([]bool, len(split.TestY))
	for i := range split.TestY {
		actualCovers[i] = split.TestY[i] > testThresholds[i]
		predictedCovers[i] = preds[i] > testThresholds[i]
	}

	eval, err := model.Evaluate(split.TestX, split.TestY, testGroups)
	if err != nil {
		return err
	}
	accuracy, err := analytics.CoverAccuracy(predictedCovers, actualCovers)
	if err != nil {
		return err
	}
	report, err := analytics.CalculateProfit(probs, actualCovers, cfg.Betting.Threshold, cfg.Betting.BetSize)
	if err != nil {
		return err
	}

	metrics.UpdateBacktestResults(report.TotalProfit, report.ROI, report.WinRate)
	logger.NewModelLogger(appLogger).LogBacktestResult(
		report.Bets, report.Wins, report.Losses, report.TotalProfit, report.ROI, report.WinRate)

	fmt.Printf("Backtest on %d held-out games (%s model)\n", split.TestX.NumRows(), kind)
	fmt.Printf("  RMSE:            %.2f points\n", eval.RMSE)
	fmt.Printf("  MAE:             %.2f points\n", eval.MAE)
	fmt.Printf("  Cover accuracy:  %.1f%%\n", accuracy*100)
	fmt.Printf("  Bets placed:     %d (threshold %.2f)\n", report.Bets, cfg.Betting.Threshold)
	fmt.Printf("  Record:          %d-%d\n", report.Wins, report.Losses)
	fmt.Printf("  Profit:          %+.2f (ROI %+.1f%%)\n", report.TotalProfit, report.ROI)
	if report.Bets > 0 && !math.IsNaN(report.WinRate) {
		fmt.Printf("  Win rate:        %.1f%%\n", report.WinRate*100)
	}
	return nil
}

// cacheRefresher adapts a fetch-and-save cycle to the scheduler contract.
type cacheRefresher struct {
	client    *cfbd.Client
	fileCache *cfbd.FileCache
	years     []int
	logger    *logger.DataLogger
}

func (r *cacheRefresher) Refresh(ctx context.Context) error {
	data, err := r.client.FetchBowlData(ctx, r.years)
	if err != nil {
		r.logger.LogCacheRefresh(r.fileCache.Dir(), 0, false)
		return err
	}
	if err := r.fileCache.SaveBowlData(data); err != nil {
		r.logger.LogCacheRefresh(r.fileCache.Dir(), len(data.Games), false)
		return err
	}
	r.logger.LogCacheRefresh(r.fileCache.Dir(), len(data.Games), true)
	return nil
}

func runRefresh(ctx context.Context) error {
	client := newCFBDClient()
	defer client.Close()

	fileCache, err := cfbd.NewFileCache(cfg.CFBD.CacheDir)
	if err != nil {
		return err
	}

	refresher := &cacheRefresher{
		client:    client,
		fileCache: fileCache,
		years:     cfg.CFBD.Years,
		logger:    logger.NewDataLogger(appLogger),
	}

	sched := scheduler.NewScheduler(refresher, appLogger)
	if err := sched.ScheduleRefresh(cfg.Schedule.RefreshCron); err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		go serveMetrics()
	}

	appLogger.WithField("next_run", sched.GetNextRun()).Info("Refresh scheduler running, press Ctrl+C to stop")
	<-ctx.Done()
	return sched.Stop()
}

func serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())
	addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
	appLogger.WithField("addr", addr).Info("Serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		appLogger.WithError(err).Error("Metrics server stopped")
	}
}
