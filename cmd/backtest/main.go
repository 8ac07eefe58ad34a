// Command backtest runs the equity-strategy backtesting core from a JSON
// RunConfig and writes a RunResult to disk. Replaces the teacher's
// flag-based single-mode main.go with a cobra command tree: one invocation
// can run a backtest, list registered strategies, or print engine version
// info.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Yukun-Git/stock-pal-sub000/internal/backtest"
	"github.com/Yukun-Git/stock-pal-sub000/internal/calendar"
	"github.com/Yukun-Git/stock-pal-sub000/internal/data"
	"github.com/Yukun-Git/stock-pal-sub000/internal/logger"
	"github.com/Yukun-Git/stock-pal-sub000/internal/report"
	"github.com/Yukun-Git/stock-pal-sub000/internal/rules"
	"github.com/Yukun-Git/stock-pal-sub000/internal/strategy"
)

var (
	configPath string
	outDir     string

	marketsPath  string
	boardsPath   string
	channelsPath string

	calendarCN string
	calendarHK string
	calendarUS string

	adapterBaseURL string
	adapterName    string

	timeoutSeconds int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "backtest",
	Short: "backtest runs the event-driven equity-strategy backtesting core",
	Long:  "backtest runs the event-driven equity-strategy backtesting core over a single symbol and date range.",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "execute a single backtest run from a JSON RunConfig and write its RunResult",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgBytes, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
		var cfg backtest.RunConfig
		if err := json.Unmarshal(cfgBytes, &cfg); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		reg, err := rules.LoadRegistry(marketsPath, boardsPath, channelsPath)
		if err != nil {
			return fmt.Errorf("loading rules registry: %w", err)
		}

		cal, err := buildCalendar()
		if err != nil {
			return fmt.Errorf("loading trading calendar: %w", err)
		}

		sel := buildSelector()

		eng := backtest.NewEngine(cal, reg, sel, strategy.NewRegistry())

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSeconds)*time.Second)
		defer cancel()

		logger.Infof("starting run for %s [%s, %s]", cfg.Symbol, cfg.StartDate, cfg.EndDate)
		start := time.Now()
		result, err := eng.Run(ctx, cfg)
		if err != nil {
			if re, ok := err.(*backtest.RunError); ok {
				return fmt.Errorf("run failed [%s]: %w", re.Kind, re.Err)
			}
			return fmt.Errorf("run failed: %w", err)
		}
		logger.Infof("run %s finished in %v: %d fills, %d risk events", result.RunID, time.Since(start), len(result.Fills), len(result.RiskEvents))

		if err := os.MkdirAll(outDir, 0755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
		if err := report.WriteJSON(result, outDir); err != nil {
			return fmt.Errorf("writing run.json: %w", err)
		}
		if err := report.WriteCSV(result, outDir); err != nil {
			return fmt.Errorf("writing fills.csv: %w", err)
		}
		if err := report.WriteEquityCurveCSV(result, outDir); err != nil {
			return fmt.Errorf("writing equity_curve.csv: %w", err)
		}
		fmt.Fprintf(os.Stdout, "wrote run %s to %s\n", result.RunID, outDir)
		return nil
	},
}

var strategiesCmd = &cobra.Command{
	Use:     "strategies",
	Aliases: []string{"ls"},
	Short:   "list registered strategies and their parameters",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		reg := strategy.NewRegistry()
		for _, s := range reg.List() {
			fmt.Fprintf(os.Stdout, "%s\n", s.ID())
			for _, p := range s.Parameters() {
				fmt.Fprintf(os.Stdout, "  %-16s %-8s default=%v\n", p.Name, p.Kind, p.Default)
			}
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the engine version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(os.Stdout, backtest.EngineVersion)
	},
}

func buildCalendar() (*calendar.Calendar, error) {
	files := make(map[string]string)
	if calendarCN != "" {
		files["CN"] = calendarCN
	}
	if calendarHK != "" {
		files["HK"] = calendarHK
	}
	if calendarUS != "" {
		files["US"] = calendarUS
	}
	return calendar.New(files)
}

func buildSelector() *data.Selector {
	var providers []data.Provider
	if adapterBaseURL != "" {
		providers = append(providers, data.NewHTTPAdapter(adapterName, adapterBaseURL))
	}
	providers = append(providers, data.NewSyntheticAdapter(nil))
	sel := data.NewSelector(providers, 60*time.Second)
	sel.StartProbe(30 * time.Second)
	return sel
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "config/run.json", "path to a JSON RunConfig")
	runCmd.Flags().StringVar(&outDir, "out", "out", "directory to write run.json, fills.csv, and equity_curve.csv")
	runCmd.Flags().StringVar(&marketsPath, "markets", "config/markets.json", "path to the market rules config layer")
	runCmd.Flags().StringVar(&boardsPath, "boards", "config/boards.json", "path to the board rules config layer")
	runCmd.Flags().StringVar(&channelsPath, "channels", "config/channels.json", "path to the channel rules config layer")
	runCmd.Flags().StringVar(&calendarCN, "calendar-cn", "config/calendar_cn.json", "path to the CN trading-date file")
	runCmd.Flags().StringVar(&calendarHK, "calendar-hk", "", "path to the HK trading-date file")
	runCmd.Flags().StringVar(&calendarUS, "calendar-us", "", "path to the US trading-date file")
	runCmd.Flags().StringVar(&adapterName, "adapter-name", "http", "name of the primary HTTP data adapter")
	runCmd.Flags().StringVar(&adapterBaseURL, "adapter-url", "", "base URL of the primary HTTP data adapter; when unset only the synthetic fallback is used")
	runCmd.Flags().IntVar(&timeoutSeconds, "timeout-seconds", 300, "run deadline")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(strategiesCmd)
	rootCmd.AddCommand(versionCmd)
}
