package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LJTian/ReliefHub/internal/app"
	"github.com/LJTian/ReliefHub/internal/config"
	"github.com/LJTian/ReliefHub/internal/logging"
	"github.com/LJTian/ReliefHub/internal/metrics"
	"github.com/LJTian/ReliefHub/internal/pipeline"
	"github.com/LJTian/ReliefHub/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	sourceFlag string
	delayFlag  time.Duration
)

// 仅执行一轮采集的命令行入口，适合手动触发或外部定时器调用
var rootCmd = &cobra.Command{
	Use:           "collect",
	Short:         "Fetch fire-related announcements from gov and RTHK feeds once",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch sourceFlag {
		case "all", "gov", "rthk":
		default:
			return fmt.Errorf("invalid --source %q: want gov, rthk or all", sourceFlag)
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("delay") {
			cfg.ItemDelay = delayFlag
		}

		logger, err := logging.New(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		logger.Info("credentials loaded", zap.String("origin", cfg.Credentials.Origin))

		store, err := storage.NewStore(cfg.Credentials.PostgresDSN, cfg.Credentials.RedisAddr, logger)
		if err != nil {
			return fmt.Errorf("init store: %w", err)
		}

		only := sourceFlag
		if only == "all" {
			only = ""
		}
		runner := app.NewRunner(cfg, store, metrics.NewPipeline(nil), logger, only)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		results := runner.RunAll(ctx)
		pipeline.PrintSummary(os.Stdout, results)
		if pipeline.ExitCode(results) != 0 {
			return errRunFailed
		}
		return nil
	},
}

var errRunFailed = errors.New("one or more sources failed")

func init() {
	rootCmd.Flags().StringVar(&sourceFlag, "source", "all", "Source to run: gov, rthk or all")
	rootCmd.Flags().DurationVar(&delayFlag, "delay", time.Second, "Pause between processed items")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errRunFailed) {
			log.Printf("collect: %v", err)
		}
		os.Exit(1)
	}
}
