package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/voltdrop-cli/internal/batch"
	"github.com/sells-group/voltdrop-cli/internal/cache"
	"github.com/sells-group/voltdrop-cli/internal/calc"
	"github.com/sells-group/voltdrop-cli/internal/model"
	"github.com/sells-group/voltdrop-cli/internal/report"
	"github.com/sells-group/voltdrop-cli/internal/store"
)

var (
	batchConcurrency int
	batchJPS         float64
	batchSaveName    string
)

var batchCmd = &cobra.Command{
	Use:   "batch <batch.yaml>",
	Short: "Run what-if variations of a base circuit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		base, variations, err := loadBatchFile(args[0])
		if err != nil {
			return err
		}

		concurrency := batchConcurrency
		if !cmd.Flags().Changed("concurrency") {
			concurrency = cfg.Batch.Concurrency
		}
		jps := batchJPS
		if !cmd.Flags().Changed("jobs-per-second") {
			jps = cfg.Batch.JobsPerSecond
		}

		limits := cfg.Standards.Limits()
		c := cache.New()
		p := batch.NewProcessor(c.Memoize(func(in model.CircuitInput) (*model.VoltageDropResult, error) {
			return calc.ComputeWithLimits(in, limits)
		}))

		jobs := batch.CreateJobs(base, variations)
		jobs, err = p.Process(ctx, jobs, batch.Options{
			Concurrency:   concurrency,
			JobsPerSecond: jps,
			OnProgress: func(done, total int) {
				fmt.Printf("\r%d/%d", done, total)
				if done == total {
					fmt.Println()
				}
			},
		})
		if err != nil {
			return eris.Wrap(err, "process batch")
		}

		report.WriteBatchSummary(os.Stdout, jobs)

		if batchSaveName != "" {
			return saveBatch(cmd, jobs)
		}
		return nil
	},
}

func saveBatch(cmd *cobra.Command, jobs []*model.BatchJob) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	scenarios := make([]store.Scenario, 0, len(jobs))
	for i, job := range jobs {
		if job.Status != model.JobCompleted {
			continue
		}
		scenarios = append(scenarios, store.Scenario{
			Name:   fmt.Sprintf("%s/%d", batchSaveName, i+1),
			Input:  job.Input,
			Result: job.Result,
		})
	}

	// Postgres can take the whole batch in one COPY; everything else
	// falls back to row-by-row inserts.
	if pg, ok := s.(*store.PostgresStore); ok {
		n, err := pg.SaveScenarioBatch(cmd.Context(), scenarios)
		if err != nil {
			return eris.Wrap(err, "save batch scenarios")
		}
		zap.L().Info("batch scenarios saved", zap.Int64("count", n))
		return nil
	}

	for _, sc := range scenarios {
		if _, err := s.SaveScenario(cmd.Context(), sc.Name, sc.Input, sc.Result); err != nil {
			return eris.Wrapf(err, "save scenario %s", sc.Name)
		}
	}
	zap.L().Info("batch scenarios saved", zap.Int("count", len(scenarios)))
	return nil
}

func init() {
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 4, "max jobs processed at once (0 = unbounded)")
	batchCmd.Flags().Float64Var(&batchJPS, "jobs-per-second", 0, "pace job starts (0 = unpaced)")
	batchCmd.Flags().StringVar(&batchSaveName, "save", "", "save completed jobs as scenarios under this name prefix")
	rootCmd.AddCommand(batchCmd)
}
