package main

import (
	"fmt"
	"os"

	"studentperf/app"
	"studentperf/domain/model"
	"studentperf/internal/container"
	"studentperf/internal/report"
	"studentperf/internal/testkit"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var demoFeatures = []string{"math_score", "russian_score", "session_3_passed"}

func newDemoCmd(opts *rootOptions) *cobra.Command {
	var (
		students int
		seed     int64
		kind     string
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run train, predict and analysis on a synthetic cohort in an in-memory database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			cfg.Database.Driver = "sqlite"
			cfg.Database.URL = ":memory:"
			modelsDir, err := os.MkdirTemp("", "studentperf-demo-")
			if err != nil {
				return err
			}
			defer os.RemoveAll(modelsDir)
			cfg.Models.Dir = modelsDir

			c, err := container.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer c.Close()
			if err := c.Migrate(ctx); err != nil {
				return err
			}

			dir, err := c.DirectionRepo.Create(ctx, "Demo Direction")
			if err != nil {
				return err
			}
			gen := testkit.DefaultCohortConfig()
			gen.Students = students
			gen.Seed = seed
			gen.DirectionID = dir.ID
			if _, err := c.StudentRepo.CreateMany(ctx, testkit.NewCohortGenerator(gen).Generate()); err != nil {
				return err
			}
			log.Info().Int("students", students).Int64("direction", int64(dir.ID)).Msg("synthetic cohort seeded")

			cmp, err := c.Training.Compare(ctx, app.CompareRequest{DirectionID: dir.ID, Features: demoFeatures, Target: "session_4_passed"})
			if err != nil {
				return err
			}
			log.Info().
				Float64("logit_auc", cmp.Logit.Metric(model.MetricROCAUC)).
				Float64("probit_auc", cmp.Probit.Metric(model.MetricROCAUC)).
				Msg("compared kinds")

			trained, err := c.Training.Train(ctx, app.TrainRequest{
				Name:        "demo_" + kind,
				Kind:        model.Kind(kind),
				DirectionID: dir.ID,
				Features:    demoFeatures,
				Target:      "session_4_passed",
			})
			if err != nil {
				return err
			}
			id := trained.Model.ID

			preds, err := c.Predictions.PredictForDirection(ctx, id, dir.ID, false)
			if err != nil {
				return err
			}
			effects, err := c.Analysis.AverageEffects(ctx, id)
			if err != nil {
				return err
			}
			bins, err := c.Analysis.ProbabilityIntervals(ctx, id, "math_score", dir.ID)
			if err != nil {
				return err
			}

			fmt.Print(report.Markdown(trained.Model.Name, trained.Metrics))
			fmt.Printf("\n## Average marginal effects\n\n")
			for _, e := range effects {
				fmt.Printf("- %s: %.4f\n", e.Feature, e.Effect)
			}
			fmt.Printf("\n## Mean probability by math_score (%d students scored)\n\n", len(preds.Predictions))
			for _, b := range bins {
				fmt.Printf("- %s: %.3f (n=%d)\n", b.Label, b.Mean, b.Count)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&students, "students", 300, "Synthetic cohort size")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Cohort generator seed")
	cmd.Flags().StringVar(&kind, "kind", "logit", "Model kind: logit or probit")
	return cmd
}
