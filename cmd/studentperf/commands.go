package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"studentperf/app"
	"studentperf/domain/core"
	"studentperf/domain/model"
	"studentperf/internal/container"
	"studentperf/internal/report"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), opts, func(c *container.Container) error {
				return c.Migrate(cmd.Context())
			})
		},
	}
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	var sheet, direction string

	cmd := &cobra.Command{
		Use:   "import <file.xlsx|file.csv>",
		Short: "Import students from a spreadsheet export",
		Long: `Import students from an xlsx sheet or a CSV file.

The direction defaults to the sheet name and is created when missing.
Session columns may hold exam counts (passing means reaching the column
maximum) or true/false.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), opts, func(c *container.Container) error {
				res, err := c.Import.ImportFile(cmd.Context(), args[0], sheet, direction)
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet to read (xlsx only, defaults to the first)")
	cmd.Flags().StringVar(&direction, "direction", "", "Direction name (defaults to the sheet name)")
	return cmd
}

type dataFlags struct {
	direction int64
	features  []string
	target    string
}

func (f *dataFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.direction, "direction", 0, "Direction id whose students are used")
	cmd.Flags().StringSliceVar(&f.features, "features", nil, "Feature columns (comma separated)")
	cmd.Flags().StringVar(&f.target, "target", "session_4_passed", "Binary target column")
	_ = cmd.MarkFlagRequired("direction")
	_ = cmd.MarkFlagRequired("features")
}

func newTrainCmd(opts *rootOptions) *cobra.Command {
	var data dataFlags
	var kind string

	cmd := &cobra.Command{
		Use:   "train <model-name>",
		Short: "Fit a model on a direction, evaluate it on a held-out split and save it",
		Long: `Fit a logit or probit model on the students of a direction.

The model is evaluated on a seeded held-out split, saved to the models
directory and registered under its name. Retraining a name replaces it.

Example: studentperf train s4_logit --direction 1 --features math_score,russian_score,session_3_passed --kind logit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), opts, func(c *container.Container) error {
				resp, err := c.Training.Train(cmd.Context(), app.TrainRequest{
					Name:        args[0],
					Kind:        model.Kind(kind),
					DirectionID: core.DirectionID(data.direction),
					Features:    data.features,
					Target:      data.target,
				})
				if err != nil {
					return err
				}
				return printJSON(resp)
			})
		},
	}
	data.register(cmd)
	cmd.Flags().StringVar(&kind, "kind", "logit", "Model kind: logit or probit")
	return cmd
}

func newCompareCmd(opts *rootOptions) *cobra.Command {
	var data dataFlags

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Fit logit and probit on the same split and print both evaluations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), opts, func(c *container.Container) error {
				resp, err := c.Training.Compare(cmd.Context(), app.CompareRequest{
					DirectionID: core.DirectionID(data.direction),
					Features:    data.features,
					Target:      data.target,
				})
				if err != nil {
					return err
				}
				return printJSON(resp)
			})
		},
	}
	data.register(cmd)
	return cmd
}

func newPredictCmd(opts *rootOptions) *cobra.Command {
	var (
		direction int64
		students  []string
		onlyNew   bool
	)

	cmd := &cobra.Command{
		Use:   "predict <model-id>",
		Short: "Score students with a model and store the predictions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modelID, err := core.ParseModelID(args[0])
			if err != nil {
				return err
			}
			if (direction == 0) == (len(students) == 0) {
				return fmt.Errorf("use exactly one of --direction or --students")
			}
			return withContainer(cmd.Context(), opts, func(c *container.Container) error {
				var res *app.PredictionResult
				if direction != 0 {
					res, err = c.Predictions.PredictForDirection(cmd.Context(), modelID, core.DirectionID(direction), onlyNew)
				} else {
					ids, perr := parseStudentIDs(students)
					if perr != nil {
						return perr
					}
					res, err = c.Predictions.PredictForStudents(cmd.Context(), modelID, ids)
				}
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	}
	cmd.Flags().Int64Var(&direction, "direction", 0, "Score every student of a direction")
	cmd.Flags().StringSliceVar(&students, "students", nil, "Score the listed student ids")
	cmd.Flags().BoolVar(&onlyNew, "only-new", false, "With --direction, skip students the model already scored")
	return cmd
}

func newEffectsCmd(opts *rootOptions) *cobra.Command {
	var (
		values  []float64
		policy  string
		average bool
	)

	cmd := &cobra.Command{
		Use:   "effects <model-id> [feature]",
		Short: "Marginal effect of a feature over scan values, or average effects",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			modelID, err := core.ParseModelID(args[0])
			if err != nil {
				return err
			}
			fix, err := model.ParseFixPolicy(policy)
			if err != nil {
				return err
			}
			if !average && len(args) < 2 {
				return fmt.Errorf("a feature is required unless --average is set")
			}
			return withContainer(cmd.Context(), opts, func(c *container.Container) error {
				if average {
					effects, err := c.Analysis.AverageEffects(cmd.Context(), modelID)
					if err != nil {
						return err
					}
					return printJSON(effects)
				}
				points, err := c.Analysis.MarginEffects(cmd.Context(), modelID, args[1], values, fix)
				if err != nil {
					return err
				}
				return printJSON(points)
			})
		},
	}
	cmd.Flags().Float64SliceVar(&values, "values", nil, "Feature values to evaluate the effect at")
	cmd.Flags().StringVar(&policy, "fix", "median", "How other covariates are fixed: median or mean")
	cmd.Flags().BoolVar(&average, "average", false, "Print average marginal effects over the training rows")
	return cmd
}

func newIntervalsCmd(opts *rootOptions) *cobra.Command {
	var direction int64

	cmd := &cobra.Command{
		Use:   "intervals <model-id> <feature>",
		Short: "Mean stored probability per interval of a feature",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			modelID, err := core.ParseModelID(args[0])
			if err != nil {
				return err
			}
			return withContainer(cmd.Context(), opts, func(c *container.Container) error {
				res, err := c.Analysis.ProbabilityIntervals(cmd.Context(), modelID, args[1], core.DirectionID(direction))
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	}
	cmd.Flags().Int64Var(&direction, "direction", 0, "Direction whose students are binned")
	_ = cmd.MarkFlagRequired("direction")
	return cmd
}

func newModelsCmd(opts *rootOptions) *cobra.Command {
	var direction int64

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List registered models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), opts, func(c *container.Container) error {
				var dir *core.DirectionID
				if direction != 0 {
					d := core.DirectionID(direction)
					dir = &d
				}
				records, err := c.Models.List(cmd.Context(), dir)
				if err != nil {
					return err
				}
				return printJSON(records)
			})
		},
	}
	cmd.Flags().Int64Var(&direction, "direction", 0, "Only models of this direction")
	return cmd
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "report <model-id>",
		Short: "Render a model's stored evaluation as markdown, HTML or xlsx",
		Long: `Render the evaluation saved with a model.

The format follows the --out extension: .md, .html or .xlsx. Without --out
the markdown report is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modelID, err := core.ParseModelID(args[0])
			if err != nil {
				return err
			}
			return withContainer(cmd.Context(), opts, func(c *container.Container) error {
				m, err := c.Models.Metrics(cmd.Context(), modelID)
				if err != nil {
					return err
				}
				if m.Metrics == nil {
					return fmt.Errorf("model %s has no stored metrics", m.Model.Name)
				}
				return writeReport(out, m.Model.Name, m.Metrics)
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Output file (.md, .html or .xlsx)")
	return cmd
}

func writeReport(out, name string, b *model.MetricsBundle) error {
	if out == "" {
		fmt.Print(report.Markdown(name, b))
		return nil
	}
	var err error
	switch strings.ToLower(filepath.Ext(out)) {
	case ".md":
		err = os.WriteFile(out, []byte(report.Markdown(name, b)), 0o644)
	case ".html", ".htm":
		err = os.WriteFile(out, report.HTML(name, b), 0o644)
	case ".xlsx":
		err = report.WriteXLSX(out, b)
	default:
		return fmt.Errorf("unsupported report format %q", filepath.Ext(out))
	}
	if err != nil {
		return err
	}
	log.Info().Str("model", name).Str("path", out).Msg("report written")
	return nil
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <model-id>",
		Short: "Delete a model, its artifact and its predictions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modelID, err := core.ParseModelID(args[0])
			if err != nil {
				return err
			}
			return withContainer(cmd.Context(), opts, func(c *container.Container) error {
				return c.Models.Delete(cmd.Context(), modelID)
			})
		},
	}
}

func parseStudentIDs(values []string) ([]core.StudentID, error) {
	ids := make([]core.StudentID, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid student id %q", v)
		}
		ids = append(ids, core.StudentID(id))
	}
	return ids, nil
}
