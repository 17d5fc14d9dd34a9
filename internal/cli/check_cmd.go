package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/weekplan/internal/cli/formatter"
	"github.com/alexanderramin/weekplan/internal/contract"
	"github.com/alexanderramin/weekplan/internal/domain"
	"github.com/alexanderramin/weekplan/internal/llm"
	"github.com/alexanderramin/weekplan/internal/scheduler"
)

func newCheckCmd(rt *Runtime) *cobra.Command {
	var inputPath string
	var table, pretty bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Normalize and de-conflict an existing plan without a model",
		Long: `Reads a plan document from stdin (or --input):

  {"weekly_plan": [...], "busy_intervals": [...], "chronotype": "...", "ref_week_start": "YYYY-MM-DD"}

and runs normalization, conflict detection and resolution on it. A raw model
reply wrapped in code fences or prose is accepted too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := rt.App()

			r, err := openInput(cmd.InOrStdin(), inputPath)
			if err != nil {
				return err
			}
			defer r.Close()

			res, err := runCheck(app, r)
			if err != nil {
				return err
			}

			if table {
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCheck(res))
				return nil
			}
			return writeJSON(cmd.OutOrStdout(), res, pretty)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Read the plan from a file instead of stdin")
	cmd.Flags().BoolVar(&table, "table", false, "Render a table instead of JSON")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the JSON report")

	return cmd
}

// runCheck accepts strict JSON as well as a raw model reply (code fences,
// surrounding prose, single quotes), recovered the same way plan replies are.
func runCheck(app *App, r io.Reader) (scheduler.Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return scheduler.Result{}, fmt.Errorf("reading plan: %w", err)
	}
	req, err := llm.ExtractJSON[contract.CheckRequest](string(data), contract.CheckRequest.Validate)
	if err != nil {
		return scheduler.Result{}, fmt.Errorf("%w: decoding plan: %v", contract.ErrInvalidRequest, err)
	}

	anchor := scheduler.NextMonday(app.Now())
	if req.RefWeekStart != "" {
		parsed, err := scheduler.ParseWeekStart(req.RefWeekStart)
		if err != nil {
			return scheduler.Result{}, fmt.Errorf("%w: %v", contract.ErrInvalidRequest, err)
		}
		anchor = parsed
	}

	res := scheduler.Process(scheduler.Input{
		Items:         req.WeeklyPlan,
		BusyIntervals: req.BusyIntervals,
		Anchor:        anchor,
		Chronotype:    domain.ParseChronotype(req.Chronotype),
		Vocabulary:    app.Vocabulary,
	})
	app.Logger.Debug("check complete",
		"items", len(res.Items),
		"conflicts_before", res.Before.Count(),
		"conflicts_after", res.After.Count())
	return res, nil
}
