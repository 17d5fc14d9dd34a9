package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alexanderramin/weekplan/internal/contract"
)

const defaultBatchWorkers = 4

func newBatchCmd(rt *Runtime) *cobra.Command {
	var inputPath string
	var workers int

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Generate plans for NDJSON requests concurrently",
		Long: `Reads one JSON request per line and writes one JSON response per line,
in input order. Blank lines are ignored.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationEnvelope: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			app := rt.App()

			in := cmd.InOrStdin()
			if fromStdin(inputPath) && app.IsInteractive(in) {
				return errInteractiveStdin
			}
			r, err := openInput(in, inputPath)
			if err != nil {
				return err
			}
			defer r.Close()

			lines, err := readLines(r)
			if err != nil {
				return err
			}

			n := workers
			if n <= 0 {
				n = configuredWorkers(app)
			}
			app.Logger.Debug("batch start", "requests", len(lines), "workers", n)

			out := cmd.OutOrStdout()
			for _, resp := range runBatch(cmd.Context(), app, lines, n) {
				if err := writeJSON(out, resp, false); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Read requests from a file instead of stdin")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent requests (default from config)")

	return cmd
}

// runBatch answers every line, at most workers at a time. The result at
// index i belongs to lines[i].
func runBatch(ctx context.Context, app *App, lines []string, workers int) []*contract.PlanResponse {
	out := make([]*contract.PlanResponse, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, line := range lines {
		g.Go(func() error {
			req, err := contract.DecodePlanRequest(strings.NewReader(line))
			if err != nil {
				out[i] = invalidRequest(err)
				return nil
			}
			out[i] = generate(gctx, app, req)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func configuredWorkers(app *App) int {
	if app.Config != nil && app.Config.Batch.Workers > 0 {
		return app.Config.Batch.Workers
	}
	return defaultBatchWorkers
}
