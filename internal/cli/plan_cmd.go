package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/weekplan/internal/contract"
	"github.com/alexanderramin/weekplan/internal/domain"
)

var errInteractiveStdin = errors.New("stdin is a terminal; pipe a JSON request, use --input or --goal")

type planFlags struct {
	input      string
	pretty     bool
	goal       string
	chronotype string
	busy       []string
	model      string
	weekStart  string
}

func newPlanCmd(rt *Runtime) *cobra.Command {
	var f planFlags

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate a weekly plan from one JSON request",
		Long: `Reads one JSON request from stdin (or --input) and writes one JSON
response envelope to stdout. Every failure, including a malformed request,
is reported inside the envelope.

With --goal the request is built from flags instead and stdin is not read.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationEnvelope: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := runPlan(cmd, rt.App(), f)
			return writeJSON(cmd.OutOrStdout(), resp, f.pretty)
		},
	}

	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Read the request from a file instead of stdin")
	cmd.Flags().BoolVar(&f.pretty, "pretty", false, "Indent the JSON response")
	cmd.Flags().StringVar(&f.goal, "goal", "", "Build the request from flags with this goal")
	cmd.Flags().StringVar(&f.chronotype, "chronotype", "", "Chronotype for --goal requests (morning, evening, neutral)")
	cmd.Flags().StringArrayVar(&f.busy, "busy", nil, "Busy interval START/END for --goal requests (repeatable)")
	cmd.Flags().StringVar(&f.model, "model", "", "Model override for --goal requests")
	cmd.Flags().StringVar(&f.weekStart, "week-start", "", "Week anchor YYYY-MM-DD for --goal requests")

	return cmd
}

func runPlan(cmd *cobra.Command, app *App, f planFlags) *contract.PlanResponse {
	if f.goal != "" {
		return generate(cmd.Context(), app, f.request())
	}

	in := cmd.InOrStdin()
	if fromStdin(f.input) && app.IsInteractive(in) {
		return invalidRequest(errInteractiveStdin)
	}

	r, err := openInput(in, f.input)
	if err != nil {
		return invalidRequest(err)
	}
	defer r.Close()

	req, err := contract.DecodePlanRequest(r)
	if err != nil {
		return invalidRequest(err)
	}
	return generate(cmd.Context(), app, req)
}

func (f planFlags) request() contract.PlanRequest {
	req := contract.NewPlanRequest(f.goal)
	req.BusyIntervals = f.busy
	req.ModelName = f.model
	req.RefWeekStart = f.weekStart
	if f.chronotype != "" {
		p := domain.DefaultUserProfile()
		p.Chronotype = domain.ParseChronotype(f.chronotype)
		req.Profile = &p
	}
	return req
}

// generate calls the plan service, turning a panic into an envelope.
func generate(ctx context.Context, app *App, req contract.PlanRequest) (resp *contract.PlanResponse) {
	defer func() {
		if r := recover(); r != nil {
			resp = contract.NewRuntimeFailure(uuid.NewString(), req.ModelName, contract.ErrorTypeUnexpected,
				fmt.Errorf("panic in plan command: %v", r))
		}
	}()
	if app.Plan == nil {
		return contract.NewRuntimeFailure(uuid.NewString(), req.ModelName, contract.ErrorTypeGenerationUnavailable,
			errors.New("no plan service configured"))
	}
	return app.Plan.Generate(ctx, req)
}

func invalidRequest(err error) *contract.PlanResponse {
	if !errors.Is(err, contract.ErrInvalidRequest) {
		err = fmt.Errorf("%w: %v", contract.ErrInvalidRequest, err)
	}
	return contract.NewRuntimeFailure(uuid.NewString(), "", contract.ErrorTypeInvalidRequest, err)
}
