package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// annotationEnvelope marks commands that answer every request with a JSON
// envelope, bootstrap failures included.
const annotationEnvelope = "weekplan/envelope"

// NewRootCmd creates the top-level "weekplan" command and registers all
// subcommands against rt. The App is built in PersistentPreRunE, after
// --config and --debug are parsed.
func NewRootCmd(rt *Runtime) *cobra.Command {
	root := &cobra.Command{
		Use:           "weekplan",
		Short:         "Turn a goal into a conflict-free weekly plan",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			err := rt.start(cmd.Context())
			if err == nil || cmd.Annotations[annotationEnvelope] == "" {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "weekplan: %v\n", err)
			rt.degrade(err)
			return nil
		},
	}

	rt.flags.Bind(root.PersistentFlags())

	root.AddCommand(
		newPlanCmd(rt),
		newBatchCmd(rt),
		newCheckCmd(rt),
		newVocabCmd(rt),
		newConfigCmd(rt),
	)

	return root
}

// Execute runs the command tree with args, then releases whatever the
// bootstrap acquired. A panic anywhere below is returned as an error.
func Execute(ctx context.Context, boot Bootstrapper, args []string) (err error) {
	rt := NewRuntime(boot)
	root := NewRootCmd(rt)
	root.SetArgs(args)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected panic: %v", r)
		}
		err = errors.Join(err, rt.Close(context.WithoutCancel(ctx)))
	}()

	return root.ExecuteContext(ctx)
}
