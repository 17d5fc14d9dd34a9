package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"github.com/alexanderramin/weekplan/internal/config"
	"github.com/alexanderramin/weekplan/internal/intelligence"
	"github.com/alexanderramin/weekplan/internal/llm"
	"github.com/alexanderramin/weekplan/internal/logger"
	"github.com/alexanderramin/weekplan/internal/vocabulary"
)

// App holds the services CLI commands run against.
type App struct {
	Config     *config.Config
	Logger     *log.Logger
	Plan       intelligence.PlanService
	Vocabulary *vocabulary.Vocabulary

	// IsInteractive reports whether r is a terminal. plan and batch refuse
	// to block on an interactive stdin.
	IsInteractive func(r io.Reader) bool
	Now           func() time.Time
}

// BootstrapFlags are the flags needed before any service can be built.
type BootstrapFlags struct {
	ConfigPath string
	Debug      bool
}

// Bind registers the bootstrap flags on fs.
func (f *BootstrapFlags) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "Config file (default $WEEKPLAN_HOME/config.yaml)")
	fs.BoolVar(&f.Debug, "debug", false, "Log at debug level and mirror logs to stderr")
}

// Bootstrapper builds the App once flags are parsed. The returned cleanup
// releases whatever the App holds.
type Bootstrapper func(ctx context.Context, flags BootstrapFlags) (*App, func(context.Context) error, error)

// StaticApp is a Bootstrapper that always returns app.
func StaticApp(app *App) Bootstrapper {
	return func(context.Context, BootstrapFlags) (*App, func(context.Context) error, error) {
		return app, nil, nil
	}
}

// Runtime carries bootstrap state between the root command and its
// subcommands.
type Runtime struct {
	boot    Bootstrapper
	flags   BootstrapFlags
	app     *App
	cleanup func(context.Context) error
}

func NewRuntime(boot Bootstrapper) *Runtime {
	return &Runtime{boot: boot}
}

func (r *Runtime) start(ctx context.Context) error {
	if r.app != nil {
		return nil
	}
	app, cleanup, err := r.boot(ctx, r.flags)
	if err != nil {
		return err
	}
	if app == nil {
		return errors.New("bootstrap returned no app")
	}
	app.fillDefaults()
	r.app = app
	r.cleanup = cleanup
	return nil
}

// degrade installs a default App whose plan service fails every request
// with GenerationUnavailable wrapping cause. Commands that promise one
// envelope per request run against it when bootstrap fails.
func (r *Runtime) degrade(cause error) {
	cfg := config.DefaultConfig()
	app := &App{
		Config: cfg,
		Plan: intelligence.NewPlanService(llm.Unavailable(cause), intelligence.PlanServiceOptions{
			DefaultModel: cfg.LLM.Model,
		}),
	}
	app.fillDefaults()
	r.app = app
}

func (a *App) fillDefaults() {
	if a.Logger == nil {
		a.Logger = logger.Discard()
	}
	if a.Vocabulary == nil {
		a.Vocabulary = vocabulary.Default()
	}
	if a.IsInteractive == nil {
		a.IsInteractive = isTerminal
	}
	if a.Now == nil {
		a.Now = time.Now
	}
}

// App returns the bootstrapped App, nil before the root command ran.
func (r *Runtime) App() *App {
	return r.app
}

// Close runs the bootstrap cleanup once.
func (r *Runtime) Close(ctx context.Context) error {
	if r.cleanup == nil {
		return nil
	}
	cleanup := r.cleanup
	r.cleanup = nil
	return cleanup(ctx)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
