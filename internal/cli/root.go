// Package cli implements the pantry command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/internal/entity"
	"github.com/mesh-intelligence/pantry/internal/logging"
	"github.com/mesh-intelligence/pantry/internal/paths"
	"github.com/mesh-intelligence/pantry/internal/repository"
	"github.com/mesh-intelligence/pantry/internal/service"
	"github.com/mesh-intelligence/pantry/internal/sqlite"
	"github.com/mesh-intelligence/pantry/internal/validate"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// sysError marks failures of the environment rather than of the input.
type sysError struct{ err error }

func (e *sysError) Error() string { return e.err.Error() }
func (e *sysError) Unwrap() error { return e.err }

func systemError(format string, args ...any) error {
	return &sysError{err: fmt.Errorf(format, args...)}
}

// exitCode maps an error returned by a command to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var se *sysError
	if errors.As(err, &se) || errors.Is(err, types.ErrPersist) {
		return exitSysError
	}
	return exitUserError
}

// app holds global flag values and the state shared by subcommands.
type app struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string

	settings *settings
	logger   *slog.Logger
}

// NewRootCmd creates the top-level "pantry" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "pantry",
		Short: "Track household supplies and when to replace them",
		Long: "Pantry tracks stock of consumable household products and, for products\n" +
			"replaced on a schedule, how many days remain until the next replacement.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.prepare(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/pantry)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "data directory (default: $(CWD)/.pantry-db)")
	root.PersistentFlags().BoolVar(&a.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newAddCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newStatusCmd(a),
		newReplaceCmd(a),
		newStockCmd(a),
		newUpdateCmd(a),
		newEditCmd(a),
		newRemoveCmd(a),
		newCallCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, NewRootCmd(), os.Stderr)
	stop()
	os.Exit(code)
}

// run executes root and reports any error on stderr.
func run(ctx context.Context, root *cobra.Command, stderr io.Writer) int {
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", describe(err))
	}
	return exitCode(err)
}

// describe turns known errors into user-facing text.
func describe(err error) string {
	var verr *validate.Error
	if errors.As(err, &verr) {
		return verr.Error()
	}
	return err.Error()
}

// prepare loads .env, config.yaml and the logger before any subcommand.
func (a *app) prepare(cmd *cobra.Command) error {
	if err := loadDotEnv(paths.EnvFile()); err != nil {
		return systemError("load %s: %w", paths.EnvFileName, err)
	}
	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return systemError("resolve config dir: %w", err)
	}
	s, err := loadSettings(configDir)
	if err != nil {
		return systemError("%w", err)
	}
	if a.logLevel != "" {
		s.LogLevel = a.logLevel
	}
	a.settings = s
	a.logger = logging.Setup(cmd.ErrOrStderr(), s.LogLevel)
	return nil
}

// resolvedDataDir applies the data directory precedence chain.
func (a *app) resolvedDataDir() (string, error) {
	dir, err := paths.ResolveDataDir(a.dataDir, a.settings.DataDir)
	if err != nil {
		return "", systemError("resolve data dir: %w", err)
	}
	return dir, nil
}

// session is an attached store with a loaded repository.
type session struct {
	backend *sqlite.Backend
	config  types.Config
	repo    *repository.Repository
	logger  *slog.Logger
}

// open attaches the store and loads the repository. The caller must call
// close.
func (a *app) open(ctx context.Context) (*session, error) {
	dataDir, err := a.resolvedDataDir()
	if err != nil {
		return nil, err
	}
	cfg := types.Config{Backend: a.settings.Backend, DataDir: dataDir}
	backend := sqlite.NewBackend()
	if err := backend.Attach(cfg); err != nil {
		if errors.Is(err, types.ErrBackendUnknown) || errors.Is(err, types.ErrBackendEmpty) {
			return nil, err
		}
		return nil, systemError("attach store: %w", err)
	}

	repo := repository.New(backend, repository.WithLogger(a.logger))
	if err := a.loadRepository(ctx, repo, dataDir); err != nil {
		backend.Detach()
		return nil, err
	}
	return &session{backend: backend, config: cfg, repo: repo, logger: a.logger}, nil
}

// loadRepository loads repo and runs the one-time legacy import. The
// marker in dataDir is written only once the import is saved; a failed
// save leaves the product in memory and the import is retried next run.
func (a *app) loadRepository(ctx context.Context, repo *repository.Repository, dataDir string) error {
	legacy := a.settings.Legacy
	marker := filepath.Join(dataDir, paths.LegacyMarkerName)
	if _, err := os.Stat(marker); err == nil {
		legacy = nil
	}

	err := repo.Load(ctx, legacy)
	switch {
	case errors.Is(err, types.ErrPersist):
		a.logger.Warn("legacy product not saved, will retry", "error", err)
		return nil
	case err != nil:
		return systemError("%w", err)
	}
	if legacy != nil {
		if err := os.WriteFile(marker, nil, 0o644); err != nil {
			a.logger.Warn("failed to record legacy import", "error", err)
		}
	}
	return nil
}

// reload reattaches the store so changes made by other processes to
// products.jsonl become visible, then reloads the repository.
func (s *session) reload(ctx context.Context) error {
	if err := s.backend.Detach(); err != nil {
		return systemError("detach store: %w", err)
	}
	if err := s.backend.Attach(s.config); err != nil {
		return systemError("attach store: %w", err)
	}
	if err := s.repo.Load(ctx, nil); err != nil {
		return systemError("%w", err)
	}
	return nil
}

func (s *session) close() {
	if err := s.backend.Detach(); err != nil {
		s.logger.Error("failed to detach store", "error", err)
	}
}

func (s *session) services() *service.Registry {
	return service.NewRegistry(s.repo, s.logger)
}

func (s *session) board() *entity.Board {
	b := entity.NewBoard(s.repo, s.logger)
	s.repo.Subscribe(b)
	return b
}
