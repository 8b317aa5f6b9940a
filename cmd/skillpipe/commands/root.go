package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/ib-77/skillpipe/internal/config"
	"github.com/ib-77/skillpipe/internal/logging"
	"github.com/ib-77/skillpipe/internal/printer"
	"github.com/ib-77/skillpipe/pkg/infer/checkpoint"
)

type rootOptions struct {
	configPath string
}

// NewRootCommand builds the skillpipe command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "skillpipe",
		Short: "Run image frames through a chain of skills",
		Long: `skillpipe runs image frames through the skills configured in
pipeline.yml, prints the outcome recorded on every frame and can checkpoint
skill state to Redis so a later run resumes without warming up again.`,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "pipeline.yml", "path to pipeline configuration")

	root.AddCommand(newRunCommand(opts))
	root.AddCommand(newCheckpointCommand(opts))

	// errors are reported through the printer, cobra's own printing is off
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		printer.New(cmd.ErrOrStderr()).Failure("%v", err)
		return err
	})
	return root
}

// session is what every subcommand needs once the config is loaded.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	printer *printer.Printer
}

func (o *rootOptions) open(cmd *cobra.Command) (*session, error) {
	p := printer.New(cmd.OutOrStdout())
	cfg, err := config.Load(o.configPath)
	if err != nil {
		printer.New(cmd.ErrOrStderr()).Failure("%v", err)
		return nil, err
	}
	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	return &session{cfg: cfg, logger: logger, printer: p}, nil
}

func (s *session) store() (*checkpoint.RedisStore, error) {
	if s.cfg.Checkpoint == nil {
		return nil, fmt.Errorf("no checkpoint section in configuration")
	}
	return checkpoint.NewRedisStore(&redis.Options{
		Addr:     s.cfg.Checkpoint.RedisAddr,
		Password: s.cfg.Checkpoint.Password,
		DB:       s.cfg.Checkpoint.DB,
	}, s.cfg.Checkpoint.Instance)
}

// fail reports err through the printer and hands it back to cobra.
func (s *session) fail(cmd *cobra.Command, err error) error {
	printer.New(cmd.ErrOrStderr()).Failure("%v", err)
	return err
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
