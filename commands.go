package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/paragor/answer-store/pkg/answer"
	"github.com/paragor/answer-store/pkg/client"
	"github.com/paragor/answer-store/pkg/config"
	"github.com/paragor/answer-store/pkg/display"
	"github.com/paragor/answer-store/pkg/kv"
	"github.com/paragor/answer-store/pkg/logging"
	"github.com/paragor/answer-store/pkg/page"
	"github.com/paragor/answer-store/pkg/server"
)

type app struct {
	in       io.Reader
	out, err io.Writer

	configPath string
	cfg        *config.Config
	logger     logr.Logger
}

func newRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, err: errOut}

	cmd := &cobra.Command{
		Use:               "answer-store",
		Short:             "Store a single answer and show it on a web page",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
	}
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to yaml config file")
	config.Default().AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(a.serveCommand(), a.watchCommand(), a.submitCommand())
	return cmd
}

// load builds the effective config: defaults, file, environment, then flags.
func (a *app) load(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath, a.configPath != "")
	if err != nil {
		return err
	}
	if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	logger, err := logging.New(a.err, cfg.Log)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the answer API and web page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := newStore(ctx, a.cfg.Storage)
			if err != nil {
				return fmt.Errorf("create store: %w", err)
			}

			svc := answer.NewService(a.logger, store, a.cfg.Placeholder)
			if err := svc.Init(ctx); err != nil {
				// reads fall back to the placeholder or report the
				// storage error per request
				a.logger.Error(err, "initializing answer record")
			}

			engine, err := page.NewEngine()
			if err != nil {
				return err
			}

			srv := server.New(a.logger, svc, engine, server.Config{
				EnableRequestLogging: a.cfg.RequestLogging,
				View: page.View{
					APIURL:          a.cfg.PageAPIURL(),
					PollInterval:    a.cfg.PollInterval,
					MaxPollInterval: a.cfg.MaxPollInterval,
				},
			})

			ln, err := net.Listen("tcp", net.JoinHostPort("0.0.0.0", strconv.Itoa(a.cfg.Port)))
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			return srv.Start(ctx, ln)
		},
	}
}

func (a *app) watchCommand() *cobra.Command {
	var withForm bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the API and print the latest answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			c, err := client.New(a.cfg.ClientAPIURL())
			if err != nil {
				return err
			}
			renderer := display.NewTextRenderer(a.out)
			w := display.NewWatcher(a.logger, c, renderer, a.cfg.PollInterval, a.cfg.MaxPollInterval)

			if withForm {
				go a.readSubmissions(ctx, w)
			}
			return w.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&withForm, "form", false, "Submit every line read from stdin as a new answer")
	return cmd
}

// readSubmissions submits each non-empty stdin line until stdin closes or ctx
// is cancelled.
func (a *app) readSubmissions(ctx context.Context, w *display.Watcher) {
	scanner := bufio.NewScanner(a.in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		msg, err := w.Submit(ctx, line)
		if err != nil {
			fmt.Fprintf(a.out, "warning: answer not saved: %v\n", err)
			continue
		}
		fmt.Fprintln(a.out, msg)
	}
}

func (a *app) submitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "submit VALUE",
		Short: "Store a new answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.New(a.cfg.ClientAPIURL())
			if err != nil {
				return err
			}
			msg, err := c.Submit(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("submit answer: %w", err)
			}
			fmt.Fprintln(a.out, msg)
			return nil
		},
	}
}

func newStore(ctx context.Context, cfg config.StorageConfig) (kv.Store, error) {
	switch cfg.Backend {
	case config.S3Backend:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return kv.NewS3Store(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix), nil
	case config.MemoryBackend:
		return kv.NewMemoryStore(), nil
	case config.FileBackend:
		return kv.NewFileStore(cfg.Dir), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
