package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"exception-reporter/internal/assembly"
	"exception-reporter/internal/capture"
	"exception-reporter/internal/config"
	"exception-reporter/internal/dispatch"
	"exception-reporter/internal/report"
	"exception-reporter/internal/system"
	"exception-reporter/pkg/utils"
)

var errSendFailed = errors.New("report was not sent")

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "exreport", "config.yaml")
	}
	return "exreport.yaml"
}

// Flags are built per command; urfave flags keep parse state.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "path to the YAML configuration",
			Sources: cli.EnvVars("EXREPORT_CONFIG"),
			Value:   defaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log level (debug, info, warn, error); overrides logging.level",
			Sources: cli.EnvVars("EXREPORT_LOG_LEVEL"),
		},
	}
}

func errorFlags(extra ...cli.Flag) []cli.Flag {
	return append(extra,
		&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "error message to report", Required: true},
		&cli.StringFlag{Name: "type", Usage: "error type name", Value: "error"},
		&cli.StringFlag{Name: "stack-file", Usage: "goroutine dump to attach as the stack trace"},
		&cli.StringFlag{Name: "binary", Usage: "binary whose modules are listed; defaults to this one"},
		&cli.StringFlag{Name: "explanation", Usage: "what the user was doing"},
	)
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "exreport",
		Usage:   "Build and send error reports",
		Version: version,
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			initConfigCmd(),
			reportCmd(),
			sendCmd(),
			sysinfoCmd(),
			depsCmd(),
		},
	}
}

func initConfigCmd() *cli.Command {
	return &cli.Command{
		Name:  "init-config",
		Usage: "Write a default configuration when none exists",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.String("config")
			if err := config.EnsureExists(path); err != nil {
				return fmt.Errorf("create config: %w", err)
			}
			fmt.Fprintln(cmd.Root().Writer, path)
			return nil
		},
	}
}

func reportCmd() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Render a report for an error",
		Flags: errorFlags(
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write the report to this file instead of stdout"},
			&cli.BoolFlag{Name: "json", Usage: "print the report model as JSON"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			d, err := env.dispatcher(cmd, dispatch.HeadlessView{Sink: stderrSink{w: cmd.Root().ErrWriter}})
			if err != nil {
				return err
			}
			defer d.Close()

			if out := cmd.String("output"); out != "" {
				if !d.SaveReportToFile(ctx, out) {
					return fmt.Errorf("save report to %s failed", out)
				}
				sum, err := utils.FileSHA256(out)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.Root().Writer, "%s %s\n", out, sum)
				return nil
			}
			if cmd.Bool("json") {
				m, err := d.Model(ctx)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.Root().Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(m)
			}
			text, err := d.CreateReport(ctx)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.Root().Writer, text)
			return err
		},
	}
}

func sendCmd() *cli.Command {
	return &cli.Command{
		Name:  "send",
		Usage: "Send a report for an error with the configured method",
		Flags: errorFlags(
			&cli.StringFlag{Name: "method", Usage: "override send.method (none, mail_client, smtp, web_service)"},
			&cli.BoolFlag{Name: "web-page", Usage: "post to web_service.web_report_url instead"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			if m := cmd.String("method"); m != "" {
				env.cfg.Send.Method = m
				if err := env.cfg.Validate(); err != nil {
					return err
				}
			}
			sink := stderrSink{w: cmd.Root().ErrWriter}
			d, err := env.dispatcher(cmd, dispatch.HeadlessView{Sink: sink, Explanation: cmd.String("explanation")})
			if err != nil {
				return err
			}
			defer d.Close()

			if cmd.Bool("web-page") {
				if !d.SendToWebPage(ctx) {
					return errSendFailed
				}
				return nil
			}
			if st := d.SendReport(ctx); st != dispatch.StateCompleted {
				env.logger.Warn("send finished", zap.String("state", st.String()))
				return errSendFailed
			}
			fmt.Fprintf(cmd.Root().Writer, "report %s sent via %s\n", d.ReportID(), d.View().SendMethod)
			return nil
		},
	}
}

func sysinfoCmd() *cli.Command {
	return &cli.Command{
		Name:  "sysinfo",
		Usage: "Print the system facts included in reports",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			facts := system.NewFactProvider(nil, env.logger)
			if !facts.Available() {
				return system.ErrUnavailable
			}
			_, err = io.WriteString(cmd.Root().Writer, report.FormatFacts(facts.Fetch(ctx)))
			return err
		},
	}
}

func depsCmd() *cli.Command {
	return &cli.Command{
		Name:  "deps",
		Usage: "List the modules linked into a Go binary",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "binary", Usage: "binary to inspect; defaults to this one"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			insp := assembly.New()
			var (
				refs []assembly.Ref
				err  error
			)
			if b := cmd.String("binary"); b != "" {
				refs, err = insp.Refs(b)
			} else {
				refs, err = insp.Self()
			}
			if err != nil {
				return err
			}
			for _, r := range refs {
				fmt.Fprintf(cmd.Root().Writer, "%s, Version=%s\n", r.Name, r.Version)
			}
			return nil
		},
	}
}

type env struct {
	cfg    *config.Config
	logger *zap.Logger
}

func setup(cmd *cli.Command) (*env, error) {
	path := cmd.String("config")
	if err := config.EnsureExists(path); err != nil {
		return nil, fmt.Errorf("create config: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	level := cfg.Logging.Level
	if l := cmd.String("log-level"); l != "" {
		level = l
	}
	logger, err := utils.NewLogger(cfg.Logging.File, level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return &env{cfg: cfg, logger: logger}, nil
}

func (e *env) close() { _ = e.logger.Sync() }

func (e *env) dispatcher(cmd *cli.Command, ui dispatch.View) (*dispatch.Dispatcher, error) {
	ed, err := errorDataFromFlags(cmd)
	if err != nil {
		return nil, err
	}
	if x := cmd.String("explanation"); x != "" {
		e.cfg.App.UserExplanation = x
	}
	return dispatch.New(e.cfg, ed, ui, dispatch.Options{Logger: e.logger})
}

func errorDataFromFlags(cmd *cli.Command) (*capture.ErrorData, error) {
	ce := capture.CapturedException{
		TypeName: cmd.String("type"),
		Message:  cmd.String("message"),
	}
	if p := cmd.String("stack-file"); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read stack file: %w", err)
		}
		ce.Frames = capture.ParseGoroutineStack(string(b))
	}
	ed := capture.NewErrorData(ce)
	ed.AppBinary = cmd.String("binary")
	return ed, nil
}

// stderrSink prints send failures for the operator.
type stderrSink struct {
	w io.Writer
}

func (s stderrSink) Completed(bool) {}

func (s stderrSink) ShowError(msg string, err error) {
	msg = strings.TrimSpace(msg)
	if err != nil && !strings.Contains(msg, err.Error()) {
		msg += ": " + err.Error()
	}
	fmt.Fprintln(s.w, msg)
}
