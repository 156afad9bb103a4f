package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ftl/ais-nmea/com"
	"github.com/ftl/ais-nmea/config"
)

type environment struct {
	configPath string
	logLevel   string
	tracePath  string

	cfg    config.Config
	log    *logrus.Logger
	tracer io.WriteCloser
}

// RootCmd returns the root cobra command of aisctl.
func RootCmd() *cobra.Command {
	env := new(environment)
	cmd := &cobra.Command{
		Use:               "aisctl",
		Short:             "Decode, encode and send AIS messages in NMEA 0183 format",
		SilenceUsage:      true,
		PersistentPreRunE: env.load,
		PersistentPostRun: env.close,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.PersistentFlags().StringVarP(&env.configPath, "config", "c", config.DefaultConfigPath, "Config file path")
	cmd.PersistentFlags().StringVar(&env.logLevel, "log-level", "", "Override the configured log level")
	cmd.PersistentFlags().StringVar(&env.tracePath, "trace", "", "Write all received and transmitted sentences to this file")

	cmd.AddCommand(decodeCmd(env))
	cmd.AddCommand(encodeCmd(env))
	cmd.AddCommand(sendCmd(env))
	cmd.AddCommand(serveCmd(env))
	return cmd
}

func (e *environment) load(cmd *cobra.Command, _ []string) error {
	cfg, exists, err := config.LoadOrDefault(e.configPath)
	if err != nil {
		return err
	}
	if !exists && cmd.Flags().Changed("config") {
		return fmt.Errorf("config file %s not found", e.configPath)
	}
	if e.logLevel != "" {
		cfg.Log.Level = e.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	e.cfg = cfg

	e.log = cfg.Log.Logger()
	e.log.SetOutput(cmd.ErrOrStderr())
	if exists {
		e.log.WithField("path", e.configPath).Debug("configuration loaded")
	}

	tracePath := e.tracePath
	if tracePath == "" {
		tracePath = cfg.Log.Trace
	}
	if tracePath != "" {
		e.tracer, err = os.OpenFile(tracePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("cannot open trace file: %w", err)
		}
	}
	return nil
}

func (e *environment) close(*cobra.Command, []string) {
	if e.tracer != nil {
		e.tracer.Close()
	}
}

func (e *environment) sessionOptions(options ...com.Option) []com.Option {
	result := []com.Option{
		com.WithLogger(logrus.NewEntry(e.log)),
		com.WithTalker(e.cfg.Send.Talker),
		com.WithAssemblerLimits(e.cfg.Assembler.MaxAgeDuration(), e.cfg.Assembler.MaxGroups),
	}
	return append(result, options...)
}

func (e *environment) newSession(device io.ReadWriter, options ...com.Option) *com.COM {
	options = e.sessionOptions(options...)
	if e.tracer != nil {
		return com.NewWithTrace(device, e.tracer, options...)
	}
	return com.New(device, options...)
}
