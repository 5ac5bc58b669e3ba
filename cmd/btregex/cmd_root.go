package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/xerrors"

	"github.com/coregx/btregex"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configFile  string
	syntax      string
	optionNames []string
	encoding    string
	stackLimit  int
	logLevel    string

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "btregex",
		Short:         "Inspect, run and generate backtracking regular expressions",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(g.logLevel, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			g.logger = logger
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&g.configFile, "config", "c", "", "YAML configuration file")
	flags.StringVar(&g.syntax, "syntax", "", "dialect preset: ruby, perl, java, python, posix-extended, gnu")
	flags.StringSliceVarP(&g.optionNames, "option", "O", nil,
		"option to enable (repeatable): ignore-case, multiline, find-longest, find-not-empty, not-bol, not-eol")
	flags.StringVar(&g.encoding, "encoding", "", "character encoding: utf-8 or ascii")
	flags.IntVar(&g.stackLimit, "stack-limit", -1, "backtracking stack limit in entries, 0 for unlimited")
	flags.StringVar(&g.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(newDumpCmd(g), newMatchCmd(g), newGenCmd(g))
	return root
}

// newLogger builds a console logger writing to w.
func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, xerrors.Errorf("log level: %w", err)
	}
	encCfg := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		NameKey:        "logger",
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), lvl)
	return zap.New(core).Named("btregex"), nil
}

// config loads the configuration file, if any, and applies the flags.
func (g *globalFlags) config() (btregex.Config, error) {
	config := btregex.DefaultConfig()
	if g.configFile != "" {
		f, err := os.Open(g.configFile)
		if err != nil {
			return btregex.Config{}, xerrors.Errorf("open config: %w", err)
		}
		defer f.Close()
		if config, err = btregex.LoadConfig(f); err != nil {
			return btregex.Config{}, xerrors.Errorf("%s: %w", g.configFile, err)
		}
	}

	if g.syntax != "" {
		config.Syntax = g.syntax
	}
	config.OptionNames = append(config.OptionNames, g.optionNames...)
	if g.encoding != "" {
		config.Encoding = g.encoding
	}
	if g.stackLimit >= 0 {
		config.StackLimit = g.stackLimit
	}
	config.Logger = g.logger
	return config, nil
}

func (g *globalFlags) compile(pattern string) (*btregex.Regex, btregex.Config, error) {
	config, err := g.config()
	if err != nil {
		return nil, config, err
	}
	re, err := btregex.CompileString(pattern, config)
	if err != nil {
		return nil, config, xerrors.Errorf("compile %q: %w", pattern, err)
	}
	return re, config, nil
}
