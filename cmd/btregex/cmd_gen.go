package main

import (
	"bytes"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"github.com/coregx/btregex"
	"github.com/coregx/btregex/internal/codegen"
)

type genFlags struct {
	pkg    string
	name   string
	output string
}

func newGenCmd(g *globalFlags) *cobra.Command {
	f := &genFlags{}
	cmd := &cobra.Command{
		Use:   "gen PATTERN",
		Short: "Generate Go source that compiles a pattern at init",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			re, config, err := g.compile(args[0])
			if err != nil {
				return err
			}

			cfg := codegen.Config{
				Package: f.pkg,
				Name:    f.name,
				Pattern: args[0],
				Options: re.Program().Options,
			}
			def := btregex.DefaultConfig()
			if config.Syntax != def.Syntax {
				cfg.Syntax = config.Syntax
			}
			if config.Encoding != def.Encoding {
				cfg.Encoding = config.Encoding
			}
			if config.StackLimit != def.StackLimit {
				cfg.StackLimit = config.StackLimit
			}

			var buf bytes.Buffer
			if err := codegen.Write(&buf, re.Tree(), re.Program(), cfg); err != nil {
				return err
			}
			if f.output == "" {
				_, err = cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(f.output, buf.Bytes(), 0o644); err != nil {
				return xerrors.Errorf("write output: %w", err)
			}
			g.logger.Sugar().Infof("wrote %s", f.output)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.pkg, "package", "main", "package of the generated file")
	flags.StringVar(&f.name, "name", "Pattern", "name of the generated variable")
	flags.StringVarP(&f.output, "output", "o", "", "output file (default: standard output)")
	return cmd
}
