package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/coregx/btregex"
	"github.com/coregx/btregex/metrics"
)

const maxLineSize = 1 << 20

type matchFlags struct {
	onlyMatching bool
	lineNumber   bool
	count        bool
	timeout      time.Duration
	stats        bool
}

func newMatchCmd(g *globalFlags) *cobra.Command {
	f := &matchFlags{}
	cmd := &cobra.Command{
		Use:   "match PATTERN [FILE...]",
		Short: "Print lines of the input that match a pattern",
		Long:  "Print lines of the input that match a pattern. Without files, standard input is read.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			re, _, err := g.compile(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if f.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, f.timeout)
				defer cancel()
			}

			m := &matcher{re: re, flags: f, out: cmd.OutOrStdout(), logger: g.logger}
			if len(args) == 1 {
				err = m.scan(ctx, "", cmd.InOrStdin())
			} else {
				for _, name := range args[1:] {
					if err = m.scanFile(ctx, name); err != nil {
						break
					}
				}
			}
			if err != nil {
				return err
			}

			if f.count {
				fmt.Fprintln(m.out, m.matched)
			}
			if f.stats {
				return printStats(cmd.ErrOrStderr(), args[0], re)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&f.onlyMatching, "only-matching", "o", false, "print each match instead of the whole line")
	flags.BoolVarP(&f.lineNumber, "line-number", "n", false, "prefix output with the line number")
	flags.BoolVar(&f.count, "count", false, "print the number of matching lines")
	flags.DurationVar(&f.timeout, "timeout", 0, "abort the run after this long")
	flags.BoolVar(&f.stats, "stats", false, "print search statistics to standard error")
	return cmd
}

type matcher struct {
	re      *btregex.Regex
	flags   *matchFlags
	out     io.Writer
	logger  *zap.Logger
	matched int
}

func (m *matcher) scanFile(ctx context.Context, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return xerrors.Errorf("open input: %w", err)
	}
	defer f.Close()
	return m.scan(ctx, name, f)
}

func (m *matcher) scan(ctx context.Context, name string, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for lineNo := 1; sc.Scan(); lineNo++ {
		line := sc.Bytes()
		region, err := m.re.Search(ctx, line, 0)
		if err != nil {
			return xerrors.Errorf("line %d: %w", lineNo, err)
		}
		if region == nil {
			continue
		}
		m.matched++
		if m.flags.count {
			continue
		}

		prefix := ""
		if name != "" {
			prefix = name + ":"
		}
		if m.flags.lineNumber {
			prefix += fmt.Sprintf("%d:", lineNo)
		}
		if !m.flags.onlyMatching {
			fmt.Fprintf(m.out, "%s%s\n", prefix, line)
			continue
		}
		for _, loc := range m.re.FindAllIndex(line, -1) {
			fmt.Fprintf(m.out, "%s%s\n", prefix, line[loc[0]:loc[1]])
		}
	}
	if err := sc.Err(); err != nil {
		return xerrors.Errorf("read input: %w", err)
	}

	m.logger.Info("scanned input",
		zap.String("name", name),
		zap.Int("matched", m.matched),
	)
	return nil
}

// printStats writes the collector's samples for re as "name value" lines.
func printStats(w io.Writer, pattern string, re *btregex.Regex) error {
	c := metrics.NewCollector("btregex")
	c.Register(pattern, re)
	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		return xerrors.Errorf("register metrics: %w", err)
	}
	families, err := reg.Gather()
	if err != nil {
		return xerrors.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			v := metric.GetGauge().GetValue()
			if metric.GetCounter() != nil {
				v = metric.GetCounter().GetValue()
			}
			fmt.Fprintf(w, "%s %g\n", mf.GetName(), v)
		}
	}
	return nil
}
