package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/chazu/fluidcsg/pkg/csg"
	"github.com/chazu/fluidcsg/pkg/kernel"
	"github.com/chazu/fluidcsg/pkg/kernel/bsp"
	"github.com/chazu/fluidcsg/pkg/kernel/sdfx"
	"github.com/spf13/cobra"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	verbose  bool
	segments int
	epsilon  float64
	ascii    bool
	logger   *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{logger: slog.New(slog.DiscardHandler)}

	rootCmd := &cobra.Command{
		Use:   "fluidcsg",
		Short: "Constructive solid geometry for microfluidic devices",
		Long: `fluidcsg builds triangle meshes for microfluidic chips. Designs are written
in a small Lisp, evaluated into a design graph and meshed with exact BSP
booleans or signed distance fields. STL files can be combined and inspected
directly.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log boolean operation details")
	pf.IntVar(&opts.segments, "segments", 0, "default segment count for round primitives")
	pf.Float64Var(&opts.epsilon, "epsilon", 0, "fixed plane tolerance (0 derives it from the operands)")
	pf.BoolVar(&opts.ascii, "ascii", false, "write ASCII STL instead of binary")

	rootCmd.AddCommand(
		newEvalCmd(opts),
		newBooleanCmd(opts),
		newPrimitiveCmd(opts),
		newInfoCmd(),
	)
	return rootCmd
}

// engine returns a boolean engine honoring --epsilon.
func (o *options) engine(observers ...func(csg.Stats)) *csg.Engine {
	opts := []csg.Option{csg.WithLogger(o.logger), csg.WithEpsilon(o.epsilon)}
	for _, fn := range observers {
		opts = append(opts, csg.WithObserver(fn))
	}
	return csg.New(opts...)
}

// kernel returns the named geometry kernel.
func (o *options) kernel(name string, cells int) (kernel.Kernel, error) {
	switch name {
	case "bsp":
		return bsp.New(
			bsp.WithEngine(o.engine()),
			bsp.WithSegments(o.segments),
			bsp.WithLogger(o.logger),
		), nil
	case "sdfx":
		return sdfx.New(sdfx.WithMeshCells(cells)), nil
	default:
		return nil, fmt.Errorf("unknown kernel %q (want bsp or sdfx)", name)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
