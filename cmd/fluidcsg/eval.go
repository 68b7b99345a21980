package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chazu/fluidcsg/pkg/pipeline"
	"github.com/chazu/fluidcsg/pkg/stl"
	"github.com/chazu/fluidcsg/pkg/watcher"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type evalOptions struct {
	out    string
	kernel string
	cells  int
	watch  bool
	split  bool
}

func newEvalCmd(opts *options) *cobra.Command {
	eo := &evalOptions{}
	cmd := &cobra.Command{
		Use:   "eval <script>",
		Short: "Evaluate a design script and write its meshes to STL",
		Long: `Evaluate a fluidcsg Lisp script and write every part to a single STL file,
or one file per part with --split. With --watch the script is re-evaluated
whenever it changes until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, opts, eo, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&eo.out, "out", "o", "", "output STL path (default: script name with .stl)")
	f.StringVar(&eo.kernel, "kernel", "bsp", "geometry kernel: bsp or sdfx")
	f.IntVar(&eo.cells, "cells", 0, "marching cubes resolution for the sdfx kernel")
	f.BoolVarP(&eo.watch, "watch", "w", false, "re-evaluate when the script changes")
	f.BoolVar(&eo.split, "split", false, "write one STL per part")
	return cmd
}

func runEval(cmd *cobra.Command, opts *options, eo *evalOptions, script string) error {
	k, err := opts.kernel(eo.kernel, eo.cells)
	if err != nil {
		return err
	}
	p := pipeline.New(pipeline.WithKernel(k), pipeline.WithLogger(opts.logger))

	out := eo.out
	if out == "" {
		out = strings.TrimSuffix(script, filepath.Ext(script)) + ".stl"
	}

	if !eo.watch {
		return evalOnce(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), p, script, out, eo.split, opts.ascii)
	}

	fw, err := watcher.NewFileWatcher(watcher.DefaultDebounce, watcher.WithLogger(opts.logger))
	if err != nil {
		return err
	}
	defer fw.Close()

	rerun := func(string) {
		if err := evalOnce(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), p, script, out, eo.split, opts.ascii); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	}
	if err := fw.Watch([]string{script}, rerun); err != nil {
		return err
	}
	rerun(script)
	fw.Start()

	fmt.Fprintf(cmd.OutOrStdout(), "watching %s (interrupt to stop)\n", script)
	<-cmd.Context().Done()
	return nil
}

// evalOnce evaluates script and writes the resulting meshes.
func evalOnce(ctx context.Context, stdout, stderr io.Writer, p *pipeline.Pipeline, script, out string, split, ascii bool) error {
	result, err := p.EvaluateFile(ctx, script)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(stderr, "warning: %s\n", w)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(stderr, "error: %s\n", e)
	}
	if !result.OK() {
		return fmt.Errorf("%s: %d error(s)", script, len(result.Errors))
	}
	if len(result.Meshes) == 0 {
		return fmt.Errorf("%s: no parts to write", script)
	}

	if !split {
		tris := result.Triangles()
		if err := stl.WriteFile(out, tris, ascii); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote %s (%d parts, %d triangles)\n", out, len(result.Meshes), len(tris))
		return nil
	}

	base := strings.TrimSuffix(out, filepath.Ext(out))
	for _, m := range result.Meshes {
		path := base + "-" + m.PartName + ".stl"
		tris := m.Triangles()
		if err := stl.WriteFile(path, tris, ascii); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote %s (%d triangles)\n", path, len(tris))
	}
	names := lo.Map(result.Meshes, func(m pipeline.MeshData, _ int) string { return m.PartName })
	fmt.Fprintf(stdout, "parts: %s\n", strings.Join(names, ", "))
	return nil
}
