package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-swept-surface/pkg/config"
	"github.com/df07/go-swept-surface/pkg/core"
	"github.com/df07/go-swept-surface/pkg/geometry"
	"github.com/df07/go-swept-surface/pkg/loaders"
	"github.com/df07/go-swept-surface/pkg/model"
	"github.com/df07/go-swept-surface/pkg/renderer"
	"github.com/spf13/cobra"
)

// options shared by every command
type globalOptions struct {
	configFile string
	verbose    bool
}

// buildOptions are the flags of build and watch
type buildOptions struct {
	steps        int
	sectionSteps int
	section      string
	ply          string
	obj          string
	png          string
}

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	global := &globalOptions{}
	root := &cobra.Command{
		Use:          "sweep",
		Short:        "Build swept surfaces from keyframed cross-sections",
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&global.configFile, "config", "", "TOML config file (default "+config.DefaultFile+" if present)")
	root.PersistentFlags().BoolVarP(&global.verbose, "verbose", "v", false, "Log debug output")

	root.AddCommand(
		newSampleCommand(),
		newNormalizeCommand(),
		newBuildCommand(global),
		newWatchCommand(global),
		newConfigCommand(global),
	)
	return root
}

// setup loads the config and creates the logger for a command
func (g *globalOptions) setup(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	level := slog.LevelInfo
	if g.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(g.configFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger.Debug("config loaded", "file", g.configFile, "steps", cfg.Surface.Steps, "section", cfg.Surface.Section)
	return cfg, logger, nil
}

func newSampleCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "sample <family> <n> <m>",
		Short: "Write a sample model of n circular keyframes with m points each",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			family, err := model.ParseCurveFamily(args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid keyframe count %q", args[1])
			}
			m, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid point count %q", args[2])
			}

			if output == "" {
				return loaders.WriteSample(cmd.OutOrStdout(), family, n, m)
			}
			file, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := loaders.WriteSample(file, family, n, m); err != nil {
				file.Close()
				return err
			}
			return file.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func newNormalizeCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "normalize <model>",
		Short: "Load a model and save it back normalized",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loaders.LoadModel(args[0])
			if err != nil {
				return err
			}
			switch output {
			case "":
				return loaders.SaveModel(args[0], m)
			case "-":
				return loaders.WriteModel(cmd.OutOrStdout(), m)
			default:
				return loaders.SaveModel(output, m)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, - for stdout (default: overwrite the input)")
	return cmd
}

func newBuildCommand(global *globalOptions) *cobra.Command {
	opts := &buildOptions{}
	var workers int

	cmd := &cobra.Command{
		Use:   "build <model>...",
		Short: "Build surfaces and export meshes or wireframe previews",
		Long: "Build each model's surface and export it. With no --ply, --obj or --png\n" +
			"the preview is saved to <output_dir>/<model>/preview_<timestamp>.png.\n" +
			"Several models are built in parallel and always get the default preview.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := global.setup(cmd)
			if err != nil {
				return err
			}
			if err := opts.apply(cmd, &cfg); err != nil {
				return err
			}
			explicit := opts.ply != "" || opts.obj != "" || opts.png != ""
			if explicit && len(args) > 1 {
				return fmt.Errorf("--ply, --obj and --png need a single model, got %d", len(args))
			}

			models := make([]*model.Model, len(args))
			for i, filename := range args {
				if models[i], err = loaders.LoadModel(filename); err != nil {
					return err
				}
			}

			start := time.Now()
			surfaces, errs := geometry.BuildAll(models, cfg.SurfaceOptions(), workers)
			if errs != nil {
				for i, err := range errs {
					if err != nil {
						errs[i] = fmt.Errorf("%s: %w", args[i], err)
					}
				}
				return errors.Join(errs...)
			}
			logger.Info("surfaces built", "models", len(models), "elapsed", time.Since(start))

			for i, surface := range surfaces {
				outputs := *opts
				if !explicit {
					outputs.png = previewPath(cfg.Preview.OutputDir, args[i], start)
				}
				if err := export(core.NewLogger(logger), cfg, surface, &outputs); err != nil {
					return err
				}
			}
			return nil
		},
	}
	opts.register(cmd)
	cmd.Flags().IntVar(&workers, "workers", 0, "Parallel builds (default one per CPU)")
	return cmd
}

func newWatchCommand(global *globalOptions) *cobra.Command {
	opts := &buildOptions{}

	cmd := &cobra.Command{
		Use:   "watch <model>",
		Short: "Rebuild the outputs every time the model file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := global.setup(cmd)
			if err != nil {
				return err
			}
			if err := opts.apply(cmd, &cfg); err != nil {
				return err
			}
			if opts.ply == "" && opts.obj == "" && opts.png == "" {
				opts.png = filepath.Join(cfg.Preview.OutputDir, modelName(args[0]), "preview.png")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return watch(ctx, core.NewLogger(logger), cfg, args[0], opts)
		},
	}
	opts.register(cmd)
	return cmd
}

func newConfigCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := global.setup(cmd)
			if err != nil {
				return err
			}
			return config.Encode(cmd.OutOrStdout(), cfg)
		},
	}
}

func (o *buildOptions) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&o.steps, "steps", 0, "Samples per spine segment (default from config)")
	cmd.Flags().IntVar(&o.sectionSteps, "section-steps", 0, "Samples per cross-section edge (default steps)")
	cmd.Flags().StringVar(&o.section, "section", "", "Cross-section policy: nearest or blend (default from config)")
	cmd.Flags().StringVar(&o.ply, "ply", "", "Write an ASCII PLY mesh")
	cmd.Flags().StringVar(&o.obj, "obj", "", "Write a Wavefront OBJ mesh")
	cmd.Flags().StringVar(&o.png, "png", "", "Write a wireframe preview PNG")
}

// apply overrides cfg with the flags that were set
func (o *buildOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("steps") {
		cfg.Surface.Steps = o.steps
	}
	if cmd.Flags().Changed("section-steps") {
		cfg.Surface.SectionSteps = o.sectionSteps
	}
	if cmd.Flags().Changed("section") {
		cfg.Surface.Section = o.section
	}
	return cfg.Validate()
}

// build builds m and writes every requested output
func build(logger core.Logger, cfg config.Config, m *model.Model, opts *buildOptions) error {
	start := time.Now()
	surface, err := geometry.BuildSurface(m, cfg.SurfaceOptions())
	if err != nil {
		return err
	}
	logger.Printf("🔧 Built %d rings of %d points in %v\n", surface.RingCount(), surface.RingSize(), time.Since(start))
	return export(logger, cfg, surface, opts)
}

// export writes the meshes and preview named in opts
func export(logger core.Logger, cfg config.Config, surface *geometry.Surface, opts *buildOptions) error {
	for _, path := range []string{opts.ply, opts.obj} {
		if path == "" {
			continue
		}
		if err := loaders.SaveMesh(path, surface); err != nil {
			return err
		}
		logger.Printf("💾 Mesh saved as %s\n", path)
	}

	if opts.png != "" {
		camera := renderer.NewCamera(cfg.CameraConfig())
		wf := cfg.Wireframe()
		camera.Aspect = float64(wf.Width) / float64(wf.Height)
		if err := loaders.SavePNG(opts.png, wf.Render(camera, surface)); err != nil {
			return err
		}
		logger.Printf("🖼️  Preview saved as %s\n", opts.png)
	}
	return nil
}

// watch builds once, then again after every change to filename
func watch(ctx context.Context, logger core.Logger, cfg config.Config, filename string, opts *buildOptions) error {
	m, err := loaders.LoadModel(filename)
	if err != nil {
		return err
	}
	if err := build(logger, cfg, m, opts); err != nil {
		return err
	}

	return loaders.WatchModel(ctx, filename, loaders.WatchOptions{Logger: logger}, func(m *model.Model, err error) {
		if err != nil {
			// Keep the last good outputs until the file is fixed
			return
		}
		if err := build(logger, cfg, m, opts); err != nil {
			logger.Printf("❌ Build failed: %v\n", err)
		}
	})
}

// previewPath returns <dir>/<model>/preview_<timestamp>.png
func previewPath(dir, filename string, now time.Time) string {
	timestamp := now.Format("20060102_150405")
	return filepath.Join(dir, modelName(filename), fmt.Sprintf("preview_%s.png", timestamp))
}

// modelName is the base name of filename without its extension
func modelName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
