package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jsukup/ratemybeard/internal/config"
	"github.com/jsukup/ratemybeard/internal/ensemble"
	"github.com/jsukup/ratemybeard/internal/httpapi"
	"github.com/jsukup/ratemybeard/internal/predictor"
	"github.com/jsukup/ratemybeard/internal/preprocess"
	"github.com/jsukup/ratemybeard/internal/registry"
	"github.com/jsukup/ratemybeard/pkg/types"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		modelsDir  string
	)

	root := &cobra.Command{
		Use:           "ratemybeard",
		Short:         "Facial attractiveness scoring via a weighted model ensemble",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (.toml/.yaml/.json)")
	root.PersistentFlags().StringVar(&addr, "addr", "", "HTTP listen address (defaults RATEMYBEARD_ADDR or :8080)")
	root.PersistentFlags().StringVar(&modelsDir, "models-dir", "", "Directory to scan for *.onnx model files (defaults RATEMYBEARD_MODELS_DIR or ~/models/beauty)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scoring HTTP daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(configPath, addr, modelsDir)
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}

	var weightArgs []string
	scoreCmd := &cobra.Command{
		Use:   "score <image-path>",
		Short: "Score one image and print per-model and fused scores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(configPath, addr, modelsDir)
			if err != nil {
				return err
			}
			return runScore(cfg, args[0], weightArgs)
		},
	}
	scoreCmd.Flags().StringArrayVar(&weightArgs, "weight", nil, "Per-model weight override as id=value (repeatable), e.g. --weight scut=0.3")

	root.AddCommand(serveCmd, scoreCmd)
	return root
}

// resolveConfig layers flags over config file over env defaults.
func resolveConfig(configPath, addr, modelsDir string) (config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if modelsDir != "" {
		cfg.ModelsDir = modelsDir
	}
	if cfg.Addr == "" {
		cfg.Addr = envOr("RATEMYBEARD_ADDR", ":8080")
	}
	if cfg.ModelsDir == "" {
		cfg.ModelsDir = envOr("RATEMYBEARD_MODELS_DIR", "~/models/beauty")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func newCoordinator(cfg config.Config, log zerolog.Logger) (*ensemble.Coordinator, []types.ModelDescriptor, error) {
	models, err := registry.Load(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("load models: %w", err)
	}
	if len(models) == 0 {
		return nil, nil, fmt.Errorf("no models found in %s", cfg.ModelsDir)
	}
	backend := predictor.NewBackend(log)
	coord := ensemble.New(ensemble.Config{
		Models: models,
		Backend: ensemble.BackendFunc(func(ctx context.Context, desc types.ModelDescriptor) (ensemble.Handle, error) {
			return backend.Load(ctx, desc)
		}),
		PredictTimeout: time.Duration(cfg.PredictTimeoutSec) * time.Second,
		Logger:         log,
	})
	return coord, models, nil
}

func runServe(cfg config.Config) error {
	log := newLogger()
	coord, models, err := newCoordinator(cfg, log)
	if err != nil {
		return err
	}

	if cfg.MaxBodyMB > 0 {
		httpapi.SetMaxBodyBytes(int64(cfg.MaxBodyMB) << 20)
	}
	httpapi.SetLogger(log)

	baseCtx, baseCancel := context.WithCancel(context.Background())
	defer baseCancel()
	httpapi.SetBaseContext(baseCtx)

	mux := httpapi.NewMux(coord)
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Int("models", len(models)).Msg("ratemybeard listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}
	baseCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	return nil
}

func runScore(cfg config.Config, imagePath string, weightArgs []string) error {
	log := newLogger()
	coord, models, err := newCoordinator(cfg, log)
	if err != nil {
		return err
	}
	weights, err := parseWeightArgs(weightArgs)
	if err != nil {
		return err
	}

	res, err := coord.Predict(context.Background(), preprocess.FromPath(imagePath), weights)
	if err != nil {
		return err
	}

	for _, m := range models {
		if s := res.Scores[m.ID]; s != nil {
			fmt.Printf("%-12s %.2f (weight %.2f)\n", m.ID, *s, res.Weights[m.ID])
		} else {
			fmt.Printf("%-12s failed\n", m.ID)
		}
	}
	if res.Diagnostic != "" {
		fmt.Printf("note: %s\n", res.Diagnostic)
	}
	if res.Fused == nil {
		return fmt.Errorf("no score produced")
	}
	fmt.Printf("%-12s %.2f\n", "ensemble", *res.Fused)
	return nil
}

// parseWeightArgs turns repeated id=value flags into a weight override map.
func parseWeightArgs(args []string) (map[string]float64, error) {
	if len(args) == 0 {
		return nil, nil
	}
	weights := make(map[string]float64, len(args))
	for _, arg := range args {
		id, val, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --weight %q, want id=value", arg)
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --weight %q: %w", arg, err)
		}
		weights[id] = f
	}
	return weights, nil
}
