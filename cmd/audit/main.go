// Command audit runs a single dark-pattern/URL forensic audit and prints
// its final result as JSON on stdout, after streaming progress events
// through the selected transport.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/darkpatternlabs/urlaudit/pkg/config"
	"github.com/darkpatternlabs/urlaudit/pkg/model"
	"github.com/darkpatternlabs/urlaudit/pkg/orchestrator"
	"github.com/darkpatternlabs/urlaudit/pkg/osint"
	"github.com/darkpatternlabs/urlaudit/pkg/scout"
	"github.com/darkpatternlabs/urlaudit/pkg/security"
	"github.com/darkpatternlabs/urlaudit/pkg/transport"
	"github.com/darkpatternlabs/urlaudit/pkg/vision"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	tierFlag := fs.String("tier", "standard", "audit tier: quick|standard|deep")
	verdictModeFlag := fs.String("verdict-mode", "simple", "verdict mode: simple|expert")
	useQueue := fs.Bool("use-queue-ipc", false, "force the primary queue transport")
	useStdout := fs.Bool("use-stdout", false, "force the stdout fallback transport")
	validateIPC := fs.Bool("validate-ipc", false, "run both transports and report divergence")
	jsonOnly := fs.Bool("json", true, "emit the final result as JSON on stdout")
	verbose := fs.Bool("v", false, "verbose logging")
	veryVerbose := fs.Bool("vv", false, "debug logging")
	configPath := fs.String("config", getEnv("AUDIT_CONFIG", ""), "path to a YAML config file overlaying the built-in defaults")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: audit <url> --tier {quick|standard|deep} [options]")
		return 2
	}
	targetURL := fs.Arg(0)

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	if *veryVerbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}

	tier, err := model.ParseTier(*tierFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	verdictMode, err := model.ParseVerdictMode(*verdictModeFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config: ", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	trans, closeTransport := buildTransport(cfg, *useQueue, *useStdout, *validateIPC)
	defer closeTransport()

	registry := osint.NewRegistry(nil)
	// OSINT Queriers for real sources (PhishTank, VirusTotal, WHOIS, ...)
	// are external collaborators, same boundary as Scout/Vision/security
	// analyzers below; an unregistered source simply contributes an error
	// record to the graph phase instead of a verification.

	o := orchestrator.New(orchestrator.Deps{
		Config: cfg,
		Scout: scout.Func(func(ctx context.Context, url string) (model.ScoutEvidence, error) {
			return model.ScoutEvidence{}, fmt.Errorf("%w: no scout collaborator configured", model.ErrInput)
		}),
		Vision: vision.Func(func(ctx context.Context, images []vision.Image, prompts []string) ([]model.Finding, error) {
			return nil, nil
		}),
		Security:  []security.Analyzer{},
		OSINT:     registry,
		Transport: trans,
		Clock:     model.RealClock,
	})

	auditID := uuid.NewString()
	final, err := o.Run(ctx, auditID, targetURL, tier, orchestrator.Options{
		VerdictMode:     verdictMode,
		SecurityModules: cfg.SecurityModules,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "audit:", err)
		return 2
	}

	if *jsonOnly {
		enc := json.NewEncoder(os.Stdout)
		if err := enc.Encode(final); err != nil {
			fmt.Fprintln(os.Stderr, "encode result:", err)
			return 2
		}
	}

	if final.Status == model.StatusAborted {
		return 1
	}
	return 0
}

// buildTransport resolves the dual-mode transport from CLI
// flags, environment variables, and the configured rollout fraction, or
// returns a Validator when --validate-ipc is set. The returned func closes
// whatever was constructed.
func buildTransport(cfg *config.Config, useQueue, useStdout, validateIPC bool) (orchestrator.Emitter, func()) {
	if validateIPC {
		primary := transport.NewQueueEmitter(cfg.Transport.QueueCapacity, cfg.Transport.SendTimeout)
		stdout := transport.NewStdoutEmitter(os.Stdout)
		v := transport.NewValidator(primary, stdout)
		return v, func() {
			_ = v.Close()
			for _, m := range v.Mismatches() {
				slog.Warn("ipc validation mismatch", "detail", m)
			}
		}
	}

	sel := transport.SelectionInputs{
		ForcePrimary:    useQueue,
		ForceFallback:   useStdout,
		EnvMode:         cfg.Transport.Mode,
		RolloutFraction: cfg.Transport.RolloutFraction,
		Rand:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	t := transport.NewFromSelection(sel, cfg.Transport.QueueCapacity, cfg.Transport.SendTimeout, os.Stdout, model.RealClock)
	slog.Info("transport mode selected", "mode", t.Mode())
	return t, func() { _ = t.Close() }
}
