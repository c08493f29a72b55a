package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/haasonsaas/agentcore/internal/actor"
	"github.com/haasonsaas/agentcore/internal/completer"
	"github.com/haasonsaas/agentcore/internal/config"
	"github.com/haasonsaas/agentcore/internal/llmactor"
	"github.com/haasonsaas/agentcore/internal/obs"
	"github.com/haasonsaas/agentcore/internal/toolactor"
	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/internal/useractor"
)

// globalFlags are the persistent flags every subcommand reads through
// loadRuntime.
type globalFlags struct {
	configPath string
	workingDir string
	provider   string
	model      string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:     "agentcore",
		Short:   "Actor-based coding-assistant engine core",
		Version: fmt.Sprintf("%s (%s, built %s)", version, commit, date),
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a YAML/JSON5 config file")
	root.PersistentFlags().StringVar(&flags.workingDir, "working-dir", ".", "working directory for history persistence")
	root.PersistentFlags().StringVar(&flags.provider, "provider", "", "completer to use: anthropic or openai (overrides config)")
	root.PersistentFlags().StringVar(&flags.model, "model", "", "model name (overrides config)")

	root.AddCommand(newChatCmd(flags))
	root.AddCommand(newRunCmd(flags))
	return root
}

// runtime bundles everything a subcommand needs once wiring is done.
type runtime struct {
	cfg       *config.Config
	log       *slog.Logger
	dir       *actor.Directory
	registry  *tools.Registry
	toolActor *toolactor.ToolCapabilityActor
	llm       *llmactor.LLMActor
	user      *useractor.UserActor
	ctxName   string
}

// loadRuntime reads config (if --config was given, else defaults), builds
// the logger, the tool registry with built-ins, the Tool-Capability Actor,
// and an LLM Actor wired to the selected Completer adapter.
func loadRuntime(flags *globalFlags, ctxName string) (*runtime, error) {
	cfg := &config.Config{
		Model:                    "claude-sonnet-4-5",
		Provider:                 "anthropic",
		CompactionTokenThreshold: 100000,
		ContextWindowTokens:      200000,
		ExecutorConcurrency:      4,
		WorkingDir:               flags.workingDir,
	}
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if flags.provider != "" {
		cfg.Provider = flags.provider
	}
	if flags.model != "" {
		cfg.Model = flags.model
	}
	if flags.workingDir != "." {
		cfg.WorkingDir = flags.workingDir
	}

	log := obs.NewLogger(slog.LevelInfo)
	tp := obs.NewTracerProvider()
	obs.InstallGlobal(tp)
	tracer := actor.NewOTelTracer("agentcore")

	registry := tools.NewRegistry()
	tools.RegisterBuiltins(registry)

	dir := actor.NewDirectory()
	toolActor := toolactor.New(registry, cfg.ExecutorConcurrency)

	if cfg.APIKey == "" {
		key, err := promptAPIKey(cfg.Provider)
		if err != nil {
			return nil, fmt.Errorf("read api key: %w", err)
		}
		cfg.APIKey = key
	}

	comp, err := buildCompleter(cfg)
	if err != nil {
		return nil, err
	}
	llm := llmactor.New(dir, ctxName, "main", comp, actor.WithTracer(tracer))
	llm.Register()
	llm.Start()

	user := useractor.New(dir, ctxName, "main", newTerminalInteractor(), actor.WithTracer(tracer))
	user.Register()
	user.Start()

	return &runtime{
		cfg:       cfg,
		log:       log,
		dir:       dir,
		registry:  registry,
		toolActor: toolActor,
		llm:       llm,
		user:      user,
		ctxName:   ctxName,
	}, nil
}

func (r *runtime) Close() {
	r.llm.Stop()
	r.llm.Wait()
	r.user.Stop()
	r.user.Wait()
}

// promptAPIKey asks for a provider API key on the controlling terminal
// without echoing it. loadRuntime calls it whenever the config supplied no
// api_key (a config file can pull one from the environment via ${VAR}; the
// environment is not consulted otherwise). Returns "" unprompted when stdin
// isn't a terminal (e.g. piped input, CI).
func promptAPIKey(provider string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", nil
	}
	fmt.Printf("%s API key: ", provider)
	key, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(key), nil
}

// buildCompleter selects the Completer adapter named by cfg.Provider. The
// core packages never import this selection logic; only cmd/agentcore
// depends on both adapters.
func buildCompleter(cfg *config.Config) (llmactor.Completer, error) {
	switch cfg.Provider {
	case "", "anthropic":
		return completer.NewAnthropicCompleter(cfg.APIKey, 0), nil
	case "openai":
		return completer.NewOpenAICompleter(cfg.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want anthropic or openai)", cfg.Provider)
	}
}
