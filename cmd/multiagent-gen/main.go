// ABOUTME: CLI entrypoint for multiagent-gen: parses flags, wires an LLM client per agent role, and runs one Orchestrator generation.
// ABOUTME: Wires together the orchestrator, the LLM client, signal-driven cancellation, and optional TUI dashboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/BillChan226/multiagent-gen/agent"
	"github.com/BillChan226/multiagent-gen/llm"
	"github.com/BillChan226/multiagent-gen/orchestrator"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/BillChan226/multiagent-gen/tui"
)

// stringSlice accumulates repeated flag occurrences into a slice.
type stringSlice []string

func (s *stringSlice) String() string { return strings.Join(*s, ",") }
func (s *stringSlice) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// config holds all CLI configuration parsed from flags.
type config struct {
	name            string
	goal            string
	requirements    stringSlice
	referenceImages stringSlice
	outputDir       string
	resume          bool
	verbose         bool
	dashboard       bool
	model           string
	maxToolRounds   int
	maxTurns        int
	configPath      string
}

func main() {
	loadDotEnv(".env")

	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	os.Exit(run(cfg))
}

func parseFlags(args []string) (config, error) {
	var cfg config

	fs := flag.NewFlagSet("multiagent-gen", flag.ContinueOnError)
	fs.StringVar(&cfg.name, "name", "generated_app", "Name of the project to generate")
	fs.StringVar(&cfg.goal, "goal", "", "Plain-language description of the application to build (required)")
	fs.Var(&cfg.requirements, "requirement", "Additional requirement (repeatable)")
	fs.Var(&cfg.referenceImages, "reference-image", "Path to a UI reference image (repeatable)")
	fs.StringVar(&cfg.outputDir, "output-dir", "./generated_app", "Directory the generated project is written to")
	fs.BoolVar(&cfg.resume, "resume", false, "Start from the checkpoint record stored under this run's ID, if one exists")
	fs.BoolVar(&cfg.verbose, "verbose", false, "Print run events to stderr")
	fs.BoolVar(&cfg.dashboard, "dashboard", false, "Run with the interactive terminal dashboard")
	fs.StringVar(&cfg.model, "model", "", "Model name passed to every agent's provider profile")
	fs.IntVar(&cfg.maxToolRounds, "max-tool-rounds", 200, "Maximum tool-call rounds per agent turn")
	fs.IntVar(&cfg.maxTurns, "max-turns", 0, "Maximum conversation turns per agent session (0 = unbounded)")
	fs.StringVar(&cfg.configPath, "config", "", "YAML config file merged under the flags (lowest precedence)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: multiagent-gen -goal \"...\" [flags]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if cfg.configPath != "" {
		explicit := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		if err := mergeConfigFile(&cfg, cfg.configPath, explicit); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

// run dispatches one generation and returns a process exit code:
// 0 success, 1 generation failure, 2 pre-flight/configuration failure.
func run(cfg config) int {
	if cfg.goal == "" {
		fmt.Fprintln(os.Stderr, "error: -goal is required")
		return 2
	}

	providerName, model := detectProvider(cfg.model, cfg.verbose)
	if providerName == "" {
		fmt.Fprintln(os.Stderr, "error: no LLM API key found")
		fmt.Fprintln(os.Stderr, "Set one of: ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY")
		return 2
	}

	sessionCfg := agent.DefaultSessionConfig()
	sessionCfg.MaxToolRoundsPerInput = cfg.maxToolRounds
	sessionCfg.MaxTurns = cfg.maxTurns

	clientFactory, err := buildClientFactory(providerName, model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	events := orchestrator.NewEventEmitter()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\ninterrupted, shutting down...")
		cancel()
	}()

	orchCfg := orchestrator.Config{
		Name:            cfg.name,
		OutputDir:       cfg.outputDir,
		Goal:            cfg.goal,
		Requirements:    []string(cfg.requirements),
		ReferenceImages: []string(cfg.referenceImages),
		Resume:          cfg.resume,
	}

	o, err := orchestrator.New(orchCfg, clientFactory, events)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	defer o.Close()

	if cfg.verbose && !cfg.dashboard {
		sub := events.Subscribe()
		go func() {
			for evt := range sub {
				verboseEventHandler(evt)
			}
		}()
	}

	if cfg.dashboard {
		return runWithDashboard(ctx, o, events, cfg)
	}

	result, err := o.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if !result.Success {
		fmt.Fprintf(os.Stderr, "generation did not complete: %s\n", result.Summary)
		return 1
	}

	fmt.Printf("generated %q at %s in %s\n", cfg.name, result.ProjectPath, result.Duration)
	return 0
}

// runWithDashboard drives the generation behind the bubbletea TUI, mirroring
// the run-in-a-goroutine-while-UI-owns-the-terminal pattern.
func runWithDashboard(ctx context.Context, o *orchestrator.Orchestrator, events *orchestrator.EventEmitter, cfg config) int {
	sub := events.Subscribe()
	defer events.Unsubscribe(sub)

	var runResult orchestrator.Result
	var runErr error
	runFn := func(ctx context.Context) error {
		runResult, runErr = o.Run(ctx)
		return runErr
	}

	model := tui.NewAppModel(ctx, runFn, sub, cfg.name, len(orchestrator.DefaultAgentRoles))
	program := tea.NewProgram(model)
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		return 1
	}
	if !runResult.Success {
		fmt.Fprintf(os.Stderr, "generation did not complete: %s\n", runResult.Summary)
		return 1
	}
	return 0
}

// detectProvider inspects the environment for a usable API key and returns
// the provider name to register plus the model to use, falling back to each
// provider's default model when cfg.model is empty.
func detectProvider(modelOverride string, verbose bool) (providerName, model string) {
	candidates := []struct {
		envKey       string
		provider     string
		defaultModel string
	}{
		{"ANTHROPIC_API_KEY", "anthropic", "claude-sonnet-4-5"},
		{"OPENAI_API_KEY", "openai", "gpt-5"},
		{"GEMINI_API_KEY", "gemini", "gemini-2.5-pro"},
	}
	for _, c := range candidates {
		if os.Getenv(c.envKey) == "" {
			continue
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "[provider] using %s (%s detected)\n", c.provider, c.envKey)
		}
		model := modelOverride
		if model == "" {
			model = c.defaultModel
		}
		return c.provider, model
	}
	return "", ""
}

// buildClientFactory wires an llm.Client via llm.FromEnv (the shared SDK's
// placeholder-adapter bootstrap) and returns an orchestrator.ClientFactory
// that hands every role an independent profile over the same client, so
// each agent gets its own tool registry without re-dialing the provider.
func buildClientFactory(providerName, model string) (orchestrator.ClientFactory, error) {
	client, err := llm.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("building LLM client: %w", err)
	}

	return func(role string) (*llm.Client, agent.ProviderProfile) {
		var profile agent.ProviderProfile
		switch providerName {
		case "anthropic":
			profile = agent.NewAnthropicProfile(model)
		case "gemini":
			profile = agent.NewGeminiProfile(model)
		default:
			profile = agent.NewOpenAIProfile(model)
		}
		return client, profile
	}, nil
}

func verboseEventHandler(evt orchestrator.Event) {
	switch evt.Kind {
	case orchestrator.EventRunStarted:
		fmt.Fprintf(os.Stderr, "[run] started: %v\n", evt.Data["name"])
	case orchestrator.EventAgentSpawned:
		fmt.Fprintf(os.Stderr, "[agent] spawned %v\n", evt.Data["agent_id"])
	case orchestrator.EventAgentStatus:
		fmt.Fprintf(os.Stderr, "[agent] %v: %v\n", evt.Data["agent_id"], evt.Data["status"])
	case orchestrator.EventAgentToolCall:
		fmt.Fprintf(os.Stderr, "[tool] %v called %v\n", evt.Data["agent_id"], evt.Data["tool"])
	case orchestrator.EventProcessStarted:
		fmt.Fprintf(os.Stderr, "[process] started %v\n", evt.Data["name"])
	case orchestrator.EventProcessExited:
		fmt.Fprintf(os.Stderr, "[process] exited %v\n", evt.Data["name"])
	case orchestrator.EventCheckpointSaved:
		fmt.Fprintf(os.Stderr, "[checkpoint] saved (phase %v)\n", evt.Data["phase"])
	case orchestrator.EventPreflightFailed:
		fmt.Fprintf(os.Stderr, "[preflight] docker=%v node=%v\n", evt.Data["docker"], evt.Data["node"])
	case orchestrator.EventDeliveryReceived:
		fmt.Fprintf(os.Stderr, "[delivery] %v\n", evt.Data["summary"])
	case orchestrator.EventRunCompleted:
		fmt.Fprintf(os.Stderr, "[run] completed: %v\n", evt.Data["name"])
	case orchestrator.EventRunFailed:
		fmt.Fprintf(os.Stderr, "[run] failed: %v\n", evt.Data["error"])
	}
}
