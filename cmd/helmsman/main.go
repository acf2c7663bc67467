// Command helmsman is the terminal frontend for the assistant: one-shot task
// execution or an interactive chat loop, backed by the SQLite store by
// default.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"

	helmsman "github.com/helmsman-ai/helmsman"
	"github.com/helmsman-ai/helmsman/config"
	"github.com/helmsman-ai/helmsman/core"
	"github.com/helmsman-ai/helmsman/logging"
	"github.com/helmsman-ai/helmsman/model"
	antcompleter "github.com/helmsman-ai/helmsman/model/anthropic"
	oaicompleter "github.com/helmsman-ai/helmsman/model/openai"
	"github.com/helmsman-ai/helmsman/store"
)

var version = "0.1.0"

var (
	cfgPath string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "helmsman [task...]",
		Short: "Helmsman - personal assistant orchestration core",
		Long: `Helmsman routes free-text tasks to a browsing, reasoning or memory worker,
keeps rolling conversation history per channel, and persists an audit trail
plus long-term memory.

Run a one-shot task:     helmsman "what's the weather in Jakarta?"
Interactive chat:        helmsman chat`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runTask(cmd.Context(), strings.Join(args, " "))
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "helmsman.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("helmsman v%s\n", version)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "chat",
		Short: "Interactive chat loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context())
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads configuration and assembles the Assistant.
func setup() (*helmsman.Assistant, *config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})

	completer, err := buildCompleter(cfg)
	if err != nil {
		return nil, nil, err
	}

	var st core.Store = store.NewInMemory()
	if cfg.Storage.Backend == "sqlite" {
		db, err := store.Open(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
		st = store.NewSQLite(db)
	}

	assistant := helmsman.New(completer, func(o *helmsman.Options) {
		o.CharacterPath = cfg.Persona.CharacterPath
		o.OwnerPath = cfg.Persona.OwnerPath
		o.Store = st
		o.BrowsingStepBudget = cfg.Browsing.MaxSteps
		o.ScreenshotDir = cfg.Browsing.ScreenshotDir
		o.BrowserHeadless = cfg.Browsing.Headless
		o.BrowserBinPath = cfg.Browsing.BinPath
		o.Logger = logger
	})

	return assistant, cfg, nil
}

func buildCompleter(cfg *config.Config) (model.Completer, error) {
	switch cfg.Model.Provider {
	case "openai":
		return oaicompleter.New(func(o *oaicompleter.Options) {
			if cfg.Model.Model != "" {
				o.Model = cfg.Model.Model
			}
			o.APIKey = cfg.Model.APIKey
		}), nil
	case "anthropic":
		return antcompleter.New(func(o *antcompleter.Options) {
			if cfg.Model.Model != "" {
				o.Model = anthropic.Model(cfg.Model.Model)
			}
			o.APIKey = cfg.Model.APIKey
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Model.Provider)
	}
}

func runTask(ctx context.Context, task string) error {
	assistant, _, err := setup()
	if err != nil {
		return err
	}

	tc := core.NewTaskContext(task)
	tc.OnUpdate = printStatus

	res := assistant.RunContext(ctx, tc)
	fmt.Println(res.Format())
	if !res.Success {
		os.Exit(1)
	}
	return nil
}

func runChat(ctx context.Context) error {
	assistant, _, err := setup()
	if err != nil {
		return err
	}

	fmt.Printf("%s ready. Type a task, or /quit to exit.\n", assistant.Persona().AssistantName())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			break
		}

		tc := core.NewTaskContext(line)
		tc.OnUpdate = printStatus

		res := assistant.RunContext(ctx, tc)
		fmt.Println(res.Output)
		if len(res.Attachments) > 0 {
			fmt.Println("Attachments:")
			for _, a := range res.Attachments {
				fmt.Println("  " + a)
			}
		}
		if ctx.Err() != nil {
			break
		}
	}
	return scanner.Err()
}

func printStatus(_ context.Context, status string) error {
	fmt.Println(status)
	return nil
}
