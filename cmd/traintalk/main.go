// Command traintalk is a conversational agent for the train ticketing
// backend. It understands natural-language requests, resolves ambiguous
// train references against the catalog, and executes bookings, queries and
// cancellations.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"traintalk/internal/booking"
	"traintalk/internal/config"
	"traintalk/internal/dialogue"
	"traintalk/internal/logging"
	"traintalk/internal/perception"
)

var (
	flagConfig  string
	flagVerbose bool
	flagServer  string
	flagUser    string
)

var (
	styleBanner = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	stylePrompt = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("215"))
	styleHint   = lipgloss.NewStyle().Faint(true)
	styleErr    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "traintalk",
		Short: "Conversational train ticketing agent",
		Long: `traintalk is a natural-language front end for the train ticketing
service. Ask it to list trains, search by route or date, book and cancel
tickets, or show your bookings. Without arguments it starts an interactive
session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "ticketing backend URL")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "user ID for bookings")

	runCmd := &cobra.Command{
		Use:   "run [message]",
		Short: "Handle a single message and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), strings.Join(args, " "))
		},
	}
	rootCmd.AddCommand(runCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, styleErr.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

// setup loads config and builds the turn pipeline.
func setup() (*dialogue.Controller, dialogue.State, *zap.Logger, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, dialogue.State{}, nil, err
	}
	if flagServer != "" {
		cfg.Catalog.BaseURL = flagServer
	}
	if flagUser != "" {
		cfg.Session.DefaultUserID = flagUser
	}

	level := cfg.Logging.Level
	if flagVerbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Logging.File)
	if err != nil {
		return nil, dialogue.State{}, nil, err
	}

	llm, err := perception.NewClientFromConfig(perception.ClientConfig{
		Provider: perception.Provider(cfg.LLM.Provider),
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
		Timeout:  cfg.LLMTimeout(),
	})
	if err != nil {
		return nil, dialogue.State{}, nil, err
	}

	catalog := booking.NewClient(cfg.Catalog.BaseURL, cfg.CatalogTimeout(), logger)
	extractor := perception.NewExtractor(llm, cfg.LLMTimeout(), logger)
	controller := dialogue.NewController(extractor, catalog, logger)
	state := dialogue.NewState(cfg.Session.DefaultUserID, cfg.Session.MemoryWindow)

	logger.Info("agent ready",
		zap.String("session", state.SessionID),
		zap.String("backend", cfg.Catalog.BaseURL),
		zap.String("provider", cfg.LLM.Provider))

	return controller, state, logger, nil
}

func runOnce(ctx context.Context, message string) error {
	controller, state, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	reply, _ := controller.HandleTurn(ctx, state, message)
	fmt.Println(reply)
	return nil
}

func runInteractive(ctx context.Context) error {
	controller, state, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	fmt.Println(styleBanner.Render("🚄 traintalk"))
	fmt.Println(styleHint.Render("Ask about trains, book or cancel tickets. Type 'quit' to exit."))
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(stylePrompt.Render("you> "))
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		if ctx.Err() != nil {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			break
		}

		reply, next := controller.HandleTurn(ctx, state, input)
		state = next
		fmt.Println(reply)
		fmt.Println()
	}

	fmt.Println(styleHint.Render("Goodbye!"))
	return scanner.Err()
}
