package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mailsift/mailsift/internal/classifier"
	"github.com/mailsift/mailsift/internal/config"
	"github.com/mailsift/mailsift/internal/history"
	"github.com/mailsift/mailsift/internal/mailbox"
	"github.com/mailsift/mailsift/internal/unsub"
	"github.com/mailsift/mailsift/internal/web"
)

var (
	cfgFile         string
	autoUnsubscribe bool
	maxEmails       int
	concurrency     int
	jsonOutput      bool
)

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// loadConfig falls back to defaults when no config file exists yet.
func loadConfig() (*config.Config, error) {
	path := resolveConfigPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*history.Store, error) {
	if cfg.History.Disabled {
		return nil, nil
	}
	path := cfg.History.Path
	if path == "" {
		path = history.DefaultDBPath()
	}
	return history.NewStore(path)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "mailsift",
		Short: "Mailsift - Sort marketing mail from the mail that matters",
		Long: `Mailsift classifies batches of emails as marketing or important using
keyword and sender scoring, entirely on your machine.

Marketing mail gets an unsubscribe recommendation when a link is found;
important mail is kept for you to handle.`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mailsift/config.yaml)")

	// Add commands
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(demoCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(statusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long:  "Create the configuration file with default batch, web, and history settings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit()
		},
	}
}

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <file-or-dir>",
		Short: "Classify a batch of emails",
		Long: `Classify a batch of emails as marketing or important.

The argument can be a JSON file holding an array of emails, a YAML inbox
file, or a directory of .eml message files.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(args[0])
		},
	}

	cmd.Flags().BoolVar(&autoUnsubscribe, "auto-unsubscribe", false, "Simulate unsubscribing from marketing emails with a link")
	cmd.Flags().IntVar(&maxEmails, "max", 0, "Maximum emails to classify (default 50, capped at 100)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel classification workers")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the full result batch as JSON")

	return cmd
}

func demoCmd() *cobra.Command {
	var count int
	var saveFile string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Classify a generated demo inbox",
		Long:  "Generate a deterministic sample inbox and classify it, or save it for later.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(count, saveFile)
		},
	}

	cmd.Flags().IntVar(&count, "count", 8, "Number of demo emails to generate")
	cmd.Flags().StringVar(&saveFile, "save", "", "Save the demo inbox as a YAML file instead of classifying it")
	cmd.Flags().BoolVar(&autoUnsubscribe, "auto-unsubscribe", false, "Simulate unsubscribing from marketing emails with a link")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the full result batch as JSON")

	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local web UI",
		Long:  "Start a localhost web interface for classifying batches and browsing history.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default from config, 8080)")

	return cmd
}

func statusCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show classification history",
		Long:  "Show all-time totals and the most recent classified batches.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of recent batches to show")

	return cmd
}

func runInit() error {
	path := resolveConfigPath()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := config.Save(path, config.Default()); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("✅ Wrote default configuration to %s\n", path)
	fmt.Println("Edit it to adjust batch limits, the web port, or pattern overrides.")
	return nil
}

// loadBatch reads the batch from whatever the argument points at.
func loadBatch(path string) ([]classifier.EmailRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if info.IsDir() {
		return mailbox.LoadEMLDir(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return mailbox.LoadInboxFile(path)
	case ".eml":
		email, err := mailbox.ParseEMLFile(path)
		if err != nil {
			return nil, err
		}
		return []classifier.EmailRecord{email}, nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		var emails []classifier.EmailRecord
		if err := json.Unmarshal(data, &emails); err != nil {
			return nil, fmt.Errorf("failed to parse %s as a JSON email array: %w", path, err)
		}
		return mailbox.Normalize(emails), nil
	}
}

func runClassify(path string) error {
	emails, err := loadBatch(path)
	if err != nil {
		return err
	}
	return classifyAndReport(emails, "cli")
}

func runDemo(count int, saveFile string) error {
	emails := mailbox.DemoInbox(mailbox.ClampLimit(count))

	if saveFile != "" {
		if err := mailbox.SaveInboxFile(saveFile, emails); err != nil {
			return fmt.Errorf("failed to save demo inbox: %w", err)
		}
		fmt.Printf("✅ Saved %d demo emails to %s\n", len(emails), saveFile)
		return nil
	}

	return classifyAndReport(emails, "demo")
}

func classifyAndReport(emails []classifier.EmailRecord, source string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if autoUnsubscribe {
		cfg.Triage.AutoUnsubscribe = true
	}
	if maxEmails > 0 {
		cfg.Triage.MaxEmails = mailbox.ClampLimit(maxEmails)
	}
	if concurrency > 0 {
		cfg.Triage.Concurrency = concurrency
	}

	emails = mailbox.Truncate(emails, cfg.Triage.MaxEmails)

	engine := classifier.New(cfg.Tables())
	results, stats := engine.ClassifyBatchConcurrent(emails, cfg.Triage.AutoUnsubscribe, cfg.Triage.Concurrency)

	var outcomes []unsub.Outcome
	if cfg.Triage.AutoUnsubscribe {
		outcomes = unsub.Run(context.Background(), unsub.Simulator{}, results)
	}

	store, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  History unavailable: %v\n", err)
	} else if store != nil {
		defer store.Close()
		if _, err := store.AddBatch(source, cfg.Triage.AutoUnsubscribe, results, stats); err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Failed to record batch: %v\n", err)
		}
	}

	if jsonOutput {
		output := classifier.BatchOutput{Results: results, Stats: stats}
		data, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	printBatch(results, stats, outcomes, cfg.Triage.AutoUnsubscribe)
	return nil
}

func printBatch(results []classifier.Result, stats classifier.Stats, outcomes []unsub.Outcome, autoUnsub bool) {
	fmt.Printf("📬 Classified %d emails\n", stats.Total)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	for _, r := range results {
		icon := "🛍️"
		if r.Classification == classifier.LabelImportant {
			icon = "📌"
		}
		fmt.Printf("%s [%s] %s\n", icon, r.Classification, r.Subject)
		fmt.Printf("   From: %s\n", r.From)
		fmt.Printf("   Action: %s\n", r.Action)
		if r.UnsubscribeLink != "" {
			fmt.Printf("   Unsubscribe: %s\n", r.UnsubscribeLink)
		}
		fmt.Println()
	}

	fmt.Println("📊 Summary")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("  Total: %d\n", stats.Total)
	fmt.Printf("  Marketing: %d\n", stats.Marketing)
	fmt.Printf("  Important: %d\n", stats.Important)
	if autoUnsub {
		fmt.Printf("  Unsubscribed: %d\n", stats.Unsubscribed)
		for _, o := range outcomes {
			if o.Err != nil {
				fmt.Printf("  ⚠️  %s: %v\n", o.EmailID, o.Err)
			}
		}
	}
}

func runStatus(limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.History.Disabled {
		fmt.Println("History is disabled in the config file.")
		return nil
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	totals, err := store.GetTotals()
	if err != nil {
		return fmt.Errorf("failed to get totals: %w", err)
	}

	fmt.Println("📊 Mailsift Statistics")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()
	fmt.Println("All Time:")
	fmt.Printf("  Batches: %d\n", totals.Batches)
	fmt.Printf("  Emails: %d\n", totals.Emails)
	fmt.Printf("  Marketing: %d\n", totals.Marketing)
	fmt.Printf("  Important: %d\n", totals.Important)
	fmt.Printf("  Unsubscribed: %d\n", totals.Unsubscribed)

	batches, err := store.GetRecentBatches(limit)
	if err != nil {
		return fmt.Errorf("failed to get recent batches: %w", err)
	}

	if len(batches) > 0 {
		fmt.Println()
		fmt.Printf("📜 Recent Batches (last %d)\n", limit)
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

		for _, b := range batches {
			fmt.Printf("%s  %-5s %d emails (%d marketing, %d important)\n",
				b.CreatedAt.Format("2006-01-02 15:04"),
				b.Source,
				b.Total,
				b.Marketing,
				b.Important,
			)
		}
	}

	return nil
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Web.Port
	}

	store, err := openStore(cfg)
	if err != nil {
		fmt.Printf("⚠️  History unavailable: %v\n", err)
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	engine := classifier.New(cfg.Tables())

	server, err := web.NewServer(port, cfg, engine, store)
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	return server.Start()
}
