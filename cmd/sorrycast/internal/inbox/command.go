package inbox

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sorrycast/cmd/sorrycast/internal"
	authpkg "sorrycast/pkg/auth"
	inboxstore "sorrycast/pkg/inbox"
	"sorrycast/pkg/types"
)

func NewInboxCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inbox",
		Aliases: []string{"i"},
		Short:   "Browse detected angry messages",
	}

	cmd.AddCommand(newListCommand(), newStatsCommand(), newAnalyzeCommand(), newWatchCommand())

	return cmd
}

func newListCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List detected messages awaiting an apology",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return listCmd(all)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include already processed messages")

	return cmd
}

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show detection and resolution counts",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return statsCmd()
		},
	}
}

func newAnalyzeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <message-id>",
		Short: "Re-run the anger analysis for one message",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return analyzeCmd(args[0])
		},
	}
}

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll for new detected messages until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return watchCmd()
		},
	}
}

func listCmd(all bool) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	gw := internal.NewGateway(cfg)
	store := inboxstore.NewStore(gw, cfg.PollInterval())

	if err := store.Refresh(context.Background()); err != nil {
		return err
	}

	unprocessed := store.Unprocessed()
	if len(unprocessed) == 0 {
		fmt.Printf("%s No angry messages waiting. Nothing to apologize for!\n", internal.Logo)
	}
	for _, msg := range unprocessed {
		printMessage(msg)
	}

	if all {
		for _, msg := range store.Processed() {
			printMessage(msg)
		}
	}
	return nil
}

func statsCmd() error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	gw := internal.NewGateway(cfg)
	ctx := context.Background()

	store := inboxstore.NewStore(gw, cfg.PollInterval())
	if err := store.Refresh(ctx); err != nil {
		return err
	}
	connStore := authpkg.NewStore(gw)
	if err := connStore.Refresh(ctx); err != nil {
		fmt.Printf("Warning: could not fetch connections: %v\n", err)
	}

	fmt.Printf("Unprocessed messages: %d\n", len(store.Unprocessed()))
	fmt.Printf("Processed messages:   %d\n", len(store.Processed()))
	fmt.Printf("Connected platforms:  %d\n", connStore.ConnectedCount())

	stats, err := gw.Stats(ctx)
	if err != nil {
		fmt.Printf("Backend stats unavailable: %v\n", err)
		return nil
	}
	fmt.Printf("Total detected:       %d\n", stats.TotalDetected)
	fmt.Printf("Total resolved:       %d\n", stats.TotalResolved)
	for platform, n := range stats.ByPlatform {
		fmt.Printf("  %-10s %d\n", platform, n)
	}
	return nil
}

func analyzeCmd(messageID string) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	gw := internal.NewGateway(cfg)
	analysis, err := gw.AnalyzeMessage(context.Background(), messageID)
	if err != nil {
		return err
	}

	fmt.Printf("%s Analysis for %s\n", internal.Logo, messageID)
	fmt.Printf("Severity: %s\n", severity(analysis.AngerLevel))
	fmt.Printf("Summary:  %s\n", analysis.Summary)
	return nil
}

func watchCmd() error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	gw := internal.NewGateway(cfg)
	store := inboxstore.NewStore(gw, cfg.PollInterval())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store.Start(ctx)
	defer store.Stop()

	fmt.Printf("%s Watching for angry messages every %s (Ctrl+C to stop)\n", internal.Logo, cfg.PollInterval())

	seen := make(map[string]bool)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		for _, msg := range store.Unprocessed() {
			if !seen[msg.ID] {
				seen[msg.ID] = true
				printMessage(msg)
			}
		}

		select {
		case <-ctx.Done():
			fmt.Println("\nStopped watching.")
			return nil
		case <-ticker.C:
		}
	}
}

func printMessage(msg types.DetectedMessage) {
	status := " "
	if msg.Processed {
		status = "✓"
	}
	fmt.Printf("[%s] %-8s %-8s %-10s %s\n", status, msg.ID, msg.Platform, severity(msg.AngerLevel), msg.Sender)
	fmt.Printf("      %s\n", msg.Summary)
}

func severity(level types.AngerLevel) string {
	switch level {
	case types.AngerHigh:
		return "urgent"
	case types.AngerMedium:
		return "moderate"
	default:
		return "mild"
	}
}
