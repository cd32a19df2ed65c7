package onboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"sorrycast/cmd/sorrycast/internal"
	authpkg "sorrycast/pkg/auth"
	"sorrycast/pkg/config"
	"sorrycast/pkg/types"
)

func NewOnboardCommand() *cobra.Command {
	var platform string

	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Connect messaging platforms and YouTube",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return onboardCmd(platform)
		},
	}

	cmd.Flags().StringVarP(&platform, "platform", "p", "", "Connect a single platform (slack, line, discord, youtube)")

	return cmd
}

func onboardCmd(platformFlag string) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	gw := internal.NewGateway(cfg)
	store := authpkg.NewStore(gw)
	ctx := context.Background()

	if err := store.Refresh(ctx); err != nil {
		fmt.Printf("Warning: could not fetch current connections: %v\n", err)
	}

	platforms := []types.Platform{
		types.PlatformSlack,
		types.PlatformLINE,
		types.PlatformDiscord,
		types.PlatformYouTube,
	}
	if platformFlag != "" {
		p := types.Platform(strings.ToLower(platformFlag))
		if !p.Valid() {
			return fmt.Errorf("unknown platform %q", platformFlag)
		}
		platforms = []types.Platform{p}
	}

	rl, err := readline.New("code> ")
	if err != nil {
		return fmt.Errorf("initializing input: %w", err)
	}
	defer rl.Close()

	for _, p := range platforms {
		if store.IsConnected(p) {
			fmt.Printf("%s %s: already connected\n", internal.Logo, p)
			continue
		}

		authURL, err := authpkg.AuthorizeURL(p, oauthClientFor(cfg, p), uuid.New().String())
		if err != nil {
			fmt.Printf("%s %s: skipped (%v)\n", internal.Logo, p, err)
			continue
		}

		fmt.Printf("\nAuthorize %s in your browser:\n  %s\n", p, authURL)
		fmt.Println("Paste the code from the redirect URL (empty to skip):")

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		code := strings.TrimSpace(line)
		if code == "" {
			continue
		}

		if err := store.Connect(ctx, p, code); err != nil {
			fmt.Printf("%s %s: connection failed: %v\n", internal.Logo, p, err)
			continue
		}
		fmt.Printf("%s %s: connected\n", internal.Logo, p)
	}

	fmt.Println()
	if store.HasRequiredConnections() {
		fmt.Printf("%s Setup complete: YouTube and a messaging platform are connected.\n", internal.Logo)
	} else {
		fmt.Printf("%s Setup incomplete: connect YouTube and at least one of slack, line, or discord.\n", internal.Logo)
	}
	return nil
}

func oauthClientFor(cfg *config.Config, p types.Platform) config.OAuthClientConfig {
	switch p {
	case types.PlatformSlack:
		return cfg.OAuth.Slack
	case types.PlatformLINE:
		return cfg.OAuth.LINE
	case types.PlatformDiscord:
		return cfg.OAuth.Discord
	case types.PlatformYouTube:
		return cfg.OAuth.YouTube
	}
	return config.OAuthClientConfig{}
}
