package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"sorrycast/cmd/sorrycast/internal"
	"sorrycast/pkg/gateway"
	inboxstore "sorrycast/pkg/inbox"
	publishflow "sorrycast/pkg/publish"
	"sorrycast/pkg/types"
	wizardcore "sorrycast/pkg/wizard"
)

func wizardCmd(messageID string) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	gw := internal.NewGateway(cfg)
	store := inboxstore.NewStore(gw, cfg.PollInterval())
	ctx := context.Background()

	if err := store.Refresh(ctx); err != nil {
		return err
	}

	msg, err := pickMessage(store, messageID)
	if err != nil {
		return err
	}

	w := wizardcore.New(gw, msg)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("%s wizard> ", internal.Logo),
		HistoryFile:     filepath.Join(os.TempDir(), ".sorrycast_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("initializing input: %w", err)
	}
	defer rl.Close()

	printStep(w)

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				fmt.Println("\nLeaving the wizard. Nothing was shared.")
				return nil
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		cmd, arg, _ := strings.Cut(input, " ")
		switch cmd {
		case "exit", "quit":
			fmt.Println("Leaving the wizard. Nothing was shared.")
			return nil
		case "help":
			printHelp()
		case "show":
			printStep(w)
		case "next":
			report(w.Next())
			printStep(w)
		case "back":
			if !w.Back() {
				fmt.Println("Already at the first step.")
			}
			printStep(w)
		case "generate":
			report(w.GenerateText(ctx))
			printStep(w)
		case "edit":
			if arg == "" {
				fmt.Println("Usage: edit <new apology text>")
				continue
			}
			report(w.SetApologyText(arg))
		case "photo":
			if arg == "" {
				fmt.Println("Usage: photo <path to image>")
				continue
			}
			report(attachPhotoFile(w, arg))
			printStep(w)
		case "video":
			report(w.GenerateVideo(ctx))
			printStep(w)
		case "done":
			artifact, err := w.Complete()
			if err != nil {
				report(err)
				continue
			}
			return shareLoop(ctx, rl, gw, store, artifact)
		default:
			fmt.Printf("Unknown command %q. Type help for a list.\n", cmd)
		}
	}
}

// shareLoop owns the artifact after wizard completion: publish to the
// video host, then relay the link to the origin platform.
func shareLoop(ctx context.Context, rl *readline.Instance, gw *gateway.Client, store *inboxstore.Store, artifact types.ApologyData) error {
	flow := publishflow.NewFlow(gw, store, artifact)

	fmt.Printf("\n%s Apology video ready: %s\n", internal.Logo, artifact.VideoURL)
	fmt.Println("Commands: publish, share, status, quit")

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return nil
			}
			continue
		}

		switch strings.TrimSpace(line) {
		case "publish":
			if err := flow.Publish(ctx); err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Printf("Published: %s\n", flow.PublishedURL())
		case "share":
			if err := flow.Share(ctx); err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Printf("%s Shared back to %s. All done.\n", internal.Logo, artifact.MessageID)
			return nil
		case "status":
			fmt.Printf("published: %q  shared: %v\n", flow.PublishedURL(), flow.Shared())
		case "quit", "exit":
			return nil
		default:
			fmt.Println("Commands: publish, share, status, quit")
		}
	}
}

func pickMessage(store *inboxstore.Store, messageID string) (types.DetectedMessage, error) {
	if messageID != "" {
		msg, ok := store.Get(messageID)
		if !ok {
			return types.DetectedMessage{}, fmt.Errorf("message %q not found", messageID)
		}
		return msg, nil
	}

	unprocessed := store.Unprocessed()
	if len(unprocessed) == 0 {
		return types.DetectedMessage{}, errors.New("no unprocessed messages; nothing to apologize for")
	}
	return unprocessed[0], nil
}

func attachPhotoFile(w *wizardcore.Wizard, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading photo: %w", err)
	}
	return w.AttachPhoto(types.Photo{
		Name: filepath.Base(path),
		MIME: http.DetectContentType(data),
		Data: data,
	})
}

func report(err error) {
	if err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}

func printStep(w *wizardcore.Wizard) {
	msg := w.Message()

	fmt.Printf("\n-- Step %d/5: %s --\n", w.Step(), w.Step())
	switch w.Step() {
	case wizardcore.StepReview:
		fmt.Printf("From %s on %s (anger: %s)\n", msg.Sender, msg.Platform, msg.AngerLevel)
		fmt.Printf("Summary: %s\n", msg.Summary)
		fmt.Printf("Original: %s\n", msg.OriginalMessage)
		fmt.Println("Type next to continue.")
	case wizardcore.StepTextGeneration:
		if text := w.ApologyText(); text != "" {
			fmt.Printf("Draft (%d chars): %s\n", len([]rune(text)), text)
			fmt.Println("Type edit <text> to revise, or next to continue.")
		} else {
			fmt.Println("Type generate to create an apology draft.")
		}
	case wizardcore.StepPhotoCapture:
		if w.HasPhoto() {
			fmt.Println("Photo attached. Type next to continue.")
		} else {
			fmt.Println("Type photo <path> to attach a face photo (image, max 10 MiB).")
		}
	case wizardcore.StepVideoGeneration:
		if w.VideoURL() != "" {
			fmt.Printf("Video ready: %s\nType next to continue.\n", w.VideoURL())
		} else {
			fmt.Println("Type video to synthesize the apology video.")
		}
	case wizardcore.StepShareReady:
		fmt.Printf("Video: %s\n", w.VideoURL())
		fmt.Println("Type done to publish and share.")
	}

	if errMsg := w.Err(); errMsg != "" {
		fmt.Printf("! %s\n", errMsg)
	}
}

func printHelp() {
	fmt.Println(`Commands:
  show            redisplay the current step
  next / back     move between steps
  generate        generate the apology text (step 2)
  edit <text>     replace the apology text (step 2+)
  photo <path>    attach a photo (step 3)
  video           generate the apology video (step 4)
  done            finish and move to publish/share (step 5)
  quit            leave without sharing`)
}
