package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ChantelleAA/response-aigent/internal/app"
	"github.com/ChantelleAA/response-aigent/internal/chat"
	"github.com/ChantelleAA/response-aigent/internal/config"
	"github.com/ChantelleAA/response-aigent/internal/log"
	"github.com/ChantelleAA/response-aigent/internal/prompt"
)

// runChat starts the interactive question/answer loop. Generated answers
// stream to stdout token by token; cached answers print at once.
func runChat(logger log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("setting up application: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("shutdown", "error", err)
		}
	}()

	fmt.Println("Ask me anything about our company. /exit to quit, /clear to start over.")

	var history []prompt.Turn
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "/exit", "/quit":
			fmt.Println("Goodbye.")
			return nil
		case "/clear":
			history = nil
			fmt.Println("Conversation cleared.")
			continue
		}

		onToken := func(_ context.Context, token string) error {
			fmt.Print(token)
			return nil
		}

		res, err := a.Controller.Respond(ctx, line, history, onToken)
		if err != nil {
			if errors.Is(err, chat.ErrAborted) {
				fmt.Println()
				continue
			}
			return err
		}
		fmt.Println()

		if res.Answer != "" && line != "" {
			history = append(history,
				prompt.Turn{Role: prompt.RoleUser, Content: line},
				prompt.Turn{Role: prompt.RoleAssistant, Content: res.Answer},
			)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}
