package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ChantelleAA/response-aigent/internal/app"
	"github.com/ChantelleAA/response-aigent/internal/config"
	"github.com/ChantelleAA/response-aigent/internal/log"
)

// runAsk resolves a single question and exits.
func runAsk(logger log.Logger, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return errors.New("usage: response-aigent ask <question>")
	}

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

	onToken := func(_ context.Context, token string) error {
		fmt.Print(token)
		return nil
	}
	if _, err := a.Controller.Respond(ctx, question, nil, onToken); err != nil {
		return err
	}
	fmt.Println()
	return nil
}
