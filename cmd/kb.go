package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ChantelleAA/response-aigent/internal/app"
	"github.com/ChantelleAA/response-aigent/internal/config"
	"github.com/ChantelleAA/response-aigent/internal/log"
)

// runKB dispatches the knowledge-base subcommands.
func runKB(logger log.Logger, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: response-aigent kb <add|count> [args]")
	}

	ctx := context.Background()
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

	switch args[0] {
	case "add":
		if len(args) < 2 {
			return errors.New("usage: response-aigent kb add <file...>")
		}
		return runKBAdd(ctx, a, args[1:])
	case "count":
		fmt.Printf("%d documents\n", a.Knowledge.Count())
		return nil
	default:
		return fmt.Errorf("unknown kb subcommand: %s", args[0])
	}
}

// runKBAdd loads prepared snippet files into the knowledge base. A
// .json file must hold an array of snippet strings (the format the
// site-refresh tooling emits); any other file is stored whole as one
// document.
func runKBAdd(ctx context.Context, a *app.App, paths []string) error {
	total := 0
	for _, path := range paths {
		snippets, err := loadSnippets(path)
		if err != nil {
			return err
		}

		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		for i, snippet := range snippets {
			id := base
			if len(snippets) > 1 {
				id = fmt.Sprintf("%s-%d", base, i)
			}
			if err := a.Knowledge.Add(ctx, id, snippet); err != nil {
				return fmt.Errorf("adding %s: %w", id, err)
			}
			total++
		}
	}

	fmt.Printf("Added %d documents (%d total in store).\n", total, a.Knowledge.Count())
	return nil
}

func loadSnippets(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		var snippets []string
		if err := json.Unmarshal(data, &snippets); err != nil {
			return nil, fmt.Errorf("parsing %s: expected a JSON array of strings: %w", path, err)
		}
		out := snippets[:0]
		for _, s := range snippets {
			if strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out, nil
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return nil, fmt.Errorf("%s is empty", path)
	}
	return []string{content}, nil
}
