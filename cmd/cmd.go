// Package cmd provides the CLI commands.
//
// Commands:
//   - chat: interactive question/answer loop with streamed output
//   - ask: one-shot question
//   - kb: knowledge-base maintenance (add, count)
//
// All commands handle SIGINT with a graceful shutdown that flushes the
// answer cache and question log to disk.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ChantelleAA/response-aigent/internal/log"
)

// Execute is the main entry point for the CLI.
func Execute() error {
	logger := newLogger()

	if len(os.Args) < 2 {
		runHelp(os.Stdout)
		return nil
	}

	switch os.Args[1] {
	case "chat":
		return runChat(logger)
	case "ask":
		return runAsk(logger, os.Args[2:])
	case "kb":
		return runKB(logger, os.Args[2:])
	case "version", "--version", "-v":
		runVersion(os.Stdout)
		return nil
	case "help", "--help", "-h":
		runHelp(os.Stdout)
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

func newLogger() log.Logger {
	cfg := log.Config{Level: slog.LevelInfo}
	if os.Getenv("DEBUG") != "" {
		cfg.Level = slog.LevelDebug
	}
	return log.NewWithWriter(os.Stderr, cfg)
}

// runHelp displays the help message.
func runHelp(w io.Writer) {
	fmt.Fprintln(w, "response-aigent - website-aware AI assistant")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  response-aigent chat               Start interactive chat mode")
	fmt.Fprintln(w, "  response-aigent ask <question>     Ask a single question")
	fmt.Fprintln(w, "  response-aigent kb add <file...>   Load snippet files into the knowledge base")
	fmt.Fprintln(w, "  response-aigent kb count           Show the number of stored documents")
	fmt.Fprintln(w, "  response-aigent --version          Show version information")
	fmt.Fprintln(w, "  response-aigent --help             Show this help")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Chat commands (in interactive mode):")
	fmt.Fprintln(w, "  /clear             Forget the current conversation")
	fmt.Fprintln(w, "  /exit, /quit       Exit")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintln(w, "  AIGENT_PROVIDER    AI provider: ollama (default), googleai, openai")
	fmt.Fprintln(w, "  AIGENT_MODEL_NAME  Model name (default: llama3.2)")
	fmt.Fprintln(w, "  AIGENT_DATA_DIR    Data directory for cache and knowledge base")
	fmt.Fprintln(w, "  DEBUG              Enable debug logging")
}
