package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"techporium/app/config"
	"techporium/app/logging"
	"techporium/site"
)

const CliVersion = "1.0.0"

var exit = os.Exit

func main() {
	RealMain()
}

// RealMain dispatches the command line. It is separate from main so tests
// can replace exit.
func RealMain() {
	if len(os.Args) < 2 {
		printHelp()
		exit(1)
		return
	}

	cmd := strings.ToLower(os.Args[1])
	args := os.Args[2:]
	switch cmd {
	case "help":
		printHelp()
	case "version":
		fmt.Printf("techporium version %s\n", CliVersion)
	case "serve", "prerender", "store", "cache":
		if err := run(cmd, args); err != nil {
			if errors.Is(err, site.ErrCancelled) {
				fmt.Println("Operation cancelled")
			} else {
				fmt.Printf("Error: %v\n", err)
			}
			exit(1)
			return
		}
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printHelp()
		exit(1)
	}
}

func run(cmd string, args []string) error {
	var overrides []func(*config.Config)
	if cmd == "store" {
		overrides = append(overrides, config.LocalStore)
	}
	cfg, err := config.Load(".", overrides...)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Env, os.Stderr)
	slog.SetDefault(logger)

	cmds := &site.Commands{Config: cfg, Logger: logger, In: os.Stdin, Out: os.Stdout}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "serve":
		skip := false
		for _, arg := range args {
			switch arg {
			case "--no-prerender":
				skip = true
			default:
				return fmt.Errorf("unknown serve option: %s", arg)
			}
		}
		return cmds.Serve(ctx, skip)
	case "prerender":
		return cmds.Prerender(ctx)
	case "store":
		return cmds.Store(args)
	default:
		return cmds.Cache(ctx, args)
	}
}

func printHelp() {
	helpText := `Usage: techporium <command> [options]
Commands:
  help                           Display this help message.
  version                        Show version information.
  serve [--no-prerender]         Run the blog server. Post pages are pre-generated first.
  prerender                      Generate every post page into the page cache.
  store <subcommand>             Manage the local badger store at BADGER_PATH:
    init                         Create an empty store.
    clean                        Delete the store.
    backup [file]                Back up the store.
    restore <file>               Restore the store from a backup.
    seed <file>                  Load posts and comments from a JSON file.
    approve <comment-id>         Approve a comment so it shows on its post.
  cache <subcommand>             Manage the page cache:
    clean                        Drop every cached page.
    backup [file]                Back up a badger page cache.
    restore <file>               Restore a badger page cache.

Configuration is read from .env, config.yml and the environment.
`
	fmt.Println(helpText)
}
