package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/mylibrary/internal/cli"
	"github.com/mrlokans/mylibrary/internal/config"
	"github.com/mrlokans/mylibrary/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

var commands = map[string]func() cli.Command{
	"register":       func() cli.Command { return cli.NewRegisterCommand() },
	"login":          func() cli.Command { return cli.NewLoginCommand() },
	"logout":         func() cli.Command { return cli.NewLogoutCommand() },
	"profile":        func() cli.Command { return cli.NewProfileCommand() },
	"password":       func() cli.Command { return cli.NewPasswordCommand() },
	"delete-account": func() cli.Command { return cli.NewDeleteAccountCommand() },
	"books":          func() cli.Command { return cli.NewBooksCommand() },
	"show":           func() cli.Command { return cli.NewShowBookCommand() },
	"add":            func() cli.Command { return cli.NewAddBookCommand() },
	"update":         func() cli.Command { return cli.NewUpdateBookCommand() },
	"delete":         func() cli.Command { return cli.NewDeleteBookCommand() },
	"search":         func() cli.Command { return cli.NewSearchCommand() },
	"stats":          func() cli.Command { return cli.NewStatsCommand() },
	"badges":         func() cli.Command { return cli.NewBadgesCommand() },
	"recommend":      func() cli.Command { return cli.NewRecommendCommand() },
	"summary":        func() cli.Command { return cli.NewSummaryCommand() },
	"prefs":          func() cli.Command { return cli.NewPrefsCommand() },
	"enrich-all":     func() cli.Command { return cli.NewEnrichAllCommand() },
}

func main() {
	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "version":
		fmt.Printf("mylibrary %s (%s)\n", Version, Commit)
		return
	case "-h", "--help", "help":
		printUsage()
		return
	}

	newCmd, ok := commands[command]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	cmd := newCmd()
	if err := cmd.ParseFlags(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve           Start the HTTP server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  register        Create an account and log in\n")
	fmt.Fprintf(os.Stderr, "  login           Log in and store the session token\n")
	fmt.Fprintf(os.Stderr, "  logout          Revoke and forget the session token\n")
	fmt.Fprintf(os.Stderr, "  profile         Show or change the account name and email\n")
	fmt.Fprintf(os.Stderr, "  password        Change the account password\n")
	fmt.Fprintf(os.Stderr, "  delete-account  Delete the account and all its books\n")
	fmt.Fprintf(os.Stderr, "  books           List, search and filter the library\n")
	fmt.Fprintf(os.Stderr, "  show            Show one book\n")
	fmt.Fprintf(os.Stderr, "  add             Add a book, optionally prefilled from its ISBN\n")
	fmt.Fprintf(os.Stderr, "  update          Change the status, rating or memo of a book\n")
	fmt.Fprintf(os.Stderr, "  delete          Remove a book\n")
	fmt.Fprintf(os.Stderr, "  search          Search the online catalog\n")
	fmt.Fprintf(os.Stderr, "  stats           Reading statistics and level\n")
	fmt.Fprintf(os.Stderr, "  badges          Reading badges\n")
	fmt.Fprintf(os.Stderr, "  recommend       Home screen with AI recommendations\n")
	fmt.Fprintf(os.Stderr, "  summary         AI summary of a book\n")
	fmt.Fprintf(os.Stderr, "  prefs           Show or change theme and profile picture\n")
	fmt.Fprintf(os.Stderr, "  enrich-all      Fill missing catalog metadata in a local database\n")
	fmt.Fprintf(os.Stderr, "  version         Print the version\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
