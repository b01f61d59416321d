// ABOUTME: Entry point for the ContactsHQ CLI, TUI and MCP server
// ABOUTME: Loads config, opens the store and routes to the requested command
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/harperreed/contactshq/cli"
	"github.com/harperreed/contactshq/config"
	"github.com/harperreed/contactshq/logging"
)

const version = "0.1.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Config file (default: ~/.config/contactshq/config.json)")
	dbPath := flag.String("db-path", "", "SQLite database path (default: ~/.local/share/contactshq/contacts.db)")
	store := flag.String("store", "", "Store backend: sqlite or badger")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("contactshq version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()

	// With no command, open the TUI on a terminal and print usage otherwise
	command := "tui"
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	} else if !term.IsTerminal(int(os.Stdin.Fd())) {
		printUsage()
		os.Exit(0)
	}

	if command == "help" || command == "-h" || command == "--help" {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *store != "" {
		cfg.Store = *store
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// The TUI owns the screen and MCP owns stdout, so both log to a file
	logPath := ""
	if command == "tui" || command == "mcp" {
		logPath = cfg.LogFile
	}
	logger, err := logging.New(cfg.LogLevel, logPath)
	if err != nil {
		log.Fatalf("Failed to start logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	app, err := cli.Open(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", zap.String("store", cfg.Store), zap.Error(err))
		log.Fatalf("Failed to open %s store: %v", cfg.Store, err)
	}

	if err := run(app, command, args); err != nil {
		_ = app.Close()
		log.Fatalf("Error: %v", err)
	}
	if err := app.Close(); err != nil {
		log.Fatalf("Failed to close store: %v", err)
	}
}

func run(app *cli.App, command string, args []string) error {
	switch command {
	case "tui":
		return cli.TUICommand(app)

	case "mcp":
		return cli.MCPCommand(app, version)

	// People commands
	case "list":
		return cli.ListCommand(app, args)
	case "show":
		return cli.ShowCommand(app, args)
	case "add":
		return cli.AddCommand(app, args)
	case "edit":
		return cli.EditCommand(app, args)
	case "delete":
		return cli.DeleteCommand(app, args)
	case "labels":
		return cli.LabelsCommand(app, args)

	// Import commands
	case "import":
		return cli.ImportCommand(app, args)
	case "status":
		return cli.StatusCommand(app, args)

	case "export":
		return cli.ExportCommand(app, args)
	case "web":
		return cli.WebCommand(app, args)

	case "viz":
		if len(args) == 0 {
			printUsage()
			return fmt.Errorf("viz requires a subcommand (graph or dashboard)")
		}
		switch args[0] {
		case "graph":
			return cli.VizGraphCommand(app, args[1:])
		case "dashboard":
			return cli.VizDashboardCommand(app, args[1:])
		}
		printUsage()
		return fmt.Errorf("unknown viz command: %s", args[0])
	}

	printUsage()
	return fmt.Errorf("unknown command: %s", command)
}

func printUsage() {
	fmt.Printf(`contactshq v%s - Personal contacts manager

USAGE:
  contactshq [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file (default: ~/.config/contactshq/config.json)
  --db-path <path>       SQLite database path (default: ~/.local/share/contactshq/contacts.db)
  --store <backend>      Store backend: sqlite (default) or badger

COMMANDS:
  tui                    Interactive browser (default on a terminal)
  mcp                    Start MCP server for agent clients
  list                   List people
  show <id>              Show one person
  add                    Add a person
  edit [flags] <id>      Edit a person
  delete <id>            Delete a person
  labels <category>      Show the label catalog for a category
  import                 Import contacts from a vCard file or Google
  status                 Show the last import per source
  export                 Export people to an .xlsx workbook
  web                    Read-only browser UI on localhost
  viz                    Visualization commands

PEOPLE COMMANDS:
  contactshq list
    --query <text>            Search given names (diacritics ignored)
    --group <name>            Only people in this group
    --sort <key>              given, family, created or none (default: given)
    --limit <n>               Max results (default: 50)

  contactshq add
    --given <name>            Given name (required)
    --family <name>           Family name
    --company <company>       Company
    --note <text>             Note
    --type <type>             family, friend, acquaintance, business or client
    --language <lang>         english, spanish or none
    --availability <tags>     Comma-separated: morning, evening, night
    --birthday <date>         YYYY-MM-DD
    --phone [label=]<value>   Phone number (repeatable)
    --email [label=]<value>   Email address (repeatable)
    --url [label=]<value>     Web address (repeatable)
    --postal [label=]<value>  Postal address (repeatable)
    --social [label=]<value>  Social profile (repeatable)
    --relation [label=]<value> Related person (repeatable)

  contactshq edit [flags] <id>
    Same flags as add; any list flag replaces that whole list
    --clear-birthday          Remove the stored birthday
    Note: flags must come before the person ID (an ID prefix works)

  contactshq delete [--yes] <id>  Delete a person (asks first unless --yes)

  contactshq labels [--used a,b] <category>
    category is phone, email, url, postal, social or relation

IMPORT COMMANDS:
  contactshq import
    --source <name>           vcard (default) or google
    --file <path>             vCard file (vcard source)

  contactshq status         Last import time and result per source

EXPORT:
  contactshq export
    --out <file>              Output workbook (default: people.xlsx)
    --sort <key>              Row order (default: given)

WEB:
  contactshq web
    --addr <host:port>        Listen address (default: 127.0.0.1:8080)

VIZ COMMANDS:
  contactshq viz graph [id]   Generate the people graph
    --output <file>               Output file (default: stdout, .svg/.png by extension)
    [id]                          Optional person ID to center graph on

  contactshq viz dashboard    Address book statistics

EXAMPLES:
  # Import a vCard export from your phone
  contactshq import --file ~/Downloads/contacts.vcf

  # Add a friend with two phone numbers
  contactshq add --given "Zoë" --family "Park" --type friend --phone 555-0100 --phone work=555-0199

  # Find everyone named Zoe, with or without the diaeresis
  contactshq list --query zoe

  # Start MCP server for an agent client
  contactshq mcp

`, version)
}
