package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"alsaraya/internal/catalog"
	"alsaraya/internal/config"
	"alsaraya/internal/diagnostics"
	"alsaraya/internal/infrastructure/logger"
	"alsaraya/internal/infrastructure/mysql"
	"alsaraya/internal/pos"
	"alsaraya/internal/pos/token"
	productrepo "alsaraya/internal/product/repository"
)

const usage = `usage: posctl <command> [flags]

commands:
  test                 check POS credentials
  menu                 print the flattened POS menu
  orders [-days N] [-status S] [-page N] [-limit N]
                       list recent POS deliveries
  order <id>           look up one POS order
  diff                 preview catalog changes
  sync                 reconcile the catalog with the POS menu
`

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

// command is a parsed invocation; it is resolved before any connection is opened.
type command struct {
	name  string
	query diagnostics.OrdersQuery
	id    string
}

func (c command) needsDatabase() bool {
	return c.name == "diff" || c.name == "sync"
}

func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return command{}, flag.ErrHelp
	}

	cmd := command{name: args[0]}
	set := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	set.SetOutput(io.Discard)

	switch cmd.name {
	case "test", "menu", "diff", "sync":
	case "orders":
		set.IntVar(&cmd.query.Days, "days", diagnostics.DefaultDays, "look-back window in days")
		set.StringVar(&cmd.query.Status, "status", "", "POS order status filter")
		set.IntVar(&cmd.query.Page, "page", 1, "page number")
		set.IntVar(&cmd.query.Limit, "limit", diagnostics.DefaultLimit, "orders per page")
	case "order":
	default:
		return command{}, fmt.Errorf("unknown command %q: %w", cmd.name, flag.ErrHelp)
	}

	if err := set.Parse(args[1:]); err != nil {
		return command{}, fmt.Errorf("parsing %s flags: %w", cmd.name, err)
	}

	if cmd.name == "order" {
		if set.NArg() != 1 {
			return command{}, fmt.Errorf("order needs exactly one id: %w", flag.ErrHelp)
		}
		cmd.id = set.Arg(0)
	} else if set.NArg() > 0 {
		return command{}, fmt.Errorf("unexpected arguments %v: %w", set.Args(), flag.ErrHelp)
	}
	return cmd, nil
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cmd, err := parseCommand(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Service)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer zapLogger.Sync()

	var store catalog.Store
	if cmd.needsDatabase() {
		var db *sql.DB
		db, err = mysql.NewConnection(cfg.Database)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer db.Close()
		store = productrepo.NewMySQLRepository(db)
	}

	posClient := pos.NewClient(cfg.POS, nil, zapLogger)
	tokens := token.NewCache(posClient, cfg.POS.TokenTTL, cfg.POS.TokenSafetyMargin, zapLogger,
		token.WithRefreshTimeout(cfg.POS.HTTPTimeout))
	reconciler := catalog.NewReconciler(tokens, posClient, store, cfg.POS.MenuID, zapLogger)
	svc := diagnostics.NewService(tokens, posClient, reconciler,
		cfg.POS.OrganizationID, cfg.POS.TerminalGroupID, zapLogger)

	result, err := execute(ctx, svc, cmd)
	if err != nil {
		zapLogger.Error("command failed", zap.String("command", cmd.name), zap.Error(err))
		return err
	}
	return printJSON(out, result)
}

func execute(ctx context.Context, ops diagnostics.Operations, cmd command) (interface{}, error) {
	switch cmd.name {
	case "test":
		return ops.TestConnection(ctx)
	case "menu":
		return ops.FetchMenu(ctx)
	case "orders":
		return ops.FetchOrders(ctx, cmd.query)
	case "order":
		return ops.LookupOrder(ctx, cmd.id)
	case "diff":
		return ops.DiffCatalog(ctx)
	case "sync":
		return ops.SyncCatalog(ctx)
	default:
		return nil, fmt.Errorf("unknown command %q", cmd.name)
	}
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
