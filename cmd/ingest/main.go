package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/dataprep/ingest/internal/auth"
	"github.com/dataprep/ingest/internal/client"
	"github.com/dataprep/ingest/internal/config"
	"github.com/dataprep/ingest/internal/logging"
	"github.com/dataprep/ingest/internal/poller"
	"github.com/dataprep/ingest/internal/service"
)

const usage = `Usage: ingest [-config file] <command> [args]

Commands:
  list                                   list datasets
  upload [-name N] <file.csv>            upload a CSV and follow its analysis
  status <id>                            show the processing status
  detail <id>                            show the dataset detail and analysis
  archive <id>                           archive a dataset
  plan <id>                              show the seeded cleaning plan and its wire form
  plan-apply [-suggest] [-dry-run] <id> <patches.yaml>
                                         edit the plan from a patch file and save it
`

type app struct {
	catalog  *service.Catalog
	uploads  *service.UploadService
	cleaning *service.CleaningService
	logger   *zap.Logger
}

func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Server.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	policy, err := service.ParseSavePolicy(cfg.Plan.SavePolicy)
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	a := newApp(cfg, policy, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(cfg *config.Config, policy service.SavePolicy, logger *zap.Logger) *app {
	api := client.NewDatasetsClient(client.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	}, auth.NewSession(cfg.API.Token), logger)

	p := poller.New(api, poller.Config{
		Interval: cfg.Poller.Interval,
		Timeout:  cfg.Poller.Timeout,
	}, nil, logger)

	catalog := service.NewCatalog(api, logger)
	return &app{
		catalog:  catalog,
		uploads:  service.NewUploadService(api, p, catalog, logger),
		cleaning: service.NewCleaningService(api, policy, logger),
		logger:   logger,
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "list":
		return a.list(ctx)
	case "upload":
		return a.upload(ctx, args)
	case "status":
		return a.withID(args, func(id string) error { return a.status(ctx, id) })
	case "detail":
		return a.withID(args, func(id string) error { return a.detail(ctx, id) })
	case "archive":
		return a.withID(args, func(id string) error { return a.archive(ctx, id) })
	case "plan":
		return a.withID(args, func(id string) error { return a.showPlan(ctx, id) })
	case "plan-apply":
		return a.planApply(ctx, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func (a *app) withID(args []string, fn func(id string) error) error {
	if len(args) != 1 || args[0] == "" {
		return fmt.Errorf("expected exactly one dataset id")
	}
	return fn(args[0])
}
