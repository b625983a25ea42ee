package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"gopkg.in/gomail.v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/cg505/ocflib/config"
	"github.com/cg505/ocflib/internal/dispatch"
	"github.com/cg505/ocflib/internal/events"
	"github.com/cg505/ocflib/internal/mail"
	"github.com/cg505/ocflib/internal/provision"
	"github.com/cg505/ocflib/internal/repositories"
	"github.com/cg505/ocflib/internal/submission"
	"github.com/cg505/ocflib/internal/validate"
	"github.com/cg505/ocflib/model"
	"github.com/cg505/ocflib/params"
)

var (
	app       *cli.App
	gitCommit string
	gitDate   string
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML config file",
		Value: "config.yaml",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Enable debug logging",
	}
)

func init() {
	app = cli.NewApp()
	app.EnableBashCompletion = true
	app.Usage = "Account submission worker"
	app.Flags = []cli.Flag{
		configFileFlag,
		debugFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name: "version",
			Action: func(ctx *cli.Context) error {
				fmt.Println(params.VersionWithCommit(gitCommit, gitDate))
				return nil
			},
		},
	}
	app.Action = run
}

func initLogger(debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

func openDatabase(cfg config.MysqlConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.ConnStr), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Second)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}
	if err := db.AutoMigrate(model.Models...); err != nil {
		return nil, err
	}
	return db, nil
}

func run(ctx *cli.Context) error {
	cfg, err := config.LoadConfig(ctx.String(configFileFlag.Name))
	if err != nil {
		slog.Error("Could not load config file.", "error", err)
		return err
	}
	initLogger(cfg.Debug || ctx.IsSet(debugFlag.Name))

	db, err := openDatabase(cfg.Mysql)
	if err != nil {
		slog.Error("Could not open database.", "error", err)
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	repo := repositories.NewPendingRequestRepository(db)
	validator := validate.NewRequestValidator(repo)
	creator := provision.NewCommandCreator(cfg.Provision.Command)
	dialer := gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)
	notifier := mail.NewRejectionNotifier(mail.NewSMTPMailSender(dialer, cfg.SMTP.From))
	publisher := events.NewRedisPublisher(rdb)

	engine := dispatch.NewEngine(dispatch.NewRedisStore(rdb), slog.Default(),
		dispatch.WithConcurrency(cfg.Worker.Concurrency),
		dispatch.WithQueues(cfg.Worker.Queues),
		dispatch.WithEnginePollInterval(params.WorkerPollInterval),
	)

	svc := submission.NewService(repo, validator, creator, notifier, publisher, cfg.Credentials, slog.Default())
	submission.RegisterJobs(engine, svc)

	if err := engine.Start(context.Background()); err != nil {
		return err
	}
	slog.Info("Account submission worker started",
		"concurrency", cfg.Worker.Concurrency,
		"queues", cfg.Worker.Queues,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("Shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), params.WorkerStopTimeout)
	defer cancel()
	return engine.Stop(stopCtx)
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
