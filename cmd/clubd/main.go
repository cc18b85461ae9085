package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/clubnft/clubd/internal/config"
	httpservice "github.com/clubnft/clubd/internal/interface/http"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Version = Version
	app.Name = "clubd"
	app.Usage = "club NFT collection minted with verifiable randomness"
	app.Flags = config.Flags
	app.Action = mainAction
	app.Commands = append(
		app.Commands,
		&assembleCommand,
		&configCommand,
		&infoCommand,
		&feeCommand,
		&mintCommand,
		&requestCommand,
		&requestsCommand,
		&tokenCommand,
		&tokensCommand,
		&oracleCommand,
	)

	if err := app.Run(os.Args); err != nil {
		fmt.Println(fmt.Errorf("error: %v", err))
		os.Exit(1)
	}
}

func mainAction(ctx *cli.Context) error {
	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		return fmt.Errorf("invalid config: %s", err)
	}

	setupLogger(cfg.LogLevel)

	svcConfig := httpservice.Config{
		Port:           cfg.Port,
		AllowedOrigins: cfg.AllowedOrigins,
	}

	svc, err := httpservice.NewService(svcConfig, cfg)
	if err != nil {
		return err
	}

	log.Infof("clubd config: %s", cfg)

	log.Info("starting service...")
	if err := svc.Start(); err != nil {
		return err
	}

	log.RegisterExitHandler(svc.Stop)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(
		sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGHUP, os.Interrupt,
	)
	<-sigChan

	log.Info("shutting down service...")
	log.Exit(0)

	return nil
}

func setupLogger(level int) {
	log.SetLevel(log.Level(level))
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
