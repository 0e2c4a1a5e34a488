package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/toolgrid/gotoolgrid"
	"github.com/toolgrid/gotoolgrid/config"
	"github.com/toolgrid/gotoolgrid/util"
	"github.com/urfave/cli/v3"
)

func captureOsInterrupt() chan bool {
	c := make(chan os.Signal, 1)
	quit := make(chan bool)

	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		for sig := range c {
			logrus.Infof("captured %v, stopping and exiting.", sig)

			quit <- true
			close(quit)

			break
		}
	}()

	return quit
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.LoadConfig(".")

	app := gotoolgrid.NewApplication(cfg)
	defer util.Close(app)

	rootCmd := &cli.Command{
		Name:  "gotoolgrid",
		Usage: "toolgrid moderation and voting service",
		Commands: []*cli.Command{
			{
				Name:  "serve-public",
				Usage: "Run the public REST listener",
				Action: func(_ context.Context, _ *cli.Command) error {
					err := app.Migrate()
					if err != nil {
						return err
					}

					quit := captureOsInterrupt()

					return app.ServePublic(quit)
				},
			},
			{
				Name:  "migrate",
				Usage: "Apply database migrations",
				Action: func(_ context.Context, _ *cli.Command) error {
					return app.Migrate()
				},
			},
			{
				Name:  "scan-pending-flags",
				Usage: "Run the spam scorer over pending flags",
				Action: func(ctx context.Context, _ *cli.Command) error {
					acted, err := app.ScanPendingFlags(ctx)
					if err != nil {
						return err
					}

					logrus.Infof("scan complete, %d automated actions taken", acted)

					return nil
				},
			},
		},
	}

	err := rootCmd.Run(context.Background(), os.Args)
	if err != nil {
		logrus.Error(err)

		return 1
	}

	return 0
}
