package gotoolgrid

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // enable postgres migrations
	_ "github.com/golang-migrate/migrate/v4/source/file"       // enable file migration source
	_ "github.com/lib/pq"                                      // enable postgres driver
	"github.com/sirupsen/logrus"
	"github.com/toolgrid/gotoolgrid/config"
)

// Application is Service Main Object.
type Application struct {
	container *Container
}

// NewApplication constructor.
func NewApplication(cfg config.Config) *Application {
	s := &Application{
		container: NewContainer(cfg),
	}

	gin.SetMode(cfg.GinMode)

	return s
}

func (s *Application) Close() error {
	return s.container.Close()
}

func (s *Application) Migrate() error {
	return applyMigrations(s.container.Config().Migrations)
}

func applyMigrations(cfg config.MigrationsConfig) error {
	logrus.Info("Apply migrations")

	m, err := migrate.New(cfg.Dir, cfg.DSN)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	logrus.Info("Migrations applied")

	return nil
}

func (s *Application) ServePublic(quit chan bool) error {
	httpServer, err := s.container.PublicHTTPServer()
	if err != nil {
		return err
	}

	go func() {
		<-quit

		if err := httpServer.Shutdown(context.Background()); err != nil {
			logrus.Error(err.Error())
		}
	}()

	logrus.Println("public HTTP listener started")

	err = httpServer.ListenAndServe()
	if err != nil {
		// cannot panic, because this probably is an intentional close
		logrus.Printf("Httpserver: ListenAndServe() error: %s", err)
	}

	logrus.Println("public HTTP listener stopped")

	return nil
}

// ScanPendingFlags walks the pending flag queue and runs the spam scorer
// over each flagged entity, auto-hiding content above the action
// threshold.
func (s *Application) ScanPendingFlags(ctx context.Context) (int, error) {
	flagsRepo, err := s.container.FlagsRepository()
	if err != nil {
		return 0, err
	}

	scorer, err := s.container.SpamScorer()
	if err != nil {
		return 0, err
	}

	const perPage = 100

	var (
		offset uint
		acted  int
	)

	for {
		pending, err := flagsRepo.Pending(ctx, perPage, offset)
		if err != nil {
			return acted, err
		}

		if len(pending) == 0 {
			return acted, nil
		}

		for i := range pending {
			taken, err := scorer.CheckFlaggedContent(ctx, &pending[i])
			if err != nil {
				logrus.Errorf("spam check of flag %d: %v", pending[i].ID, err)

				continue
			}

			if taken {
				acted++
			}
		}

		offset += perPage
	}
}
