package gotoolgrid

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/toolgrid/gotoolgrid/config"
	"github.com/toolgrid/gotoolgrid/flags"
	"github.com/toolgrid/gotoolgrid/moderation"
	"github.com/toolgrid/gotoolgrid/spam"
	"github.com/toolgrid/gotoolgrid/util"
	"github.com/toolgrid/gotoolgrid/votes"
)

const readHeaderTimeout = time.Second * 30

// Container Container.
type Container struct {
	config               config.Config
	db                   *sql.DB
	goquDB               *goqu.Database
	redis                *redis.Client
	rabbitMQ             *amqp.Connection
	publisher            moderation.Publisher
	flagsRepository      *flags.Repository
	moderationRepository *moderation.Repository
	votesRepository      *votes.Repository
	spamScorer           *spam.Scorer
	flagsREST            *FlagsREST
	moderationREST       *ModerationREST
	votesREST            *VotesREST
	publicHTTPServer     *http.Server
	publicRouter         http.Handler
}

// NewContainer constructor.
func NewContainer(cfg config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

func (s *Container) Close() error {
	s.flagsRepository = nil
	s.moderationRepository = nil
	s.votesRepository = nil
	s.spamScorer = nil

	if s.db != nil {
		err := s.db.Close()
		if err != nil {
			logrus.Error(err.Error())
		}

		s.db = nil
		s.goquDB = nil
	}

	if s.redis != nil {
		util.Close(s.redis)
		s.redis = nil
	}

	if s.rabbitMQ != nil {
		util.Close(s.rabbitMQ)
		s.rabbitMQ = nil
		s.publisher = nil
	}

	return nil
}

func (s *Container) Config() config.Config {
	return s.config
}

func (s *Container) GoquDB() (*goqu.Database, error) {
	if s.goquDB != nil {
		return s.goquDB, nil
	}

	start := time.Now()

	const (
		connectionTimeout = 60 * time.Second
		reconnectDelay    = 100 * time.Millisecond
	)

	logrus.Info("Waiting for postgres")

	var (
		db  *sql.DB
		err error
	)

	for {
		db, err = sql.Open(s.config.Driver, s.config.DSN)
		if err != nil {
			return nil, err
		}

		err = db.Ping()
		if err == nil {
			logrus.Info("Started.")

			break
		}

		if time.Since(start) > connectionTimeout {
			return nil, err
		}

		logrus.Info(".")
		time.Sleep(reconnectDelay)
	}

	s.db = db
	s.goquDB = goqu.New(s.config.Driver, db)

	return s.goquDB, nil
}

func (s *Container) Redis() (*redis.Client, error) {
	if s.redis == nil {
		opts, err := redis.ParseURL(s.config.Redis)
		if err != nil {
			return nil, err
		}

		s.redis = redis.NewClient(opts)
	}

	return s.redis, nil
}

// ModerationPublisher is nil when no rabbitmq URL is configured.
func (s *Container) ModerationPublisher() (moderation.Publisher, error) {
	if s.publisher == nil {
		if s.config.RabbitMQ == "" {
			return nil, nil //nolint: nilnil
		}

		if s.rabbitMQ == nil {
			conn, err := util.ConnectRabbitMQ(s.config.RabbitMQ)
			if err != nil {
				return nil, err
			}

			s.rabbitMQ = conn
		}

		s.publisher = moderation.NewAMQPPublisher(s.rabbitMQ, s.config.ModerationQueue)
	}

	return s.publisher, nil
}

func (s *Container) FlagsRepository() (*flags.Repository, error) {
	if s.flagsRepository == nil {
		db, err := s.GoquDB()
		if err != nil {
			return nil, err
		}

		redisClient, err := s.Redis()
		if err != nil {
			return nil, err
		}

		s.flagsRepository = flags.NewRepository(
			db,
			redisClient,
			time.Duration(s.config.Flags.SubmitIntervalSeconds)*time.Second,
		)
	}

	return s.flagsRepository, nil
}

func (s *Container) ModerationRepository() (*moderation.Repository, error) {
	if s.moderationRepository == nil {
		db, err := s.GoquDB()
		if err != nil {
			return nil, err
		}

		publisher, err := s.ModerationPublisher()
		if err != nil {
			return nil, err
		}

		s.moderationRepository = moderation.NewRepository(db, publisher)
	}

	return s.moderationRepository, nil
}

func (s *Container) VotesRepository() (*votes.Repository, error) {
	if s.votesRepository == nil {
		db, err := s.GoquDB()
		if err != nil {
			return nil, err
		}

		cfg := s.config.Votes

		s.votesRepository = votes.NewRepository(
			db,
			cfg.StartingCredits,
			cfg.RefreshCredits,
			time.Duration(cfg.RefreshDays)*24*time.Hour,
			cfg.MaxVoteWeight,
		)
	}

	return s.votesRepository, nil
}

func (s *Container) SpamScorer() (*spam.Scorer, error) {
	if s.spamScorer == nil {
		db, err := s.GoquDB()
		if err != nil {
			return nil, err
		}

		redisClient, err := s.Redis()
		if err != nil {
			return nil, err
		}

		moderationRepo, err := s.ModerationRepository()
		if err != nil {
			return nil, err
		}

		cfg := s.config.Spam

		var classifier *spam.ClassifierClient
		if cfg.ClassifierURL != "" {
			classifier = spam.NewClassifierClient(
				cfg.ClassifierURL,
				cfg.ClassifierToken,
				time.Duration(cfg.ClassifierTimeout)*time.Second,
			)
		}

		s.spamScorer = spam.NewScorer(
			db,
			classifier,
			redisClient,
			moderationRepo,
			cfg.SpamThreshold,
			cfg.AutoActionThreshold,
			time.Duration(cfg.CacheTTL)*time.Second,
		)
	}

	return s.spamScorer, nil
}

func (s *Container) FlagsREST() (*FlagsREST, error) {
	if s.flagsREST == nil {
		flagsRepo, err := s.FlagsRepository()
		if err != nil {
			return nil, err
		}

		scorer, err := s.SpamScorer()
		if err != nil {
			return nil, err
		}

		s.flagsREST = NewFlagsREST(flagsRepo, scorer)
	}

	return s.flagsREST, nil
}

func (s *Container) ModerationREST() (*ModerationREST, error) {
	if s.moderationREST == nil {
		moderationRepo, err := s.ModerationRepository()
		if err != nil {
			return nil, err
		}

		s.moderationREST = NewModerationREST(moderationRepo)
	}

	return s.moderationREST, nil
}

func (s *Container) VotesREST() (*VotesREST, error) {
	if s.votesREST == nil {
		votesRepo, err := s.VotesRepository()
		if err != nil {
			return nil, err
		}

		s.votesREST = NewVotesREST(votesRepo)
	}

	return s.votesREST, nil
}

func (s *Container) PublicRouter() (http.Handler, error) {
	if s.publicRouter != nil {
		return s.publicRouter, nil
	}

	ginEngine := gin.New()
	ginEngine.Use(gin.Recovery())

	if len(s.config.Rest.Cors) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = s.config.Rest.Cors
		corsConfig.AllowCredentials = true
		ginEngine.Use(cors.New(corsConfig))
	}

	ginEngine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	ginEngine.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	flagsREST, err := s.FlagsREST()
	if err != nil {
		return nil, fmt.Errorf("FlagsREST(): %w", err)
	}

	flagsREST.SetupRouter(ginEngine)

	moderationREST, err := s.ModerationREST()
	if err != nil {
		return nil, fmt.Errorf("ModerationREST(): %w", err)
	}

	moderationREST.SetupRouter(ginEngine)

	votesREST, err := s.VotesREST()
	if err != nil {
		return nil, fmt.Errorf("VotesREST(): %w", err)
	}

	votesREST.SetupRouter(ginEngine)

	s.publicRouter = ginEngine

	return s.publicRouter, nil
}

func (s *Container) PublicHTTPServer() (*http.Server, error) {
	if s.publicHTTPServer == nil {
		handler, err := s.PublicRouter()
		if err != nil {
			return nil, fmt.Errorf("PublicRouter(): %w", err)
		}

		s.publicHTTPServer = &http.Server{
			Addr:              s.config.Rest.Listen,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		}
	}

	return s.publicHTTPServer, nil
}
