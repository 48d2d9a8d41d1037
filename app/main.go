package main

import (
	"database/sql"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/sushihentaime/bloglist/internal/blogservice"
	"github.com/sushihentaime/bloglist/internal/common"
	"github.com/sushihentaime/bloglist/internal/mailservice"
	"github.com/sushihentaime/bloglist/internal/userservice"
)

const migrationsSource = "file://migrations"

type application struct {
	config      *Config
	logger      *slog.Logger
	userService *userservice.UserService
	blogService *blogservice.BlogService
	mailService *mailservice.MailService
	broker      *common.MessageBroker
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "bloglist",
		Short:        "Blog list API server",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", ".env", "path to the env file")

	root.AddCommand(
		newServeCmd(&configPath),
		newMigrateCmd(&configPath),
		newSeedCmd(&configPath),
	)

	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

			cfg, err := loadConfig(*configPath)
			if err != nil {
				logger.Error("failed to load configuration", slog.String("error", err.Error()))
				return err
			}

			db, err := openDB(cfg)
			if err != nil {
				logger.Error("failed to connect to the database", slog.String("error", err.Error()))
				return err
			}
			defer common.CloseDB(db)

			app, err := newApplication(cfg, logger, db)
			if err != nil {
				return err
			}
			defer app.close()

			return app.serve(cfg.Port)
		},
	}
}

func newMigrateCmd(configPath *string) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			dsn := common.DSN(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)

			if len(args) == 1 && args[0] == "down" {
				return common.MigrateDown(source, dsn)
			}

			m, err := common.Migrate(source, dsn)
			if err != nil {
				return err
			}
			srcErr, dbErr := m.Close()
			if srcErr != nil {
				return srcErr
			}
			return dbErr
		},
	}
	cmd.Flags().StringVar(&source, "source", migrationsSource, "migration source URL")

	return cmd
}

func newSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert a demo user and a handful of blogs",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer common.CloseDB(db)

			users := userservice.NewUserService(db, userservice.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL))
			blogs := blogservice.NewBlogService(db, common.NewCache(time.Minute, time.Minute), nil, cfg.policy(), logger)

			return seed(cmd.Context(), users, blogs, logger)
		},
	}
}

func openDB(cfg *Config) (*sql.DB, error) {
	return common.NewDB(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, 25, 25, 15*time.Minute)
}

// newApplication wires the services. The broker and the mail consumer are
// optional and only started when RABBITMQ_HOST is configured.
func newApplication(cfg *Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:      cfg,
		logger:      logger,
		userService: userservice.NewUserService(db, userservice.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)),
	}

	var producer common.MessageProducer
	if cfg.MQHost != "" {
		broker, err := common.NewMessageBroker(common.AMQPURI(cfg.MQUser, cfg.MQPassword, cfg.MQHost, cfg.MQPort))
		if err != nil {
			logger.Error("failed to connect to the message broker", slog.String("error", err.Error()))
			return nil, err
		}

		if err := common.SetupBlogExchange(broker); err != nil {
			broker.Close()
			logger.Error("failed to setup the blog exchange", slog.String("error", err.Error()))
			return nil, err
		}

		app.broker = broker
		producer = broker

		if cfg.MailHost != "" {
			app.mailService = mailservice.NewMailService(broker, cfg.MailHost, cfg.MailUser, cfg.MailPassword, cfg.MailSender, cfg.MailPort, logger)
			if err := app.mailService.NotifyComments(); err != nil {
				broker.Close()
				logger.Error("failed to start comment notifications", slog.String("error", err.Error()))
				return nil, err
			}
		}
	}

	app.blogService = blogservice.NewBlogService(db, common.NewCache(5*time.Minute, 10*time.Minute), producer, cfg.policy(), logger)

	return app, nil
}

func (app *application) close() {
	if app.mailService != nil {
		app.mailService.Close()
	}
	if app.broker != nil {
		if err := app.broker.Close(); err != nil {
			app.logger.Error("failed to close the message broker", slog.String("error", err.Error()))
		}
	}
}
