package cmd

import (
	"context"
	"fmt"
	"log"

	"backend/database"
	"backend/scheduler"
	"backend/server"

	"github.com/urfave/cli/v3"
)

func ServerCli() *cli.Command {
	cmd := &cli.Command{
		Name:  "vault",
		Usage: "run the provider credential vault backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Sources: cli.EnvVars("DB_BACKEND"),
				Name:    "db-backend",
				Aliases: []string{"db"},
				Value:   "sqlite",
				Usage:   "database driver to use",
			},
			&cli.StringFlag{
				Sources: cli.EnvVars("DB_PATH"),
				Name:    "db-path",
				Aliases: []string{"dp"},
				Value:   "data.db",
				Usage:   "For sqlite the path to the database file",
			},
			&cli.StringFlag{
				Sources: cli.EnvVars("DB_DSN"),
				Name:    "db-dsn",
				Usage:   "For postgres the connection string",
			},
			&cli.BoolFlag{
				Sources: cli.EnvVars("DEBUG"),
				Name:    "debug",
				Aliases: []string{"d"},
				Value:   false,
				Usage:   "enable debug mode (drops and recreates all tables)",
			},
			&cli.StringFlag{
				Sources: cli.EnvVars("HOST"),
				Name:    "host",
				Aliases: []string{"b"},
				Value:   "127.0.0.1",
				Usage:   "server bind address",
			},
			&cli.BoolFlag{
				Sources: cli.EnvVars("SSL"),
				Name:    "ssl",
				Aliases: []string{"s"},
				Value:   false,
				Usage:   "enable ssl",
			},
			&cli.IntFlag{
				Sources: cli.EnvVars("PORT"),
				Name:    "port",
				Aliases: []string{"p"},
				Value:   1984,
				Usage:   "server port",
			},
			&cli.StringFlag{
				Sources: cli.EnvVars("COOKIE_DOMAIN"),
				Name:    "cookie-domain",
				Value:   "localhost",
				Usage:   "domain for the session cookie",
			},
			&cli.StringFlag{
				Sources: cli.EnvVars("FRONTEND_URL"),
				Name:    "frontend-url",
				Value:   "http://localhost:3000",
				Usage:   "frontend base url for OAuth redirects",
			},
			&cli.StringFlag{
				Sources: cli.EnvVars("OAUTH_REDIRECT_BASE"),
				Name:    "oauth-redirect-base",
				Value:   "http://localhost:1984",
				Usage:   "public base url of this backend, used to build OAuth redirect urls",
			},
			&cli.StringFlag{
				Sources: cli.EnvVars("ENCRYPTION_SECRET"),
				Name:    "encryption-secret",
				Usage:   "secret for encrypting stored credentials, at least 32 characters",
			},
			&cli.StringFlag{
				Sources: cli.EnvVars("INTERNAL_API_KEY"),
				Name:    "internal-api-key",
				Usage:   "pre-shared key for the internal service api, empty disables it",
			},
			&cli.StringFlag{
				Sources: cli.EnvVars("ADMOB_CLIENT_ID"),
				Name:    "admob-client-id",
				Usage:   "OAuth client id for AdMob",
			},
			&cli.StringFlag{
				Sources: cli.EnvVars("ADMOB_CLIENT_SECRET"),
				Name:    "admob-client-secret",
				Usage:   "OAuth client secret for AdMob",
			},
			&cli.StringFlag{
				Sources: cli.EnvVars("GAM_CLIENT_ID"),
				Name:    "gam-client-id",
				Usage:   "OAuth client id for Google Ad Manager",
			},
			&cli.StringFlag{
				Sources: cli.EnvVars("GAM_CLIENT_SECRET"),
				Name:    "gam-client-secret",
				Usage:   "OAuth client secret for Google Ad Manager",
			},
		},
		Action: func(_ context.Context, c *cli.Command) error {
			if len(c.String("encryption-secret")) < 32 {
				log.Fatal("encryption-secret must be at least 32 characters")
			}

			DB := database.SetupDatabase(c.String("db-backend"), c.String("db-path"), c.String("db-dsn"), c.Bool("debug"))

			schedulerService := scheduler.NewSchedulerService(DB)
			schedulerService.RegisterTasks()
			schedulerService.Start()
			defer schedulerService.Stop()

			config := server.Config{
				Host:              c.String("host"),
				Port:              c.Int("port"),
				Debug:             c.Bool("debug"),
				SSL:               c.Bool("ssl"),
				CookieDomain:      c.String("cookie-domain"),
				FrontendURL:       c.String("frontend-url"),
				OAuthRedirectBase: c.String("oauth-redirect-base"),
				EncryptionSecret:  c.String("encryption-secret"),
				InternalAPIKey:    c.String("internal-api-key"),
				AdMobClientID:     c.String("admob-client-id"),
				AdMobClientSecret: c.String("admob-client-secret"),
				GAMClientID:       c.String("gam-client-id"),
				GAMClientSecret:   c.String("gam-client-secret"),
			}

			s, fullHost := server.BackendServer(DB, config)
			server.ServerStatus = "running"
			fmt.Printf("Starting server on %s\n", fullHost)

			return s.ListenAndServe()
		},
	}

	return cmd
}
