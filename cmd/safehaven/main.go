package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/labstack/echo/v4"
	"github.com/mdouchement/safehaven/internal/alert"
	"github.com/mdouchement/safehaven/internal/auth"
	"github.com/mdouchement/safehaven/internal/database"
	"github.com/mdouchement/safehaven/internal/journey"
	"github.com/mdouchement/safehaven/internal/lifecycle"
	"github.com/mdouchement/safehaven/internal/logger"
	"github.com/mdouchement/safehaven/internal/matcher"
	"github.com/mdouchement/safehaven/internal/metrics"
	"github.com/mdouchement/safehaven/internal/repository"
	"github.com/mdouchement/safehaven/internal/server"
	"github.com/mdouchement/safehaven/internal/session"
	"github.com/mdouchement/safehaven/pkg/fieldcrypt"
	"github.com/muesli/coral"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	dbname    = "safehaven.db"
	vaultname = "vault"
)

var (
	version  = "dev"
	revision = "none"
	date     = "unknown"

	cfg    string
	dryRun bool
	within int
)

func main() {
	c := &coral.Command{
		Use:     "safehaven",
		Short:   "SafeHaven survivor data-protection server",
		Version: fmt.Sprintf("%s - build %.7s @ %s - %s", version, revision, date, runtime.Version()),
		Args:    coral.ExactArgs(0),
	}
	c.PersistentFlags().StringVarP(&cfg, "config", "c", "", "Configuration file")

	c.AddCommand(initCmd)
	c.AddCommand(reindexCmd)
	c.AddCommand(serverCmd)

	sweepCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Only print what would be deleted")
	sweepCmd.Flags().IntVarP(&within, "within", "w", 7, "Days looked ahead by the dry run")
	c.AddCommand(sweepCmd)

	c.AddCommand(panicCmd)

	profileCmd.AddCommand(profileCreateCmd)
	c.AddCommand(profileCmd)

	resourcesCmd.AddCommand(resourcesImportCmd)
	c.AddCommand(resourcesCmd)

	if err := c.Execute(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func load() (*koanf.Koanf, error) {
	konf := koanf.New(".")
	if err := konf.Load(file.Provider(cfg), yaml.Parser()); err != nil {
		return nil, errors.Wrap(err, "could not load configuration")
	}
	return konf, nil
}

func dbnameWithPath(path string) string {
	if len(path) == 0 {
		return dbname
	}
	return filepath.Join(path, dbname)
}

func vaultWithPath(konf *koanf.Koanf) string {
	if path := konf.String("vault_path"); path != "" {
		return path
	}
	return filepath.Join(konf.String("database_path"), vaultname)
}

// An app holds the services shared by the commands.
type app struct {
	konf      *koanf.Koanf
	log       *logrus.Logger
	metrics   *metrics.Metrics
	db        database.Client
	repo      *repository.Repository
	sessions  *session.Manager
	auth      *auth.Authenticator
	lifecycle *lifecycle.Engine
}

func bootstrap(konf *koanf.Koanf) (*app, error) {
	if konf.String("secret_key") == "" {
		return nil, errors.New("secret_key not found")
	}

	hasher, err := auth.NewHasher(konf.String("password_hash"))
	if err != nil {
		return nil, err
	}

	keyring, err := fieldcrypt.NewKeyring(konf.MustBytes("secret_key"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid secret_key")
	}

	vault, err := repository.NewVault(vaultWithPath(konf))
	if err != nil {
		return nil, err
	}

	db, err := database.StormOpen(dbnameWithPath(konf.String("database_path")))
	if err != nil {
		return nil, errors.Wrap(err, "could not open database")
	}

	a := &app{
		konf: konf,
		log: logger.New(logger.Config{
			File:  konf.String("log.file"),
			Level: konf.String("log.level"),
		}),
		metrics: metrics.New(),
		db:      db,
	}

	ttl := konf.Duration("session.ttl")
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	a.repo = repository.New(db, keyring, vault,
		repository.WithLogger(a.log),
		repository.WithDebounce(konf.Duration("subscription.debounce")),
	)
	a.sessions = session.NewManager(db, ttl)
	a.auth = auth.New(db, hasher, auth.WithLogger(a.log), auth.WithMetrics(a.metrics))
	a.lifecycle = lifecycle.New(a.repo, a.sessions, lifecycle.WithLogger(a.log), lifecycle.WithMetrics(a.metrics))

	return a, nil
}

func serve(engine *echo.Echo, address string, log logrus.FieldLogger) error {
	message := "could not run server"
	log.Infof("Server listening on %s", address)

	parts := strings.Split(address, ":")
	if len(parts) == 2 && parts[0] == "unix" {
		socketFile := parts[1]
		if _, err := os.Stat(socketFile); err == nil {
			log.Infof("Removing existing %s", socketFile)
			os.Remove(socketFile)
		}
		defer os.Remove(socketFile)
		listener, err := net.Listen(parts[0], socketFile)
		if err != nil {
			return err
		}
		err = engine.Server.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, message)
	}

	err := engine.Start(address)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return errors.Wrap(err, message)
}

func (a *app) Close() error {
	return a.db.Close()
}

var (
	initCmd = &coral.Command{
		Use:   "init",
		Short: "Init the database",
		Args:  coral.ExactArgs(0),
		RunE: func(_ *coral.Command, _ []string) error {
			konf, err := load()
			if err != nil {
				return err
			}

			if _, err = repository.NewVault(vaultWithPath(konf)); err != nil {
				return err
			}
			return database.StormInit(dbnameWithPath(konf.String("database_path")))
		},
	}

	//
	reindexCmd = &coral.Command{
		Use:   "reindex",
		Short: "Reindex the database",
		Args:  coral.ExactArgs(0),
		RunE: func(_ *coral.Command, _ []string) error {
			konf, err := load()
			if err != nil {
				return err
			}

			return database.StormReIndex(dbnameWithPath(konf.String("database_path")))
		},
	}

	//
	//
	serverCmd = &coral.Command{
		Use:   "server",
		Short: "Start server",
		Args:  coral.ExactArgs(0),
		RunE: func(_ *coral.Command, _ []string) error {
			konf, err := load()
			if err != nil {
				return err
			}

			a, err := bootstrap(konf)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.db.CountResources(database.ResourceParams{})
			if err != nil {
				return errors.Wrap(err, "could not count resources")
			}
			a.metrics.SetResources(n)

			engine := server.EchoEngine(server.IOC{
				Version:        version,
				NoRegistration: konf.Bool("no_registration"),
				Logger:         a.log,
				Metrics:        a.metrics,

				Repository:    a.repo,
				Authenticator: a.auth,
				Sessions:      a.sessions,
				Lifecycle:     a.lifecycle,
				Matcher: matcher.New(a.db,
					matcher.WithLimit(konf.Int("matcher.limit")),
					matcher.WithLogger(a.log),
					matcher.WithMetrics(a.metrics),
				),
				Journeys: journey.New(a.repo,
					journey.WithLogger(a.log),
					journey.WithRetention(konf.Int("retention.journey_days")),
				),
				Alerts: alert.New(a.repo, alert.NewLogDispatcher(a.log),
					alert.WithLogger(a.log),
					alert.WithMetrics(a.metrics),
				),
			})
			server.PrintRoutes(engine)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// The database is closed only once every background job has returned.
			var g errgroup.Group

			scheduler := lifecycle.NewScheduler(a.lifecycle, konf.Duration("retention.sweep_interval"))
			g.Go(func() error {
				scheduler.Run(ctx) // nolint:errcheck
				return nil
			})

			g.Go(func() error {
				<-ctx.Done()

				shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := engine.Shutdown(shutdown); err != nil {
					a.log.WithError(err).Error("could not shutdown server")
				}
				return nil
			})

			err = serve(engine, konf.String("address"), a.log)
			stop()
			g.Wait() // nolint:errcheck
			return err
		},
	}

	//
	sweepCmd = &coral.Command{
		Use:   "sweep",
		Short: "Delete the expired journeys and records once",
		Args:  coral.ExactArgs(0),
		RunE: func(_ *coral.Command, _ []string) error {
			konf, err := load()
			if err != nil {
				return err
			}

			a, err := bootstrap(konf)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := context.Background()
			now := time.Now()

			if dryRun {
				pending, err := a.lifecycle.PendingDeletionCount(ctx, now)
				if err != nil {
					return err
				}
				expiring, err := a.lifecycle.ExpiringWithin(ctx, now, within)
				if err != nil {
					return err
				}

				fmt.Printf("%d journey(s) pending deletion\n", pending)
				fmt.Printf("%d journey(s) deleted within %d day(s)\n", len(expiring), within)
				return nil
			}

			swept, expired := a.lifecycle.Pass(ctx, now)
			fmt.Printf("%d journey(s) and %d record(s) deleted\n", swept, expired)
			return nil
		},
	}

	//
	panicCmd = &coral.Command{
		Use:   "panic USER_ID",
		Short: "Wipe every record of the given identity",
		Args:  coral.ExactArgs(1),
		RunE: func(_ *coral.Command, args []string) error {
			konf, err := load()
			if err != nil {
				return err
			}

			a, err := bootstrap(konf)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.lifecycle.PanicDelete(context.Background(), args[0])
		},
	}
)
