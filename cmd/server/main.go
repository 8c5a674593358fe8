package main

import (
	"context"
	"embed"
	"io/fs"
	"log"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peopledesk/peopledesk/internal/server"
	"github.com/peopledesk/peopledesk/modules"
	"github.com/peopledesk/peopledesk/pkg/application"
	"github.com/peopledesk/peopledesk/pkg/configuration"
	"github.com/peopledesk/peopledesk/pkg/eventbus"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := modules.Load(app); err != nil {
		panic(err)
	}

	if err := applySchemas(ctx, pool, app.Schemas()); err != nil {
		panic(err)
	}

	srv, err := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
		Pool:          pool,
	})
	if err != nil {
		panic(err)
	}

	logger.Infof("listening on %s", conf.SocketAddress)
	if err := srv.Start(conf.SocketAddress); err != nil {
		panic(err)
	}
}

// applySchemas executes every embedded schema file. The DDL is idempotent, so
// reapplying on each boot is safe.
func applySchemas(ctx context.Context, pool *pgxpool.Pool, schemas []*embed.FS) error {
	for _, schema := range schemas {
		err := fs.WalkDir(schema, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".sql") {
				return nil
			}
			content, err := fs.ReadFile(schema, path)
			if err != nil {
				return err
			}
			_, err = pool.Exec(ctx, string(content))
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}
