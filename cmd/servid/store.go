package main

import (
	"context"
	"fmt"
	"time"

	"github.com/phbpx/minicrm"
	"github.com/phbpx/minicrm/memory"
	"github.com/phbpx/minicrm/mongo"
	"github.com/phbpx/minicrm/pkg/database"
	"github.com/phbpx/minicrm/postgres"
	"go.uber.org/zap"
)

type storeConfig struct {
	Kind    string
	Timeout time.Duration
	DB      database.Config
	Mongo   mongo.Config
}

// openStore connects the configured backend and brings its schema up to date.
// The returned func releases the backend and is never nil.
func openStore(cfg storeConfig, log *zap.SugaredLogger) (minicrm.LeadStore, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	switch cfg.Kind {
	case "postgres":
		db, err := database.Open(cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to db: %w", err)
		}
		closeDB := func() {
			log.Infow("shutdown", "status", "stopping database support", "host", cfg.DB.Host)
			db.Close()
		}

		log.Infow("startup", "status", "updating database schema", "database", cfg.DB.Name, "host", cfg.DB.Host)
		if err := postgres.Migrate(ctx, db); err != nil {
			closeDB()
			return nil, nil, fmt.Errorf("updating database schema: %w", err)
		}

		return postgres.NewLeadStore(db), closeDB, nil

	case "mongo":
		client, coll, err := mongo.Open(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to mongo: %w", err)
		}
		closeMongo := func() {
			log.Infow("shutdown", "status", "stopping mongo support", "database", cfg.Mongo.Database)
			client.Disconnect(context.Background())
		}

		log.Infow("startup", "status", "creating mongo indexes", "database", cfg.Mongo.Database, "collection", cfg.Mongo.Collection)
		if err := mongo.Migrate(ctx, coll); err != nil {
			closeMongo()
			return nil, nil, fmt.Errorf("creating mongo indexes: %w", err)
		}

		return mongo.NewLeadStore(coll), closeMongo, nil

	case "memory":
		log.Warnw("startup", "status", "using in-memory store, data is lost on exit")
		return memory.NewLeadStore(), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
}
