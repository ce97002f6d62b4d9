package sink

import (
	"fmt"

	"github.com/MtnBiker/convert-apple-health-export/pkg/common/config"
	"github.com/MtnBiker/convert-apple-health-export/pkg/common/database"
	"github.com/MtnBiker/convert-apple-health-export/pkg/common/kafka"
)

// FromConfig opens every sink named in cfg.Sinks and, for incremental runs,
// the Redis checkpoint. Sinks opened before a failure are closed.
func FromConfig(cfg *config.Config) (*Dispatcher, error) {
	names, err := ParseNames(cfg.Sinks)
	if err != nil {
		return nil, err
	}

	var sinks []Sink
	fail := func(err error) (*Dispatcher, error) {
		NewDispatcher(sinks, nil).Close()
		return nil, err
	}

	for _, name := range names {
		switch name {
		case NamePostgres:
			db, err := database.GetPostgres(cfg)
			if err != nil {
				return fail(fmt.Errorf("postgres sink: %w", err))
			}
			pg := NewPostgresSink(db)
			if err := pg.AutoMigrate(); err != nil {
				return fail(fmt.Errorf("postgres sink migrate: %w", err))
			}
			sinks = append(sinks, pg)
		case NameSQLite:
			lite, err := OpenSQLiteSink(cfg.SQLitePath)
			if err != nil {
				return fail(fmt.Errorf("sqlite sink: %w", err))
			}
			sinks = append(sinks, lite)
		case NameKafka:
			sinks = append(sinks, NewKafkaSink(kafka.NewProducer(cfg, cfg.KafkaTopic)))
		}
	}

	var checkpoint Checkpoint
	if cfg.Incremental && len(sinks) > 0 {
		client, err := database.GetRedis(cfg)
		if err != nil {
			return fail(fmt.Errorf("checkpoint store: %w", err))
		}
		checkpoint = NewRedisCheckpoint(client, cfg.CheckpointKey, cfg.CheckpointTTL)
	}

	return NewDispatcher(sinks, checkpoint), nil
}
