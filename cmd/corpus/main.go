package main

import (
	"context"
	"flag"
	"time"

	"access-risk-service/internal/bucketing"
	"access-risk-service/internal/client"
	"access-risk-service/internal/config"
	"access-risk-service/internal/corpus"
	"access-risk-service/internal/model"
	chstore "access-risk-service/internal/repository/clickhouse"
	"access-risk-service/internal/util"
)

func main() {
	users := flag.Int("users", 100, "number of synthetic users to generate")
	entries := flag.Int("entries", 50, "access events per user")
	riskRate := flag.Float64("risk-rate", 0.15, "fraction of events with an injected risk scenario")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	outDir := flag.String("out", "", "asset output directory (defaults to the configured asset dir)")
	seedClickhouse := flag.Bool("seed-clickhouse", false, "also insert the corpus into the configured ClickHouse table")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		util.Init("development", "info", "console")
		util.Fatal("Failed to load configuration", util.ErrorField(err))
	}
	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)
	defer util.Sync()

	dir := *outDir
	if dir == "" {
		dir = cfg.Assets.Dir
	}

	opts := corpus.Options{
		Users:          *users,
		EntriesPerUser: *entries,
		RiskRate:       *riskRate,
		Seed:           *seed,
	}

	generator := corpus.NewGenerator(cfg, opts, util.Get())
	profiles, events := generator.Generate()
	events = corpus.Enrich(events, profiles, cfg.Risk.Weights, util.Get())

	if err := corpus.BuildAssets(dir, profiles, events, util.Get()); err != nil {
		util.Fatal("Failed to build assets", util.ErrorField(err))
	}

	if *seedClickhouse {
		if !cfg.Clickhouse.Enabled {
			util.Fatal("ClickHouse seeding requested but CLICKHOUSE_ENABLED is false")
		}
		seedEventStore(cfg, events)
	}

	util.Info("Corpus generation completed",
		util.String("dir", dir),
		util.Int("profiles", len(profiles)),
		util.Int("events", len(events)),
	)
}

func seedEventStore(cfg *config.Config, events []model.AccessEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	chClient, err := client.NewClickHouseClient(cfg, util.Get())
	if err != nil {
		util.Fatal("Failed to connect to ClickHouse", util.ErrorField(err))
	}
	defer chClient.Close()

	store := chstore.NewEventStore(chClient, bucketing.NewManager(cfg), cfg.Clickhouse.Table, util.Get())
	if err := store.EnsureSchema(ctx); err != nil {
		util.Fatal("Failed to ensure event schema", util.ErrorField(err))
	}
	if err := store.SeedCorpus(ctx, events); err != nil {
		util.Fatal("Failed to seed ClickHouse corpus", util.ErrorField(err))
	}
	util.Info("Seeded ClickHouse event table",
		util.String("table", cfg.Clickhouse.Table),
		util.Int("events", len(events)),
	)
}
