package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/wonny/qstudy/internal/prices"
	"github.com/wonny/qstudy/internal/study"
	"github.com/wonny/qstudy/internal/studyconfig"
	"github.com/wonny/qstudy/pkg/config"
	"github.com/wonny/qstudy/pkg/database"
	"github.com/wonny/qstudy/pkg/logger"
	"github.com/wonny/qstudy/pkg/redis"
)

// cachePrefix namespaces every Redis key this CLI writes
const cachePrefix = "qstudy"

// deps bundles what every study command needs
type deps struct {
	cfg          *config.Config
	log          *logger.Logger
	db           *database.DB
	redis        *redis.Client
	orchestrator *study.Orchestrator
}

// Close releases the database pool and the Redis client
func (d *deps) Close() {
	if d.redis != nil {
		d.redis.Close()
	}
	if d.db != nil {
		d.db.Close()
	}
}

// loadConfig applies the global flags and reads the environment
func loadConfig() (*config.Config, error) {
	if env != "" {
		// godotenv은 이미 설정된 변수를 덮어쓰지 않음 → 플래그 우선
		os.Setenv("ENV", env)
	}
	cfg, err := config.LoadFrom(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newDeps connects PostgreSQL and Redis and builds the orchestrator.
// Prices come from data.daily_prices through the Redis panel cache.
func newDeps(ctx context.Context) (*deps, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg)

	db, err := database.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	rc, err := redis.New(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	repo := prices.NewRepository(db.Pool, log.Zerolog())
	provider := prices.NewCachedProvider(repo, redis.NewCache(rc, cachePrefix), cfg.Redis.CacheTTL, log.Zerolog())

	log.WithFields(map[string]interface{}{
		"env":   cfg.Env,
		"redis": rc.Enabled(),
	}).Debug("Dependencies ready")

	return &deps{
		cfg:          cfg,
		log:          log,
		db:           db,
		redis:        rc,
		orchestrator: study.NewOrchestrator(provider, log),
	}, nil
}

// loadStudies reads the study YAML: flag value first, then STUDY_CONFIG
func loadStudies(cfg *config.Config, path string, log *logger.Logger) (*studyconfig.Config, error) {
	if path == "" {
		path = cfg.Study.ConfigPath
	}
	studies, _, err := studyconfig.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load study config: %w", err)
	}
	for _, w := range studyconfig.Warn(studies) {
		log.WithField("code", w.Code).Warn(w.Message)
	}
	return studies, nil
}
