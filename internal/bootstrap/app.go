package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"facelyze-api/internal/ai"
	appsvc "facelyze-api/internal/app"
	"facelyze-api/internal/config"
	"facelyze-api/internal/observability"
	"facelyze-api/internal/platform/database"
	rabbitmqClient "facelyze-api/internal/platform/rabbitmq"
	redisClient "facelyze-api/internal/platform/redis"
	"facelyze-api/internal/repository"
	"facelyze-api/internal/vision"
	"facelyze-api/internal/worker"
)

type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Collector

	DB     *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection

	Flows      *ai.Flows
	Screener   vision.Screener
	Publisher  appsvc.AnalysisPublisher
	Worker     *worker.AnalysisPersistWorker
	classifier *vision.Classifier

	StartedAt time.Time
}

// OpenDatabase connects and migrates. The CLI subcommands use it alone.
func OpenDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	db, err := database.Open(ctx, cfg.Database.Driver, cfg.DatabaseDSN(), logger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return db, nil
}

// New wires every dependency. The worker runs until ctx is cancelled.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{
		Config:    cfg,
		Logger:    logger,
		Metrics:   observability.NewCollector("facelyze"),
		StartedAt: time.Now(),
	}

	var err error
	if a.DB, err = OpenDatabase(ctx, cfg, logger); err != nil {
		return nil, err
	}

	if a.Redis, err = redisClient.New(ctx, cfg.Redis, cfg.App.Name); err != nil {
		_ = a.Close()
		return nil, err
	}

	if a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.App.Name); err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Publisher = rabbitmqClient.NewAnalysisPublisher(a.MQConn, cfg.RabbitMQ.AnalysisPersistQueue)

	analysisRepo := repository.NewAnalysisRepository(a.DB)
	a.Worker = worker.NewAnalysisPersistWorker(a.MQConn, analysisRepo, cfg.RabbitMQ.AnalysisPersistQueue, logger)
	if err := a.Worker.Start(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("start analysis worker failed: %w", err)
	}

	provider, err := ai.NewProvider(ctx, cfg.LLM)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("create llm provider failed: %w", err)
	}
	guarded := ai.NewBreaker(provider, ai.DefaultBreakerSettings("llm-"+cfg.LLM.Provider), logger)
	a.Flows = ai.NewFlows(guarded, a.Metrics, time.Duration(cfg.LLM.TimeoutSeconds)*time.Second)

	a.Screener = vision.PassThrough{}
	if cfg.Vision.Enabled {
		a.classifier = vision.NewClassifier(cfg.Vision.ModelPath, cfg.Vision.LabelsPath, cfg.Vision.ONNXSharedLibPath, cfg.Vision.TopK)
		a.Screener = vision.NewLabelScreener(a.classifier, cfg.Vision.AcceptLabels)
		logger.Info("photo prescreen enabled", zap.String("model", cfg.Vision.ModelPath), zap.Strings("accept", cfg.Vision.AcceptLabels))
	}

	return a, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Worker != nil {
		a.Worker.Close()
	}
	if a.classifier != nil {
		a.classifier.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if err := database.Close(a.DB); err != nil {
		closeErr = err
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return closeErr
}
