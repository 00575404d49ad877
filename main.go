package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"portfolio-site/internal/auth"
	"portfolio-site/internal/cache"
	"portfolio-site/internal/config"
	"portfolio-site/internal/constants"
	"portfolio-site/internal/content"
	"portfolio-site/internal/controllers"
	"portfolio-site/internal/database"
	"portfolio-site/internal/editor"
	"portfolio-site/internal/environment"
	"portfolio-site/internal/housekeeping"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/media"
	"portfolio-site/internal/routes"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapio"
)

const housekeepingTimeout = 5 * time.Minute

// dependencies holds what main needs beyond the controllers to run and shut down
type dependencies struct {
	registry    map[int]any
	store       *cache.Store
	housekeeper housekeeping.Housekeeper
}

func main() {
	color.New(color.FgCyan, color.Bold).Println("portfolio-site API")

	c := config.InitConfig()

	logger := logging.InitLogging(c)

	deps, err := injectDependencies(c, logger)
	if err != nil {
		logger.LogErrorf(logging.GetLogTypeInitialization(), "injecting depencies failed: %s", err.Error())
		return
	}

	ginLogger := logging.InitGinLogger(c)

	gin.DefaultWriter = io.MultiWriter(&zapio.Writer{Log: ginLogger, Level: c.Logging.Level})
	gin.DefaultErrorWriter = logger.Writer(zap.ErrorLevel)
	if c.Logging.Level == zap.DebugLevel {
		logger.LogDebug(logging.GetLogTypeInitialization(), "Enabling Gin debug (writes to access log)")
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		ginzap.GinzapWithConfig(ginLogger, &ginzap.Config{
			TimeFormat: time.RFC3339,
			UTC:        false,
			SkipPaths:  []string{"/status", "/heartbeat", "/metrics"},
		}),
		ginzap.RecoveryWithZap(ginLogger, true),
	)

	// Routes
	routes.InitRouter(r, deps.registry, c.Cors.AllowedOrigin, logger)

	scheduler, err := housekeeping.Schedule(c.Housekeeping.Schedule, deps.housekeeper, logger, housekeepingTimeout)
	if err != nil {
		logger.LogErrorf(logging.GetLogTypeInitialization(), "scheduling housekeeping failed: %v", err)
		return
	}

	SetupCloseHandler(logger, scheduler, deps.store)
	go func() {
		defer logger.RecoverPanic("housekeeping on startup")
		// clean up once on startup
		ctx, cancel := context.WithTimeout(context.Background(), housekeepingTimeout)
		defer cancel()
		if err := deps.housekeeper.Run(ctx); err != nil {
			logger.LogErrorf(logging.GetLogTypeHousekeeping(), "housekeeping on startup failed: %v", err)
		}
	}()

	if len(config.Config().ListeningAddress) == 0 && len(config.Config().ListeningPort) == 0 {
		panic("No listening address/port provided")
	}

	logger.LogInfof(logging.GetLogTypeInitialization(), "API running. Listening on %s:%s", config.Address(), config.Port())

	err = r.Run(config.Address() + ":" + config.Port())
	if err != nil {
		logger.LogErrorf(logging.GetLogTypeInitialization(), "Listening on %s:%s failed: %s", config.Address(), config.Port(), err.Error())
		return
	}
}

func injectDependencies(config *config.Configuration, logger logging.Logger) (*dependencies, error) {
	db, err := database.InitDatabase(config, logger)
	if err != nil {
		logger.LogError(logging.GetLogTypeInitialization(), "error initializing database: ", err)
		return nil, err
	}

	repository := &database.GormRepository{DB: db}
	env := environment.Environment(
		repository,
		logger,
	)

	store, err := cache.New(config.Cache.MaxEntries, config.Cache.Ttl, repository)
	if err != nil {
		logger.LogErrorf(logging.GetLogTypeInitialization(), "Error initializing cache: %v", err)
		return nil, err
	}

	authService := &auth.AuthService{
		Env: env,
		Tokens: auth.TokenIssuer{
			SigningKey: []byte(config.Auth.SigningKey),
			Lifetime:   config.Auth.TokenLifetime,
		},
		DenyList: store,
	}
	if err = authService.EnsureAdmin(context.Background(), config.Auth.AdminUsername, config.Auth.AdminPasswordHash); err != nil {
		logger.LogErrorf(logging.GetLogTypeInitialization(), "Error creating admin user: %v", err)
		return nil, err
	}

	uploader := media.NewCloudinaryUploader(config)
	workspace := editor.NewWorkspace(env, uploader, store)

	authController := &auth.Controller{
		Env:         env,
		AuthService: authService,
		Sessions:    workspace,
	}

	contentController := &content.Controller{
		Env: env,
		ContentService: &content.ContentService{
			Env:    env,
			Images: media.NewImageResolver(config.Media.DeliveryUrl, config.Media.CloudName),
		},
		Cache: store,
	}

	editorController := &editor.Controller{
		Env:            env,
		Workspace:      workspace,
		Tags:           editor.NewTagService(env, store),
		MaxUploadBytes: constants.MaxUploadBytes,
	}

	statusController := &controllers.StatusController{
		Started:  time.Now(),
		Sessions: workspace,
	}

	controllerRegistry := make(map[int]any)
	controllerRegistry[constants.Auth] = authController
	controllerRegistry[constants.Content] = contentController
	controllerRegistry[constants.Editor] = editorController
	controllerRegistry[constants.Status] = statusController

	return &dependencies{
		registry:    controllerRegistry,
		store:       store,
		housekeeper: &housekeeping.DefaultHousekeeper{Env: env, Sessions: workspace},
	}, nil
}

func SetupCloseHandler(logger logging.Logger, scheduler *cron.Cron, store *cache.Store) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-c
		fmt.Println()
		logger.LogWarnf(logging.GetLogTypeInitialization(), "Cleaning up...")
		<-scheduler.Stop().Done()
		store.Close()
		os.Exit(1)
	}()
}
