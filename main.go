package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"retailtasks/config"
	"retailtasks/database"
	"retailtasks/handlers"
	"retailtasks/jobs"
	"retailtasks/logging"
	repository "retailtasks/repositories"
	routes "retailtasks/routes"
	services "retailtasks/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Logger.Fatalf("Event ID: CONFIG_INVALID, Description: %v", err)
	}

	logging.InitLogger(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel})
	log := logging.Logger

	clientOptions := options.Client().ApplyURI(cfg.MongoURI)
	client, err := mongo.Connect(context.TODO(), clientOptions)
	if err != nil {
		log.Fatalf("Event ID: MONGO_CONNECT_FAILED, Description: %v", err)
	}
	defer func() {
		if err := client.Disconnect(context.TODO()); err != nil {
			log.Errorf("Event ID: MONGO_DISCONNECT_FAILED, Description: %v", err)
		}
	}()

	// Set a timeout for the ping operation
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatalf("Event ID: MONGO_PING_FAILED, Description: %v", err)
	}
	log.Info("Event ID: MONGO_CONNECTED, Description: Successfully connected to MongoDB")

	checkIfReplicaSet(client)

	db := client.Database(cfg.DatabaseName)

	if err := database.CreateIndexes(db); err != nil {
		log.Warnf("Event ID: INDEX_SETUP_INCOMPLETE, Description: %v", err)
	}

	// Repositories
	companyRepo := repository.NewCompanyRepository(db)
	userRepo := repository.NewUserRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	requestRepo := repository.NewChangeRequestRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	imageRepo := repository.NewImageRepository(db)

	// Services
	analyticsService := services.NewAnalyticsService(analyticsRepo, userRepo, departmentRepo)
	notificationService := services.NewNotificationService(notificationRepo)
	departmentService := services.NewDepartmentService(departmentRepo)
	imageService := services.NewImageService(imageRepo)
	companyService := services.NewCompanyService(companyRepo, analyticsService)
	userService := services.NewUserService(userRepo, companyRepo, analyticsService, services.TokenConfig{
		Secret: cfg.JWTSecret,
		TTL:    cfg.TokenTTL,
	})
	taskService := services.NewTaskService(
		taskRepo,
		historyRepo,
		commentRepo,
		userRepo,
		departmentService,
		analyticsService,
		notificationService,
		imageService,
	)
	commentService := services.NewCommentService(commentRepo, taskRepo)
	messageService := services.NewMessageService(messageRepo, userRepo, notificationService)
	scheduleService := services.NewScheduleService(scheduleRepo)
	requestService := services.NewRequestService(requestRepo)

	handler := routes.SetupRoutes(routes.Handlers{
		Companies:     handlers.NewCompanyHandler(companyService),
		Users:         handlers.NewUserHandler(userService),
		Departments:   handlers.NewDepartmentHandler(departmentService),
		Tasks:         handlers.NewTaskHandler(taskService, commentService),
		Images:        handlers.NewImageHandler(imageService),
		Notifications: handlers.NewNotificationHandler(notificationService),
		Messages:      handlers.NewMessageHandler(messageService),
		Schedules:     handlers.NewScheduleHandler(scheduleService),
		Requests:      handlers.NewRequestHandler(requestService),
		Analytics:     handlers.NewAnalyticsHandler(analyticsService),
	}, routes.Options{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		LoginRateLimit: cfg.LoginRateLimit,
	})

	scheduler := jobs.NewScheduler(time.Local, companyRepo, analyticsService, taskRepo)
	if err := scheduler.Register(cfg.RolloverSpec); err != nil {
		log.Fatalf("Event ID: SCHEDULER_INVALID, Description: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Infof("Event ID: SERVER_STARTING, Description: Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Event ID: SERVER_FAILED, Description: %v", err)
		}
	}()

	<-shutdown.Done()
	log.Info("Event ID: SERVER_STOPPING, Description: shutting down")

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer drainCancel()
	if err := server.Shutdown(drainCtx); err != nil {
		log.Errorf("Event ID: SERVER_SHUTDOWN_FAILED, Description: %v", err)
	}
}

func checkIfReplicaSet(client *mongo.Client) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var result bson.M
	// Use the newer "hello" command instead of deprecated "isMaster"
	err := client.Database("admin").RunCommand(ctx, bson.M{"hello": 1}).Decode(&result)

	if err != nil {
		logging.Logger.Warnf("Event ID: REPLICA_CHECK_FAILED, Description: %v", err)
		return false
	}

	if setName, exists := result["setName"]; exists {
		logging.Logger.Infof("Event ID: REPLICA_SET, Description: Part of replica set: %v", setName)
		return true
	}

	logging.Logger.Info("Event ID: REPLICA_SET, Description: Not part of a replica set")
	return false
}
