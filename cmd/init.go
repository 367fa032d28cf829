package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/commands"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/processors"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/query"
	ai "github.com/sitesmith-ai/sitesmith-backend/internal/infra/client/openai"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/config"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/mail"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/storage"
	"github.com/sitesmith-ai/sitesmith-backend/internal/presentation/rest"
	"github.com/sitesmith-ai/sitesmith-backend/internal/presentation/scheduler"
	"github.com/sitesmith-ai/sitesmith-backend/pkg/db"
)

func Init() {
	// DB
	dbConfig := db.NewConfig()
	pool, err := pgxpool.New(context.Background(), dbConfig.GetDSN())
	if err != nil {
		log.Panicf("failed to create pool: %v", err)
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Panicf("failed to connect to db: %v", err)
	}
	uowFactory := db.NewUoWFactory(pool)

	// Configs
	workflowConfig := config.NewWorkflowConfig()
	mailConfig := mail.NewMailConfig()
	paymentConfig := commands.NewPaymentConfig()
	outboxConfig := scheduler.NewOutboxConfig()

	mailServer := mail.NewMailServer(mailConfig)
	renderer := ai.NewOpenAIClient(ai.NewOpenAIConfig())

	// AWS
	cfg, err := awsConfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Panic("can't load aws config", err)
	}
	s3 := storage.NewStorage(cfg)

	initialPurchase := commands.NewInitialPurchase(uowFactory)
	handlers := &application.Handlers{
		CreateRequest:  commands.NewCreateRequest(uowFactory, workflowConfig),
		ApproveRequest: commands.NewApproveRequest(uowFactory, s3, workflowConfig),
		RejectRequest:  commands.NewRejectRequest(uowFactory),
		Payment:        commands.NewPayment(uowFactory, initialPurchase, paymentConfig),
		GetPending:     query.NewGetPending(uowFactory, workflowConfig),
		GetReview:      query.NewGetReview(uowFactory),
	}
	eventProcessors := &application.Processors{
		RegenerateWebsite: processors.NewRegenerateWebsite(uowFactory, renderer, workflowConfig),
		SendMail:          commands.NewSendMail(mailServer, mailConfig, uowFactory),
	}

	handler := rest.NewServer(handlers)
	app := fiber.New(fiber.Config{
		IdleTimeout: 5 * time.Second,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))
	rest.RegisterHandlers(app, handler)

	outboxPoller := scheduler.NewOutboxPoller(eventProcessors, uowFactory, outboxConfig)
	go outboxPoller.Start()

	go func() {
		if err := app.Listen(":8080"); err != nil {
			log.Panic(err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c
	fmt.Println("Gracefully shutting down...")
	_ = app.Shutdown()
	outboxPoller.Stop()

	fmt.Println("Running cleanup tasks...")

	uowFactory.Pool.Close()
	fmt.Println("Fiber was successfully shutdown.")
}
