package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/okravets/coffeehouse/internal/config"
	"github.com/okravets/coffeehouse/internal/es"
	"github.com/okravets/coffeehouse/internal/handlers"
	"github.com/okravets/coffeehouse/internal/logging"
	"github.com/okravets/coffeehouse/internal/mail"
	loggingmw "github.com/okravets/coffeehouse/internal/middleware/logging"
	"github.com/okravets/coffeehouse/internal/mykafka"
	"github.com/okravets/coffeehouse/internal/service/token"
	"github.com/okravets/coffeehouse/internal/session"
	httpserver "github.com/okravets/coffeehouse/internal/transport/http"
)

const dishIndex = "dishes"

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	redisClient := redis.NewClient(&redis.Options{Addr: configuration.REDIS_ADDRESS})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancelPing()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Fatalf("redis ping error: %v", err)
	}
	sessionStore := session.NewRedisStore(redisClient, 14*24*time.Hour)

	prod, err := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	if err != nil {
		log.Fatal(err)
	}

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatal(err)
	}

	sender, err := mail.NewSMTPSender(
		configuration.SMTP_HOST,
		configuration.SMTP_PORT,
		configuration.SMTP_USER,
		configuration.SMTP_PASSWORD,
		configuration.CONTACT_EMAIL,
	)
	if err != nil {
		log.Fatal(err)
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(session.Middleware())

	deps := httpserver.Deps{
		DB:                 db,
		AuthHandler:        &handlers.AuthHandler{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret, Producer: prod},
		CatalogHandler:     &handlers.CatalogHandler{DB: db, Producer: prod, ES: esClient, Index: dishIndex},
		BlogHandler:        &handlers.BlogHandler{DB: db, Producer: prod, JWTSecret: jwtSecret},
		CartHandler:        &handlers.CartHandler{DB: db, Store: sessionStore, Producer: prod},
		CheckoutHandler:    &handlers.CheckoutHandler{DB: db, Store: sessionStore, Producer: prod, JWTSecret: jwtSecret},
		ReservationHandler: &handlers.ReservationHandler{DB: db, Store: sessionStore, Producer: prod},
		ManagerHandler:     &handlers.ManagerHandler{DB: db, Producer: prod},
		ContactHandler:     &handlers.ContactHandler{Sender: sender},
		SearchHandler:      &handlers.SearchHandler{ES: esClient, Index: dishIndex},
		TokenService:       &token.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("redis close error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
