package main // user service entry point

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/shop-control/internal/client"
	"github.com/iliyamo/shop-control/internal/config"
	"github.com/iliyamo/shop-control/internal/database"
	"github.com/iliyamo/shop-control/internal/handler"
	"github.com/iliyamo/shop-control/internal/queue"
	"github.com/iliyamo/shop-control/internal/repository"
	"github.com/iliyamo/shop-control/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly

	cfg := config.LoadUserService()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	users := repository.NewUserRepo(db)
	products := client.NewProductClient(cfg.ProductServiceURL)
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting disabled")
	}

	// Mail events (confirmation / reset links) are consumed in the
	// background and appended to logs/mail.log.
	go func() {
		if err := queue.StartMailConsumer(); err != nil {
			log.Printf("mail consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterUserRoutes(e, cfg, handler.NewAuthHandler(cfg, users), handler.NewUserHandler(cfg, users, products), rdb)

	addr := ":" + cfg.Port
	log.Printf("user service listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
