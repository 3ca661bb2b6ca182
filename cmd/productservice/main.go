package main // product service entry point

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/shop-control/internal/config"
	"github.com/iliyamo/shop-control/internal/database"
	"github.com/iliyamo/shop-control/internal/handler"
	"github.com/iliyamo/shop-control/internal/repository"
	"github.com/iliyamo/shop-control/internal/router"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	products := repository.NewProductRepo(db)
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterProductRoutes(e, cfg, handler.NewProductHandler(products), rdb)

	addr := ":" + cfg.Port
	log.Printf("product service listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
