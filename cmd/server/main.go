package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/benbeisheim/movecheck-backend/internal/controller"
	"github.com/benbeisheim/movecheck-backend/internal/middleware"
	"github.com/benbeisheim/movecheck-backend/internal/service"
	"github.com/benbeisheim/movecheck-backend/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

var (
	addr     = flag.String("addr", ":3000", "Address to listen on")
	origins  = flag.String("origins", "http://localhost:5173", "Comma-separated list of allowed origins")
	dataDir  = flag.String("data", "data", "Directory for the board database")
	inMemory = flag.Bool("inmem", false, "Keep boards in memory only")
)

func main() {
	flag.Parse()

	store, err := openStore()
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}
	defer store.Close()

	app := fiber.New()

	allowed := splitOrigins(*origins)
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(allowed, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, " + middleware.ClientIDHeader,
		AllowMethods: "GET, POST, DELETE, OPTIONS",
		// fiber refuses credentials together with a wildcard origin
		AllowCredentials: allowed[0] != "*",
	}))
	app.Use(middleware.RequestLogger())

	// Initialize services
	gameManager := service.NewGameManager(store)
	gameService := service.NewGameService(gameManager)

	controller.SetupRoutes(app, gameService, allowed)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("shutting down")
		if err := app.Shutdown(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	if err := app.Listen(*addr); err != nil {
		log.Printf("listen: %v", err)
	}
}

func openStore() (*storage.Store, error) {
	if *inMemory {
		return storage.OpenInMemory()
	}
	if err := os.MkdirAll(*dataDir, 0755); err != nil {
		return nil, err
	}
	return storage.Open(*dataDir)
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		out = []string{"*"}
	}
	return out
}
