// @title           ServeBeer Pinning API
// @version         1.0
// @host            localhost
// @schemes         http https
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"log"
	"net/http"

	"servebeer/internal/admission"
	"servebeer/internal/api"
	"servebeer/internal/config"
	"servebeer/internal/database"
	"servebeer/internal/ipfs"
	"servebeer/internal/mail"
	"servebeer/internal/status"
	"servebeer/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "servebeer/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Nie można wczytać konfiguracji: %v", err)
	}

	dbpool, err := pgxpool.New(context.Background(), cfg.DB.Source)
	if err != nil {
		log.Fatalf("Nie można połączyć się z bazą danych: %v", err)
	}
	defer dbpool.Close()

	if err := dbpool.Ping(context.Background()); err != nil {
		log.Fatalf("Nie można pingować bazy danych: %v", err)
	}
	log.Println("Pomyślnie połączono z bazą danych")

	wsHub := websocket.NewHub()
	go wsHub.Run()

	store := database.NewStore(dbpool, wsHub)
	ipfsClient := ipfs.NewClient(cfg.IPFS.APIURL, cfg.IPFS.Timeout)
	controller := admission.NewController(ipfsClient, store, cfg.Quota)
	aggregator := status.NewAggregator(ipfsClient, store)
	mailer := &mail.LogMailer{Inbox: cfg.Contact.Inbox}

	server := api.NewServer(cfg, store, ipfsClient, controller, aggregator, mailer, wsHub)

	log.Printf("IPFS API: %s", cfg.IPFS.APIURL)
	if cfg.Quota.TestingMode {
		log.Println("UWAGA: testing mode - limity storage wyłączone")
	}

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(api.MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("https://localhost/swagger/doc.json"),
	))

	r.Get("/ws", server.ServeWsHandler)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ServeBeer IPFS CDN. Dokumentacja dostępna pod /swagger/index.html"))
	})

	r.Post("/api/v1/auth/register", server.RegisterHandler)
	r.Post("/api/v1/auth/login", server.LoginHandler)
	r.Post("/api/v1/auth/refresh", server.RefreshTokenHandler)
	r.Post("/api/v1/auth/logout", server.LogoutHandler)
	r.Post("/api/v1/contact", server.ContactHandler)

	r.Get("/health", server.HealthCheckHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/api/v1/dashboard/network", server.DashboardNetworkHandler)
	r.Get("/api/v1/status/activity", server.StatusActivityHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(server.AuthMiddleware)
		r.Get("/me", server.GetCurrentUserHandler)
		r.Get("/me/storage", server.GetStorageUsageHandler)
		r.Post("/pins", server.PinHandler)
		r.Post("/uploads", server.UploadHandler)
		r.Get("/dashboard/files", server.ListFilesHandler)
		r.Get("/dashboard/stats", server.DashboardStatsHandler)
		r.Get("/dashboard/analytics", server.DashboardAnalyticsHandler)
		r.Get("/dashboard/activity", server.DashboardActivityHandler)
	})

	log.Println("Uruchamianie serwera na porcie :8080")
	if err := http.ListenAndServe(":8080", r); err != nil {
		log.Fatalf("Nie można uruchomić serwera: %v", err)
	}
}
