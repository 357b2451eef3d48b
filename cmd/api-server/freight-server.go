package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	"freightboard/db"
	"freightboard/db/migrations"
	"freightboard/internal/access"
	"freightboard/internal/auth"
	"freightboard/internal/bidflow"
	"freightboard/internal/feed"
	"freightboard/internal/handlers"
	"freightboard/internal/notify"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	connString := os.Getenv("POSTGRES_CONN")
	if connString == "" {
		log.Fatal("POSTGRES_CONN env variable is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET env variable is not set")
	}

	dbConn, err := sqlx.Connect("postgres", connString)
	if err != nil {
		log.Fatalf("Cannot connect to DB: %v", err)
	}
	defer dbConn.Close()

	migrations.Run()

	store := db.NewStorage(dbConn)
	gate := access.NewGate(access.DefaultTiers(), store)
	notifier := notify.NewNotifier(store)
	flow := bidflow.NewCoordinator(store, gate, notifier)

	events, err := feed.NewListener(connString)
	if err != nil {
		log.Fatalf("Cannot start bid event listener: %v", err)
	}
	defer events.Close()

	h := handlers.NewHandler(store, gate, flow, notifier, events)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	origins := []string{"*"}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins = strings.Split(v, ",")
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(jwtSecret))

			// loads
			r.Post("/loads", h.CreateLoadHandler)
			r.Get("/loads", h.GetLoadsHandler)
			r.Get("/loads/my", h.GetMyLoadsHandler)
			r.Get("/loads/{loadId}", h.GetLoadHandler)
			r.Patch("/loads/{loadId}", h.EditLoadHandler)
			r.Get("/loads/{loadId}/bids", h.LoadBidsHandler)
			r.Get("/loads/{loadId}/bids/stream", h.StreamLoadBidsHandler)

			// bids
			r.Post("/bids", h.CreateBidHandler)
			r.Get("/bids", h.GetBidsHandler)
			r.Post("/bids/accept-fixed-rate", h.AcceptFixedRateHandler)
			r.Patch("/bids/{bidId}", h.UpdateBidStatusHandler)
			r.Patch("/bids/{bidId}/update", h.UpdateBidAmountHandler)
			r.Post("/bids/{bidId}/undo", h.UndoBidStatusHandler)
			r.Delete("/bids/{bidId}", h.DeleteBidHandler)

			// notifications
			r.Get("/notifications", h.GetNotificationsHandler)
			r.Post("/notifications/{notificationId}/read", h.MarkNotificationReadHandler)
		})
	})

	serverAddr := os.Getenv("SERVER_ADDRESS")
	if serverAddr == "" {
		serverAddr = "0.0.0.0:8080"
	}

	log.Printf("Starting server on %s", serverAddr)
	log.Fatal(http.ListenAndServe(serverAddr, r))
}
