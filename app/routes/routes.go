package routes

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"techporium/app/controllers"
	"techporium/app/middleware"
	"techporium/app/views"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// Options configures the router.
type Options struct {
	Posts    *controllers.PostController
	Comments *controllers.CommentController
	Logger   *slog.Logger
	// AllowedOrigins may call the comment API from a browser. When empty no
	// CORS headers are sent and cross-origin calls are refused.
	AllowedOrigins []string
}

// SetupRoutes defines the application's routes and returns a router.
func SetupRoutes(opts Options) *mux.Router {
	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(opts.Logger))
	router.Use(middleware.Recoverer(opts.Logger))
	router.Use(middleware.Metrics)

	// Operational endpoints
	router.HandleFunc("/healthz", health).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Serve static files
	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", views.Static())).Methods("GET", "HEAD")

	// Web routes
	router.HandleFunc("/", opts.Posts.Index).Methods("GET")
	router.HandleFunc("/post/{slug}", opts.Posts.Show).Methods("GET")
	router.HandleFunc("/post/{slug}/comment", opts.Comments.SubmitForm).Methods("POST")

	// API routes with JSON content type
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)
	methods := []string{"POST"}
	// Cross-origin calls are refused unless origins are configured
	if len(opts.AllowedOrigins) > 0 {
		api.Use(cors.New(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{"POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		}).Handler)
		methods = append(methods, "OPTIONS")
	}
	api.HandleFunc("/createComment", opts.Comments.Create).Methods(methods...)

	router.NotFoundHandler = middleware.RequestID(http.HandlerFunc(opts.Posts.NotFound))

	return router
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
