package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/n-zngr/recipes-app/internal/handler"
	"github.com/n-zngr/recipes-app/internal/household"
	"github.com/n-zngr/recipes-app/internal/middleware"
	"github.com/n-zngr/recipes-app/internal/push"
	"github.com/n-zngr/recipes-app/internal/recommend"
	"github.com/n-zngr/recipes-app/internal/store"
	ws "github.com/n-zngr/recipes-app/internal/websocket"
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	svc          *household.Service
	authH        *handler.AuthHandler
	householdH   *handler.HouseholdHandler
	ingredientH  *handler.IngredientHandler
	recipeH      *handler.RecipeHandler
	pushH        *handler.PushHandler
	sessionStore *store.SessionStore
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

// New wires the stores, services, and handlers. engine and pushSvc may be
// nil when their features are not configured.
func New(db *sql.DB, engine *recommend.Engine, pushSvc *push.Service, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	householdStore := store.NewHouseholdStore(db)
	sessionStore := store.NewSessionStore(db)
	pushStore := store.NewPushStore(db)

	svc := household.NewService(householdStore, userStore, logger.With("component", "household"))

	var pushH *handler.PushHandler
	if pushSvc != nil {
		pushH = handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push"))
	}

	return &Server{
		db:           db,
		hub:          hub,
		svc:          svc,
		authH:        handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		householdH:   handler.NewHouseholdHandler(svc, hub, logger.With("component", "household_handler")),
		ingredientH:  handler.NewIngredientHandler(svc, hub, pushStore, pushSvc, logger.With("component", "ingredient")),
		recipeH:      handler.NewRecipeHandler(engine),
		pushH:        pushH,
		sessionStore: sessionStore,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes, wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /auth", s.authH.Check)
	mux.HandleFunc("POST /logout", s.authH.Logout)

	// Household API routes
	mux.HandleFunc("POST /api/households", s.householdH.Create)
	mux.HandleFunc("GET /api/households", s.householdH.List)
	mux.HandleFunc("GET /api/households/{id}/users", s.householdH.Users)
	mux.HandleFunc("GET /api/households/{id}/admin", s.householdH.AdminCheck)
	mux.HandleFunc("POST /api/households/{id}/members", s.householdH.AddMember)
	mux.HandleFunc("POST /api/households/{id}/members/{user_id}/promote", s.householdH.Promote)
	mux.HandleFunc("POST /api/households/{id}/members/{user_id}/demote", s.householdH.Demote)

	// Recipe recommendations
	mux.HandleFunc("POST /api/recommend", s.recipeH.Recommend)

	// Ingredient API routes
	mux.HandleFunc("GET /api/households/{id}/ingredients", s.ingredientH.List)
	mux.HandleFunc("POST /api/households/{id}/ingredients", s.ingredientH.Create)

	// Push notification API routes
	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	}

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.svc, s.logger.With("component", "websocket")))
}
