package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lokalmart/courierd/internal/assetcache"
	"github.com/lokalmart/courierd/internal/clients"
	"github.com/lokalmart/courierd/internal/handler"
	"github.com/lokalmart/courierd/internal/locsync"
	"github.com/lokalmart/courierd/internal/middleware"
	"github.com/lokalmart/courierd/internal/notify"
	"github.com/lokalmart/courierd/internal/push"
	"github.com/lokalmart/courierd/internal/store"
	"github.com/lokalmart/courierd/internal/transport"
	"github.com/lokalmart/courierd/internal/worker"
)

// Config gathers everything the agent needs from the environment.
type Config struct {
	OriginURL   string // marketplace web origin the asset cache installs from
	TrackingURL string // backend tracking endpoint for location sync
	GatewayURL  string // push gateway WebSocket URL
	AccessToken string // bearer token for the push gateway
	APIToken    string // bearer token guarding the local API (empty disables)
	Push        push.Config
}

type Server struct {
	db            *sql.DB
	hub           *clients.Hub
	notifications *store.NotificationStore
	work          *worker.Worker
	cacheManager  *assetcache.Manager
	syncer        *locsync.Syncer
	transportMgr  *transport.Manager
	locationH     *handler.LocationHandler
	pushH         *handler.PushHandler
	cacheH        *handler.CacheHandler
	syncH         *handler.SyncHandler
	notificationH *handler.NotificationHandler
	clickH        *handler.ClickHandler
	tokenAuth     *middleware.TokenAuth
	rateLimiter   *middleware.RateLimiter
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) (*Server, error) {
	hub := clients.NewHub(logger.With("component", "clients"))
	work := worker.New(logger.With("component", "worker"))

	locationStore := store.NewLocationStore(db)
	assetStore := store.NewAssetStore(db)
	pushStore := store.NewPushStore(db)
	notificationStore := store.NewNotificationStore(db)

	pushLogger := logger.With("component", "push")

	// Display sink: relay to browser subscriptions when VAPID keys are
	// configured, otherwise log only.
	var notifier notify.Notifier
	var pushSvc *push.Service
	var pushH *handler.PushHandler
	if cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey)
		notifier = push.NewRelay(pushSvc, pushStore, pushLogger)
		pushH = handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler"))
	} else {
		notifier = notify.NewLogNotifier(pushLogger)
	}

	cacheMgr := assetcache.NewManager(
		assetcache.Config{OriginURL: cfg.OriginURL},
		assetStore,
		logger.With("component", "assetcache"),
	)
	syncer := locsync.NewSyncer(
		locsync.Config{EndpointURL: cfg.TrackingURL},
		locationStore,
		logger.With("component", "locsync"),
	)
	dispatcher := notify.NewDispatcher(notifier, notificationStore, logger.With("component", "notify"))
	clicker := notify.NewClickHandler(notifier, hub, logger.With("component", "click"))

	// The dispatch table is built once here; handlers by event kind.
	work.Register(worker.KindInstall, cacheMgr.HandleInstall)
	work.Register(worker.KindActivate, cacheMgr.HandleActivate)
	work.Register(worker.KindPush, dispatcher.HandlePush)
	work.Register(worker.KindNotificationClick, clicker.HandleClick)
	work.Register(worker.KindSync, syncer.HandleSync)

	transportMgr := transport.NewManager(
		transport.Config{GatewayURL: cfg.GatewayURL, AccessToken: cfg.AccessToken},
		work,
		logger.With("component", "transport"),
	)

	tokenAuth, err := middleware.NewTokenAuth(cfg.APIToken)
	if err != nil {
		return nil, fmt.Errorf("configure api token: %w", err)
	}

	return &Server{
		db:            db,
		hub:           hub,
		notifications: notificationStore,
		work:          work,
		cacheManager:  cacheMgr,
		syncer:        syncer,
		transportMgr:  transportMgr,
		locationH:     handler.NewLocationHandler(locationStore, logger.With("component", "location")),
		pushH:         pushH,
		cacheH:        handler.NewCacheHandler(cacheMgr, work, logger.With("component", "cache")),
		syncH:         handler.NewSyncHandler(work, logger.With("component", "sync")),
		notificationH: handler.NewNotificationHandler(notificationStore, logger.With("component", "notification")),
		clickH:        handler.NewClickHandler(work, logger.With("component", "click_handler")),
		tokenAuth:     tokenAuth,
		rateLimiter:   middleware.NewRateLimiter(),
		logger:        logger,
	}, nil
}

// Worker returns the event worker for shutdown coordination.
func (s *Server) Worker() *worker.Worker {
	return s.work
}

// Transport returns the push-gateway transport manager.
func (s *Server) Transport() *transport.Manager {
	return s.transportMgr
}

// CacheManager returns the asset cache manager for the startup install.
func (s *Server) CacheManager() *assetcache.Manager {
	return s.cacheManager
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// NotificationStore returns the notification log for cleanup tasks.
func (s *Server) NotificationStore() *store.NotificationStore {
	return s.notifications
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("GET /assets/{path...}", s.cacheH.Asset)
	outerMux.HandleFunc("GET /ws", clients.HandleWebSocket(s.hub, s.logger.With("component", "ws")))

	// API routes, guarded by the bearer token when one is configured
	apiMux := http.NewServeMux()
	s.registerAPIRoutes(apiMux)
	outerMux.Handle("/api/", s.tokenAuth.Require(apiMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) registerAPIRoutes(mux *http.ServeMux) {
	// Location update queue; the enqueue endpoint is rate limited since
	// GPS callers can misbehave.
	enqueue := middleware.RateLimit(s.rateLimiter, middleware.RealIP, 120, time.Minute)
	mux.Handle("POST /api/location-updates", enqueue(http.HandlerFunc(s.locationH.Enqueue)))
	mux.HandleFunc("GET /api/location-updates", s.locationH.List)

	// Sync + cache triggers
	mux.HandleFunc("POST /api/sync/delivery-location", s.syncH.TriggerLocationSync)
	mux.HandleFunc("POST /api/cache/install", s.cacheH.Install)

	// Notification log + click reports
	mux.HandleFunc("GET /api/notifications", s.notificationH.List)
	mux.HandleFunc("POST /api/notifications/click", s.clickH.Click)

	// Browser relay registration
	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	}
}
