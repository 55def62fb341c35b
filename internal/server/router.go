package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/MarcoPoloResearchLab/clipstore/internal/auth"
	"github.com/MarcoPoloResearchLab/clipstore/internal/catalog"
	"github.com/MarcoPoloResearchLab/clipstore/internal/metrics"
	"github.com/MarcoPoloResearchLab/clipstore/internal/search"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const identityContextKey = "clipstore_identity"

var (
	errMissingCatalog        = errors.New("catalog dependency required")
	errMissingSearcher       = errors.New("search engine dependency required")
	errMissingTokenIssuer    = errors.New("token issuer dependency required")
	errMissingSessionChecker = errors.New("session validator dependency required")
	errMissingPasswordHasher = errors.New("password hasher dependency required")
)

// Searcher ranks videos for a query.
type Searcher interface {
	Search(query search.Query) []search.Result
}

// TokenIssuer signs session tokens after login or registration.
type TokenIssuer interface {
	IssueToken(identity auth.Identity) (string, int64, error)
}

// SessionValidator authenticates requests.
type SessionValidator interface {
	ValidateRequest(r *http.Request) (auth.SessionClaims, error)
}

// PasswordHasher hashes and checks account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// Dependencies wires the HTTP handler.
type Dependencies struct {
	Catalog     *catalog.Store
	Search      Searcher
	Tokens      TokenIssuer
	Sessions    SessionValidator
	Passwords   PasswordHasher
	Realtime    *RealtimeDispatcher
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	Clock       func() time.Time
	CORSOrigins []string
	// SearchRatePerSecond of zero disables search rate limiting.
	SearchRatePerSecond float64
	SearchBurst         int
	HeartbeatInterval   time.Duration
}

// NewHTTPHandler builds the gin router for the catalog API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Catalog == nil {
		return nil, errMissingCatalog
	}
	if deps.Search == nil {
		return nil, errMissingSearcher
	}
	if deps.Tokens == nil {
		return nil, errMissingTokenIssuer
	}
	if deps.Sessions == nil {
		return nil, errMissingSessionChecker
	}
	if deps.Passwords == nil {
		return nil, errMissingPasswordHasher
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	dispatcher := deps.Realtime
	if dispatcher == nil {
		dispatcher = NewRealtimeDispatcher()
	}
	collectors := deps.Metrics
	if collectors == nil {
		collectors = metrics.New()
	}
	heartbeat := deps.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeatInterval
	}

	handler := &httpHandler{
		catalog:   deps.Catalog,
		search:    deps.Search,
		tokens:    deps.Tokens,
		sessions:  deps.Sessions,
		passwords: deps.Passwords,
		realtime:  dispatcher,
		metrics:   collectors,
		logger:    logger,
		clock:     clock,
		heartbeat: heartbeat,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(requestLoggingMiddleware(logger))
	router.Use(metricsMiddleware(collectors))
	router.Use(corsMiddleware(deps.CORSOrigins))

	searchLimiter := newClientRateLimiter(deps.SearchRatePerSecond, deps.SearchBurst)

	router.GET("/healthz", handler.handleHealth)
	router.GET("/metrics", gin.WrapH(collectors.Handler()))

	public := router.Group("/")
	public.Use(handler.identifyRequest)
	public.POST("/auth/register", handler.handleRegister)
	public.POST("/auth/login", handler.handleLogin)
	public.GET("/categories", handler.handleListCategories)
	public.GET("/search", handler.rateLimit(searchLimiter), handler.handleSearch)
	public.GET("/videos", handler.handleListVideos)
	public.GET("/videos/:id", handler.handleGetVideo)
	public.GET("/videos/:id/comments", handler.handleListComments)
	public.GET("/users", handler.handleListUsers)
	public.GET("/users/:id", handler.handleGetUser)
	public.GET("/users/:id/videos", handler.handleListUserVideos)
	public.GET("/users/:id/playlists", handler.handleListUserPlaylists)
	public.GET("/playlists/:id", handler.handleGetPlaylist)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.GET("/me", handler.handleGetProfile)
	protected.PATCH("/me", handler.handleUpdateProfile)
	protected.PUT("/me/location", handler.handleUpdateLocation)
	protected.GET("/me/history", handler.handleGetHistory)
	protected.DELETE("/me/history", handler.handleClearHistory)
	protected.GET("/me/liked", handler.handleListLiked)
	protected.GET("/me/saved", handler.handleListSaved)
	protected.GET("/me/trash", handler.handleListTrash)
	protected.GET("/me/subscriptions", handler.handleListSubscriptions)
	protected.GET("/events", handler.handleEvents)

	protected.POST("/videos", handler.handleCreateVideo)
	protected.PATCH("/videos/:id", handler.handleUpdateVideo)
	protected.DELETE("/videos/:id", handler.handleSoftDeleteVideo)
	protected.POST("/videos/:id/restore", handler.handleRestoreVideo)
	protected.DELETE("/videos/:id/permanent", handler.handlePermanentDelete)
	protected.POST("/videos/:id/like", handler.handleLike)
	protected.POST("/videos/:id/dislike", handler.handleDislike)
	protected.POST("/videos/:id/save", handler.handleToggleSave)
	protected.GET("/videos/:id/progress", handler.handleGetProgress)
	protected.PUT("/videos/:id/progress", handler.handleSaveProgress)
	protected.POST("/videos/:id/ad-impressions", handler.handleAdImpression)
	protected.POST("/videos/:id/promotion", handler.handleRequestPromotion)
	protected.POST("/videos/:id/promotion/resolve", handler.handleResolvePromotion)
	protected.POST("/videos/:id/comments", handler.handleCreateComment)
	protected.DELETE("/comments/:id", handler.handleDeleteComment)

	protected.POST("/users/:id/subscription", handler.handleSubscribe)
	protected.DELETE("/users/:id/subscription", handler.handleUnsubscribe)

	protected.POST("/playlists", handler.handleCreatePlaylist)
	protected.PATCH("/playlists/:id", handler.handleUpdatePlaylist)
	protected.DELETE("/playlists/:id", handler.handleDeletePlaylist)
	protected.POST("/playlists/:id/videos", handler.handleAddToPlaylist)
	protected.DELETE("/playlists/:id/videos/:position", handler.handleRemoveFromPlaylist)

	return router, nil
}

type httpHandler struct {
	catalog   *catalog.Store
	search    Searcher
	tokens    TokenIssuer
	sessions  SessionValidator
	passwords PasswordHasher
	realtime  *RealtimeDispatcher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	clock     func() time.Time
	heartbeat time.Duration
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// identifyRequest attaches the caller identity when a session is presented.
// Anonymous requests pass; a presented but invalid session is rejected.
func (h *httpHandler) identifyRequest(c *gin.Context) {
	if c.GetHeader("Authorization") == "" && !h.hasSessionCookie(c) {
		c.Next()
		return
	}
	h.authorizeRequest(c)
}

func (h *httpHandler) hasSessionCookie(c *gin.Context) bool {
	named, ok := h.sessions.(interface{ CookieName() string })
	if !ok || named.CookieName() == "" {
		return false
	}
	_, err := c.Cookie(named.CookieName())
	return err == nil
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	claims, err := h.sessions.ValidateRequest(c.Request)
	if err != nil {
		h.logger.Warn("session validation failed", zap.Error(err), zap.String("request_id", requestIDFrom(c)))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(identityContextKey, claims.Identity())
	c.Next()
}

func identityFrom(c *gin.Context) (auth.Identity, bool) {
	value, ok := c.Get(identityContextKey)
	if !ok {
		return auth.Identity{}, false
	}
	identity, ok := value.(auth.Identity)
	return identity, ok
}

// viewerID is zero for anonymous callers.
func viewerID(c *gin.Context) catalog.UserID {
	identity, _ := identityFrom(c)
	return identity.UserID
}

func mustIdentity(c *gin.Context) (auth.Identity, bool) {
	identity, ok := identityFrom(c)
	if !ok || identity.UserID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return auth.Identity{}, false
	}
	return identity, true
}

func canManage(identity auth.Identity, owner catalog.UserID) bool {
	return identity.UserID == owner || identity.IsAdmin()
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	value, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || value <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_" + name})
		return 0, false
	}
	return value, true
}

func parseQueryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_" + name})
		return 0, false
	}
	return value, true
}
