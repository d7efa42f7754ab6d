package http

import (
	"context"
	"log/slog"

	"github.com/geocoder89/postboard/internal/auth"
	"github.com/geocoder89/postboard/internal/cache"
	"github.com/geocoder89/postboard/internal/config"
	"github.com/geocoder89/postboard/internal/domain/user"
	"github.com/geocoder89/postboard/internal/http/handlers"
	"github.com/geocoder89/postboard/internal/http/middlewares"
	"github.com/geocoder89/postboard/internal/observability"
	"github.com/geocoder89/postboard/internal/voting"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type UsersRepo interface {
	Create(ctx context.Context, email, passwordHash string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type PostsRepo interface {
	handlers.PostsStore
	voting.PostsReader
}

// Deps are the storage handles and services the routes run against.
// Postgres and the in-memory store both satisfy the repo interfaces.
type Deps struct {
	Users  UsersRepo
	Posts  PostsRepo
	Votes  voting.VoteStore
	Tokens *auth.Manager
	Cache  cache.Cache

	// optional
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Ping     func(ctx context.Context) error
}

func NewRouter(log *slog.Logger, cfg config.Config, d Deps) *gin.Engine {
	switch cfg.Env {
	case "dev":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("postboard"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// health
	h := handlers.NewHealthHandler(d.Ping)
	r.GET("/", h.Root)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	// wire up services and handlers
	listCache := d.Cache
	if listCache == nil {
		listCache = cache.Nop{}
	}

	votingSvc := voting.NewService(d.Posts, d.Votes)
	authMW := middlewares.NewAuthMiddleware(auth.NewResolver(d.Tokens, d.Users))

	authHandler := handlers.NewAuthHandler(d.Users, d.Tokens)
	usersHandler := handlers.NewUsersHandler(d.Users)
	postsHandler := handlers.NewPostsHandler(d.Posts, votingSvc, listCache, d.Prom)
	votesHandler := handlers.NewVotesHandler(votingSvc, listCache, d.Prom)

	requireJSON := middlewares.RequireJSON()

	r.POST("/login",
		middlewares.RequireContentType(middlewares.MIMEJSON, middlewares.MIMEForm, middlewares.MIMEMultipart),
		authHandler.Login,
	)

	users := r.Group("/users")
	{
		users.POST("", requireJSON, usersHandler.CreateUser)
		users.GET("/:id", usersHandler.GetUser)
	}

	posts := r.Group("/posts")
	posts.Use(requireJSON)
	{
		posts.GET("", authMW.RequireUser(postsHandler.ListPosts))
		posts.GET("/:id", authMW.RequireUser(postsHandler.GetPost))
		posts.POST("", authMW.RequireUser(postsHandler.CreatePost))
		posts.PUT("/:id", authMW.RequireUser(postsHandler.UpdatePost))
		posts.DELETE("/:id", authMW.RequireUser(postsHandler.DeletePost))
	}

	r.POST("/vote", requireJSON, authMW.RequireUser(votesHandler.CastVote))

	return r
}
