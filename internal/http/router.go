package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/mrlokans/bookclub/internal/auth"
	"github.com/mrlokans/bookclub/internal/config"
	"github.com/mrlokans/bookclub/internal/database/booklists"
	"github.com/mrlokans/bookclub/internal/database/books"
	"github.com/mrlokans/bookclub/internal/database/crud"
	"github.com/mrlokans/bookclub/internal/database/notifications"
	"github.com/mrlokans/bookclub/internal/database/reviews"
	"github.com/mrlokans/bookclub/internal/database/users"
	"github.com/mrlokans/bookclub/internal/demo"
	"github.com/mrlokans/bookclub/internal/entities"
	"github.com/mrlokans/bookclub/internal/logging"
	"github.com/mrlokans/bookclub/internal/telemetry"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	origins := cfg.CORSAllowOrigins
	if len(origins) == 0 {
		origins = []string{config.DefaultCORSOrigin}
	}

	router := gin.New()
	router.Use(RequestID())
	router.Use(RequestLogger(log))
	router.Use(Recovery(log))
	router.Use(CORS(origins))
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.DemoMode {
		router.Use(demo.NewMiddleware(true).Handler())
	}

	if cfg.TracingEnabled {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
		router.GET(telemetry.MetricsPath, gin.WrapH(cfg.Metrics.Handler()))
	}

	router.Use(cfg.AuthMiddleware.Handler())

	// Repositories
	userRepo := users.NewRepository(cfg.DB)
	bookRepo := books.NewRepository(cfg.DB)
	reviewRepo := reviews.NewRepository(cfg.DB)
	listRepo := booklists.NewRepository(cfg.DB)
	notificationRepo := notifications.NewRepository(cfg.DB)

	// Controllers
	health := NewHealthController(cfg.Database, cfg.Version)
	usersController := NewUsersController(userRepo, cfg.AuthService)
	authorsController := NewAuthorsController(crud.New[entities.Author](cfg.DB), bookRepo)
	booksController := NewBooksController(bookRepo, cfg.Storage)
	genresController := NewGenresController(crud.New[entities.Genre](cfg.DB))
	publishersController := NewPublishersController(crud.New[entities.Publisher](cfg.DB))
	reviewsController := NewReviewsController(reviewRepo, bookRepo, cfg.ReviewNotifier, log.With("component", "reviews"))
	friendshipsController := NewFriendshipsController(userRepo, notificationRepo)
	notificationsController := NewNotificationsController(notificationRepo)
	bookListsController := NewBookListsController(listRepo, bookRepo)

	mw := cfg.AuthMiddleware
	anyUser := mw.RequireAuth()
	admin := mw.RequireRole(entities.RoleAdmin)
	reader := mw.RequireRole(entities.RoleAdmin, entities.RoleUser)

	api := router.Group("/api")

	// Health endpoint
	api.GET("/health", health.Status)

	if cfg.AuthController != nil {
		cfg.AuthController.RegisterRoutes(api.Group("/auth"))
	}

	// Users
	userAPI := api.Group("/user")
	userAPI.GET("", admin, usersController.List)
	userAPI.GET("/users-last-seven-days", admin, usersController.UsersLastSevenDays)
	userAPI.GET("/emerging-last-seven-days", admin, usersController.EmergingLastSevenDays)
	userAPI.PATCH("/admin/:id", admin, usersController.UpdateAdmin)
	userAPI.PATCH("/admin/password/:id", admin, usersController.ChangePassword)
	userAPI.PATCH("/user/:id", anyUser, usersController.UpdateProfile)
	userAPI.GET("/:id", admin, usersController.Get)
	userAPI.GET("/:id/profile", anyUser, usersController.Profile)
	userAPI.PUT("/:id/activate", admin, usersController.Activate)
	userAPI.PUT("/:id/deactivate", anyUser, usersController.Deactivate)
	userAPI.DELETE("/:id", admin, usersController.Delete)

	// Authors
	authorAPI := api.Group("/author", admin)
	authorAPI.GET("", authorsController.List)
	authorAPI.POST("", authorsController.Create)
	authorAPI.GET("/:id", authorsController.Get)
	authorAPI.GET("/:id/books", authorsController.Books)
	authorAPI.PUT("/:id", authorsController.Update)
	authorAPI.PUT("/:id/enable", authorsController.Enable)
	authorAPI.PUT("/:id/disable", authorsController.Disable)

	// Books
	bookAPI := api.Group("/book")
	bookAPI.GET("", reader, booksController.List)
	bookAPI.GET("/pending-books", admin, booksController.Pending)
	bookAPI.GET("/books-last-seven-days", admin, booksController.LastSevenDays)
	bookAPI.GET("/random", booksController.Random)
	bookAPI.GET("/:id", reader, booksController.Get)
	bookAPI.GET("/:id/authors", admin, booksController.Authors)
	bookAPI.POST("", admin, booksController.Create)
	bookAPI.PUT("/:id", admin, booksController.Update)
	bookAPI.PATCH("/upload-image/:id", admin, booksController.UploadImage)
	bookAPI.PUT("/:id/enable", admin, booksController.Enable)
	bookAPI.PUT("/:id/disable", admin, booksController.Disable)

	// Genres and publishers
	genreAPI := api.Group("/genre", admin)
	genreAPI.GET("", genresController.List)
	genreAPI.POST("", genresController.Create)
	genreAPI.PUT("/:id", genresController.Update)
	genreAPI.PUT("/:id/enable", genresController.Enable)
	genreAPI.PUT("/:id/disable", genresController.Disable)

	publisherAPI := api.Group("/publisher", admin)
	publisherAPI.GET("", publishersController.List)
	publisherAPI.POST("", publishersController.Create)
	publisherAPI.PUT("/:id", publishersController.Update)
	publisherAPI.PUT("/:id/enable", publishersController.Enable)
	publisherAPI.PUT("/:id/disable", publishersController.Disable)

	// Reviews
	reviewAPI := api.Group("/review")
	reviewAPI.GET("", admin, reviewsController.List)
	reviewAPI.GET("/reviews-last-seven-days", admin, reviewsController.LastSevenDays)
	reviewAPI.GET("/friends-reviews", anyUser, reviewsController.FriendsReviews)
	reviewAPI.GET("/book/:book_id", reviewsController.ByBook)
	reviewAPI.GET("/user/:user_id", reviewsController.ByUser)
	reviewAPI.GET("/:id", admin, reviewsController.Get)
	reviewAPI.POST("", anyUser, reviewsController.Create)
	reviewAPI.PUT("/:id", admin, reviewsController.Update)
	reviewAPI.PUT("/:id/enable", admin, reviewsController.Enable)
	reviewAPI.PUT("/:id/disable", admin, reviewsController.Disable)

	// Friendships and notifications
	friendshipAPI := api.Group("/friendship", anyUser)
	friendshipAPI.GET("/:user_id", friendshipsController.Friends)
	friendshipAPI.POST("/:friend_id", friendshipsController.Befriend)
	friendshipAPI.DELETE("/:friend_id", friendshipsController.Unfriend)

	api.GET("/notification/:user_id", anyUser, notificationsController.List)

	// Book lists
	listAPI := api.Group("/book-list")
	listAPI.POST("", anyUser, bookListsController.Create)
	listAPI.GET("/user", anyUser, bookListsController.Mine)
	listAPI.GET("/:id", bookListsController.Get)
	listAPI.POST("/:id/books/:book_id", anyUser, bookListsController.AddBook)
	listAPI.DELETE("/:id/books/:book_id", anyUser, bookListsController.RemoveBook)
	listAPI.DELETE("/:id", anyUser, bookListsController.Delete)

	return router
}
