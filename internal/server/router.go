package server

import (
	"net/http"

	bidding "auction-marketplace/internal/biddingService"
	"auction-marketplace/internal/notification"
	"auction-marketplace/internal/session"
	"auction-marketplace/internal/storage"
	authhandler "auction-marketplace/services/auth/handler"
	handler "auction-marketplace/services/bidding/handler"
	notificationhandler "auction-marketplace/services/notification/handler"
	uploadhandler "auction-marketplace/services/upload/handler"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
)

// Dependencies are the services the HTTP layer is built on
type Dependencies struct {
	Bidding  *bidding.BiddingService
	Sessions *session.Service
	Center   *notification.Center
	Images   *storage.DiskStore
	Bids     handler.Options
	Cookie   authhandler.CookieOptions
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())                   // recover from panics
	router.Use(RequestLoggerMiddleware)          // custom request logging
	router.Use(SessionMiddleware(deps.Sessions)) // resolve the caller from the token cookie

	biddingHandler := handler.NewBiddingHandler(deps.Bidding, deps.Bids)
	authHandler := authhandler.NewAuthHandler(deps.Sessions, deps.Cookie, deps.Bidding)
	notificationHandler := notificationhandler.NewNotificationHandler(deps.Center)
	uploadHandler := uploadhandler.NewUploadHandler(deps.Images, deps.Sessions)

	router.GET("/health", func(c *gin.Context) {
		utils.JSONResponse(c, http.StatusOK, gin.H{"status": "ok"}, "healthy")
	})
	router.Static(storage.PublicPath, deps.Images.Dir())

	products := router.Group("/products")
	{
		products.GET("", biddingHandler.ListListingsHandler)
		products.POST("", RequireAuth, biddingHandler.CreateListingHandler)
		products.GET("/categories", biddingHandler.CategoriesHandler)
		products.GET("/:id", biddingHandler.GetListingHandler)
		products.GET("/:id/bids", biddingHandler.GetBidsByListingHandler)
		// anonymous bids reach the service and are rejected there
		products.POST("/:id/bids", biddingHandler.RecordBidHandler)
		products.GET("/:id/winning", biddingHandler.GetWinningBidHandler)
		products.GET("/:id/countdown", biddingHandler.CountdownHandler)
	}

	users := router.Group("/users")
	{
		users.GET("/:user_id/bids", biddingHandler.GetListingsByBidderHandler)
		users.GET("/:user_id/listings", biddingHandler.GetListingsBySellerHandler)
	}

	notifications := router.Group("/notifications", RequireAuth)
	{
		notifications.GET("", notificationHandler.ListHandler)
		notifications.POST("/read-all", notificationHandler.MarkAllReadHandler)
		notifications.POST("/:id/read", notificationHandler.MarkReadHandler)
		notifications.DELETE("/:id", notificationHandler.RemoveHandler)
		notifications.DELETE("", notificationHandler.ClearHandler)
	}

	ws := router.Group("/ws")
	{
		ws.GET("/products/:id/countdown", biddingHandler.CountdownStreamHandler)
		ws.GET("/notifications", RequireAuth, notificationHandler.StreamHandler)
	}

	auth := router.Group("/auth")
	{
		auth.POST("/sendOtp", authHandler.SendOTPHandler)
		auth.POST("/verify", authHandler.VerifyOTPHandler)
		auth.POST("/signup", authHandler.SignupHandler)
		auth.POST("/login", authHandler.LoginHandler)
		auth.POST("/logout", authHandler.LogoutHandler)
		auth.GET("/tokenVerify", authHandler.TokenVerifyHandler)
	}

	upload := router.Group("/upload", RequireAuth)
	{
		upload.POST("/profileImage", uploadHandler.ProfileImageHandler)
	}

	return router
}
