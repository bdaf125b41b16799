package main

import (
	"fmt"
	"log"
	"net/http"

	"friendship/backend/internal/auth"
	"friendship/backend/internal/cache"
	"friendship/backend/internal/client"
	"friendship/backend/internal/config"
	"friendship/backend/internal/database"
	"friendship/backend/internal/friendship"
	"friendship/backend/internal/handler"
	"friendship/backend/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	// Swagger imports
	_ "friendship/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           Friendship API
// @version         1.0
// @description     This is the API for the friendship service.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	// Connect to the database
	db := database.Connect(config.AppConfig.DatabaseURL)
	friendshipStore := store.NewGormFriendshipStore(db)

	// External collaborators
	userClient := client.NewUserClient(config.AppConfig.UserServiceURL)
	notificationClient := client.NewNotificationClient(config.AppConfig.NotificationServiceURL)

	var resolver friendship.UserResolver = userClient
	if rdb := cache.Connect(config.AppConfig.RedisAddr, config.AppConfig.RedisPassword); rdb != nil {
		resolver = cache.NewCachingResolver(rdb, userClient)
	}

	svc := friendship.NewService(friendshipStore, resolver, notificationClient)
	friendshipHandler := handler.NewFriendshipHandler(svc)

	router := gin.Default()
	router.Use(cors.Default())

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// Friendship routes (protected)
	friendships := router.Group("/friendships")
	friendships.Use(auth.AuthMiddleware())
	{
		friendships.GET("", friendshipHandler.ListFriends)
		friendships.POST("/request/:userId", friendshipHandler.RequestFriendship)
		friendships.POST("/accept/:friendshipId", friendshipHandler.AcceptFriendship)
		friendships.DELETE("/decline/:friendshipId", friendshipHandler.DeclineFriendship)
		friendships.DELETE("/cancel/:friendshipId", friendshipHandler.CancelFriendship)
		friendships.GET("/:userId", friendshipHandler.IsFriends)
	}

	fmt.Println("Server is running on " + config.AppConfig.ListenAddr)
	fmt.Println("Swagger UI is available at http://localhost:8080/swagger/index.html")
	log.Fatal(router.Run(config.AppConfig.ListenAddr))
}
