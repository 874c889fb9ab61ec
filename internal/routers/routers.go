package routers

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/chattyapp/chatty/internal/handlers"
	"github.com/chattyapp/chatty/internal/middlewares"
	"github.com/chattyapp/chatty/internal/service"
	"github.com/chattyapp/chatty/internal/ws"
)

// SetupRoutes wires the API surface. Identity resolution runs on every
// route; the services decide per operation whether anonymous is allowed.
func SetupRoutes(r *gin.Engine,
	authService service.IAuthService,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	groupHandler *handlers.GroupHandler,
	messageHandler *handlers.MessageHandler,
	wsServer *ws.Server,
) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.Use(middlewares.IdentityMiddleware(authService))

	// Subscriptions resolve identity once at upgrade time; the identity
	// holds for the life of the connection.
	r.GET("/ws/messages", func(c *gin.Context) {
		groupIDs := splitParam(c.Query("group_ids"))
		wsServer.ServeMessages(c, middlewares.CurrentIdentity(c), groupIDs)
	})
	r.GET("/ws/groups", func(c *gin.Context) {
		wsServer.ServeGroups(c, middlewares.CurrentIdentity(c))
	})

	api := r.Group("/api/v1")
	{
		api.POST("/signup", authHandler.Signup)
		api.POST("/login", authHandler.Login)

		api.GET("/users/me", userHandler.GetProfile)
		api.GET("/groups/mine", userHandler.GetGroups)

		api.POST("/groups", groupHandler.CreateGroup)
		api.GET("/groups/:group_id", groupHandler.GetGroup)
		api.PATCH("/groups/:group_id", groupHandler.UpdateGroup)
		api.POST("/groups/:group_id/leave", groupHandler.LeaveGroup)
		api.DELETE("/groups/:group_id", groupHandler.DeleteGroup)
		api.GET("/groups/:group_id/unread", groupHandler.UnreadCount)

		api.GET("/groups/:group_id/messages", messageHandler.ListMessages)
		api.POST("/groups/:group_id/messages", messageHandler.CreateMessage)
	}
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
