package routes

import (
	"github.com/goktugarikci/galeryBlog-sub000/controllers"
	"github.com/goktugarikci/galeryBlog-sub000/middlewares"
	"github.com/goktugarikci/galeryBlog-sub000/services"
	"github.com/goktugarikci/galeryBlog-sub000/ws"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Deps struct {
	Chat           *services.ChatService
	Contact        *services.ContactService
	Hub            *ws.ChatHub
	JWTSecret      string
	AllowedOrigins []string
	Log            *zap.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(middlewares.Recovery(d.Log), middlewares.RequestLogger(d.Log))
	r.Use(middlewares.CORSMiddleware(d.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true, "connections": d.Hub.Registry().Count()})
	})

	// Realtime chat; a token is optional, guests connect without one
	r.GET("/ws", middlewares.WSIdentityMiddleware(d.JWTSecret), d.Hub.HandleWebSocket)

	chatCtrl := controllers.NewChatController(d.Chat)
	contactCtrl := controllers.NewContactController(d.Contact)

	api := r.Group("/api")
	api.POST("/contact", contactCtrl.Submit)

	// Admin
	admin := api.Group("/admin", middlewares.AuthMiddleware(d.JWTSecret, "admin"))
	{
		admin.GET("/chat/rooms", chatCtrl.ListRooms)
		admin.GET("/chat/rooms/:id/messages", chatCtrl.ListMessages)
		admin.PATCH("/chat/rooms/:id/close", chatCtrl.CloseRoom)
		admin.DELETE("/chat/rooms/:id", chatCtrl.DeleteRoom)

		admin.GET("/contact-messages", contactCtrl.List)
	}
}
