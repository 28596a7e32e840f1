// controllers/chat_controller.go
package controllers

import (
	"errors"

	"github.com/goktugarikci/galeryBlog-sub000/entity"
	"github.com/goktugarikci/galeryBlog-sub000/pkg/resp"
	"github.com/goktugarikci/galeryBlog-sub000/services"

	"github.com/gin-gonic/gin"
)

// ChatController is the admin management surface for support chat.
type ChatController struct {
	service *services.ChatService
}

func NewChatController(s *services.ChatService) *ChatController {
	return &ChatController{s}
}

// GET /admin/chat/rooms?status=open|closed (default open)
func (c *ChatController) ListRooms(ctx *gin.Context) {
	status := entity.RoomStatus(ctx.DefaultQuery("status", string(entity.RoomOpen)))
	if status == "all" {
		status = ""
	}
	if status != "" && !status.Valid() {
		resp.BadRequest(ctx, "status must be open, closed or all")
		return
	}

	rooms, err := c.service.ListRooms(ctx.Request.Context(), status)
	if err != nil {
		resp.ServerError(ctx, err)
		return
	}
	resp.OK(ctx, rooms)
}

// GET /admin/chat/rooms/:id/messages
func (c *ChatController) ListMessages(ctx *gin.Context) {
	msgs, err := c.service.History(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		writeChatError(ctx, err)
		return
	}
	resp.OK(ctx, msgs)
}

// PATCH /admin/chat/rooms/:id/close
func (c *ChatController) CloseRoom(ctx *gin.Context) {
	room, err := c.service.CloseRoom(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		writeChatError(ctx, err)
		return
	}
	resp.OK(ctx, room)
}

// DELETE /admin/chat/rooms/:id
func (c *ChatController) DeleteRoom(ctx *gin.Context) {
	if err := c.service.DeleteRoom(ctx.Request.Context(), ctx.Param("id")); err != nil {
		writeChatError(ctx, err)
		return
	}
	resp.OK(ctx, gin.H{"deleted": true})
}

func writeChatError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrRoomNotFound):
		resp.NotFound(ctx, "room not found")
	case errors.Is(err, services.ErrRoomClosed):
		resp.Conflict(ctx, "room is already closed")
	default:
		resp.ServerError(ctx, err)
	}
}
