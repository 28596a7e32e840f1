package controllers

import (
	"errors"
	"strconv"

	"github.com/goktugarikci/galeryBlog-sub000/pkg/resp"
	"github.com/goktugarikci/galeryBlog-sub000/services"

	"github.com/gin-gonic/gin"
)

type ContactController struct {
	service *services.ContactService
}

func NewContactController(s *services.ContactService) *ContactController {
	return &ContactController{s}
}

// POST /contact (public)
func (c *ContactController) Submit(ctx *gin.Context) {
	var req services.ContactReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(ctx, "invalid request")
		return
	}

	msg, err := c.service.Submit(ctx.Request.Context(), req)
	if errors.Is(err, services.ErrInvalidContact) {
		resp.BadRequest(ctx, err.Error())
		return
	}
	if err != nil {
		resp.ServerError(ctx, err)
		return
	}
	resp.Created(ctx, msg)
}

// GET /admin/contact-messages?limit=
func (c *ContactController) List(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	msgs, err := c.service.List(ctx.Request.Context(), limit)
	if err != nil {
		resp.ServerError(ctx, err)
		return
	}
	resp.OK(ctx, msgs)
}
