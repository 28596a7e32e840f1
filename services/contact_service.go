package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goktugarikci/galeryBlog-sub000/entity"
	"github.com/goktugarikci/galeryBlog-sub000/repository"
)

var ErrInvalidContact = errors.New("name, email and message are required")

type ContactService struct {
	repo   *repository.ContactRepository
	notify Notifier
}

func NewContactService(repo *repository.ContactRepository, notify Notifier) *ContactService {
	return &ContactService{repo: repo, notify: notify}
}

// ----- DTOs from Controller -----
type ContactReq struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject"`
	Body    string `json:"message" binding:"required"`
}

// Submit stores the submission, then notifies admins without waiting.
func (s *ContactService) Submit(ctx context.Context, req ContactReq) (*entity.ContactMessage, error) {
	c := &entity.ContactMessage{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Subject: strings.TrimSpace(req.Subject),
		Body:    strings.TrimSpace(req.Body),
	}
	// email format is checked by the binding tag
	if c.Name == "" || c.Email == "" || c.Body == "" {
		return nil, ErrInvalidContact
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("store contact message: %w", err)
	}
	if s.notify != nil {
		s.notify.NotifyContact(context.WithoutCancel(ctx), c)
	}
	return c, nil
}

func (s *ContactService) List(ctx context.Context, limit int) ([]entity.ContactMessage, error) {
	return s.repo.List(ctx, limit)
}
