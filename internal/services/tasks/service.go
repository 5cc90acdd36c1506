// Package tasks holds the server-side todo operations shared by the REST
// handlers and the chat assistant. Every change is published as an event.
package tasks

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/benvon/smart-todo-client/internal/logger"
	"github.com/benvon/smart-todo-client/internal/models"
	"github.com/benvon/smart-todo-client/internal/queue"
	"github.com/benvon/smart-todo-client/internal/validation"
)

// Repository is the storage the service needs
type Repository interface {
	Create(ctx context.Context, todo *models.Todo) error
	GetByID(ctx context.Context, userID, id string) (*models.Todo, error)
	ListByUserID(ctx context.Context, userID string) ([]models.Todo, error)
	Update(ctx context.Context, todo *models.Todo) error
	Delete(ctx context.Context, userID, id string) error
}

// Service performs todo operations for a user
type Service struct {
	repo      Repository
	publisher queue.Publisher
	logger    *zap.Logger
}

// NewService creates a service. A nil publisher logs events only.
func NewService(repo Repository, publisher queue.Publisher, log *zap.Logger) *Service {
	log = logger.OrNop(log)
	if publisher == nil {
		publisher = queue.NewLogPublisher(log)
	}
	return &Service{repo: repo, publisher: publisher, logger: log}
}

// List returns the user's todos oldest first
func (s *Service) List(ctx context.Context, userID string) ([]models.Todo, error) {
	todos, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.NewEvent(queue.EventTodosFetched, userID, nil))
	return todos, nil
}

// Get returns one todo of the user
func (s *Service) Get(ctx context.Context, userID, id string) (*models.Todo, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// Create validates and stores a new todo
func (s *Service) Create(ctx context.Context, userID string, req models.TodoCreate) (*models.Todo, error) {
	if err := validation.TodoCreate(req); err != nil {
		return nil, err
	}
	todo := &models.Todo{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       validation.SanitizeText(req.Title),
		Description: sanitizeOptional(req.Description),
	}
	if err := s.repo.Create(ctx, todo); err != nil {
		return nil, err
	}
	s.publish(ctx, queue.NewEvent(queue.EventTodoCreated, userID, todo))
	return todo, nil
}

// Update applies the non-nil fields of req
func (s *Service) Update(ctx context.Context, userID, id string, req models.TodoUpdate) (*models.Todo, error) {
	if err := validation.TodoUpdate(req); err != nil {
		return nil, err
	}
	todo, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		todo.Title = validation.SanitizeText(*req.Title)
	}
	if req.Description != nil {
		todo.Description = sanitizeOptional(req.Description)
	}
	if err := s.repo.Update(ctx, todo); err != nil {
		return nil, err
	}
	s.publish(ctx, queue.NewEvent(queue.EventTodoUpdated, userID, todo))
	return todo, nil
}

// SetCompleted sets the completion flag to the requested value
func (s *Service) SetCompleted(ctx context.Context, userID, id string, completed bool) (*models.Todo, error) {
	todo, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	todo.Completed = completed
	if err := s.repo.Update(ctx, todo); err != nil {
		return nil, err
	}
	s.publish(ctx, queue.NewEvent(queue.ToggleEventType(completed), userID, todo))
	return todo, nil
}

// Delete removes one todo of the user
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	event := queue.NewEvent(queue.EventTodoDeleted, userID, nil)
	event.TodoID = id
	s.publish(ctx, event)
	return nil
}

// HealthCheck reports whether events can still be delivered
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.publisher.HealthCheck(ctx)
}

func (s *Service) publish(ctx context.Context, event *queue.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("event_publish_failed",
			zap.String("event_type", string(event.Type)),
			zap.String("user_id", logger.SanitizeUserID(event.UserID)),
			zap.String("error", logger.SanitizeError(err)),
		)
	}
}

func sanitizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := validation.SanitizeText(*s)
	return &v
}
