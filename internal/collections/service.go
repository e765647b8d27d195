package collections

import (
	"context"
	"fmt"
	"strings"

	"github.com/ayush/collections-app/internal/models"
)

// Repository defines the persistence the service needs.
type Repository interface {
	ListCollections(ctx context.Context, userID int64) ([]models.Collection, error)
	CreateCollection(ctx context.Context, userID int64, name string) (*models.Collection, error)
	DeleteCollection(ctx context.Context, id, userID int64) error
	GetCollectionDetail(ctx context.Context, id int64) (*models.CollectionDetail, error)
	ListTasks(ctx context.Context, collectionID int64) ([]models.Task, error)
	CreateTask(ctx context.Context, collectionID int64, name string) (*models.Task, error)
	GetTaskOwner(ctx context.Context, taskID int64) (*models.TaskOwner, error)
	DeleteTask(ctx context.Context, id int64) error
	UpdateTaskDone(ctx context.Context, id int64, done bool) error
}

// Detail is what the collection detail page shows.
type Detail struct {
	Collection     models.CollectionDetail
	Tasks          []models.Task
	CompletedTasks int
}

// Service applies validation and ownership rules on top of a Repository.
// A collection or task owned by another user is reported as ErrNotFound.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the user's collections with their tasks attached. Tasks are
// fetched per collection outside a transaction.
func (s *Service) List(ctx context.Context, userID int64) ([]models.CollectionSummary, error) {
	cols, err := s.repo.ListCollections(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]models.CollectionSummary, 0, len(cols))
	for _, c := range cols {
		tasks, err := s.repo.ListTasks(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("tasks of collection %d: %w", c.ID, err)
		}
		out = append(out, models.CollectionSummary{
			Collection:     c,
			Tasks:          tasks,
			CompletedTasks: models.CountCompleted(tasks),
		})
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, userID int64, name string) (*models.Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("collectionname", "Please input collection name !!!")
	}
	return s.repo.CreateCollection(ctx, userID, name)
}

// Delete is idempotent: an absent or foreign id is not an error.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	return s.repo.DeleteCollection(ctx, id, userID)
}

func (s *Service) Detail(ctx context.Context, userID, id int64) (*Detail, error) {
	col, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	tasks, err := s.repo.ListTasks(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Detail{Collection: *col, Tasks: tasks, CompletedTasks: models.CountCompleted(tasks)}, nil
}

func (s *Service) AddTask(ctx context.Context, userID, collectionID int64, name string) (*models.Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("tasksname", "Please input task name !!!")
	}
	if _, err := s.owned(ctx, userID, collectionID); err != nil {
		return nil, err
	}
	return s.repo.CreateTask(ctx, collectionID, name)
}

// DeleteTask removes the task and returns the collection it belonged to.
func (s *Service) DeleteTask(ctx context.Context, userID, taskID int64) (int64, error) {
	owner, err := s.taskOwner(ctx, userID, taskID)
	if err != nil {
		return 0, err
	}
	if err := s.repo.DeleteTask(ctx, taskID); err != nil {
		return 0, err
	}
	return owner.CollectionID, nil
}

// SetTaskDone updates the done flag and returns the task's collection.
func (s *Service) SetTaskDone(ctx context.Context, userID, taskID int64, done bool) (int64, error) {
	owner, err := s.taskOwner(ctx, userID, taskID)
	if err != nil {
		return 0, err
	}
	if err := s.repo.UpdateTaskDone(ctx, taskID, done); err != nil {
		return 0, err
	}
	return owner.CollectionID, nil
}

func (s *Service) owned(ctx context.Context, userID, id int64) (*models.CollectionDetail, error) {
	col, err := s.repo.GetCollectionDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if col.UserID != userID {
		return nil, models.ErrNotFound
	}
	return col, nil
}

func (s *Service) taskOwner(ctx context.Context, userID, taskID int64) (*models.TaskOwner, error) {
	owner, err := s.repo.GetTaskOwner(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if owner.UserID != userID {
		return nil, models.ErrNotFound
	}
	return owner, nil
}
