package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ayush/collections-app/internal/models"
)

func (s *PostgresStore) ListCollections(ctx context.Context, userID int64) ([]models.Collection, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name, created_at FROM collections WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var res []models.Collection
	for rows.Next() {
		var c models.Collection
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("list collections: scan: %w", err)
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (s *PostgresStore) CreateCollection(ctx context.Context, userID int64, name string) (*models.Collection, error) {
	c := models.Collection{UserID: userID, Name: name}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO collections (user_id, name) VALUES ($1, $2) RETURNING id, created_at`,
		userID, name,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &c, nil
}

// DeleteCollection removes the collection if userID owns it. Deleting an
// absent or foreign collection is not an error. Tasks go with it through
// the ON DELETE CASCADE foreign key.
func (s *PostgresStore) DeleteCollection(ctx context.Context, id, userID int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM collections WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetCollectionDetail(ctx context.Context, id int64) (*models.CollectionDetail, error) {
	var d models.CollectionDetail
	err := s.pool.QueryRow(ctx,
		`SELECT c.id, c.user_id, c.name, c.created_at, u.username
		 FROM collections c
		 JOIN users u ON c.user_id = u.id
		 WHERE c.id = $1`, id,
	).Scan(&d.ID, &d.UserID, &d.Name, &d.CreatedAt, &d.OwnerUsername)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get collection detail: %w", err)
	}
	return &d, nil
}

func (s *PostgresStore) ListTasks(ctx context.Context, collectionID int64) ([]models.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, collection_id, name, is_done, created_at FROM tasks WHERE collection_id = $1 ORDER BY id`,
		collectionID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var res []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.CollectionID, &t.Name, &t.Done, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("list tasks: scan: %w", err)
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (s *PostgresStore) CreateTask(ctx context.Context, collectionID int64, name string) (*models.Task, error) {
	t := models.Task{CollectionID: collectionID, Name: name}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO tasks (collection_id, name, is_done) VALUES ($1, $2, FALSE) RETURNING id, created_at`,
		collectionID, name,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) GetTaskOwner(ctx context.Context, taskID int64) (*models.TaskOwner, error) {
	o := models.TaskOwner{TaskID: taskID}
	err := s.pool.QueryRow(ctx,
		`SELECT t.collection_id, c.user_id
		 FROM tasks t
		 JOIN collections c ON t.collection_id = c.id
		 WHERE t.id = $1`, taskID,
	).Scan(&o.CollectionID, &o.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get task owner: %w", err)
	}
	return &o, nil
}

func (s *PostgresStore) DeleteTask(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateTaskDone(ctx context.Context, id int64, done bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET is_done = $1, updated_at = NOW() WHERE id = $2`, done, id)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
