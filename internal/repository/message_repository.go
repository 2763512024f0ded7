package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatloom/chat-service/internal/domain"
)

// MessageRepository is the durable record of messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id string) (*domain.Message, error)
	// Delete soft-deletes a message, recording who performed the delete.
	Delete(ctx context.Context, deleterID, id string) error
	// SenderHasMessagesInThread reports whether the user still has undeleted
	// messages in the thread.
	SenderHasMessagesInThread(ctx context.Context, threadID, userID string) (bool, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository builds a Postgres-backed message store.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	const query = `
        INSERT INTO messages (thread_id, thread_type, sender_id, message_type, body, file_name, file_size, file_type)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`

	var fileName, fileType *string
	var fileSize *int64
	if msg.File != nil {
		fileName = &msg.File.Name
		fileSize = &msg.File.Size
		fileType = &msg.File.Type
	}
	return r.pool.QueryRow(ctx, query,
		msg.ThreadID,
		msg.ThreadType,
		msg.SenderID,
		msg.MessageType,
		msg.Content.Body,
		fileName,
		fileSize,
		fileType,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *messageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	const query = `
        SELECT id, thread_id, thread_type, sender_id, message_type, body, file_name, file_size, file_type, created_at
        FROM messages WHERE id=$1 AND deleted_at IS NULL`

	var msg domain.Message
	var fileName, fileType *string
	var fileSize *int64
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID,
		&msg.ThreadID,
		&msg.ThreadType,
		&msg.SenderID,
		&msg.MessageType,
		&msg.Content.Body,
		&fileName,
		&fileSize,
		&fileType,
		&msg.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if fileName != nil {
		msg.File = &domain.FileMetadata{Name: *fileName, Type: derefString(fileType)}
		if fileSize != nil {
			msg.File.Size = *fileSize
		}
	}
	return &msg, nil
}

func (r *messageRepository) Delete(ctx context.Context, deleterID, id string) error {
	const query = `
        UPDATE messages SET deleted_at=NOW(), deleted_by=$1
        WHERE id=$2 AND deleted_at IS NULL`

	cmd, err := r.pool.Exec(ctx, query, deleterID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *messageRepository) SenderHasMessagesInThread(ctx context.Context, threadID, userID string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM messages
            WHERE thread_id=$1 AND sender_id=$2 AND deleted_at IS NULL
        )`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, threadID, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
