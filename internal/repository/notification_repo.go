package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/senyabanana/unlisted-market/internal/models"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresNotificationRepository - реализация NotificationRepository для базы данных.
type PostgresNotificationRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresNotificationRepository создает новый экземпляр PostgresNotificationRepository.
func NewPostgresNotificationRepository(db *pgxpool.Pool) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{DB: db}
}

// CreateNotification сохраняет уведомление.
func (r *PostgresNotificationRepository) CreateNotification(ctx context.Context, n models.Notification) error {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return fmt.Errorf("encode notification data: %w", err)
	}
	if n.Data == nil {
		data = []byte("{}")
	}
	insertQuery := `INSERT INTO notifications (id, user_id, type, title, message, data, action_url, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`
	_, err = r.DB.Exec(ctx, insertQuery, n.ID, n.UserID, n.Type, n.Title, n.Message, data, n.ActionURL, n.IsRead, n.CreatedAt)
	return err
}

// GetUserNotifications возвращает уведомления пользователя, новые первыми.
func (r *PostgresNotificationRepository) GetUserNotifications(ctx context.Context, userId string, limit, offset int) ([]models.Notification, error) {
	query := `SELECT id, user_id, type, title, message, data, action_url, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.DB.Query(ctx, query, userId, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var data []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &data, &n.ActionURL, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return nil, fmt.Errorf("decode notification data: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkRead отмечает уведомление пользователя прочитанным.
func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, notificationId, userId string) error {
	tag, err := r.DB.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, notificationId, userId)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MemoryNotificationRepository хранит уведомления в памяти.
type MemoryNotificationRepository struct {
	mu            sync.Mutex
	notifications map[string]models.Notification
}

// NewMemoryNotificationRepository создает пустое хранилище уведомлений.
func NewMemoryNotificationRepository() *MemoryNotificationRepository {
	return &MemoryNotificationRepository{notifications: make(map[string]models.Notification)}
}

func (r *MemoryNotificationRepository) CreateNotification(_ context.Context, n models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notifications[n.ID]; !ok {
		r.notifications[n.ID] = n
	}
	return nil
}

func (r *MemoryNotificationRepository) GetUserNotifications(_ context.Context, userId string, limit, offset int) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Notification
	for _, n := range r.notifications {
		if n.UserID == userId {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

func (r *MemoryNotificationRepository) MarkRead(_ context.Context, notificationId, userId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notifications[notificationId]
	if !ok || n.UserID != userId {
		return ErrNotFound
	}
	n.IsRead = true
	r.notifications[notificationId] = n
	return nil
}
