package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/senyabanana/unlisted-market/internal/models"
	"github.com/senyabanana/unlisted-market/internal/repository"
	"github.com/senyabanana/unlisted-market/internal/telemetry"

	"github.com/cenkalti/backoff/v5"
	"github.com/sourcegraph/conc/pool"
)

// AsyncNotifier сохраняет уведомления в фоне ограниченным числом воркеров.
// Запись повторяется с экспоненциальной задержкой, после исчерпания попыток ошибка только логируется.
type AsyncNotifier struct {
	Repo     repository.NotificationRepository
	Metrics  *telemetry.Metrics
	Logger   *log.Logger
	MaxTries uint

	mu     sync.RWMutex
	closed bool
	queue  chan queuedNotification
	pool   *pool.Pool
}

type queuedNotification struct {
	ctx          context.Context
	notification models.Notification
}

// NewAsyncNotifier создает новый экземпляр AsyncNotifier и запускает workers воркеров
// над очередью из queueSize уведомлений.
func NewAsyncNotifier(repo repository.NotificationRepository, workers, queueSize int, logger *log.Logger, metrics *telemetry.Metrics) *AsyncNotifier {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	n := &AsyncNotifier{
		Repo:     repo,
		Metrics:  metrics,
		Logger:   logger,
		MaxTries: 3,
		queue:    make(chan queuedNotification, queueSize),
		pool:     pool.New().WithMaxGoroutines(workers),
	}
	for i := 0; i < workers; i++ {
		n.pool.Go(func() {
			for item := range n.queue {
				n.deliver(item.ctx, item.notification)
			}
		})
	}
	return n
}

// Notify ставит уведомления в очередь и не ждет воркеров.
// Если очередь заполнена, уведомление отбрасывается с записью в лог.
func (n *AsyncNotifier) Notify(ctx context.Context, notifications ...models.Notification) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		n.logf("notifier closed, dropping %d notifications", len(notifications))
		return
	}

	ctx = context.WithoutCancel(ctx)
	for _, item := range notifications {
		select {
		case n.queue <- queuedNotification{ctx: ctx, notification: item}:
		default:
			n.Metrics.Notification(ctx, false)
			n.logf("notification queue is full, dropping notification %s to user %s", item.ID, item.UserID)
		}
	}
}

// Close дожидается доставки поставленных уведомлений.
func (n *AsyncNotifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	close(n.queue)
	n.mu.Unlock()
	n.pool.Wait()
}

func (n *AsyncNotifier) deliver(ctx context.Context, notification models.Notification) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	tries := n.MaxTries
	if tries == 0 {
		tries = 1
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, n.Repo.CreateNotification(ctx, notification)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(tries))

	n.Metrics.Notification(ctx, err == nil)
	if err != nil {
		n.logf("failed to deliver notification %s to user %s: %v", notification.ID, notification.UserID, err)
	}
}

func (n *AsyncNotifier) logf(format string, args ...any) {
	if n.Logger != nil {
		n.Logger.Printf(format, args...)
	}
}
