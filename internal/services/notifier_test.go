package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/senyabanana/unlisted-market/internal/models"
	"github.com/senyabanana/unlisted-market/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotificationRepo struct {
	mock.Mock
}

func (m *mockNotificationRepo) CreateNotification(ctx context.Context, n models.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *mockNotificationRepo) GetUserNotifications(ctx context.Context, userId string, limit, offset int) ([]models.Notification, error) {
	args := m.Called(ctx, userId, limit, offset)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, notificationId, userId string) error {
	return m.Called(ctx, notificationId, userId).Error(0)
}

func TestAsyncNotifierRetries(t *testing.T) {
	repo := &mockNotificationRepo{}
	n := models.Notification{ID: "n1", UserID: "u1"}
	repo.On("CreateNotification", mock.Anything, n).Return(errors.New("connection refused")).Once()
	repo.On("CreateNotification", mock.Anything, n).Return(nil).Once()

	notifier := NewAsyncNotifier(repo, 2, 0, nil, nil)
	notifier.Notify(context.Background(), n)
	notifier.Close()

	repo.AssertNumberOfCalls(t, "CreateNotification", 2)
	repo.AssertExpectations(t)
}

func TestAsyncNotifierGivesUp(t *testing.T) {
	repo := &mockNotificationRepo{}
	repo.On("CreateNotification", mock.Anything, mock.Anything).Return(errors.New("down"))

	notifier := NewAsyncNotifier(repo, 1, 0, nil, nil)
	notifier.MaxTries = 2
	notifier.Notify(context.Background(), models.Notification{ID: "n1", UserID: "u1"})
	notifier.Close()

	repo.AssertNumberOfCalls(t, "CreateNotification", 2)
}

func TestAsyncNotifierSurvivesCancelledRequest(t *testing.T) {
	repo := repository.NewMemoryNotificationRepository()
	notifier := NewAsyncNotifier(repo, 2, 0, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	notifier.Notify(ctx,
		models.Notification{ID: "n1", UserID: "u1"},
		models.Notification{ID: "n2", UserID: "u1"})
	notifier.Close()
	notifier.Notify(context.Background(), models.Notification{ID: "n3", UserID: "u1"})

	got, err := repo.GetUserNotifications(context.Background(), "u1", 10, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestAsyncNotifierDoesNotWaitForBusyWorkers(t *testing.T) {
	repo := &mockNotificationRepo{}
	unblock := make(chan struct{})
	var delivered atomic.Int32
	repo.On("CreateNotification", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		<-unblock
		delivered.Add(1)
	}).Return(nil)

	notifier := NewAsyncNotifier(repo, 1, 2, nil, nil)
	batch := make([]models.Notification, 10)
	for i := range batch {
		batch[i] = models.Notification{ID: string(rune('a' + i)), UserID: "u1"}
	}

	done := make(chan struct{})
	go func() {
		notifier.Notify(context.Background(), batch...)
		notifier.Notify(context.Background(), batch[0])
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify waited for a busy worker")
	}

	close(unblock)
	notifier.Close()
	got := int(delivered.Load())
	assert.GreaterOrEqual(t, got, 2)
	assert.LessOrEqual(t, got, 3, "one in flight plus a full queue")
}

func TestNotificationService(t *testing.T) {
	repo := repository.NewMemoryNotificationRepository()
	ctx := context.Background()
	require.NoError(t, repo.CreateNotification(ctx, models.Notification{ID: "n1", UserID: buyer1.ID, CreatedAt: testNow}))
	svc := NewNotificationService(repo)

	got, err := svc.GetUserNotifications(ctx, buyer1, "", "")
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = svc.GetUserNotifications(ctx, buyer1, "-1", "")
	require.ErrorIs(t, err, models.ErrValidation)

	require.ErrorIs(t, svc.MarkRead(ctx, "n1", buyer2), models.ErrNotFound)
	require.NoError(t, svc.MarkRead(ctx, "n1", buyer1))
}
