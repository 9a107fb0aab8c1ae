package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookclub/internal/entities"
	"github.com/mrlokans/bookclub/internal/logging"
)

// FriendLister resolves a user's friends.
type FriendLister interface {
	FriendIDs(ctx context.Context, userID uint) ([]uint, error)
}

// Notifier stores notifications for a set of recipients.
type Notifier interface {
	NotifyMany(ctx context.Context, kind entities.NotificationType, recipients []uint, friendID, bookID *uint) (int, error)
}

// NotifyFriendsTask tells every friend of ActorID that they reviewed BookID.
type NotifyFriendsTask struct {
	ActorID uint `json:"actor_id"`
	BookID  uint `json:"book_id"`
}

func (t NotifyFriendsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "notify_friends",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// NotifyFriendsProcessor creates a processor function for NotifyFriendsTask.
func NotifyFriendsProcessor(friends FriendLister, notifier Notifier, log *logging.Logger) backlite.QueueProcessor[NotifyFriendsTask] {
	return func(ctx context.Context, task NotifyFriendsTask) error {
		ids, err := friends.FriendIDs(ctx, task.ActorID)
		if err != nil {
			return fmt.Errorf("list friends of %d: %w", task.ActorID, err)
		}
		actor, book := task.ActorID, task.BookID
		n, err := notifier.NotifyMany(ctx, entities.NotificationReview, ids, &actor, &book)
		if err != nil {
			return fmt.Errorf("notify friends of %d: %w", task.ActorID, err)
		}
		log.Debug("review notifications sent", "actor_id", actor, "book_id", book, "recipients", n)
		return nil
	}
}

func NewNotifyFriendsQueue(friends FriendLister, notifier Notifier, log *logging.Logger) backlite.Queue {
	return backlite.NewQueue(NotifyFriendsProcessor(friends, notifier, log))
}

// InlineNotifier runs the fan-out in the calling goroutine. It is used when
// the task queue is disabled.
type InlineNotifier struct {
	process backlite.QueueProcessor[NotifyFriendsTask]
}

func NewInlineNotifier(friends FriendLister, notifier Notifier, log *logging.Logger) *InlineNotifier {
	return &InlineNotifier{process: NotifyFriendsProcessor(friends, notifier, log)}
}

func (n *InlineNotifier) NotifyReview(ctx context.Context, authorID, bookID uint) error {
	return n.process(ctx, NotifyFriendsTask{ActorID: authorID, BookID: bookID})
}
