package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"retailtasks/models"
	repository "retailtasks/repositories"
	"retailtasks/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	newMessageWindow = time.Minute
	newMessageLimit  = 5
)

type MessageService interface {
	Send(ctx context.Context, actor models.Actor, input *models.MessageInput) (*models.Message, error)
	Inbox(ctx context.Context, actor models.Actor) (*models.Inbox, error)
	Sent(ctx context.Context, actor models.Actor) ([]models.ThreadSummary, error)
	Thread(ctx context.Context, actor models.Actor, threadID string) ([]models.Message, error)
	Delete(ctx context.Context, actor models.Actor, id primitive.ObjectID) error
	CheckNew(ctx context.Context, actor models.Actor) (*models.NewMessagesDigest, error)
}

type messageService struct {
	repo          repository.MessageRepository
	users         repository.UserRepository
	notifications NotificationService
	now           func() time.Time
}

func NewMessageService(repo repository.MessageRepository, users repository.UserRepository, notifications NotificationService) MessageService {
	return &messageService{
		repo:          repo,
		users:         users,
		notifications: notifications,
		now:           time.Now,
	}
}

func threadLink(threadID string) string {
	return "/messages/" + threadID
}

// Send delivers a message to a colleague. Replies keep the thread id they
// were given; new conversations get a fresh one.
func (s *messageService) Send(ctx context.Context, actor models.Actor, input *models.MessageInput) (*models.Message, error) {
	recipientID, err := primitive.ObjectIDFromHex(strings.TrimSpace(input.Recipient))
	if err != nil {
		return nil, utils.BadRequest("Invalid recipient")
	}
	recipient, err := s.users.GetByID(ctx, recipientID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.BadRequest("Invalid recipient")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recipient: %w", err)
	}
	if recipient.Company != actor.CompanyID {
		return nil, utils.BadRequest("Invalid recipient")
	}

	threadID := strings.TrimSpace(input.ReplyToThread)
	if threadID == "" {
		threadID = uuid.New().String()
	}

	message := &models.Message{
		Sender:    actor.UserID,
		Recipient: recipient.ID,
		Subject:   strings.TrimSpace(input.Subject),
		Content:   strings.TrimSpace(input.Content),
		ThreadID:  threadID,
		Company:   actor.CompanyID,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	related := message.ID
	s.notifications.Notify(ctx, &models.Notification{
		User:      recipient.ID,
		Message:   fmt.Sprintf("New message from %s: %s", actor.Username, message.Subject),
		Type:      models.NotificationMessage,
		RelatedID: &related,
		Link:      threadLink(threadID),
	})

	return message, nil
}

func (s *messageService) Inbox(ctx context.Context, actor models.Actor) (*models.Inbox, error) {
	threads, err := s.repo.Inbox(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inbox: %w", err)
	}
	unread, err := s.repo.CountUnread(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return &models.Inbox{Threads: threads, UnreadCount: unread}, nil
}

func (s *messageService) Sent(ctx context.Context, actor models.Actor) ([]models.ThreadSummary, error) {
	return s.repo.Sent(ctx, actor.UserID)
}

// Thread returns the conversation oldest first and marks what the actor
// received in it as read.
func (s *messageService) Thread(ctx context.Context, actor models.Actor, threadID string) ([]models.Message, error) {
	messages, err := s.repo.ListThread(ctx, actor.UserID, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}
	if len(messages) == 0 {
		return nil, utils.NotFound("Conversation not found")
	}

	if err := s.repo.MarkThreadRead(ctx, actor.UserID, threadID); err != nil {
		return nil, fmt.Errorf("failed to mark thread read: %w", err)
	}
	if err := s.notifications.MarkReadByLink(ctx, actor, threadLink(threadID)); err != nil {
		return nil, fmt.Errorf("failed to mark notifications read: %w", err)
	}

	for i := range messages {
		if messages[i].Recipient == actor.UserID {
			messages[i].Read = true
		}
	}
	return messages, nil
}

func (s *messageService) Delete(ctx context.Context, actor models.Actor, id primitive.ObjectID) error {
	message, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return utils.NotFound("Message not found")
	}
	if err != nil {
		return fmt.Errorf("failed to load message: %w", err)
	}
	if message.Sender != actor.UserID && message.Recipient != actor.UserID {
		return utils.Forbidden("You do not have permission to delete this message")
	}
	return s.repo.Delete(ctx, id)
}

// CheckNew reports the unread count and the unread messages of the last minute.
func (s *messageService) CheckNew(ctx context.Context, actor models.Actor) (*models.NewMessagesDigest, error) {
	unread, err := s.repo.CountUnread(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread messages: %w", err)
	}

	recent, err := s.repo.RecentUnread(ctx, actor.UserID, s.now().Add(-newMessageWindow), newMessageLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load new messages: %w", err)
	}

	digest := &models.NewMessagesDigest{
		UnreadCount: unread,
		NewMessages: make([]models.NewMessageBrief, 0, len(recent)),
	}
	senders := map[primitive.ObjectID]string{}
	for _, m := range recent {
		name, ok := senders[m.Sender]
		if !ok {
			name = "Unknown"
			if sender, err := s.users.GetByID(ctx, m.Sender); err == nil {
				name = sender.DisplayName()
			}
			senders[m.Sender] = name
		}
		digest.NewMessages = append(digest.NewMessages, models.NewMessageBrief{
			ID:         m.ID,
			ThreadID:   m.ThreadID,
			Subject:    m.Subject,
			SenderName: name,
			CreatedAt:  m.CreatedAt,
		})
	}
	return digest, nil
}
