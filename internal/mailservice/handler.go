package mailservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sushihentaime/bloglist/internal/common"
	"golang.org/x/exp/rand"
)

const (
	commentTemplate  = "comment_notification.html"
	defaultRetries   = 5
	defaultBaseDelay = 500 * time.Millisecond
)

func NewMailService(mb common.MessageConsumer, host, username, password, sender string, port int, logger *slog.Logger) *MailService {
	return newMailService(mb, NewMailer(host, port, username, password, sender, NewTemplate()), logger)
}

func newMailService(mb common.MessageConsumer, m Mailer, logger MailLogger) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:        mb,
		m:         m,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		retries:   defaultRetries,
		baseDelay: defaultBaseDelay,
	}
}

// NotifyComments starts a goroutine that emails blog owners about new comments.
// It returns once the consumer is registered.
func (s *MailService) NotifyComments() error {
	msgs, err := s.mb.Consume(common.BlogCommentedKey, common.BlogExchange, common.BlogCommentedQueue)
	if err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				s.handleComment(msg)

			case <-s.ctx.Done():
				s.logger.Info("stopping comment notifications")
				return
			}
		}
	}()

	return nil
}

// handleComment sends one notification. Messages are acked even when delivery
// finally fails so a bad address cannot wedge the queue. A message interrupted
// by shutdown is requeued instead.
func (s *MailService) handleComment(msg amqp.Delivery) {
	if s.deliverComment(msg) {
		if err := msg.Ack(false); err != nil {
			s.logger.Error("could not ack message", slog.String("error", err.Error()))
		}
		return
	}

	if err := msg.Nack(false, true); err != nil {
		s.logger.Error("could not requeue message", slog.String("error", err.Error()))
	}
}

// deliverComment reports whether the message is finished with. It returns
// false only when shutdown interrupts the retries.
func (s *MailService) deliverComment(msg amqp.Delivery) bool {
	var data commentNotification
	if err := json.Unmarshal(msg.Body, &data); err != nil {
		s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
		return true
	}

	if data.OwnerEmail == "" {
		return true
	}

	// exponential backoff with jitter
	for attempt := 0; attempt < s.retries; attempt++ {
		err := s.m.send(data.OwnerEmail, data, commentTemplate)
		if err == nil {
			s.logger.Info("comment notification sent", slog.String("email", data.OwnerEmail), slog.String("blog_id", data.BlogID))
			return true
		}

		delay := time.Duration(rand.Int63n(int64(s.baseDelay) << uint(attempt)))
		s.logger.Info("delaying comment notification", slog.String("email", data.OwnerEmail), slog.Int("attempt", attempt), slog.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			s.logger.Info("requeueing comment notification", slog.String("email", data.OwnerEmail))
			return false
		}
	}

	s.logger.Error("could not send comment notification", slog.String("email", data.OwnerEmail))
	return true
}

// Close stops the consumer and waits for the in-flight message.
func (s *MailService) Close() {
	s.cancel()
	s.wg.Wait()
}
