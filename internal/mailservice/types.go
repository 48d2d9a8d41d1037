package mailservice

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/go-mail/mail/v2"

	"github.com/sushihentaime/bloglist/internal/common"
)

// MailService turns blog events from the broker into emails.
type MailService struct {
	mb        common.MessageConsumer
	m         Mailer
	logger    MailLogger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	retries   int
	baseDelay time.Duration
}

type MailLogger interface {
	Error(msg string, args ...any)
	Info(msg string, args ...any)
}

type Mail struct {
	mu     sync.Mutex
	dialer Dialer
	parser TemplateParser
	sender string
}

type Mailer interface {
	send(recipient string, data any, templateFile string) error
}

type Template struct{}

type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

type TemplateParser interface {
	ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error)
}

// commentNotification is the payload of a blog.commented message.
type commentNotification struct {
	BlogID     string `json:"blog_id"`
	Title      string `json:"title"`
	Comment    string `json:"comment"`
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`
}
