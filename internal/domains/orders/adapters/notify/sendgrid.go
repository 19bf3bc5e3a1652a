// Package notify emails the shop operator when an order is placed.
package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/Apurer/school-activities-api/internal/domains/orders/domain"
	"github.com/Apurer/school-activities-api/internal/domains/orders/ports"
)

var _ ports.Notifier = (*SendGridNotifier)(nil)

const senderName = "School Activities"

// Sender is the subset of the SendGrid client the notifier needs.
type Sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridNotifier mails a plain-text order summary.
type SendGridNotifier struct {
	sender Sender
	from   string
	to     string
}

// NewSendGridNotifier builds a notifier backed by the SendGrid API.
func NewSendGridNotifier(apiKey, from, to string) (*SendGridNotifier, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("sendgrid api key is empty")
	}
	return NewNotifier(sendgrid.NewSendClient(apiKey), from, to)
}

// NewNotifier builds a notifier around any Sender.
func NewNotifier(sender Sender, from, to string) (*SendGridNotifier, error) {
	if sender == nil {
		return nil, fmt.Errorf("sender is nil")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("from address is empty")
	}
	if strings.TrimSpace(to) == "" {
		return nil, fmt.Errorf("to address is empty")
	}
	return &SendGridNotifier{sender: sender, from: from, to: to}, nil
}

func (n *SendGridNotifier) OrderPlaced(ctx context.Context, order *domain.Order) error {
	if order == nil {
		return fmt.Errorf("order is nil")
	}
	subject := fmt.Sprintf("New order %s", order.ID)
	body := Summary(order)
	message := mail.NewSingleEmail(
		mail.NewEmail(senderName, n.from),
		subject,
		mail.NewEmail("", n.to),
		body,
		fmt.Sprintf("<pre>%s</pre>", body),
	)
	response, err := n.sender.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}
	return nil
}

// Summary renders the customer fields and cart size as plain text.
func Summary(order *domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order: %s\n", order.ID)
	fmt.Fprintf(&b, "Status: %s\n", order.Status)
	for _, field := range domain.RequiredFields {
		if v, ok := order.Body.StringField(field); ok {
			fmt.Fprintf(&b, "%s: %s\n", field, v)
		}
	}
	counts := map[string]int{}
	for _, item := range order.Cart {
		counts[fmt.Sprint(item.LessonID)]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(&b, "Items: %d\n", len(order.Cart))
	for _, k := range keys {
		fmt.Fprintf(&b, "  lesson %s x%d\n", k, counts[k])
	}
	return b.String()
}
