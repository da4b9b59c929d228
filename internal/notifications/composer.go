package notifications

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/pradeepsarraf/sajilomart-backend/internal/genai"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/enums"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/logger"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/outbox/payloads"
)

type emailSender interface {
	Configured() bool
	Send(ctx context.Context, email Email) error
}

type contentGenerator interface {
	Configured() bool
	OrderConfirmationEmail(ctx context.Context, input genai.OrderEmailInput) (*genai.EmailContent, error)
	WelcomeEmail(ctx context.Context, customerName string) (*genai.EmailContent, error)
}

// Composer turns domain events into customer emails. Generated copy degrades
// to static fallbacks when the provider is unavailable.
type Composer struct {
	sender    emailSender
	generator contentGenerator
	logg      *logger.Logger
}

func NewComposer(sender emailSender, generator contentGenerator, logg *logger.Logger) (*Composer, error) {
	if sender == nil {
		return nil, fmt.Errorf("email sender required")
	}
	if generator == nil {
		return nil, fmt.Errorf("content generator required")
	}
	return &Composer{sender: sender, generator: generator, logg: logg}, nil
}

// SendOrderConfirmation emails the customer after checkout.
func (c *Composer) SendOrderConfirmation(ctx context.Context, event payloads.OrderCreatedEvent) error {
	input := genai.OrderEmailInput{
		CustomerName: event.CustomerName,
		OrderID:      event.OrderID.String(),
		Total:        event.Total,
		CouponCode:   event.CouponCode,
	}

	content := genai.FallbackOrderConfirmation(input)
	if c.generator.Configured() {
		generated, err := c.generator.OrderConfirmationEmail(ctx, input)
		if err != nil {
			if c.logg != nil {
				c.logg.Warn(ctx, "order confirmation generation failed, using fallback copy")
			}
		} else {
			content = generated
		}
	}

	return c.sender.Send(ctx, Email{
		ToName:  event.CustomerName,
		ToEmail: event.CustomerEmail,
		Subject: content.Subject,
		Body:    content.Body,
	})
}

// SendWelcome emails a freshly registered customer.
func (c *Composer) SendWelcome(ctx context.Context, event payloads.UserRegisteredEvent) error {
	content := genai.FallbackWelcome(event.Name)
	if c.generator.Configured() {
		generated, err := c.generator.WelcomeEmail(ctx, event.Name)
		if err != nil {
			if c.logg != nil {
				c.logg.Warn(ctx, "welcome email generation failed, using fallback copy")
			}
		} else {
			content = generated
		}
	}

	return c.sender.Send(ctx, Email{
		ToName:  event.Name,
		ToEmail: event.Email,
		Subject: content.Subject,
		Body:    content.Body,
	})
}

// SendStatusUpdate emails the customer on terminal order states. Intermediate
// states stay in the tracking feed only.
func (c *Composer) SendStatusUpdate(ctx context.Context, event payloads.OrderStatusChangedEvent) error {
	var subject, body string
	switch event.Status {
	case enums.OrderStatusDelivered:
		subject = "Your SajiloMart order has been delivered"
		body = fmt.Sprintf(
			"Hi %s,\n\nYour order %s has been delivered. We hope everything arrived fresh and in great shape.\n\nThanks for shopping with SajiloMart!",
			event.CustomerName, event.OrderID)
	case enums.OrderStatusCancelled:
		subject = "Your SajiloMart order has been cancelled"
		body = fmt.Sprintf(
			"Hi %s,\n\nYour order %s has been cancelled. If you did not request this, please contact our support team.\n\nThe SajiloMart Team",
			event.CustomerName, event.OrderID)
	default:
		return nil
	}

	return c.sender.Send(ctx, Email{
		ToName:  event.CustomerName,
		ToEmail: event.CustomerEmail,
		Subject: subject,
		Body:    body,
	})
}

// SendBulk delivers the same message to every recipient, one provider call
// each. Failed recipients are collected; the rest still get their email.
func (c *Composer) SendBulk(ctx context.Context, recipients []Email) error {
	var errs error
	for _, email := range recipients {
		if err := c.sender.Send(ctx, email); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("sending to %s: %w", email.ToEmail, err))
		}
	}
	return errs
}
