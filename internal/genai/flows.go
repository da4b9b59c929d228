package genai

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pradeepsarraf/sajilomart-backend/pkg/enums"
)

// SpinnerPrizeCount is the fixed wheel size the storefront renders.
const SpinnerPrizeCount = 8

// EmailContent is a generated transactional email.
type EmailContent struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// OrderEmailInput feeds the order confirmation prompt.
type OrderEmailInput struct {
	CustomerName string
	OrderID      string
	Total        string
	CouponCode   string
}

// SpinnerPrize is one wedge of the discount wheel.
type SpinnerPrize struct {
	Label string           `json:"label"`
	Type  enums.CouponType `json:"type"`
	Value decimal.Decimal  `json:"value"`
}

// SpinnerWheel is the generated wheel plus the pre-drawn winning wedge.
type SpinnerWheel struct {
	Prizes      []SpinnerPrize `json:"prizes"`
	WinnerIndex int            `json:"winnerIndex"`
	CouponCode  string         `json:"couponCode"`
}

// Article is a learning-zone piece for the storefront content section.
type Article struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tips  []string `json:"tips"`
}

// OrderConfirmationEmail generates the post-checkout email copy.
func (c *Client) OrderConfirmationEmail(ctx context.Context, input OrderEmailInput) (*EmailContent, error) {
	prompt := fmt.Sprintf(`You write short, warm transactional emails for SajiloMart, a Nepali online grocery store.
Write an order confirmation email for customer %q. Order id: %s. Order total: Rs %s.`,
		input.CustomerName, input.OrderID, input.Total)
	if input.CouponCode != "" {
		prompt += fmt.Sprintf(" The customer saved money with coupon %s; mention it.", input.CouponCode)
	}
	prompt += `
Respond with JSON: {"subject": string, "body": string}. Plain text body, no HTML, under 120 words.`

	var email EmailContent
	if err := c.GenerateJSON(ctx, prompt, &email); err != nil {
		return nil, err
	}
	if strings.TrimSpace(email.Subject) == "" || strings.TrimSpace(email.Body) == "" {
		return nil, fmt.Errorf("generated email is missing subject or body")
	}
	return &email, nil
}

// WelcomeEmail generates the signup greeting.
func (c *Client) WelcomeEmail(ctx context.Context, customerName string) (*EmailContent, error) {
	prompt := fmt.Sprintf(`You write short, warm transactional emails for SajiloMart, a Nepali online grocery store.
Write a welcome email for new customer %q. Invite them to browse the store.
Respond with JSON: {"subject": string, "body": string}. Plain text body, no HTML, under 100 words.`, customerName)

	var email EmailContent
	if err := c.GenerateJSON(ctx, prompt, &email); err != nil {
		return nil, err
	}
	if strings.TrimSpace(email.Subject) == "" || strings.TrimSpace(email.Body) == "" {
		return nil, fmt.Errorf("generated email is missing subject or body")
	}
	return &email, nil
}

// DiscountSpinner generates a wheel of eight prizes with the winner already
// drawn. The caller persists the winning prize as a one-use coupon.
func (c *Client) DiscountSpinner(ctx context.Context) (*SpinnerWheel, error) {
	prompt := fmt.Sprintf(`Generate a discount spinner wheel for SajiloMart, a Nepali online grocery store.
Respond with JSON:
{"prizes": [{"label": string, "type": "percentage"|"fixed", "value": number}], "winnerIndex": number, "couponCode": string}
Rules: exactly %d prizes, percentage values between 5 and 25, fixed values in rupees between 50 and 500,
winnerIndex is the zero-based index of the prize the customer wins, couponCode is 8-12 uppercase letters and digits.`,
		SpinnerPrizeCount)

	var wheel SpinnerWheel
	if err := c.GenerateJSON(ctx, prompt, &wheel); err != nil {
		return nil, err
	}
	if err := validateWheel(&wheel); err != nil {
		return nil, err
	}
	return &wheel, nil
}

// LearningArticle generates a learning-zone piece on the given topic.
func (c *Client) LearningArticle(ctx context.Context, topic string) (*Article, error) {
	prompt := fmt.Sprintf(`Write a short educational article for the learning zone of SajiloMart, a Nepali online grocery store.
Topic: %q. Audience: home cooks and everyday shoppers.
Respond with JSON: {"title": string, "body": string, "tips": [string]}. Body under 250 words, 3 to 5 tips.`, topic)

	var article Article
	if err := c.GenerateJSON(ctx, prompt, &article); err != nil {
		return nil, err
	}
	if strings.TrimSpace(article.Title) == "" || strings.TrimSpace(article.Body) == "" {
		return nil, fmt.Errorf("generated article is missing title or body")
	}
	return &article, nil
}

func validateWheel(wheel *SpinnerWheel) error {
	if len(wheel.Prizes) != SpinnerPrizeCount {
		return fmt.Errorf("spinner needs exactly %d prizes, got %d", SpinnerPrizeCount, len(wheel.Prizes))
	}
	if wheel.WinnerIndex < 0 || wheel.WinnerIndex >= len(wheel.Prizes) {
		return fmt.Errorf("spinner winner index %d out of range", wheel.WinnerIndex)
	}
	wheel.CouponCode = strings.ToUpper(strings.TrimSpace(wheel.CouponCode))
	if len(wheel.CouponCode) < 6 {
		return fmt.Errorf("spinner coupon code too short")
	}
	for i, prize := range wheel.Prizes {
		if !prize.Type.IsValid() {
			return fmt.Errorf("prize %d has invalid type %q", i, prize.Type)
		}
		if !prize.Value.IsPositive() {
			return fmt.Errorf("prize %d has non-positive value", i)
		}
		if strings.TrimSpace(prize.Label) == "" {
			return fmt.Errorf("prize %d has no label", i)
		}
	}
	return nil
}

// FallbackOrderConfirmation is the static copy used when generation fails.
func FallbackOrderConfirmation(input OrderEmailInput) *EmailContent {
	return &EmailContent{
		Subject: "Your SajiloMart order is confirmed",
		Body: fmt.Sprintf(
			"Hi %s,\n\nThanks for shopping with SajiloMart! Your order %s for Rs %s has been placed and is being prepared.\n\nYou can track it any time from your account.\n\nThe SajiloMart Team",
			input.CustomerName, input.OrderID, input.Total),
	}
}

// FallbackWelcome is the static signup greeting used when generation fails.
func FallbackWelcome(customerName string) *EmailContent {
	return &EmailContent{
		Subject: "Welcome to SajiloMart!",
		Body: fmt.Sprintf(
			"Hi %s,\n\nWelcome to SajiloMart! Your account is ready. Browse fresh groceries, daily essentials, and festival offers, delivered to your door.\n\nHappy shopping!\nThe SajiloMart Team",
			customerName),
	}
}
