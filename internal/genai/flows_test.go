package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pradeepsarraf/sajilomart-backend/pkg/config"
)

// newStubProvider returns a client pointed at an httptest server that answers
// every prompt with the given JSON payload.
func newStubProvider(t *testing.T, payload string) (*Client, *[]string) {
	t.Helper()

	var prompts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Contents)
		prompts = append(prompts, req.Contents[0].Parts[0].Text)

		response := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": payload}}}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}))
	t.Cleanup(server.Close)

	client := NewClient(config.GenAIConfig{
		APIKey:     "test-key",
		APIBaseURL: server.URL,
		Model:      "test-model",
		Timeout:    5 * time.Second,
	}, nil)
	return client, &prompts
}

func TestOrderConfirmationEmailIncludesOrderDetails(t *testing.T) {
	client, prompts := newStubProvider(t, `{"subject":"Order confirmed","body":"Thanks for your order!"}`)

	email, err := client.OrderConfirmationEmail(context.Background(), OrderEmailInput{
		CustomerName: "Asha",
		OrderID:      "abc-123",
		Total:        "490.00",
		CouponCode:   "SAVE10",
	})
	require.NoError(t, err)
	assert.Equal(t, "Order confirmed", email.Subject)

	require.Len(t, *prompts, 1)
	prompt := (*prompts)[0]
	assert.Contains(t, prompt, "abc-123")
	assert.Contains(t, prompt, "490.00")
	assert.Contains(t, prompt, "SAVE10")
}

func TestGenerateJSONToleratesCodeFences(t *testing.T) {
	client, _ := newStubProvider(t, "```json\n{\"subject\":\"Hi\",\"body\":\"Welcome aboard.\"}\n```")

	email, err := client.WelcomeEmail(context.Background(), "Asha")
	require.NoError(t, err)
	assert.Equal(t, "Hi", email.Subject)
}

func TestWelcomeEmailRejectsEmptyContent(t *testing.T) {
	client, _ := newStubProvider(t, `{"subject":"","body":""}`)

	_, err := client.WelcomeEmail(context.Background(), "Asha")
	assert.Error(t, err)
}

func spinnerJSON(prizeCount, winnerIndex int, code string) string {
	prizes := make([]string, 0, prizeCount)
	for i := 0; i < prizeCount; i++ {
		prizes = append(prizes, fmt.Sprintf(`{"label":"Prize %d","type":"percentage","value":10}`, i+1))
	}
	return fmt.Sprintf(`{"prizes":[%s],"winnerIndex":%d,"couponCode":%q}`,
		strings.Join(prizes, ","), winnerIndex, code)
}

func TestDiscountSpinnerValidatesShape(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"valid wheel", spinnerJSON(8, 3, "spin50off"), false},
		{"seven prizes", spinnerJSON(7, 0, "SPIN50OFF"), true},
		{"winner out of range", spinnerJSON(8, 8, "SPIN50OFF"), true},
		{"short coupon code", spinnerJSON(8, 0, "AB1"), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newStubProvider(t, tc.payload)
			wheel, err := client.DiscountSpinner(context.Background())
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, wheel.Prizes, SpinnerPrizeCount)
			assert.Equal(t, "SPIN50OFF", wheel.CouponCode, "codes are normalized to uppercase")
		})
	}
}

func TestClientNotConfigured(t *testing.T) {
	client := NewClient(config.GenAIConfig{Timeout: time.Second}, nil)

	_, err := client.WelcomeEmail(context.Background(), "Asha")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestFallbacksCarryCustomerName(t *testing.T) {
	email := FallbackOrderConfirmation(OrderEmailInput{CustomerName: "Asha", OrderID: "abc", Total: "490.00"})
	assert.Contains(t, email.Body, "Asha")
	assert.Contains(t, email.Body, "490.00")

	welcome := FallbackWelcome("Asha")
	assert.Contains(t, welcome.Body, "Asha")
}
