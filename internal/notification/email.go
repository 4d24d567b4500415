package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// PriceAlertEmail is the payload for one trigger notification.
type PriceAlertEmail struct {
	Email        string
	Name         string
	ProductName  string
	InitialPrice decimal.Decimal
	TargetPrice  decimal.Decimal
	CurrentPrice decimal.Decimal
	Website      string
	ProductURL   string
	Savings      decimal.Decimal
}

// Mailer delivers trigger notifications. Implementations fail loudly on
// transport failure; retry policy belongs to the caller (currently: none,
// a single attempt per trigger).
type Mailer interface {
	SendPriceAlert(ctx context.Context, msg PriceAlertEmail) error
}

// BrevoMailer sends transactional email through the Brevo SMTP API.
type BrevoMailer struct {
	HTTP     *http.Client
	BaseURL  string
	APIKey   string
	FromMail string
	FromName string
}

type brevoRecipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoSendRequest struct {
	Sender      brevoRecipient   `json:"sender"`
	To          []brevoRecipient `json:"to"`
	Subject     string           `json:"subject"`
	HTMLContent string           `json:"htmlContent"`
	TextContent string           `json:"textContent"`
}

func (m *BrevoMailer) SendPriceAlert(ctx context.Context, msg PriceAlertEmail) error {
	payload := brevoSendRequest{
		Sender:      brevoRecipient{Email: m.FromMail, Name: m.FromName},
		To:          []brevoRecipient{{Email: msg.Email, Name: msg.Name}},
		Subject:     fmt.Sprintf("Price Drop Alert: %s", msg.ProductName),
		HTMLContent: priceAlertHTML(msg),
		TextContent: priceAlertText(msg),
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	client := m.HTTP
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	baseURL := m.BaseURL
	if baseURL == "" {
		baseURL = "https://api.brevo.com"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v3/smtp/email", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", m.APIKey)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo http %d", resp.StatusCode)
	}
	return nil
}

// SavingsPercent is the saved share of the target price, rounded to a whole
// percent. A zero target yields zero rather than a division error.
func SavingsPercent(savings, targetPrice decimal.Decimal) int64 {
	if !targetPrice.IsPositive() {
		return 0
	}
	return savings.Div(targetPrice).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func priceAlertHTML(msg PriceAlertEmail) string {
	name := msg.Name
	if name == "" {
		name = "there"
	}
	website := msg.Website
	if website == "" {
		website = "multiple retailers"
	}
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #10B981;">Price Drop Alert!</h2>
  <p>Hi %s,</p>
  <p>Great news! The price of <strong>%s</strong> has dropped!</p>
  <table style="width: 100%%; background: #F3F4F6; border-radius: 8px; padding: 16px;">
    <tr>
      <td>Your Target Price<br><strong>%s</strong></td>
      <td>Current Price<br><strong>%s</strong></td>
    </tr>
  </table>
  <p>Save %s (%d%% off)</p>
  <p>Available on: <strong>%s</strong></p>
  <p><a href="%s">Buy Now</a></p>
  <p style="font-size: 12px; color: #9CA3AF;">This alert has been deactivated. You can create a new alert anytime.</p>
</div>`,
		name, msg.ProductName,
		msg.TargetPrice.StringFixed(2), msg.CurrentPrice.StringFixed(2),
		msg.Savings.StringFixed(2), SavingsPercent(msg.Savings, msg.TargetPrice),
		website, msg.ProductURL,
	)
}

func priceAlertText(msg PriceAlertEmail) string {
	return fmt.Sprintf(
		"The price of %s dropped to %s (target %s). You save %s. %s",
		msg.ProductName, msg.CurrentPrice.StringFixed(2),
		msg.TargetPrice.StringFixed(2), msg.Savings.StringFixed(2), msg.ProductURL,
	)
}
