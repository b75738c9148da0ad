package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fotomagic-pro/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*ResendNotifier)(nil)

// ResendNotifier delivers code emails through the Resend HTTP API.
type ResendNotifier struct {
	apiKey  string
	from    string
	siteURL string
	baseURL string
	client  *http.Client
}

func NewResendNotifier(apiKey, from, siteURL string) *ResendNotifier {
	return &ResendNotifier{
		apiKey:  apiKey,
		from:    from,
		siteURL: siteURL,
		baseURL: "https://api.resend.com",
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *ResendNotifier) SendCode(ctx context.Context, recipient string, delivery adapter.CodeDelivery) error {
	body := map[string]interface{}{
		"from":    n.from,
		"to":      recipient,
		"subject": fmt.Sprintf("Your FotoMagic Pro code: %s", delivery.Code),
		"html":    codeEmailHTML(delivery, n.siteURL),
	}
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("resend http %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}

// codeEmailHTML renders the purchase-confirmation email. Plain HTML tables;
// mail clients choke on anything fancier.
func codeEmailHTML(d adapter.CodeDelivery, siteURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; background-color: #0f0f23; color: #ffffff; margin: 0; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto; background: #1a1a2e; border-radius: 16px; overflow: hidden;">
    <div style="background: #8B5CF6; padding: 30px; text-align: center;">
      <h1 style="margin: 0; font-size: 28px; color: #ffffff;">FotoMagic Pro</h1>
    </div>
    <div style="padding: 40px 30px;">
      <h2 style="color: #10B981; margin: 0 0 20px;">Payment confirmed!</h2>
      <p style="color: #a0a0a0; font-size: 16px;">Thanks for your purchase. Your access code is ready to use.</p>
      <div style="border: 2px solid #8B5CF6; border-radius: 12px; padding: 25px; text-align: center; margin: 30px 0;">
        <p style="color: #a0a0a0; margin: 0 0 10px; font-size: 14px;">YOUR ACCESS CODE</p>
        <p style="font-size: 32px; font-weight: bold; color: #8B5CF6; margin: 0; letter-spacing: 3px; font-family: monospace;">%s</p>
      </div>
      <table style="width: 100%%; border-collapse: collapse;">
        <tr><td style="color: #a0a0a0; padding: 8px 0;">Package:</td><td style="color: #ffffff; text-align: right;">%s</td></tr>
        <tr><td style="color: #a0a0a0; padding: 8px 0;">Credits:</td><td style="color: #10B981; text-align: right; font-weight: bold;">%d restorations</td></tr>
        <tr><td style="color: #a0a0a0; padding: 8px 0;">Valid for:</td><td style="color: #ffffff; text-align: right;">12 months</td></tr>
      </table>
      <div style="text-align: center; margin: 40px 0 20px;">
        <a href="%s" style="display: inline-block; background: #8B5CF6; color: #ffffff; text-decoration: none; padding: 16px 40px; border-radius: 8px; font-weight: bold;">Start restoring</a>
      </div>
    </div>
  </div>
</body>
</html>`, d.Code, d.PackageName, d.Credits, siteURL)
}
