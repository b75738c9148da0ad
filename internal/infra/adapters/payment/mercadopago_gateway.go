package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fotomagic-pro/internal/domain"
	"fotomagic-pro/internal/domain/model"
	"fotomagic-pro/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*MercadoPagoGateway)(nil)

// MercadoPagoGateway implements the payment port with direct HTTP calls
// against the Mercado Pago REST API.
type MercadoPagoGateway struct {
	accessToken string
	baseURL     string
	siteURL     string
	webhookPath string
	client      *http.Client
}

func NewMercadoPagoGateway(accessToken, baseURL, siteURL, webhookPath string) *MercadoPagoGateway {
	if baseURL == "" {
		baseURL = "https://api.mercadopago.com"
	}
	return &MercadoPagoGateway{
		accessToken: accessToken,
		baseURL:     strings.TrimRight(baseURL, "/"),
		siteURL:     strings.TrimRight(siteURL, "/"),
		webhookPath: webhookPath,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *MercadoPagoGateway) Name() string { return "mercadopago" }

type preferenceResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

// CreateIntent registers a checkout preference carrying the order context in
// external_reference; Mercado Pago echoes it back on the resulting payment.
func (g *MercadoPagoGateway) CreateIntent(ctx context.Context, pkg model.CreditPackage, payerEmail string, orderRef string) (string, string, error) {
	body := map[string]interface{}{
		"items": []map[string]interface{}{{
			"id":          pkg.ID,
			"title":       fmt.Sprintf("%s - %d Credits", pkg.Name, pkg.Credits),
			"description": fmt.Sprintf("FotoMagic Pro - %d photo restorations", pkg.Credits),
			"quantity":    1,
			"currency_id": "BRL",
			"unit_price":  float64(pkg.PriceCents) / 100,
		}},
		"payer": map[string]string{"email": payerEmail},
		"back_urls": map[string]string{
			"success": fmt.Sprintf("%s/?status=success&package=%s", g.siteURL, pkg.ID),
			"failure": g.siteURL + "/?status=failure",
			"pending": g.siteURL + "/?status=pending",
		},
		"auto_return":          "approved",
		"notification_url":     g.siteURL + g.webhookPath,
		"external_reference":   orderRef,
		"statement_descriptor": "FOTOMAGIC PRO",
	}

	var resp preferenceResponse
	if err := g.post(ctx, "/checkout/preferences", body, &resp); err != nil {
		return "", "", err
	}
	if resp.ID == "" || resp.InitPoint == "" {
		return "", "", fmt.Errorf("mercadopago: preference response missing id or init_point")
	}
	return resp.ID, resp.InitPoint, nil
}

type paymentResponse struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	ExternalReference string      `json:"external_reference"`
	TransactionAmount float64     `json:"transaction_amount"`
	CurrencyID        string      `json:"currency_id"`
	Payer             struct {
		Email string `json:"email"`
	} `json:"payer"`
}

func (g *MercadoPagoGateway) FetchPayment(ctx context.Context, paymentID string) (*model.PaymentDetails, error) {
	var resp paymentResponse
	if err := g.get(ctx, "/v1/payments/"+url.PathEscape(paymentID), &resp); err != nil {
		return nil, err
	}
	return toPaymentDetails(&resp), nil
}

func (g *MercadoPagoGateway) FindPaymentByIntent(ctx context.Context, providerIntentID string) (*model.PaymentDetails, error) {
	var resp struct {
		Results []paymentResponse `json:"results"`
	}
	path := "/v1/payments/search?preference_id=" + url.QueryEscape(providerIntentID) + "&sort=date_created&criteria=desc"
	if err := g.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, domain.ErrNotFound
	}
	// Newest first; an approved payment outranks abandoned attempts.
	for i := range resp.Results {
		if resp.Results[i].Status == "approved" {
			return toPaymentDetails(&resp.Results[i]), nil
		}
	}
	return toPaymentDetails(&resp.Results[0]), nil
}

func toPaymentDetails(p *paymentResponse) *model.PaymentDetails {
	return &model.PaymentDetails{
		ID:                p.ID.String(),
		Status:            mapStatus(p.Status),
		ExternalReference: p.ExternalReference,
		PayerEmail:        p.Payer.Email,
		AmountCents:       int64(math.Round(p.TransactionAmount * 100)),
		Currency:          p.CurrencyID,
	}
}

func mapStatus(s string) model.PaymentStatus {
	switch s {
	case "approved":
		return model.PaymentStatusApproved
	case "rejected", "cancelled", "refunded", "charged_back":
		return model.PaymentStatusRejected
	default:
		return model.PaymentStatusPending
	}
}

func (g *MercadoPagoGateway) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request data: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return g.do(req, out)
}

func (g *MercadoPagoGateway) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return g.do(req, out)
}

func (g *MercadoPagoGateway) do(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.accessToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("mercadopago http %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w, body: %s", err, string(body))
	}
	return nil
}
