package web

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fotomagic-pro/internal/domain"
	"fotomagic-pro/internal/domain/model"
	"fotomagic-pro/internal/infra/logging"
	"fotomagic-pro/internal/infra/metrics"
	"fotomagic-pro/internal/usecase"
)

// maxImageBytes bounds the decoded upload; the generative backends reject
// larger images anyway.
const maxImageBytes = 20 << 20

func (s *Server) handleListPackages(w http.ResponseWriter, r *http.Request) {
	type pkg struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Credits int    `json:"credits"`
		Price   int64  `json:"price_cents"`
	}
	out := make([]pkg, 0, len(model.PackageOrder))
	for _, id := range model.PackageOrder {
		p := model.Packages[id]
		out = append(out, pkg{ID: p.ID, Name: p.Name, Credits: p.Credits, Price: p.PriceCents})
	}
	writeJSON(w, http.StatusOK, struct {
		Data []pkg `json:"data"`
	}{Data: out})
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PackageID string `json:"packageId"`
		Email     string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	intent, err := s.checkoutUC.CreateIntent(r.Context(), req.PackageID, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "unknown package")
			return
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		IntentID    string `json:"intentId"`
		RedirectURL string `json:"redirectUrl"`
	}{IntentID: intent.ID, RedirectURL: intent.RedirectURL})
}

func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")

	cc, status, err := s.reconcilerUC.VerifyPayment(r.Context(), paymentID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if status != model.PaymentStatusApproved {
		writeJSON(w, http.StatusOK, struct {
			Success bool   `json:"success"`
			Status  string `json:"status"`
		}{Success: false, Status: string(status)})
		return
	}
	if cc == nil {
		// Approved but the order context was unusable; support has to step in.
		writeError(w, http.StatusConflict, "payment approved but order data is missing")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success     bool   `json:"success"`
		Code        string `json:"code"`
		Credits     int    `json:"credits"`
		PackageName string `json:"packageName"`
		Email       string `json:"email"`
	}{Success: true, Code: cc.Code, Credits: cc.CreditsTotal, PackageName: cc.PackageName, Email: cc.Email})
}

func (s *Server) handleValidateCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.ledgerUC.ValidateCode(r.Context(), req.Code)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if result.Valid {
		metrics.IncValidation("ok")
	} else {
		metrics.IncValidation(string(result.Reason))
	}

	writeJSON(w, http.StatusOK, struct {
		Valid            bool   `json:"valid"`
		Reason           string `json:"reason,omitempty"`
		Code             string `json:"code,omitempty"`
		CreditsRemaining int    `json:"creditsRemaining"`
		CreditsTotal     int    `json:"creditsTotal,omitempty"`
		PackageName      string `json:"packageName,omitempty"`
		ExpiresAt        string `json:"expiresAt,omitempty"`
	}{
		Valid:            result.Valid,
		Reason:           string(result.Reason),
		Code:             result.Code,
		CreditsRemaining: result.CreditsRemaining,
		CreditsTotal:     result.CreditsTotal,
		PackageName:      result.PackageName,
		ExpiresAt:        formatTime(result.ExpiresAt),
	})
}

func (s *Server) handleRedeemCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	remaining, err := s.ledgerUC.UseCredit(r.Context(), req.Code)
	if err != nil {
		if reason, ok := usecase.ReasonFor(err); ok {
			metrics.IncRedemption(string(reason))
		}
		writeDomainError(w, err)
		return
	}
	metrics.IncRedemption("ok")

	writeJSON(w, http.StatusOK, struct {
		Success          bool `json:"success"`
		CreditsRemaining int  `json:"creditsRemaining"`
	}{Success: true, CreditsRemaining: remaining})
}

// handleActivateCode pins a validated code to the browser session so later
// restorations need not carry it. The pin is a hint; consumption re-validates.
func (s *Server) handleActivateCode(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.ledgerUC.ValidateCode(r.Context(), req.Code)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !result.Valid {
		writeJSON(w, http.StatusUnprocessableEntity, apiError{Error: "code is not usable", Reason: string(result.Reason)})
		return
	}

	if s.sessions != nil {
		if err := s.sessions.ActivateCode(r.Context(), sessionID, result.Code); err != nil {
			s.log.Warn().Err(err).Msg("session activate failed")
		}
	}

	writeJSON(w, http.StatusOK, struct {
		Active           bool   `json:"active"`
		Code             string `json:"code"`
		CreditsRemaining int    `json:"creditsRemaining"`
	}{Active: true, Code: result.Code, CreditsRemaining: result.CreditsRemaining})
}

func (s *Server) handleDeactivateCode(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if s.sessions != nil {
		if err := s.sessions.DeactivateCode(r.Context(), sessionID); err != nil {
			s.log.Warn().Err(err).Msg("session deactivate failed")
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ImageBase64 string `json:"imageBase64"`
		MimeType    string `json:"mimeType"`
		Mode        string `json:"mode"`
		Code        string `json:"code"`
		SessionID   string `json:"sessionId"`
		AccountID   string `json:"accountId"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImageBytes*4/3+4096)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil || len(image) == 0 {
		writeError(w, http.StatusBadRequest, "imageBase64 is not valid base64")
		return
	}
	if len(image) > maxImageBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "image too large")
		return
	}

	outcome, err := s.restorationUC.Restore(r.Context(), usecase.RestorationRequest{
		Image:     image,
		MimeType:  req.MimeType,
		Mode:      model.ParseRestorationMode(req.Mode),
		Code:      req.Code,
		SessionID: req.SessionID,
		AccountID: req.AccountID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	l := logging.With(r.Context(), s.log)
	l.Info().Str("restoration", outcome.Restoration.ID).Str("source", string(outcome.Restoration.Source)).Msg("restoration served")

	writeJSON(w, http.StatusOK, struct {
		ID               string `json:"id"`
		ImageBase64      string `json:"imageBase64"`
		MimeType         string `json:"mimeType"`
		Text             string `json:"text,omitempty"`
		Watermark        bool   `json:"watermark"`
		Source           string `json:"source"`
		CreditsRemaining int    `json:"creditsRemaining"`
	}{
		ID:               outcome.Restoration.ID,
		ImageBase64:      base64.StdEncoding.EncodeToString(outcome.Result.ImageBytes),
		MimeType:         outcome.Result.MimeType,
		Text:             outcome.Result.DescriptiveText,
		Watermark:        outcome.Restoration.Watermark,
		Source:           string(outcome.Restoration.Source),
		CreditsRemaining: outcome.Restoration.CreditsRemaining,
	})
}

func (s *Server) handleGetAllowance(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	email := r.URL.Query().Get("email")

	fa, err := s.allowanceUC.Get(r.Context(), accountID, email)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		AccountID        string `json:"accountId"`
		CreditsRemaining int    `json:"creditsRemaining"`
		CreditsLimit     int    `json:"creditsLimit"`
	}{AccountID: fa.AccountID, CreditsRemaining: fa.CreditsRemaining(), CreditsLimit: fa.CreditsLimit})
}
