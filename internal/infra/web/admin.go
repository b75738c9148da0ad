package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fotomagic-pro/internal/domain/model"
	"fotomagic-pro/internal/infra/logging"
	"fotomagic-pro/internal/infra/metrics"
)

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"apiKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	key := s.cfg.Admin.APIKey
	if key == "" || subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(key)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.auth.Mint(w)
	if err != nil {
		s.log.Error().Err(err).Msg("session mint failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Token string `json:"token"`
	}{Token: token})
}

func (s *Server) handleAdminCreateCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Credits     int    `json:"credits"`
		PackageName string `json:"packageName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PackageName == "" {
		req.PackageName = "Manual"
	}

	cc, err := s.ledgerUC.CreateCode(r.Context(), req.Email, req.Credits, req.PackageName, nil)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	metrics.IncCodeIssued("admin")
	s.log.Info().
		Str("code", cc.Code).
		Str("email", logging.Redact(cc.Email, s.cfg.Runtime.Dev)).
		Int("credits", cc.CreditsTotal).
		Msg("admin issued code")

	writeJSON(w, http.StatusCreated, codeView(cc))
}

func (s *Server) handleAdminDeactivateCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if err := s.ledgerUC.DeactivateCode(r.Context(), code); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminListCodes(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "email query parameter is required")
		return
	}

	codes, err := s.ledgerUC.ListCodes(r.Context(), email)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]codeSummary, 0, len(codes))
	for _, cc := range codes {
		out = append(out, codeView(cc))
	}
	writeJSON(w, http.StatusOK, struct {
		Data []codeSummary `json:"data"`
	}{Data: out})
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ledgerUC.Stats(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type codeSummary struct {
	Code             string `json:"code"`
	Email            string `json:"email"`
	PackageName      string `json:"packageName"`
	CreditsTotal     int    `json:"creditsTotal"`
	CreditsUsed      int    `json:"creditsUsed"`
	CreditsRemaining int    `json:"creditsRemaining"`
	IsActive         bool   `json:"isActive"`
	PaymentID        string `json:"paymentId,omitempty"`
	CreatedAt        string `json:"createdAt"`
	ExpiresAt        string `json:"expiresAt"`
	Expired          bool   `json:"expired"`
}

func codeView(cc *model.CreditCode) codeSummary {
	v := codeSummary{
		Code:             cc.Code,
		Email:            cc.Email,
		PackageName:      cc.PackageName,
		CreditsTotal:     cc.CreditsTotal,
		CreditsUsed:      cc.CreditsUsed,
		CreditsRemaining: cc.CreditsRemaining(),
		IsActive:         cc.IsActive,
		CreatedAt:        formatTime(cc.CreatedAt),
		ExpiresAt:        formatTime(cc.ExpiresAt),
		Expired:          cc.Expired(time.Now()),
	}
	if cc.PaymentID != nil {
		v.PaymentID = *cc.PaymentID
	}
	return v
}
