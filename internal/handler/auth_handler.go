package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"beneficiary-portal/internal/apierr"
	"beneficiary-portal/internal/models"
	"beneficiary-portal/internal/service"
	"beneficiary-portal/internal/util"
	"beneficiary-portal/internal/whatsapp"
)

// AuthHandler exposes login, PIN and OTP endpoints
type AuthHandler struct {
	authService        *service.AuthService
	beneficiaryService *service.BeneficiaryService
	notifications      *service.NotificationService
	features           *service.FeatureService
	logger             *zap.Logger
}

func NewAuthHandler(
	authService *service.AuthService,
	beneficiaryService *service.BeneficiaryService,
	notifications *service.NotificationService,
	features *service.FeatureService,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService:        authService,
		beneficiaryService: beneficiaryService,
		notifications:      notifications,
		features:           features,
		logger:             logger,
	}
}

func (h *AuthHandler) RegisterRoutes(router chi.Router) {
	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/pin", h.UpdatePIN)
		r.Post("/temp-password", h.IssueTempPassword)
		r.Post("/temp-password/verify", h.VerifyTempPassword)
		r.Post("/otp", h.IssueOTP)
		r.Post("/otp/verify", h.VerifyOTP)
	})
}

// requirePortal rejects requests while the portal feature is switched off
func (h *AuthHandler) requirePortal(w http.ResponseWriter, r *http.Request) bool {
	snapshot, err := h.features.Snapshot(r.Context())
	if err != nil {
		respondWithError(w, err)
		return false
	}
	if !snapshot.PortalEnabled {
		respondWithError(w, apierr.New(apierr.KindValidation, "بوابة المستفيدين غير متاحة حالياً"))
		return false
	}
	return true
}

type registerRequest struct {
	NationalID string `json:"national_id"`
	PIN        string `json:"pin"`
}

// Register creates the credential record for an existing beneficiary and
// queues the welcome message.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	if !h.requirePortal(w, r) {
		return
	}

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}

	beneficiary, err := h.beneficiaryService.GetByNationalID(ctx, req.NationalID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	auth, err := h.authService.CreateAuth(ctx, beneficiary.ID, req.NationalID, req.PIN)
	if err != nil {
		respondWithError(w, err)
		return
	}

	h.queueMessage(ctx, beneficiary, whatsapp.TypeWelcomeRegistration, nil)

	respondWithJSON(w, http.StatusCreated, successResponse(auth, "تم إنشاء الحساب بنجاح"))
	h.logger.Info("Beneficiary registered via HTTP",
		util.String("beneficiary_id", beneficiary.ID),
		util.Duration("duration", time.Since(startTime)))
}

type loginRequest struct {
	NationalID string `json:"national_id"`
	PIN        string `json:"pin"`
}

type loginResponse struct {
	Auth        *models.BeneficiaryAuth `json:"auth"`
	Beneficiary *models.Beneficiary     `json:"beneficiary"`
}

// Login verifies the PIN and stamps portal access on success
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.requirePortal(w, r) {
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}

	auth, err := h.authService.VerifyPIN(ctx, req.NationalID, req.PIN)
	if err != nil {
		respondWithError(w, err)
		return
	}

	beneficiary, err := h.beneficiaryService.GetByID(ctx, auth.BeneficiaryID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	if err := h.authService.UpdatePortalAccess(ctx, auth.BeneficiaryID); err != nil {
		util.Warn("Failed to stamp portal access", zap.Error(err))
	}

	respondWithJSON(w, http.StatusOK, successResponse(loginResponse{
		Auth:        auth,
		Beneficiary: beneficiary,
	}, "تم تسجيل الدخول بنجاح"))
}

type updatePINRequest struct {
	NationalID string `json:"national_id"`
	CurrentPIN string `json:"current_pin"`
	NewPIN     string `json:"new_pin"`
}

// UpdatePIN verifies the current PIN then replaces it
func (h *AuthHandler) UpdatePIN(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updatePINRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}

	if _, err := h.authService.VerifyPIN(ctx, req.NationalID, req.CurrentPIN); err != nil {
		respondWithError(w, err)
		return
	}

	if err := h.authService.UpdatePIN(ctx, req.NationalID, req.NewPIN); err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "تم تغيير كلمة المرور بنجاح"))
}

type nationalIDRequest struct {
	NationalID string `json:"national_id"`
}

// IssueTempPassword creates a 24-hour single-use password and queues it for
// WhatsApp delivery. The plaintext never appears in the HTTP response.
func (h *AuthHandler) IssueTempPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req nationalIDRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}

	beneficiary, err := h.beneficiaryService.GetByNationalID(ctx, req.NationalID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	tempPassword, err := h.authService.CreateTemporaryPassword(ctx, req.NationalID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	h.queueMessage(ctx, beneficiary, whatsapp.TypeTemporaryPassword, map[string]string{
		"password": tempPassword,
	})

	respondWithJSON(w, http.StatusOK, successResponse(nil,
		"تم إرسال كلمة المرور المؤقتة عبر واتساب"))
}

type verifyTempPasswordRequest struct {
	NationalID   string `json:"national_id"`
	TempPassword string `json:"temp_password"`
	NewPIN       string `json:"new_pin"`
}

// VerifyTempPassword burns the ticket and installs the new PIN in one step
func (h *AuthHandler) VerifyTempPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req verifyTempPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}

	if _, err := h.authService.VerifyTemporaryPassword(ctx, req.NationalID, req.TempPassword); err != nil {
		respondWithError(w, err)
		return
	}

	if err := h.authService.UpdatePIN(ctx, req.NationalID, req.NewPIN); err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "تم تعيين كلمة المرور الجديدة"))
}

type issueOTPRequest struct {
	NationalID string `json:"national_id"`
	Purpose    string `json:"purpose"`
}

// IssueOTP generates a code and queues it for WhatsApp delivery
func (h *AuthHandler) IssueOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req issueOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}

	beneficiary, err := h.beneficiaryService.GetByNationalID(ctx, req.NationalID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	code, err := h.authService.GenerateOTP(ctx, beneficiary.ID, req.Purpose)
	if err != nil {
		respondWithError(w, err)
		return
	}

	h.queueMessage(ctx, beneficiary, whatsapp.TypeOTPCode, map[string]string{
		"otp": code,
	})

	respondWithJSON(w, http.StatusOK, successResponse(nil, "تم إرسال رمز التحقق عبر واتساب"))
}

type verifyOTPRequest struct {
	NationalID string `json:"national_id"`
	Code       string `json:"code"`
	Purpose    string `json:"purpose"`
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req verifyOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}

	beneficiary, err := h.beneficiaryService.GetByNationalID(ctx, req.NationalID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	if err := h.authService.VerifyOTP(ctx, beneficiary.ID, req.Code, req.Purpose); err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "تم التحقق من الرمز بنجاح"))
}

// queueMessage enqueues a WhatsApp message using the beneficiary's decrypted
// phone; a queue failure is logged, not surfaced, since the primary operation
// already succeeded.
func (h *AuthHandler) queueMessage(ctx context.Context, beneficiary *models.Beneficiary, notificationType string, extra map[string]string) {
	if beneficiary.Phone == "" {
		util.Warn("No phone on record, message not queued",
			zap.String("beneficiary_id", beneficiary.ID),
			zap.String("type", notificationType))
		return
	}

	snapshot, err := h.features.Snapshot(ctx)
	if err != nil {
		util.Warn("Feature snapshot unavailable for message", zap.Error(err))
		return
	}

	variables := map[string]string{
		"name":          beneficiary.Name,
		"support_phone": snapshot.SupportPhone,
	}
	for k, v := range extra {
		variables[k] = v
	}

	err = h.notifications.Enqueue(ctx, &service.EnqueueRequest{
		BeneficiaryID:    beneficiary.ID,
		NotificationType: notificationType,
		Phone:            beneficiary.Phone,
		Variables:        variables,
	})
	if err != nil {
		util.Warn("Message not queued",
			zap.String("beneficiary_id", beneficiary.ID),
			zap.String("type", notificationType),
			zap.Error(err))
	}
}
