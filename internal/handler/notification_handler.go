package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"beneficiary-portal/internal/service"
	"beneficiary-portal/internal/util"
)

// NotificationHandler manages the WhatsApp queue over HTTP
type NotificationHandler struct {
	notifications *service.NotificationService
	logger        *zap.Logger
}

func NewNotificationHandler(notifications *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		logger:        logger,
	}
}

func (h *NotificationHandler) RegisterRoutes(router chi.Router) {
	router.Route("/notifications", func(r chi.Router) {
		r.Post("/", h.Enqueue)
		r.Get("/pending", h.Pending)
		r.Get("/stats", h.Stats)
		r.Get("/beneficiary/{beneficiaryID}", h.ByBeneficiary)
		r.Get("/{notificationID}/link", h.Link)
		r.Post("/{notificationID}/sent", h.MarkSent)
		r.Post("/{notificationID}/failed", h.MarkFailed)
		r.Post("/{notificationID}/cancel", h.Cancel)
		r.Post("/dispatch", h.Dispatch)
	})
}

type enqueueRequest struct {
	BeneficiaryID    string            `json:"beneficiary_id"`
	NotificationType string            `json:"notification_type"`
	PackageID        string            `json:"package_id,omitempty"`
	Phone            string            `json:"phone"`
	Variables        map[string]string `json:"variables"`
}

func (h *NotificationHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}

	err := h.notifications.Enqueue(r.Context(), &service.EnqueueRequest{
		BeneficiaryID:    req.BeneficiaryID,
		NotificationType: req.NotificationType,
		PackageID:        req.PackageID,
		Phone:            req.Phone,
		Variables:        req.Variables,
	})
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, successResponse(nil, "تمت إضافة الإشعار إلى قائمة الانتظار"))
}

func (h *NotificationHandler) Pending(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	pending, err := h.notifications.Pending(r.Context(), limit)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(pending, ""))
}

func (h *NotificationHandler) ByBeneficiary(w http.ResponseWriter, r *http.Request) {
	beneficiaryID := chi.URLParam(r, "beneficiaryID")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	notifications, err := h.notifications.ByBeneficiary(r.Context(), beneficiaryID, limit)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(notifications, ""))
}

type linkResponse struct {
	Link    string `json:"link"`
	Message string `json:"message"`
}

// Link renders the message and returns the wa.me URL for manual sending
func (h *NotificationHandler) Link(w http.ResponseWriter, r *http.Request) {
	notificationID := chi.URLParam(r, "notificationID")

	n, err := h.notifications.Get(r.Context(), notificationID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(linkResponse{
		Link:    h.notifications.SendLink(n),
		Message: h.notifications.RenderMessage(n),
	}, ""))
}

func (h *NotificationHandler) MarkSent(w http.ResponseWriter, r *http.Request) {
	notificationID := chi.URLParam(r, "notificationID")

	if err := h.notifications.MarkSent(r.Context(), notificationID); err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "تم تأكيد إرسال الإشعار"))
}

type markFailedRequest struct {
	ErrorMessage string `json:"error_message"`
}

func (h *NotificationHandler) MarkFailed(w http.ResponseWriter, r *http.Request) {
	notificationID := chi.URLParam(r, "notificationID")

	var req markFailedRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}

	if err := h.notifications.MarkFailed(r.Context(), notificationID, req.ErrorMessage); err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "تم تسجيل فشل الإرسال"))
}

func (h *NotificationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	notificationID := chi.URLParam(r, "notificationID")

	if err := h.notifications.Cancel(r.Context(), notificationID); err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "تم إلغاء الإشعار"))
}

// Dispatch pushes pending messages through the provider API
func (h *NotificationHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	sent, err := h.notifications.DispatchPending(r.Context(), limit)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(map[string]int{"sent": sent}, ""))
	h.logger.Info("Dispatch triggered via HTTP", util.Int("sent", sent))
}

func (h *NotificationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.notifications.Stats(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(stats, ""))
}
