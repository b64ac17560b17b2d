package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"beneficiary-portal/internal/models"
	"beneficiary-portal/internal/service"
)

// AdminHandler covers the operator surface: feature flags, package
// lifecycle, activity feeds and statistics.
type AdminHandler struct {
	beneficiaryService *service.BeneficiaryService
	packageService     *service.PackageService
	features           *service.FeatureService
	activity           *service.ActivityService
	stats              *service.StatsService
	logger             *zap.Logger
}

func NewAdminHandler(
	beneficiaryService *service.BeneficiaryService,
	packageService *service.PackageService,
	features *service.FeatureService,
	activity *service.ActivityService,
	stats *service.StatsService,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		beneficiaryService: beneficiaryService,
		packageService:     packageService,
		features:           features,
		activity:           activity,
		stats:              stats,
		logger:             logger,
	}
}

func (h *AdminHandler) RegisterRoutes(router chi.Router) {
	router.Route("/admin", func(r chi.Router) {
		r.Get("/features/{featureKey}", h.GetFeature)
		r.Put("/features/{featureKey}", h.SetFeature)

		r.Post("/beneficiaries", h.RegisterBeneficiary)
		r.Get("/beneficiaries/search", h.SearchBeneficiaries)

		r.Post("/packages", h.CreatePackage)
		r.Post("/packages/{beneficiaryID}/{packageID}/status", h.AdvancePackage)

		r.Get("/activity", h.RecentActivity)
		r.Get("/activity/{beneficiaryID}", h.BeneficiaryActivity)
		r.Get("/stats", h.Overview)
	})
}

func (h *AdminHandler) GetFeature(w http.ResponseWriter, r *http.Request) {
	featureKey := chi.URLParam(r, "featureKey")

	feature, err := h.features.GetFeature(r.Context(), featureKey)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(feature, ""))
}

type setFeatureRequest struct {
	IsEnabled bool              `json:"is_enabled"`
	Settings  map[string]string `json:"settings"`
	UpdatedBy string            `json:"updated_by"`
}

func (h *AdminHandler) SetFeature(w http.ResponseWriter, r *http.Request) {
	featureKey := chi.URLParam(r, "featureKey")

	var req setFeatureRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}

	if err := h.features.SetFeature(r.Context(), featureKey, req.IsEnabled, req.Settings, req.UpdatedBy); err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "تم تحديث الإعداد"))
	h.logger.Info("Feature flag changed via HTTP",
		zap.String("feature_key", featureKey),
		zap.Bool("is_enabled", req.IsEnabled))
}

func (h *AdminHandler) RegisterBeneficiary(w http.ResponseWriter, r *http.Request) {
	var b models.Beneficiary
	if err := decodeJSON(r, &b); err != nil {
		respondWithError(w, err)
		return
	}

	if err := h.beneficiaryService.RegisterBeneficiary(r.Context(), &b); err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, successResponse(b, "تم تسجيل المستفيد"))
}

func (h *AdminHandler) SearchBeneficiaries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := h.beneficiaryService.AdminSearch(r.Context(), query, limit)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(results, ""))
}

func (h *AdminHandler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	var pkg models.Package
	if err := decodeJSON(r, &pkg); err != nil {
		respondWithError(w, err)
		return
	}

	if err := h.packageService.CreatePackage(r.Context(), &pkg); err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, successResponse(pkg, "تم إنشاء الطرد"))
}

type advancePackageRequest struct {
	NewStatus string `json:"new_status"`
}

func (h *AdminHandler) AdvancePackage(w http.ResponseWriter, r *http.Request) {
	beneficiaryID := chi.URLParam(r, "beneficiaryID")
	packageID := chi.URLParam(r, "packageID")

	var req advancePackageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}

	beneficiary, err := h.beneficiaryService.GetByID(r.Context(), beneficiaryID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	pkg, err := h.packageService.AdvanceStatus(
		r.Context(), beneficiaryID, packageID, req.NewStatus,
		beneficiary.Name, beneficiary.Phone)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(pkg, "تم تحديث حالة الطرد"))
}

func (h *AdminHandler) RecentActivity(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.activity.Recent(r.Context(), limit)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(entries, ""))
}

func (h *AdminHandler) BeneficiaryActivity(w http.ResponseWriter, r *http.Request) {
	beneficiaryID := chi.URLParam(r, "beneficiaryID")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.activity.ByBeneficiary(r.Context(), beneficiaryID, limit)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(entries, ""))
}

func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	stats, err := h.stats.Overview(r.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(stats, ""))
}
