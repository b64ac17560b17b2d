package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"beneficiary-portal/internal/service"
)

// PortalHandler serves the logged-in beneficiary screens plus the anonymous
// public search.
type PortalHandler struct {
	beneficiaryService *service.BeneficiaryService
	packageService     *service.PackageService
	features           *service.FeatureService
	logger             *zap.Logger
}

func NewPortalHandler(
	beneficiaryService *service.BeneficiaryService,
	packageService *service.PackageService,
	features *service.FeatureService,
	logger *zap.Logger,
) *PortalHandler {
	return &PortalHandler{
		beneficiaryService: beneficiaryService,
		packageService:     packageService,
		features:           features,
		logger:             logger,
	}
}

func (h *PortalHandler) RegisterRoutes(router chi.Router) {
	router.Route("/portal", func(r chi.Router) {
		r.Get("/features", h.Features)
		r.Get("/dashboard/{beneficiaryID}", h.Dashboard)
		r.Get("/profile/{beneficiaryID}", h.Profile)
		r.Put("/profile/{beneficiaryID}", h.UpdateProfile)
		r.Get("/packages/{beneficiaryID}", h.Packages)
		r.Get("/packages/{beneficiaryID}/{packageID}", h.Package)
	})

	router.Post("/public/search", h.PublicSearch)
}

// Features exposes the typed snapshot the frontend renders against
func (h *PortalHandler) Features(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.features.Snapshot(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(snapshot, ""))
}

func (h *PortalHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	beneficiaryID := chi.URLParam(r, "beneficiaryID")

	dashboard, err := h.beneficiaryService.Dashboard(r.Context(), beneficiaryID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(dashboard, ""))
}

func (h *PortalHandler) Profile(w http.ResponseWriter, r *http.Request) {
	beneficiaryID := chi.URLParam(r, "beneficiaryID")

	beneficiary, err := h.beneficiaryService.GetByID(r.Context(), beneficiaryID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(beneficiary, ""))
}

type updateProfileRequest struct {
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Governorate string `json:"governorate"`
}

func (h *PortalHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	beneficiaryID := chi.URLParam(r, "beneficiaryID")

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}

	beneficiary, err := h.beneficiaryService.UpdateProfile(
		r.Context(), beneficiaryID, req.Phone, req.Address, req.Governorate)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(beneficiary, "تم تحديث البيانات بنجاح"))
	h.logger.Info("Profile updated via HTTP",
		zap.String("beneficiary_id", beneficiaryID))
}

func (h *PortalHandler) Packages(w http.ResponseWriter, r *http.Request) {
	beneficiaryID := chi.URLParam(r, "beneficiaryID")

	packages, err := h.packageService.GetPackages(r.Context(), beneficiaryID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(packages, ""))
}

func (h *PortalHandler) Package(w http.ResponseWriter, r *http.Request) {
	beneficiaryID := chi.URLParam(r, "beneficiaryID")
	packageID := chi.URLParam(r, "packageID")

	pkg, err := h.packageService.GetPackage(r.Context(), beneficiaryID, packageID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(pkg, ""))
}

type publicSearchRequest struct {
	NationalID string `json:"national_id"`
}

// PublicSearch is the anonymous status lookup, feature-gated inside the
// service.
func (h *PortalHandler) PublicSearch(w http.ResponseWriter, r *http.Request) {
	var req publicSearchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}

	result, err := h.beneficiaryService.PublicSearch(r.Context(), req.NationalID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(result, ""))
}
