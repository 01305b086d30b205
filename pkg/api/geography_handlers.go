package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/biointellect/caregate/pkg/httputil"
	"github.com/biointellect/caregate/pkg/portal"
)

// GeographyHandlers serves cached reference data for registration forms
type GeographyHandlers struct {
	manager *portal.Manager
}

// NewGeographyHandlers creates a new geography handlers instance
func NewGeographyHandlers(manager *portal.Manager) *GeographyHandlers {
	return &GeographyHandlers{manager: manager}
}

// RegisterRoutes registers geography API routes
func (h *GeographyHandlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/geography/countries", h.getCountries).Methods("GET")
	r.HandleFunc("/api/v1/geography/regions", h.getRegions).Methods("GET")
	r.HandleFunc("/api/v1/geography/hospitals", h.getHospitals).Methods("GET")
}

// getCountries handles GET /api/v1/geography/countries
func (h *GeographyHandlers) getCountries(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, h.manager.FetchCountries(r.Context()))
}

// getRegions handles GET /api/v1/geography/regions
// Query params:
//   - country_id: parent country (required)
func (h *GeographyHandlers) getRegions(w http.ResponseWriter, r *http.Request) {
	countryID := r.URL.Query().Get("country_id")
	if countryID == "" {
		httputil.WriteBadRequest(w, "country_id is required")
		return
	}
	httputil.WriteOK(w, h.manager.FetchRegions(r.Context(), countryID))
}

// getHospitals handles GET /api/v1/geography/hospitals
// Query params:
//   - region_id: parent region; omit for the global hospital list
func (h *GeographyHandlers) getHospitals(w http.ResponseWriter, r *http.Request) {
	regionID := r.URL.Query().Get("region_id")
	httputil.WriteOK(w, h.manager.FetchHospitals(r.Context(), regionID))
}
