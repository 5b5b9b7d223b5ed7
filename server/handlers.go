package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rustyeddy/planner/recommend"
	"github.com/rustyeddy/planner/risk"
)

// maxBodyBytes bounds a recommend request body.
const maxBodyBytes = 1 << 16

// recommendRequest accepts both camelCase and snake_case field names.
type recommendRequest struct {
	Goal             string   `json:"goal"`
	CurrentAsset     *float64 `json:"currentAsset"`
	CurrentAssetAlt  *float64 `json:"current_asset"`
	MonthlyIncome    *float64 `json:"monthlyIncome"`
	MonthlyIncomeAlt *float64 `json:"monthly_income"`
	Age              int      `json:"age"`
}

func (req recommendRequest) profile() (recommend.Profile, string) {
	asset := firstSet(req.CurrentAsset, req.CurrentAssetAlt)
	if asset == nil {
		return recommend.Profile{}, "currentAsset is required"
	}
	income := firstSet(req.MonthlyIncome, req.MonthlyIncomeAlt)
	if income == nil {
		return recommend.Profile{}, "monthlyIncome is required"
	}
	return recommend.Profile{
		Goal:          req.Goal,
		CurrentAsset:  *asset,
		MonthlyIncome: *income,
		Age:           req.Age,
	}, ""
}

func firstSet(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

type recommendResponse struct {
	ID              string                     `json:"id,omitempty"`
	Success         bool                       `json:"success"`
	Message         string                     `json:"message"`
	RecommendedRisk risk.Level                 `json:"recommended_risk,omitempty"`
	Recommendations *recommend.Recommendations `json:"recommendations,omitempty"`
}

func (s *Server) recommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	p, msg := req.profile()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	b, err := s.engine.Recommend(r.Context(), p)
	switch {
	case errors.Is(err, recommend.ErrInvalidProfile):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.log.WithError(err).WithField("request_id", RequestID(r.Context())).Error("recommend failed")
		writeError(w, http.StatusInternalServerError, "recommendation failed")
		return
	}

	writeJSON(w, http.StatusOK, recommendResponse{
		ID:              b.ID,
		Success:         true,
		Message:         "recommendations generated for all risk tiers",
		RecommendedRisk: b.RecommendedRisk,
		Recommendations: &b.Recommendations,
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"model":  s.engine.Model(),
	})
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, recommendResponse{Success: false, Message: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
