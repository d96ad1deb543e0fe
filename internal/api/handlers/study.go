package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/qstudy/internal/allocation"
	"github.com/wonny/qstudy/internal/events"
	"github.com/wonny/qstudy/internal/profiler"
	"github.com/wonny/qstudy/internal/study"
	"github.com/wonny/qstudy/internal/studyconfig"
	"github.com/wonny/qstudy/pkg/logger"
)

// MaxAllocations caps a single API scan; larger scans belong to the CLI
const MaxAllocations = 2_000_000

// StudyHandler handles Sharpe scan and event study endpoints
// ⭐ SSOT: 스터디 API 핸들러는 이 구조체에서만
type StudyHandler struct {
	orchestrator *study.Orchestrator
	studies      *studyconfig.Config
	logger       *logger.Logger
}

// NewStudyHandler creates a new study handler.
// studies supplies the defaults every request starts from.
func NewStudyHandler(orchestrator *study.Orchestrator, studies *studyconfig.Config, log *logger.Logger) *StudyHandler {
	return &StudyHandler{
		orchestrator: orchestrator,
		studies:      studies,
		logger:       log,
	}
}

// SharpeRequest overrides the configured Sharpe study; zero fields keep the default
type SharpeRequest struct {
	Symbols      []string          `json:"symbols"`
	From         *studyconfig.Date `json:"from"`
	To           *studyconfig.Date `json:"to"`
	Field        string            `json:"field"`
	Step         float64           `json:"step"`
	IncludeFirst bool              `json:"include_first"`
}

// EventRequest selects a configured event study and optionally narrows it
type EventRequest struct {
	Study      string             `json:"study"`
	Symbols    []string           `json:"symbols"`
	From       *studyconfig.Date  `json:"from"`
	To         *studyconfig.Date  `json:"to"`
	Thresholds *events.Thresholds `json:"thresholds"`
}

// EventResponse is an event study result plus its events in list form
type EventResponse struct {
	*study.EventResult
	Events []events.Event `json:"events"`
}

// ListStudies returns the loaded study configuration
// GET /api/studies
func (h *StudyHandler) ListStudies(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.studies)
}

// ScanSharpe runs the allocation scan
// POST /api/sharpe/scan
func (h *StudyHandler) ScanSharpe(w http.ResponseWriter, r *http.Request) {
	var req SharpeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cfg := h.sharpeStudy(req)
	if err := studyconfig.Validate(&studyconfig.Config{Meta: h.studies.Meta, Sharpe: cfg}); err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	gen, err := allocation.NewGenerator(cfg.Step)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if n := gen.Count(len(cfg.Symbols)); n > MaxAllocations {
		respondError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("scan of %d allocations exceeds the API limit of %d", n, MaxAllocations))
		return
	}

	result, err := h.orchestrator.RunSharpe(r.Context(), cfg, nil)
	if err != nil {
		h.logger.WithError(err).Error("Sharpe scan failed")
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// RunEvents runs one configured event study
// POST /api/events/run
func (h *StudyHandler) RunEvents(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Study == "" {
		respondError(w, http.StatusBadRequest, "study is required")
		return
	}

	cfg, err := h.eventStudy(req)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	result, err := h.orchestrator.RunEventStudy(r.Context(), cfg)
	if err != nil {
		h.logger.WithError(err).WithField("study", req.Study).Error("Event study failed")
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, EventResponse{
		EventResult: result,
		Events:      result.Matrix.Events(),
	})
}

// GetProfileChart renders the event profile of a configured study as PNG
// GET /api/events/{study}/profile.png
func (h *StudyHandler) GetProfileChart(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["study"]

	cfg, err := h.eventStudy(EventRequest{Study: name})
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	// 차트 요청은 output 설정과 무관하게 프로파일을 만든다
	if !cfg.HasReport() {
		cfg.Report.Output = name + ".png"
	}

	result, err := h.orchestrator.RunEventStudy(r.Context(), cfg)
	if err != nil {
		h.logger.WithError(err).WithField("study", name).Error("Event study failed")
		respondError(w, statusFor(err), err.Error())
		return
	}
	if result.Profile == nil {
		respondError(w, http.StatusUnprocessableEntity, result.ProfileError)
		return
	}

	png, err := profiler.RenderPNG(result.Profile)
	if err != nil {
		h.logger.WithError(err).WithField("study", name).Error("Profile render failed")
		respondError(w, http.StatusInternalServerError, "Failed to render profile")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *StudyHandler) sharpeStudy(req SharpeRequest) studyconfig.SharpeStudy {
	cfg := h.studies.Sharpe
	if len(req.Symbols) > 0 {
		cfg.Symbols = req.Symbols
	}
	if req.From != nil {
		cfg.Start = *req.From
	}
	if req.To != nil {
		cfg.End = *req.To
	}
	if req.Field != "" {
		cfg.Field = req.Field
	}
	if req.Step > 0 {
		cfg.Step = req.Step
	}
	if req.IncludeFirst {
		cfg.SkipFirst = false
	}
	return cfg
}

func (h *StudyHandler) eventStudy(req EventRequest) (studyconfig.EventStudy, error) {
	base, err := h.studies.EventStudy(req.Study)
	if err != nil {
		return studyconfig.EventStudy{}, err
	}

	cfg := *base
	if len(req.Symbols) > 0 {
		cfg.Symbols = req.Symbols
		cfg.SymbolList = ""
	}
	if req.From != nil {
		cfg.Start = *req.From
	}
	if req.To != nil {
		cfg.End = *req.To
	}
	if req.Thresholds != nil {
		cfg.Thresholds = *req.Thresholds
	}

	check := &studyconfig.Config{Meta: h.studies.Meta, Sharpe: h.studies.Sharpe, EventStudies: []studyconfig.EventStudy{cfg}}
	if err := studyconfig.Validate(check); err != nil {
		return studyconfig.EventStudy{}, err
	}
	return cfg, nil
}
