package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/qstudy/internal/api/handlers"
	"github.com/wonny/qstudy/pkg/logger"
	"github.com/wonny/qstudy/pkg/redis"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(studyHandler *handlers.StudyHandler, limiter Limiter, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/studies", studyHandler.ListStudies).Methods("GET")

	// 전체 스캔/이벤트 스터디는 비용이 커서 레이트 리밋 적용
	heavy := api.NewRoute().Subrouter()
	heavy.HandleFunc("/sharpe/scan", studyHandler.ScanSharpe).Methods("POST")
	heavy.HandleFunc("/events/run", studyHandler.RunEvents).Methods("POST")
	heavy.HandleFunc("/events/{study}/profile.png", studyHandler.GetProfileChart).Methods("GET")
	heavy.Use(rateLimitMiddleware(limiter, redis.ScanRateLimit, log))

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "qstudy-api",
	})
}
