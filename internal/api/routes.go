package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/effectmoe/ai-accounting-system-sub019/internal/pkg/httputil"
)

// SetupRoutes builds the router.
//
// cronSecret protects the resend trigger: schedulers present it via the
// X-Cron-Secret header. An empty secret disables the check (local dev).
func SetupRoutes(h *Handlers, allowedOrigins []string, cronSecret string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Cron-Secret"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/classify", h.HandleClassify)
		r.Get("/categories", h.HandleListCategories)

		r.Route("/rag-records", func(r chi.Router) {
			r.Get("/", h.HandleSearchRAGRecords)
			r.Post("/", h.HandleCreateRAGRecord)
			r.Post("/learn", h.HandleLearn)
			r.Get("/stats", h.HandleRAGStats)
			r.Get("/{id}", h.HandleGetRAGRecord)
			r.Put("/{id}", h.HandleUpdateRAGRecord)
			r.Delete("/{id}", h.HandleDeleteRAGRecord)
		})

		r.Route("/resend", func(r chi.Router) {
			r.Use(requireCronSecret(cronSecret))
			r.Post("/trigger", h.HandleTriggerResend)
			r.Get("/candidates", h.HandleListResendCandidates)
		})

		r.Get("/email-sends/{trackingID}", h.HandleGetSendRecord)

		r.Route("/receipts/images", func(r chi.Router) {
			r.Post("/", h.HandleUploadReceiptImage)
			r.Get("/*", h.HandleGetReceiptImage)
			r.Delete("/*", h.HandleDeleteReceiptImage)
		})
	})

	return r
}

func requireCronSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if secret != "" {
				got := req.Header.Get("X-Cron-Secret")
				if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
					httputil.Unauthorized(w, "missing or invalid cron secret")
					return
				}
			}
			next.ServeHTTP(w, req)
		})
	}
}
