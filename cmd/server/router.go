package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/api"
	apiMiddleware "github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/api/middleware"
)

// setupRouter creates the application router with all routes and
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace)

	downloadHandler := api.NewDownloadHandler(
		app.orchestrator,
		app.config.Downloads.MaxURLsPerRequest,
		app.logger,
	)
	taskHandler := api.NewTaskHandler(app.orchestrator, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/download", downloadHandler.StartDownload)
		r.Get("/config", downloadHandler.GetConfig)

		r.Get("/tasks", taskHandler.ListTasks)
		r.Get("/tasks/{id}", taskHandler.GetTask)
		r.Post("/tasks/{id}/retry", taskHandler.RetryTask)
		r.Post("/tasks/{id}/cancel", taskHandler.CancelTask)
		r.Delete("/tasks/{id}", taskHandler.RemoveTask)

		r.Get("/progress", taskHandler.GetProgress)
		r.Get("/statistics", taskHandler.GetStatistics)
		r.Post("/clear", taskHandler.ClearCompleted)
	})

	// Completed artifacts are served straight from the download directory.
	fileServer := http.FileServer(http.Dir(app.config.Downloads.Dir))
	r.Get("/download/*", http.StripPrefix("/download/", fileServer).ServeHTTP)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
