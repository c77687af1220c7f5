// Package server exposes the hr directory over HTTP with chi.
//
// Routes:
//
//	GET  /healthz
//	GET  /employees/{empNo}
//	POST /employees
//	PUT  /employees/{empNo}/salary
//	GET  /departments/{deptNo}
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dominicus75/testtask/internal/hr"
	"github.com/dominicus75/testtask/internal/logger"
	"github.com/dominicus75/testtask/internal/table"
)

// Service is what the handlers need from the domain. *hr.Directory
// satisfies it.
type Service interface {
	Ping(ctx context.Context) error
	EmployeeSummary(ctx context.Context, empNo int64) (table.Row, error)
	Hire(ctx context.Context, h hr.Hire) (int64, error)
	SetSalary(ctx context.Context, empNo, salary int64, from string) error
	DepartmentSummary(ctx context.Context, deptNo string) (table.Row, error)
}

const shutdownTimeout = 10 * time.Second

// Server is the HTTP shell.
type Server struct {
	svc    Service
	log    *logger.Logger
	router chi.Router
}

// New builds the router over svc.
func New(svc Service, log *logger.Logger) *Server {
	s := &Server{svc: svc, log: logger.OrNop(log)}

	r := chi.NewRouter()
	r.Use(s.recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.health)
	r.Route("/employees", func(r chi.Router) {
		r.Post("/", s.hire)
		r.Get("/{empNo}", s.employee)
		r.Put("/{empNo}/salary", s.setSalary)
	})
	r.Get("/departments/{deptNo}", s.department)

	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.With().Str("addr", addr).Logger().Info("http server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}
