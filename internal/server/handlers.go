package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dominicus75/testtask/internal/errs"
	"github.com/dominicus75/testtask/internal/hr"
)

type salaryRequest struct {
	Salary int64  `json:"salary"`
	From   string `json:"from,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "unavailable", err.Error())
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) employee(w http.ResponseWriter, r *http.Request) {
	empNo, ok := empNoParam(w, r)
	if !ok {
		return
	}
	row, err := s.svc.EmployeeSummary(r.Context(), empNo)
	if err != nil {
		s.fail(w, err)
		return
	}
	respond(w, http.StatusOK, row)
}

func (s *Server) hire(w http.ResponseWriter, r *http.Request) {
	var h hr.Hire
	if !decode(w, r, &h) {
		return
	}
	if len(h.Employee) == 0 {
		respondError(w, http.StatusBadRequest, errs.ErrKindInvalidInput.String(), "employee data is missing")
		return
	}
	empNo, err := s.svc.Hire(r.Context(), h)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Location", "/employees/"+strconv.FormatInt(empNo, 10))
	respond(w, http.StatusCreated, map[string]int64{"emp_no": empNo})
}

func (s *Server) setSalary(w http.ResponseWriter, r *http.Request) {
	empNo, ok := empNoParam(w, r)
	if !ok {
		return
	}
	var req salaryRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.svc.SetSalary(r.Context(), empNo, req.Salary, req.From); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) department(w http.ResponseWriter, r *http.Request) {
	deptNo := strings.TrimSpace(chi.URLParam(r, "deptNo"))
	row, err := s.svc.DepartmentSummary(r.Context(), deptNo)
	if err != nil {
		s.fail(w, err)
		return
	}
	respond(w, http.StatusOK, row)
}

func empNoParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "empNo")
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		respondError(w, http.StatusBadRequest, errs.ErrKindInvalidInput.String(), "invalid employee number "+strconv.Quote(raw))
		return 0, false
	}
	return n, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, errs.ErrKindInvalidInput.String(), "invalid request body: "+err.Error())
		return false
	}
	return true
}

// statusOf maps an error kind onto an HTTP status.
func statusOf(err error) int {
	switch errs.KindOf(err) {
	case errs.ErrKindNotFound:
		return http.StatusNotFound
	case errs.ErrKindInvalidInput, errs.ErrKindInvalidProperty, errs.ErrKindInvalidPropertyValue:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.With().Err(err).Logger().Error("request failed")
		msg = "internal server error"
	}
	respondError(w, status, errs.KindOf(err).String(), msg)
}

func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respond(w, status, errorBody{Code: code, Message: message})
}
