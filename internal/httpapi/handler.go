package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"adaptive-cache-service/internal/core/ports"
	"adaptive-cache-service/internal/eviction"
	"adaptive-cache-service/internal/store/policy"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const headerEvictedKeys = "X-Evicted-Keys"

type commandHandler struct {
	svc    ports.CommandService
	logger *zap.Logger
}

func (h *commandHandler) mount(r chi.Router) {
	r.Post("/", h.command)
	r.Route("/eviction", func(r chi.Router) {
		r.Get("/", wrap(h.stats))
		r.Put("/", wrap(h.configure))
	})
}

type commandRequest struct {
	Command string `json:"command"`
}

type evictionRequest struct {
	Policy string `json:"policy"`
	Window *int   `json:"window"`
}

// command answers in text/plain, the same bytes a terminal client prints.
func (h *commandHandler) command(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := DecodeJSON(r, &req); err != nil {
		app := FromStdError(err)
		writeText(w, app.Status, "ERROR: "+app.Message)
		return
	}

	line := strings.TrimSpace(req.Command)
	h.logger.Debug("received command", zap.String("command", line))
	if line == "" {
		writeText(w, http.StatusBadRequest, "ERROR: No command provided")
		return
	}

	res := h.svc.Execute(r.Context(), line)
	if len(res.Evicted) > 0 {
		w.Header().Set(headerEvictedKeys, strings.Join(res.Evicted, ","))
	}
	writeText(w, http.StatusOK, res.Text)
}

func (h *commandHandler) stats(w http.ResponseWriter, _ *http.Request) error {
	writeSuccess(w, http.StatusOK, h.svc.Stats())
	return nil
}

func (h *commandHandler) configure(w http.ResponseWriter, r *http.Request) error {
	var req evictionRequest
	if err := DecodeJSON(r, &req); err != nil {
		return err
	}
	if req.Policy == "" && req.Window == nil {
		return BadRequest("policy or window is required")
	}

	report, err := h.svc.Configure(r.Context(), req.Policy, req.Window)
	if errors.Is(err, eviction.ErrUnknownPolicy) {
		return BadRequest(err.Error())
	}
	if errors.Is(err, policy.ErrInvalidOption) {
		return BadRequest(err.Error())
	}
	if err != nil {
		return err
	}

	h.logger.Info("eviction reconfigured",
		zap.String("policy", string(report.Policy)),
		zap.Int("window", report.Window),
	)
	writeSuccess(w, http.StatusOK, report)
	return nil
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
