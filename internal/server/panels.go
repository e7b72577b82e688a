package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/aether/internal/export"
	"github.com/hyperjump/aether/internal/models"
	"github.com/hyperjump/aether/internal/views"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := map[string]interface{}{
		"hospital": s.deps.Settings.Get().HospitalName,
		"patients": s.deps.Records.Len(),
		"busy": map[string]bool{
			"chat":      s.deps.Chat.Busy(),
			"finance":   s.deps.Finance.Busy(),
			"inventory": s.deps.Inventory.Busy(),
		},
	}
	if usage, err := s.deps.KV.Usage(ctx); err == nil {
		resp["storage_usage_bytes"] = usage
	} else {
		s.logger.Warn("status: storage usage unavailable", zap.Error(err))
	}
	if s.deps.Gateway != nil {
		resp["ai"] = map[string]string{
			"model":   s.deps.Gateway.ModelName(),
			"breaker": s.deps.Gateway.BreakerState(),
		}
	}
	if s.deps.Index != nil {
		if n, err := s.deps.Index.DocCount(); err == nil {
			resp["indexed_patients"] = n
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, views.BuildDashboard(s.deps.Records.List()))
}

func (s *Server) handleFinance(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"transactions": s.deps.Finance.Transactions(),
		"summary":      s.deps.Finance.Summary(),
		"busy":         s.deps.Finance.Busy(),
	}
	if text, ok := s.deps.Finance.Cached(); ok {
		resp["analysis"] = text
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFinanceAnalyze(w http.ResponseWriter, r *http.Request) {
	text, err := s.deps.Finance.Analyze(r.Context())
	s.respondWith(w, http.StatusOK, "analysis", text, err)
}

func (s *Server) handleFinanceClear(w http.ResponseWriter, r *http.Request) {
	err := s.deps.Finance.Clear(r.Context())
	s.respondWith(w, http.StatusOK, "status", "cleared", err)
}

func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"items":       s.deps.Inventory.Items(),
		"low_stock":   s.deps.Inventory.LowStock(),
		"stock_value": s.deps.Inventory.StockValue(),
		"busy":        s.deps.Inventory.Busy(),
	}
	if text, ok := s.deps.Inventory.Cached(); ok {
		resp["strategy"] = text
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInventoryStrategy(w http.ResponseWriter, r *http.Request) {
	text, err := s.deps.Inventory.Strategy(r.Context())
	s.respondWith(w, http.StatusOK, "strategy", text, err)
}

func (s *Server) handleInventoryClear(w http.ResponseWriter, r *http.Request) {
	err := s.deps.Inventory.Clear(r.Context())
	s.respondWith(w, http.StatusOK, "status", "cleared", err)
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"messages": s.deps.Chat.Messages(),
		"busy":     s.deps.Chat.Busy(),
	})
}

type chatRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleChatSend(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decode(w, r, &req) {
		return
	}
	reply, err := s.deps.Chat.Send(r.Context(), req.Text, s.deps.Records.List())
	warning, err := splitWarning(err)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, withWarning(map[string]interface{}{
		"reply":    reply,
		"messages": s.deps.Chat.Messages(),
	}, warning))
}

func (s *Server) handleChatReset(w http.ResponseWriter, r *http.Request) {
	err := s.deps.Chat.Reset(r.Context())
	warning, err := splitWarning(err)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, withWarning(map[string]interface{}{
		"messages": s.deps.Chat.Messages(),
	}, warning))
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.deps.Settings.Get())
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var v models.Settings
	if !s.decode(w, r, &v) {
		return
	}
	err := s.deps.Settings.Save(r.Context(), v)
	s.respondWith(w, http.StatusOK, "settings", s.deps.Settings.Get(), err)
}

type resetRequest struct {
	Confirm bool `json:"confirm"`
}

func (s *Server) handleFactoryReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !req.Confirm {
		s.respondError(w, http.StatusBadRequest, "factory reset requires confirm: true")
		return
	}
	s.logger.Warn("factory reset requested", zap.String("remote", r.RemoteAddr))
	if err := s.deps.Settings.FactoryReset(r.Context()); err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	data := export.Data{
		HospitalName: s.deps.Settings.Get().HospitalName,
		GeneratedAt:  now,
		Patients:     s.deps.Records.List(),
		Transactions: s.deps.Finance.Transactions(),
		Inventory:    s.deps.Inventory.Items(),
	}
	data.FinanceAnalysis, _ = s.deps.Finance.Cached()
	data.InventoryStrategy, _ = s.deps.Inventory.Cached()

	var buf bytes.Buffer
	if err := export.Write(&buf, data); err != nil {
		s.respondFailure(w, err)
		return
	}
	name := fmt.Sprintf("%s-%s.xlsx", slug(data.HospitalName), now.Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// slug lowercases s and joins its alphanumeric runs with dashes.
func slug(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	if len(fields) == 0 {
		return "export"
	}
	return strings.Join(fields, "-")
}
