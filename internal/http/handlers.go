package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"capitale/internal/core"
)

const (
	summaryCacheKey = "summary"
	historyCacheKey = "sales-history"
)

// render executes a template into a string so the result can be cached
// and composed with HTMX triggers.
func (s *Server) render(name string, data any) (string, error) {
	if s.templates == nil {
		return "", errors.New("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// invalidatePartials drops every cached derived view. Called after each
// mutation so the next read recomputes from the fresh snapshot.
func (s *Server) invalidatePartials() {
	s.partials.Clear()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		s.log.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := struct {
		Today string
	}{
		Today: time.Now().Format(core.DayKeyFormat),
	}
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.log.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleSummary renders the capital / total profit / today's sales header.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if html, found := s.partials.Get(summaryCacheKey); found {
		s.log.DebugContext(r.Context(), "Summary cache hit")
		NewHTMXResponse().BodyHTML(html).Write(w)
		return
	}

	view := buildSummaryView(s.ledger.Transactions(), time.Now())
	html, err := s.render("summary.html", view)
	if err != nil {
		s.log.ErrorContext(r.Context(), "Summary render error", "error", err)
		InternalServerError("Could not render summary").Write(w)
		return
	}

	s.partials.Set(summaryCacheKey, html)
	NewHTMXResponse().BodyHTML(html).Write(w)
}

// handleTransactionList renders the sortable transaction list. Selection
// state changes too often to be worth caching.
func (s *Server) handleTransactionList(w http.ResponseWriter, r *http.Request) {
	key := core.ParseSortKey(r.URL.Query().Get("sort"))
	order := core.ParseSortOrder(r.URL.Query().Get("order"))
	s.renderList(w, r, key, order)
}

func (s *Server) renderList(w http.ResponseWriter, r *http.Request, key core.SortKey, order core.SortOrder) {
	view := s.buildListView(key, order)
	html, err := s.render("transactions.html", view)
	if err != nil {
		s.log.ErrorContext(r.Context(), "Transaction list render error", "error", err)
		InternalServerError("Could not render transactions").Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(html).Write(w)
}

// handleSalesHistory renders the last-7-days chart plus the daily, weekly,
// and monthly sales tables.
func (s *Server) handleSalesHistory(w http.ResponseWriter, r *http.Request) {
	if html, found := s.partials.Get(historyCacheKey); found {
		s.log.DebugContext(r.Context(), "Sales history cache hit")
		NewHTMXResponse().BodyHTML(html).Write(w)
		return
	}

	view := buildAnalyticsView(s.ledger.Transactions(), time.Now())
	html, err := s.render("sales_history.html", view)
	if err != nil {
		s.log.ErrorContext(r.Context(), "Sales history render error", "error", err)
		InternalServerError("Could not render sales history").Write(w)
		return
	}

	s.partials.Set(historyCacheKey, html)
	NewHTMXResponse().BodyHTML(html).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.log.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
		BadRequestError("Invalid request format").Write(w)
		return
	}

	typ := core.TransactionType(strings.TrimSpace(r.Form.Get("type")))
	amount := strings.TrimSpace(r.Form.Get("amount"))
	date := strings.TrimSpace(r.Form.Get("date"))
	remark := sanitizeInput(r.Form.Get("remark"))

	t, err := s.ledger.Add(r.Context(), typ, amount, date, remark)
	if err != nil {
		s.writeMutationError(w, r, err, "Transaction add rejected")
		return
	}

	s.invalidatePartials()
	NewHTMXResponse().
		TriggerTransactionsChanged().
		TriggerFormReset().
		TriggerSuccessNotification("Added " + string(t.Type) + " of " + formatAmount(t.Amount.Cents)).
		Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	id := strings.TrimSpace(r.Form.Get("id"))
	amount := strings.TrimSpace(r.Form.Get("amount"))
	date := strings.TrimSpace(r.Form.Get("date"))
	remark := sanitizeInput(r.Form.Get("remark"))

	t, found, err := s.ledger.Update(r.Context(), id, amount, date, remark)
	if err != nil {
		s.writeMutationError(w, r, err, "Transaction update rejected")
		return
	}
	if !found {
		// Unknown id leaves the store untouched.
		NewHTMXResponse().Write(w)
		return
	}

	s.invalidatePartials()
	NewHTMXResponse().
		TriggerTransactionsChanged().
		TriggerSuccessNotification("Updated " + string(t.Type) + " of " + formatAmount(t.Amount.Cents)).
		Write(w)
}

// handleDeleteTransaction is a two-phase endpoint: without confirm=1 it
// renders the confirmation dialog, with it the delete goes through.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	id := strings.TrimSpace(r.Form.Get("id"))
	if id == "" {
		BadRequestError("Missing transaction id").Write(w)
		return
	}

	if r.Form.Get("confirm") != "1" {
		t, ok := s.ledger.Get(id)
		if !ok {
			NewHTMXResponse().Write(w)
			return
		}
		s.renderConfirm(w, r, confirmView{
			Message: "This will permanently delete this " + string(t.Type) + " transaction. This action cannot be undone.",
			IDs:     []string{id},
		})
		return
	}

	removed, err := s.ledger.DeleteOne(r.Context(), id)
	if err != nil {
		s.log.ErrorContext(r.Context(), "Delete error", "error", err, "id", id)
		InternalServerError("Could not delete transaction").Write(w)
		return
	}
	if !removed {
		NewHTMXResponse().Write(w)
		return
	}

	s.invalidatePartials()
	NewHTMXResponse().
		TriggerTransactionsChanged().
		TriggerSelectionChanged().
		TriggerSuccessNotification("Transaction deleted").
		Write(w)
}

// handleBulkDelete follows the same two-phase contract over the current
// selection.
func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	ids := r.Form["ids"]
	if len(ids) == 0 {
		ids = s.ledger.Selected()
	}
	if len(ids) == 0 {
		BadRequestError("No transactions selected").Write(w)
		return
	}

	if r.Form.Get("confirm") != "1" {
		s.renderConfirm(w, r, confirmView{
			Message: fmt.Sprintf("This will permanently delete the %d selected transactions. This action cannot be undone.", len(ids)),
			IDs:     ids,
			Bulk:    true,
		})
		return
	}

	removed, err := s.ledger.DeleteMany(r.Context(), ids)
	if err != nil {
		s.log.ErrorContext(r.Context(), "Bulk delete error", "error", err, "count", len(ids))
		InternalServerError("Could not delete transactions").Write(w)
		return
	}

	s.invalidatePartials()
	NewHTMXResponse().
		TriggerTransactionsChanged().
		TriggerSelectionChanged().
		TriggerSuccessNotification(fmt.Sprintf("Deleted %d transactions", removed)).
		Write(w)
}

func (s *Server) renderConfirm(w http.ResponseWriter, r *http.Request, view confirmView) {
	html, err := s.render("confirm_delete.html", view)
	if err != nil {
		s.log.ErrorContext(r.Context(), "Confirm dialog render error", "error", err)
		InternalServerError("Could not render confirmation").Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(html).Write(w)
}

func (s *Server) handleToggleSelection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	s.ledger.ToggleSelection(strings.TrimSpace(r.Form.Get("id")))
	key := core.ParseSortKey(r.Form.Get("sort"))
	order := core.ParseSortOrder(r.Form.Get("order"))
	s.renderList(w, r, key, order)
}

func (s *Server) handleToggleSelectAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	s.ledger.ToggleSelectAll()
	key := core.ParseSortKey(r.Form.Get("sort"))
	order := core.ParseSortOrder(r.Form.Get("order"))
	s.renderList(w, r, key, order)
}

// writeMutationError maps domain validation failures to a 422 inline
// error and everything else to a 500.
func (s *Server) writeMutationError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		UnprocessableEntityError("Invalid amount").Write(w)
	case errors.Is(err, core.ErrInvalidType):
		UnprocessableEntityError("Invalid transaction type").Write(w)
	case errors.Is(err, core.ErrInvalidDate):
		UnprocessableEntityError("Invalid date").Write(w)
	case errors.Is(err, core.ErrRemarkTooLong):
		UnprocessableEntityError("Remark is too long").Write(w)
	default:
		s.log.ErrorContext(r.Context(), logMsg, "error", err)
		InternalServerError("Could not save transaction").Write(w)
	}
}
