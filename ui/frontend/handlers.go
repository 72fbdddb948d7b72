package frontend

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sallytsm/sally/briefing"
	"github.com/sallytsm/sally/qa"
	"github.com/sallytsm/sally/ui/service"
)

// parseInt parses an integer from a query parameter with a default.
// It applies bounds validation to prevent resource exhaustion.
func parseInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	// Apply bounds validation
	return service.ValidateLimit(i)
}

// logError logs an error if the logger is configured.
// It's used for optional data fetches that shouldn't break the page.
func (rt *router) logError(msg string, err error) {
	if rt.config.Logger != nil {
		rt.config.Logger.Warn(msg, "error", err.Error())
	}
}

// Main page handlers

func (rt *router) handleRedirectToOverview(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, rt.config.BasePath+"/overview", http.StatusTemporaryRedirect)
}

func (rt *router) handleOverview(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.svc.GetDashboardStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"Title": "Overview",
		"Stats": stats,
	}

	if err := rt.renderer.render(w, r, "overview.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (rt *router) handleBriefs(w http.ResponseWriter, r *http.Request) {
	briefType := r.URL.Query().Get("type")
	if briefType != briefing.TypeEvening {
		briefType = briefing.TypeMorning
	}

	day, err := service.ParseDay(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "Invalid date: must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	brief, err := rt.svc.Brief(r.Context(), briefType, day, r.URL.Query().Get("mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	history, err := rt.svc.BriefHistory(r.Context(), parseInt(r, "limit", 10))
	if err != nil {
		rt.logError("failed to load brief history", err)
	}

	data := map[string]any{
		"Title":     "Briefs",
		"Brief":     brief,
		"BriefType": briefType,
		"Date":      day.Format("2006-01-02"),
		"History":   history,
	}

	if err := rt.renderer.render(w, r, "briefs.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (rt *router) handleSettings(w http.ResponseWriter, r *http.Request) {
	mode := rt.client.Settings().Mode()
	providers := rt.client.Settings().ListProviders()
	vectorStore := rt.client.Settings().TestVectorStore(r.Context())

	// Schema status is optional so the page still renders when the
	// database is down and needs diagnosing.
	schemaStatus, err := rt.client.Schema().Status(r.Context())
	if err != nil {
		rt.logError("failed to load schema status", err)
	}

	data := map[string]any{
		"Title":        "Settings",
		"Mode":         mode,
		"Providers":    providers,
		"VectorStore":  vectorStore,
		"SchemaStatus": schemaStatus,
	}

	if err := rt.renderer.render(w, r, "settings.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Assistant handlers

func (rt *router) handleChat(w http.ResponseWriter, r *http.Request) {
	health := rt.client.QA().Health(r.Context())

	history, err := rt.client.RAG().History(r.Context(), parseInt(r, "limit", rt.config.PageSize))
	if err != nil {
		rt.logError("failed to load query history", err)
	}

	data := map[string]any{
		"Title":   "Assistant",
		"Health":  health,
		"History": history,
	}

	if err := rt.renderer.render(w, r, "chat.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (rt *router) handleChatSend(w http.ResponseWriter, r *http.Request) {
	if rt.config.ReadOnly || rt.client == nil {
		http.Error(w, "Chat is disabled", http.StatusForbidden)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	question := r.FormValue("question")
	if question == "" {
		http.Error(w, "Missing question", http.StatusBadRequest)
		return
	}

	answer, err := rt.client.Ask(r.Context(), qa.AskRequest{Question: question})
	if err != nil {
		if errors.Is(err, qa.ErrInvalidRequest) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"Question": question,
		"Answer":   answer,
	}

	if err := rt.renderer.renderFragment(w, "chat/answer.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Fragment handlers

func (rt *router) handleFragmentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.svc.GetDashboardStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := rt.renderer.renderFragment(w, "fragments/stats.html", stats); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
