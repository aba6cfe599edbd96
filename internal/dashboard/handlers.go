package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/esg-assistant/internal/assistant"
	"github.com/ziadkadry99/esg-assistant/internal/risk"
)

type sessionResponse struct {
	ID       string           `json:"id"`
	State    string           `json:"state"`
	Messages []assistant.Turn `json:"messages"`
}

type askRequest struct {
	Question string `json:"question"`
}

type answerResponse struct {
	Answer  string             `json:"answer"`
	HTML    string             `json:"html,omitempty"`
	Sources []assistant.Source `json:"sources"`
}

type searchRequest struct {
	Query  string `json:"query"`
	Expand bool   `json:"expand"`
}

type infoResponse struct {
	Greeting string   `json:"greeting"`
	Examples []string `json:"examples"`
	Passages int      `json:"passages"`
	Language string   `json:"language"`
}

func (d *Dashboard) sessionFromRequest(w http.ResponseWriter, r *http.Request) (*assistant.Session, bool) {
	sess, ok := d.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return nil, false
	}
	return sess, true
}

func toSessionResponse(sess *assistant.Session) sessionResponse {
	return sessionResponse{ID: sess.ID, State: sess.State().String(), Messages: sess.Transcript()}
}

func (d *Dashboard) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, infoResponse{
		Greeting: d.svc.Greeting(),
		Examples: d.svc.ExampleQuestions(),
		Passages: d.svc.Index().Count(),
		Language: d.svc.Config().Language,
	})
}

func (d *Dashboard) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, toSessionResponse(d.sessions.Create()))
}

func (d *Dashboard) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := d.sessionFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (d *Dashboard) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if _, ok := d.sessionFromRequest(w, r); !ok {
		return
	}
	d.sessions.Delete(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (d *Dashboard) handleClear(w http.ResponseWriter, r *http.Request) {
	sess, ok := d.sessionFromRequest(w, r)
	if !ok {
		return
	}
	sess.Clear()
	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (d *Dashboard) handleAsk(w http.ResponseWriter, r *http.Request) {
	sess, ok := d.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	ans, err := sess.Ask(r.Context(), req.Question, nil)
	if err != nil {
		writeJSON(w, askStatus(err), map[string]string{"error": assistant.UserMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, d.toAnswerResponse(ans))
}

func (d *Dashboard) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}
	results, err := d.svc.Search(r.Context(), req.Query, req.Expand)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": assistant.UserMessage(err)})
		return
	}
	sources := make([]assistant.Source, len(results))
	for i, res := range results {
		sources[i] = assistant.NewSource(res)
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": sources})
}

func (d *Dashboard) toAnswerResponse(ans *assistant.Answer) answerResponse {
	resp := answerResponse{Answer: ans.Text, Sources: ans.Sources}
	if html, err := renderMarkdown(ans.Text); err == nil {
		resp.HTML = html
	} else {
		d.logger.Warn("rendering answer markdown", zap.Error(err))
	}
	if resp.Sources == nil {
		resp.Sources = []assistant.Source{}
	}
	return resp
}

func askStatus(err error) int {
	switch {
	case errors.Is(err, assistant.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, assistant.ErrEmptyQuestion):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func (d *Dashboard) handleRisks(w http.ResponseWriter, r *http.Request) {
	root, err := risk.Tree()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"title":   risk.Title,
		"caption": risk.Caption,
		"tree":    root,
	})
}

func (d *Dashboard) handleRiskPage(w http.ResponseWriter, r *http.Request) {
	root, err := risk.Tree()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := risk.RenderHTML(w, root); err != nil {
		d.logger.Error("rendering risk page", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
