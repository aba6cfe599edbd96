package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/esg-assistant/internal/assistant"
	"github.com/ziadkadry99/esg-assistant/internal/config"
	"github.com/ziadkadry99/esg-assistant/internal/embeddings"
	"github.com/ziadkadry99/esg-assistant/internal/llm"
)

type staticExtractor struct{}

func (staticExtractor) ExtractPages(context.Context, string) ([]string, error) {
	return []string{"Paris Agreement is a 2015 treaty on climate change."}, nil
}

type unitEmbedder struct{}

func (unitEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0, 0}
	}
	return out, nil
}
func (unitEmbedder) Dimensions() int { return 4 }
func (unitEmbedder) Name() string    { return "test/unit" }

type cannedLLM struct{}

func (cannedLLM) Name() string { return "canned" }

func (cannedLLM) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if strings.Contains(req.Messages[0].Content, "different versions") {
		return &llm.CompletionResponse{Content: "Define the Paris Agreement"}, nil
	}
	return &llm.CompletionResponse{Content: "The **Paris Agreement** is a 2015 treaty."}, nil
}

func setupTest(t *testing.T) (*Dashboard, chi.Router) {
	t.Helper()
	t.Setenv("GOOGLE_API_KEY", "test-key")

	dataDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dataDir, "paris.pdf"), []byte("%PDF-1.4"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.EmbeddingProvider = config.ProviderGoogle
	cfg.EmbeddingModel = "text-embedding-004"
	cfg.Language = "en"
	cfg.DataDir = dataDir
	cfg.IndexDir = t.TempDir()

	svc, err := assistant.New(t.Context(), cfg, assistant.Deps{
		Extractor: staticExtractor{},
		NewProvider: func(*config.Config, string) (llm.Provider, error) {
			return cannedLLM{}, nil
		},
		NewEmbedder: func(*config.Config, string) (embeddings.Embedder, error) {
			return unitEmbedder{}, nil
		},
	})
	if err != nil {
		t.Fatalf("assistant.New: %v", err)
	}

	d := New(svc, assistant.NewSessions(svc, time.Hour), nil)
	r := chi.NewRouter()
	d.RegisterRoutes(r)
	return d, r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, r http.Handler) sessionResponse {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/sessions/", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: %d %s", w.Code, w.Body.String())
	}
	var sess sessionResponse
	if err := json.NewDecoder(w.Body).Decode(&sess); err != nil {
		t.Fatal(err)
	}
	return sess
}

func TestServeIndex(t *testing.T) {
	_, r := setupTest(t)
	w := do(t, r, http.MethodGet, "/", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Sohbeti Temizle") {
		t.Fatalf("unexpected index page: %d", w.Code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	_, r := setupTest(t)
	sess := createSession(t, r)
	if sess.ID == "" || sess.State != "idle" || len(sess.Messages) != 1 {
		t.Fatalf("unexpected new session %+v", sess)
	}

	w := do(t, r, http.MethodPost, "/api/sessions/"+sess.ID+"/ask", askRequest{Question: "What is the Paris Agreement?"})
	if w.Code != http.StatusOK {
		t.Fatalf("ask: %d %s", w.Code, w.Body.String())
	}
	var ans answerResponse
	if err := json.NewDecoder(w.Body).Decode(&ans); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ans.HTML, "<strong>Paris Agreement</strong>") {
		t.Errorf("expected rendered markdown, got %q", ans.HTML)
	}
	if len(ans.Sources) != 1 || ans.Sources[0].Page != 1 || ans.Sources[0].Document != "paris.pdf" {
		t.Errorf("unexpected sources %+v", ans.Sources)
	}

	w = do(t, r, http.MethodGet, "/api/sessions/"+sess.ID+"/", nil)
	var got sessionResponse
	json.NewDecoder(w.Body).Decode(&got)
	if len(got.Messages) != 3 {
		t.Errorf("expected 3 turns, got %d", len(got.Messages))
	}

	w = do(t, r, http.MethodPost, "/api/sessions/"+sess.ID+"/clear", nil)
	json.NewDecoder(w.Body).Decode(&got)
	if len(got.Messages) != 1 {
		t.Errorf("clear should leave the greeting, got %d turns", len(got.Messages))
	}

	if w := do(t, r, http.MethodDelete, "/api/sessions/"+sess.ID+"/", nil); w.Code != http.StatusNoContent {
		t.Errorf("delete: %d", w.Code)
	}
	if w := do(t, r, http.MethodGet, "/api/sessions/"+sess.ID+"/", nil); w.Code != http.StatusNotFound {
		t.Errorf("deleted session still served: %d", w.Code)
	}
}

func TestAskValidation(t *testing.T) {
	_, r := setupTest(t)
	sess := createSession(t, r)

	if w := do(t, r, http.MethodPost, "/api/sessions/"+sess.ID+"/ask", askRequest{Question: "  "}); w.Code != http.StatusBadRequest {
		t.Errorf("empty question: expected 400, got %d", w.Code)
	}
	if w := do(t, r, http.MethodPost, "/api/sessions/nope/ask", askRequest{Question: "q"}); w.Code != http.StatusNotFound {
		t.Errorf("unknown session: expected 404, got %d", w.Code)
	}
}

func TestSearch(t *testing.T) {
	_, r := setupTest(t)
	w := do(t, r, http.MethodPost, "/api/search", searchRequest{Query: "treaty"})
	if w.Code != http.StatusOK {
		t.Fatalf("search: %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "paris.pdf") {
		t.Errorf("expected paris.pdf in results: %s", w.Body.String())
	}
	if w := do(t, r, http.MethodPost, "/api/search", searchRequest{}); w.Code != http.StatusBadRequest {
		t.Errorf("empty query: expected 400, got %d", w.Code)
	}
}

func TestInfo(t *testing.T) {
	_, r := setupTest(t)
	w := do(t, r, http.MethodGet, "/api/info", nil)
	var info infoResponse
	if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if info.Passages != 1 || len(info.Examples) == 0 || info.Language != "en" {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestRiskEndpoints(t *testing.T) {
	_, r := setupTest(t)

	w := do(t, r, http.MethodGet, "/api/risks", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Sorumlu Tedarik Zinciri") {
		t.Errorf("risk JSON: %d", w.Code)
	}
	w = do(t, r, http.MethodGet, "/risks", nil)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Errorf("risk page: %d %s", w.Code, w.Header().Get("Content-Type"))
	}
}

func TestWebSocketStreamsAnswer(t *testing.T) {
	_, r := setupTest(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(chatRequest{Type: "ask", Content: "What is the Paris Agreement?"}); err != nil {
		t.Fatal(err)
	}

	var types []string
	var final chatResponse
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for final.Type != "answer" && final.Type != "error" {
		var resp chatResponse
		if err := conn.ReadJSON(&resp); err != nil {
			t.Fatalf("read: %v (got %v)", err, types)
		}
		types = append(types, resp.Type)
		final = resp
	}

	if types[0] != "session" || final.Type != "answer" {
		t.Fatalf("unexpected message sequence %v", types)
	}
	if !strings.Contains(final.Content, "2015 treaty") || len(final.Sources) != 1 {
		t.Errorf("unexpected answer %+v", final)
	}

	if err := conn.WriteJSON(chatRequest{Type: "clear", SessionID: final.SessionID}); err != nil {
		t.Fatal(err)
	}
	var cleared chatResponse
	if err := conn.ReadJSON(&cleared); err != nil {
		t.Fatal(err)
	}
	if cleared.Type != "cleared" || cleared.SessionID != final.SessionID {
		t.Errorf("unexpected clear response %+v", cleared)
	}
}
