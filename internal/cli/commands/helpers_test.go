package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Herculano1234/MuseuCom/internal/cli/config"
	"github.com/Herculano1234/MuseuCom/internal/cli/credstore"
	"github.com/Herculano1234/MuseuCom/internal/cli/session"
)

// fakeMuseuCom is a minimal in-memory MuseuCom API. Access tokens can be
// expired on demand to exercise the refresh path.
type fakeMuseuCom struct {
	mu        sync.Mutex
	access    string
	refresh   string
	role      string
	refreshes int
	logouts   []string
	materials []map[string]any
	lastBody  string
}

func newFakeMuseuCom(t *testing.T) (*fakeMuseuCom, *httptest.Server) {
	t.Helper()
	f := &fakeMuseuCom{access: "a1", refresh: "r1", role: session.AdminRole}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeMuseuCom) expire() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access = f.access + "-next"
}

func (f *fakeMuseuCom) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeMuseuCom) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case "/auth/login":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			f.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "credenciais inválidas"})
			return
		}
		f.writeJSON(w, http.StatusOK, map[string]any{
			"token": f.access, "refreshToken": f.refresh,
			"id": 1, "nome": "Ana", "email": body["email"], "role": f.role,
		})
		return
	case "/auth/refresh":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["refreshToken"] != f.refresh {
			f.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "refresh inválido"})
			return
		}
		f.refreshes++
		f.refresh = f.refresh + "'"
		f.writeJSON(w, http.StatusOK, map[string]string{"token": f.access, "refreshToken": f.refresh})
		return
	}

	if r.URL.Path == "/usuarios" && r.Method == http.MethodPost {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.writeJSON(w, http.StatusCreated, map[string]any{"id": 2, "nome": body["nome"], "email": body["email"]})
		return
	}

	public := r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/materiais")
	if !public && strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ") != f.access {
		f.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expirado"})
		return
	}

	switch {
	case r.URL.Path == "/me":
		f.writeJSON(w, http.StatusOK, map[string]any{"id": 1, "nome": "Ana", "email": "ana@museu.ao", "role": f.role})
	case r.URL.Path == "/auth/logout":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.logouts = append(f.logouts, body["refreshToken"])
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/dashboard":
		f.writeJSON(w, http.StatusOK, map[string]int{"total_usuarios": 3, "total_materiais": len(f.materials)})
	case r.URL.Path == "/usuarios":
		if f.role != session.AdminRole {
			f.writeJSON(w, http.StatusForbidden, map[string]string{"error": "acesso negado"})
			return
		}
		f.writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "nome": "Ana", "email": "ana@museu.ao", "role": f.role}})
	case r.URL.Path == "/materiais" && r.Method == http.MethodGet:
		f.writeJSON(w, http.StatusOK, f.materials)
	case r.URL.Path == "/materiais" && r.Method == http.MethodPost:
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			f.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		m := map[string]any{"id": len(f.materials) + 1, "nome": r.FormValue("nome"), "numero_serie": r.FormValue("numero_serie")}
		if _, _, err := r.FormFile("imagem"); err == nil {
			m["foto"] = "data:image/png;base64,"
		}
		f.materials = append(f.materials, m)
		f.writeJSON(w, http.StatusCreated, m)
	case strings.HasPrefix(r.URL.Path, "/materiais/serie/"):
		serial := strings.TrimPrefix(r.URL.Path, "/materiais/serie/")
		for _, m := range f.materials {
			if m["numero_serie"] == serial {
				f.writeJSON(w, http.StatusOK, m)
				return
			}
		}
		f.writeJSON(w, http.StatusNotFound, map[string]string{"error": "material não encontrado"})
	case strings.HasPrefix(r.URL.Path, "/materiais/"):
		body := new(bytes.Buffer)
		_, _ = body.ReadFrom(r.Body)
		f.lastBody = body.String()
		switch r.Method {
		case http.MethodPut:
			f.writeJSON(w, http.StatusOK, map[string]any{"id": 1})
		case http.MethodDelete:
			if f.role != session.AdminRole {
				f.writeJSON(w, http.StatusForbidden, map[string]string{"error": "acesso negado"})
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			f.writeJSON(w, http.StatusOK, map[string]any{"id": 1, "nome": "Telégrafo"})
		}
	default:
		http.NotFound(w, r)
	}
}

// testOptions points a command at srv with an in-memory credential store.
func testOptions(srv *httptest.Server, store credstore.Store, out *strings.Builder) []Option {
	return []Option{
		WithServer(&config.Server{URL: srv.URL, Alias: "test-server"}),
		WithStore(store),
		WithOutput(out),
	}
}

// loggedInStore returns a store holding the session the fake API issues.
func loggedInStore(t *testing.T) *credstore.MemoryStore {
	t.Helper()
	store := credstore.NewMemoryStore()
	err := store.SetAll(map[string]string{
		session.KeyAccessToken:   "a1",
		session.KeyRefreshToken:  "r1",
		session.KeyUser:          `{"id":1,"nome":"Ana","role":"administrador"}`,
		session.KeyAuthenticated: "true",
		session.KeyRole:          session.AdminRole,
	})
	if err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
	return store
}
