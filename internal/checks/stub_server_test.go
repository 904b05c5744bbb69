package checks

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/clusterx/demo-api-check/internal/demoapi"
)

// cannedResponse is what the stub returns for a request
type cannedResponse struct {
	status int
	body   interface{}
	raw    string
}

// stubServer mimics the demo call route with canned responses
type stubServer struct {
	*httptest.Server

	mu       sync.Mutex
	probes   int
	payloads []map[string]interface{}
}

type stubHandlers struct {
	probe func() cannedResponse
	call  func(payload map[string]interface{}) cannedResponse
}

func newStubServer(t *testing.T, h stubHandlers) *stubServer {
	t.Helper()
	s := &stubServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != demoapi.CallPath {
			http.NotFound(w, r)
			return
		}

		var resp cannedResponse
		switch r.Method {
		case http.MethodGet:
			s.mu.Lock()
			s.probes++
			s.mu.Unlock()
			resp = cannedResponse{status: http.StatusNotFound, raw: "Cannot GET /api/demo/call"}
			if h.probe != nil {
				resp = h.probe()
			}
		case http.MethodPost:
			payload := map[string]interface{}{}
			_ = json.NewDecoder(r.Body).Decode(&payload)
			s.mu.Lock()
			s.payloads = append(s.payloads, payload)
			s.mu.Unlock()
			resp = cannedResponse{status: http.StatusInternalServerError}
			if h.call != nil {
				resp = h.call(payload)
			}
		default:
			resp = cannedResponse{status: http.StatusMethodNotAllowed}
		}

		if resp.body != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(resp.status)
			_ = json.NewEncoder(w).Encode(resp.body)
			return
		}
		w.WriteHeader(resp.status)
		_, _ = w.Write([]byte(resp.raw))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *stubServer) client() *demoapi.Client {
	return demoapi.NewClient(s.URL)
}

func (s *stubServer) posted() []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]interface{}, len(s.payloads))
	copy(out, s.payloads)
	return out
}

func (s *stubServer) probeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.probes
}

// stockBackend answers like the real route with no voice credentials configured
func stockBackend(payload map[string]interface{}) cannedResponse {
	phone, _ := payload["phone_number"].(string)
	if phone == "" {
		return cannedResponse{status: http.StatusBadRequest, body: map[string]string{"error": "Phone number is required"}}
	}
	if !isE164(phone) {
		return cannedResponse{status: http.StatusBadRequest, body: map[string]string{
			"error": "Invalid phone number format. Please include country code (e.g., +919876543210)",
		}}
	}
	return cannedResponse{status: http.StatusServiceUnavailable, body: map[string]string{
		"error": "Demo service is not configured. Please contact support.",
	}}
}

// isE164 accepts "+" followed by 7 to 15 digits, the first non-zero
func isE164(s string) bool {
	if len(s) < 8 || len(s) > 16 || s[0] != '+' || s[1] < '1' || s[1] > '9' {
		return false
	}
	for _, c := range s[2:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
