package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
)

type seenRequest struct {
	form      url.Values
	userAgent string
}

// requestLog records the last request received per path
type requestLog struct {
	mu   sync.Mutex
	last map[string]seenRequest
}

func (l *requestLog) get(path string) (seenRequest, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.last[path]
	return r, ok
}

// newTestRelay serves fixed bodies for the login and gateway endpoints
func newTestRelay(t *testing.T, loginBody, gatewayBody string) (*httptest.Server, *requestLog) {
	t.Helper()
	seen := &requestLog{last: make(map[string]seenRequest)}

	mux := http.NewServeMux()
	handle := func(path, body string) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			if err := r.ParseForm(); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			seen.mu.Lock()
			seen.last[path] = seenRequest{form: r.PostForm, userAgent: r.UserAgent()}
			seen.mu.Unlock()
			_, _ = fmt.Fprint(w, body)
		})
	}
	handle(LoginPath, loginBody)
	handle(GatewayListPath, gatewayBody)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, seen
}

func TestLogin(t *testing.T) {
	server, seen := newTestRelay(t, "3|dXNlcg==", "")
	client := NewClientWithURL(server.URL)

	token, err := client.Login(context.Background(), "user@example.com", "secret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token != "dXNlcg==" {
		t.Errorf("token = %q, want dXNlcg==", token)
	}

	req, ok := seen.get(LoginPath)
	if !ok {
		t.Fatal("login endpoint was not called")
	}
	want := map[string]string{
		"UserID":        "user@example.com",
		"Passwd":        "secret",
		"BundleVersion": "8",
		"AutoLogin":     "1",
		"smartphoneID":  "2",
	}
	for k, v := range want {
		if got := req.form.Get(k); got != v {
			t.Errorf("form %s = %q, want %q", k, got, v)
		}
	}
	if ua := req.userAgent; ua != "" {
		t.Errorf("User-Agent = %q, want none", ua)
	}
}

func TestLogin_ClassifiedFailures(t *testing.T) {
	tests := []struct {
		body string
		kind Kind
	}{
		{"1", KindInvalidCredentials},
		{"202|02:00-04:00", KindServiceInspection},
		{"999", KindTransientServer},
		{"something|odd", KindMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			server, _ := newTestRelay(t, tt.body, "")
			client := NewClientWithURL(server.URL)

			_, err := client.Login(context.Background(), "u", "p")
			if kind, ok := KindOf(err); !ok || kind != tt.kind {
				t.Errorf("Login() error = %v, want kind %s", err, tt.kind)
			}
			if !errors.Is(err, &Error{Kind: tt.kind}) {
				t.Errorf("errors.Is should match kind %s", tt.kind)
			}
		})
	}
}

func TestGatewayList(t *testing.T) {
	server, seen := newTestRelay(t, "", "0011AABBCCDD|Boiler|1")
	client := NewClientWithURL(server.URL)

	gw, err := client.GatewayList(context.Background(), "dXNlcg==")
	if err != nil {
		t.Fatalf("GatewayList() error = %v", err)
	}
	if gw.MAC != "0011AABBCCDD" {
		t.Errorf("MAC = %q, want 0011AABBCCDD", gw.MAC)
	}
	if len(gw.Fields) != 3 {
		t.Errorf("Fields = %v, want 3 tokens", gw.Fields)
	}

	req, _ := seen.get(GatewayListPath)
	if req.form.Get("UserID") != "dXNlcg==" || req.form.Get("Ticket") != "0" {
		t.Errorf("form = %v", req.form)
	}
}

func TestGatewayList_ServerUnreachable(t *testing.T) {
	server, _ := newTestRelay(t, "", "0")
	client := NewClientWithURL(server.URL)

	_, err := client.GatewayList(context.Background(), "token")
	if kind, _ := KindOf(err); kind != KindServerUnreachable {
		t.Errorf("GatewayList() error = %v, want KindServerUnreachable", err)
	}
	if !IsRetryable(err) {
		t.Error("server unreachable should be retryable")
	}
}

func TestClient_HTTPStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	_, err := client.Login(context.Background(), "u", "p")

	var relayErr *Error
	if !errors.As(err, &relayErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if relayErr.Kind != KindHTTP || relayErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("error = %+v, want KindHTTP 500", relayErr)
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClientWithURL(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Login(ctx, "u", "p")
	if kind, _ := KindOf(err); kind != KindTimeout {
		t.Errorf("Login() error = %v, want KindTimeout", err)
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	client := NewClientWithURL(addr)
	_, err := client.Login(context.Background(), "u", "p")
	if kind, _ := KindOf(err); kind != KindNetwork {
		t.Errorf("Login() error = %v, want KindNetwork", err)
	}
}

type recordingDoer struct {
	req *http.Request
}

func (d *recordingDoer) Do(req *http.Request) (*http.Response, error) {
	d.req = req
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       http.NoBody,
		Header:     make(http.Header),
	}, nil
}

func TestClient_InjectedDoerAndHeaders(t *testing.T) {
	doer := &recordingDoer{}
	client := &Client{
		BaseURL:    "https://relay.invalid",
		HTTPClient: doer,
		Headers:    http.Header{"X-Test": []string{"1"}},
	}

	// Empty body is unclassified with an empty first field
	_, err := client.GatewayList(context.Background(), "token")
	if kind, _ := KindOf(err); kind != KindMalformedResponse {
		t.Errorf("GatewayList() error = %v, want KindMalformedResponse", err)
	}
	if doer.req == nil {
		t.Fatal("doer was not used")
	}
	if doer.req.Header.Get("X-Test") != "1" {
		t.Errorf("custom header missing: %v", doer.req.Header)
	}
	if !strings.HasSuffix(doer.req.URL.Path, GatewayListPath) {
		t.Errorf("path = %s", doer.req.URL.Path)
	}
}

func TestHint(t *testing.T) {
	hint := Hint(&Error{Kind: KindServiceInspection, Detail: "02:00-04:00"})
	if !strings.Contains(hint, "02:00-04:00") {
		t.Errorf("inspection hint should include the window: %q", hint)
	}
	if Hint(errors.New("x")) == "" {
		t.Error("Hint should never be empty")
	}
}
