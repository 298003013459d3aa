package univerify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
)

// memoryStore is an in-memory TokenStore.
type memoryStore struct {
	mu      sync.Mutex
	token   string
	user    *User
	saves   int
	clears  int
	loadErr error
}

func (m *memoryStore) LoadToken(context.Context) (string, *User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.user, m.loadErr
}

func (m *memoryStore) SaveToken(_ context.Context, token string, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.user = user
	m.saves++
	return nil
}

func (m *memoryStore) ClearToken(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.user = nil
	m.clears++
	return nil
}

// authServer decodes the auth request body into got and answers with token.
func authServer(t *testing.T, path string, got *map[string]string, mu *sync.Mutex) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			t.Errorf("path = %s, want %s", r.URL.Path, path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		body := map[string]string{}
		json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		*got = body
		mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"token": "jwt-new",
				"user": map[string]any{
					"id":             "u1",
					"email":          body["email"],
					"name":           body["name"],
					"wallet_address": body["walletAddress"],
				},
			},
		})
	}
}

func newSessionClient(t *testing.T, handler http.HandlerFunc, store TokenStore, signer Signer) *Client {
	t.Helper()
	session, err := NewSession(context.Background(), store, signer)
	if err != nil {
		t.Fatalf("NewSession error: %v", err)
	}
	client := newTestClient(t, handler, "", nil)
	client.session = session
	return client
}

func TestLogin_SignsAndStoresToken(t *testing.T) {
	var mu sync.Mutex
	var got map[string]string
	store := &memoryStore{}
	signer := &fakeSigner{addr: testWallet, sig: "0xsig"}
	client := newSessionClient(t, authServer(t, "/api/auth/login", &got, &mu), store, signer)

	result, err := client.Login(context.Background(), LoginRequest{})
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	if result.Token != "jwt-new" {
		t.Errorf("Token = %q, want jwt-new", result.Token)
	}
	if client.Session().Token() != "jwt-new" {
		t.Error("session should hold the new token")
	}
	if store.token != "jwt-new" || store.saves != 1 {
		t.Errorf("store = %+v, want saved token", store)
	}

	mu.Lock()
	defer mu.Unlock()
	if got["walletAddress"] != testWallet {
		t.Errorf("walletAddress = %q", got["walletAddress"])
	}
	if got["message"] != LoginMessage(testWallet) {
		t.Errorf("message = %q", got["message"])
	}
	if got["signature"] != "0xsig" {
		t.Errorf("signature = %q", got["signature"])
	}
}

func TestLogin_ExplicitSignatureNotResigned(t *testing.T) {
	var mu sync.Mutex
	var got map[string]string
	signer := &fakeSigner{addr: testWallet, sig: "0xsig"}
	client := newSessionClient(t, authServer(t, "/api/auth/login", &got, &mu), nil, signer)

	_, err := client.Login(context.Background(), LoginRequest{
		WalletAddress: testWallet,
		Message:       "custom",
		Signature:     "0xexternal",
	})
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if len(signer.messages) != 0 {
		t.Error("signer should not be used when a signature is supplied")
	}
	mu.Lock()
	defer mu.Unlock()
	if got["signature"] != "0xexternal" {
		t.Errorf("signature = %q", got["signature"])
	}
}

func TestLogin_Rejected(t *testing.T) {
	store := &memoryStore{}
	client := newSessionClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid signature"})
	}, store, &fakeSigner{addr: testWallet, sig: "0xsig"})

	_, err := client.Login(context.Background(), LoginRequest{})
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("error = %v, want ErrAuthentication", err)
	}
	if client.Session().Token() != "" {
		t.Error("session should stay logged out")
	}
	if store.saves != 0 {
		t.Error("nothing should be saved")
	}
}

func TestLogin_Validation(t *testing.T) {
	tests := []struct {
		name   string
		req    LoginRequest
		signer Signer
	}{
		{name: "no wallet and no signer", req: LoginRequest{}},
		{name: "malformed wallet", req: LoginRequest{WalletAddress: "0x123"}},
		{name: "wallet differs from signer", req: LoginRequest{WalletAddress: "0x" + "11111111111111111111111111111111111111aa"}, signer: &fakeSigner{addr: testWallet}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newSessionClient(t, func(w http.ResponseWriter, r *http.Request) {
				t.Error("no request expected")
			}, nil, tt.signer)

			_, err := client.Login(context.Background(), tt.req)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestLogin_SignerFailure(t *testing.T) {
	signErr := errors.New("user rejected request")
	client := newSessionClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}, nil, &fakeSigner{addr: testWallet, err: signErr})

	_, err := client.Login(context.Background(), LoginRequest{})
	if !errors.Is(err, signErr) {
		t.Errorf("error = %v, want signer error", err)
	}
}

func TestSignup(t *testing.T) {
	var mu sync.Mutex
	var got map[string]string
	client := newSessionClient(t, authServer(t, "/api/auth/signup", &got, &mu), nil, &fakeSigner{addr: testWallet, sig: "0xsig"})

	result, err := client.Signup(context.Background(), SignupRequest{Name: "Ada", Email: "ada@example.edu"})
	if err != nil {
		t.Fatalf("Signup error: %v", err)
	}
	if result.User.Name != "Ada" || result.User.WalletAddress != testWallet {
		t.Errorf("User = %+v", result.User)
	}

	mu.Lock()
	defer mu.Unlock()
	if got["email"] != "ada@example.edu" || got["name"] != "Ada" {
		t.Errorf("body = %v", got)
	}
}

func TestSignup_RequiresProfile(t *testing.T) {
	client := newSessionClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}, nil, &fakeSigner{addr: testWallet})

	for _, req := range []SignupRequest{{Email: "a@b.c"}, {Name: "Ada"}} {
		if _, err := client.Signup(context.Background(), req); !errors.Is(err, ErrValidation) {
			t.Errorf("Signup(%+v) error = %v, want ErrValidation", req, err)
		}
	}
}

func TestLogout(t *testing.T) {
	store := &memoryStore{token: "jwt-old", user: &User{ID: "u1"}}
	client := newSessionClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}, store, nil)

	if client.Session().Token() != "jwt-old" {
		t.Fatal("session should load the stored token")
	}
	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("Logout error: %v", err)
	}
	if client.Session().Token() != "" || client.Session().User() != nil {
		t.Error("session should be cleared")
	}
	if store.clears != 1 || store.token != "" {
		t.Errorf("store = %+v, want cleared", store)
	}
}
