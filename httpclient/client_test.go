// httpclient/client_test.go
package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/deploymenttheory/go-api-http-session/identity"
	"github.com/deploymenttheory/go-api-http-session/sessionstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockIdentity is a testify mock of identity.Client.
type mockIdentity struct {
	mock.Mock
}

func (m *mockIdentity) Login(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockIdentity) RefreshToken(ctx context.Context, minValidity time.Duration) (string, error) {
	args := m.Called(ctx, minValidity)
	return args.String(0), args.Error(1)
}

func testConfig(baseURL string) ClientConfig {
	config := ClientConfig{Environment: EnvironmentConfig{BaseURL: baseURL}}
	config.ClientOptions.Logging.LogLevel = "LogLevelError"
	return config
}

func TestBuildClient(t *testing.T) {
	client, err := BuildClient(testConfig("https://contacts.example.com"), nil)
	require.NoError(t, err)
	defer client.Close()

	assert.NotNil(t, client.Session)
	assert.NotNil(t, client.Logger)
	assert.Nil(t, client.Identity)
	assert.IsType(t, &sessionstore.MemoryStore{}, client.Store)
	assert.Equal(t, DefaultCustomTimeout, client.http.Timeout)
	assert.Nil(t, client.http.Jar)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestBuildClient_InvalidConfig(t *testing.T) {
	_, err := BuildClient(ClientConfig{}, nil)
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestBuildClient_RedisStore(t *testing.T) {
	config := testConfig("https://contacts.example.com")
	config.ClientOptions.Session.Store = SessionStoreRedis
	config.ClientOptions.Session.RedisAddr = "127.0.0.1:0"
	config.ClientOptions.Session.SessionID = "sid-1"

	client, err := BuildClient(config, nil)
	require.NoError(t, err)

	store, ok := client.Store.(*sessionstore.RedisStore)
	require.True(t, ok)
	assert.Equal(t, "sid-1", store.SessionID())
	assert.NoError(t, client.Close())
}

func TestBuildClient_CustomCookies(t *testing.T) {
	var gotCookie atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("lang"); err == nil {
			gotCookie.Store(c.Value)
		}
	}))
	defer srv.Close()

	config := testConfig(srv.URL)
	config.ClientOptions.EnableCookieJar = true
	config.ClientOptions.CustomCookies = []*http.Cookie{{Name: "lang", Value: "en"}}

	client, err := BuildClient(config, nil)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.DoRequest(context.Background(), http.MethodGet, "ping", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "en", gotCookie.Load())
}

func TestBuildClient_CustomCookiesNeedJar(t *testing.T) {
	config := testConfig("https://contacts.example.com")
	config.ClientOptions.CustomCookies = []*http.Cookie{{Name: "lang", Value: "en"}}

	_, err := BuildClient(config, nil)
	assert.Error(t, err)
}

func TestBuildClient_CredentialStaysOnBaseHost(t *testing.T) {
	var gotAuth atomic.Value
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
	}))
	defer other.Close()

	client, err := BuildClient(testConfig("https://contacts.example.com"), nil)
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.Session.InitSession(context.Background(), "A"))

	resp, err := client.Session.HTTPClient().Get(other.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "", gotAuth.Load())
}

func TestBuildClient_Keycloak(t *testing.T) {
	var logins atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/realms/demo/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "alice", r.PostForm.Get("username"))
		logins.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"access_token":"A","token_type":"bearer","expires_in":300,"refresh_token":"r1"}`)
	})
	mux.HandleFunc("/rest/private/security/user/info", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token A" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"id":1,"name":"Alice"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	keycloakPath := writeFile(t, "keycloak.json", fmt.Sprintf(`{
		"realm": "demo",
		"auth-server-url": %q,
		"resource": "contacts-app",
		"public-client": true
	}`, srv.URL))

	config := testConfig(srv.URL)
	config.Auth.KeycloakConfigPath = keycloakPath
	config.Auth.Username = "alice"
	config.Auth.Password = "pw"

	client, err := BuildClient(config, nil)
	require.NoError(t, err)
	defer client.Close()
	require.IsType(t, &identity.OAuth2Client{}, client.Identity)

	ctx := context.Background()
	require.NoError(t, client.Session.Bootstrap(ctx))
	assert.Equal(t, "A", client.Session.GetToken(ctx))
	assert.Equal(t, int32(1), logins.Load())

	user, err := client.Session.LoadCurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
}

func TestModifyHttpTimeout(t *testing.T) {
	client, err := BuildClient(testConfig("https://contacts.example.com"), nil)
	require.NoError(t, err)
	defer client.Close()

	client.ModifyHttpTimeout(42 * time.Second)
	assert.Equal(t, 42*time.Second, client.Session.HTTPClient().Timeout)
}
