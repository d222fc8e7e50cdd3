// identity/client_test.go
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// tokenServer is a minimal OAuth2 token endpoint. Access tokens carry an exp claim and no
// expires_in, so expiry is derived from the claim.
type tokenServer struct {
	*httptest.Server
	t          *testing.T
	lifetime   time.Duration
	passwords  atomic.Int32
	refreshes  atomic.Int32
	rejectNext atomic.Bool
	issued     atomic.Int32
}

func newTokenServer(t *testing.T, lifetime time.Duration) *tokenServer {
	ts := &tokenServer{t: t, lifetime: lifetime}
	ts.Server = httptest.NewServer(http.HandlerFunc(ts.handle))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *tokenServer) handle(w http.ResponseWriter, r *http.Request) {
	assert.NoError(ts.t, r.ParseForm())

	if ts.rejectNext.Swap(false) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		return
	}

	switch r.PostForm.Get("grant_type") {
	case "password":
		if r.PostForm.Get("username") != "alice" || r.PostForm.Get("password") != "pw" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		ts.passwords.Add(1)
	case "refresh_token":
		if r.PostForm.Get("refresh_token") != "refresh-1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		ts.refreshes.Add(1)
	default:
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	n := ts.issued.Add(1)
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp":                time.Now().Add(ts.lifetime).Unix(),
		"preferred_username": "alice",
		"jti":                fmt.Sprintf("t%d", n),
	}).SignedString([]byte("k"))
	assert.NoError(ts.t, err)

	body := map[string]any{"access_token": access, "token_type": "bearer"}
	if r.PostForm.Get("grant_type") == "password" {
		body["refresh_token"] = "refresh-1"
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (ts *tokenServer) config() *oauth2.Config {
	return &oauth2.Config{
		ClientID: "contacts-mobile",
		Endpoint: oauth2.Endpoint{TokenURL: ts.URL + "/token", AuthStyle: oauth2.AuthStyleInParams},
	}
}

func newTestClient(ts *tokenServer, opts ...Option) *OAuth2Client {
	opts = append([]Option{WithRefreshLimit(rate.Inf, 1), WithHTTPClient(ts.Client())}, opts...)
	return NewOAuth2Client(ts.config(), Credentials{Username: "alice", Password: "pw"}, opts...)
}

func TestOAuth2Client_Login(t *testing.T) {
	ts := newTokenServer(t, 5*time.Minute)
	client := newTestClient(ts)

	access, err := client.Login(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, access)

	tok := client.Token()
	require.NotNil(t, tok)
	assert.Equal(t, "refresh-1", tok.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), tok.Expiry, 5*time.Second, "expiry comes from the exp claim")
}

func TestOAuth2Client_LoginFailures(t *testing.T) {
	ts := newTokenServer(t, time.Minute)

	bad := NewOAuth2Client(ts.config(), Credentials{Username: "alice", Password: "wrong"}, WithHTTPClient(ts.Client()))
	_, err := bad.Login(context.Background())
	assert.ErrorIs(t, err, ErrLoginFailed)

	none := NewOAuth2Client(ts.config(), Credentials{})
	_, err = none.Login(context.Background())
	assert.ErrorIs(t, err, ErrLoginFailed)
	assert.Zero(t, ts.passwords.Load())
}

func TestOAuth2Client_RefreshToken(t *testing.T) {
	tests := []struct {
		name            string
		lifetime        time.Duration
		minValidity     time.Duration
		expectRefreshes int32
	}{
		{"valid long enough keeps token", 5 * time.Minute, 10 * time.Second, 0},
		{"expiring soon refreshes", 5 * time.Second, 10 * time.Second, 1},
		{"negative forces refresh", 5 * time.Minute, -1, 1},
		{"zero keeps unexpired token", 5 * time.Minute, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTokenServer(t, tt.lifetime)
			client := newTestClient(ts)

			first, err := client.Login(context.Background())
			require.NoError(t, err)

			got, err := client.RefreshToken(context.Background(), tt.minValidity)
			require.NoError(t, err)
			assert.Equal(t, tt.expectRefreshes, ts.refreshes.Load())
			if tt.expectRefreshes == 0 {
				assert.Equal(t, first, got)
			} else {
				assert.NotEqual(t, first, got)
				assert.Equal(t, "refresh-1", client.Token().RefreshToken, "refresh token survives when not rotated")
			}
		})
	}
}

func TestOAuth2Client_RefreshToken_Clock(t *testing.T) {
	ts := newTokenServer(t, time.Minute)
	now := time.Now()
	client := newTestClient(ts, withClock(func() time.Time { return now }))

	_, err := client.Login(context.Background())
	require.NoError(t, err)

	_, err = client.RefreshToken(context.Background(), 10*time.Second)
	require.NoError(t, err)
	assert.Zero(t, ts.refreshes.Load())

	now = now.Add(55 * time.Second)
	_, err = client.RefreshToken(context.Background(), 10*time.Second)
	require.NoError(t, err)
	assert.EqualValues(t, 1, ts.refreshes.Load())
}

func TestOAuth2Client_RefreshToken_Errors(t *testing.T) {
	ts := newTokenServer(t, time.Minute)

	t.Run("before login", func(t *testing.T) {
		_, err := newTestClient(ts).RefreshToken(context.Background(), -1)
		assert.ErrorIs(t, err, ErrNoRefreshToken)
	})

	t.Run("seeded without refresh token", func(t *testing.T) {
		client := newTestClient(ts, WithToken(&oauth2.Token{AccessToken: "a", Expiry: time.Now().Add(-time.Minute)}))
		_, err := client.RefreshToken(context.Background(), 10*time.Second)
		assert.ErrorIs(t, err, ErrNoRefreshToken)
	})

	t.Run("endpoint rejects", func(t *testing.T) {
		client := newTestClient(ts)
		_, err := client.Login(context.Background())
		require.NoError(t, err)

		ts.rejectNext.Store(true)
		_, err = client.RefreshToken(context.Background(), -1)
		assert.ErrorContains(t, err, "refreshing token")
	})

	t.Run("cancelled while throttled", func(t *testing.T) {
		client := newTestClient(ts, WithRefreshLimit(rate.Every(time.Hour), 1))
		_, err := client.Login(context.Background())
		require.NoError(t, err)

		_, err = client.RefreshToken(context.Background(), -1)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err = client.RefreshToken(ctx, -1)
		assert.ErrorContains(t, err, "waiting for refresh slot")
	})
}
