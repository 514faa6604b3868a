package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocksync/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Types Tests
// ---------------------------------------------------------------------------

func TestVariationID_JSON(t *testing.T) {
	var item MercadoLibreItem
	err := json.Unmarshal([]byte(`{"id":"MLB1","available_quantity":3,"variations":[{"id":1,"available_quantity":5},{"id":"abc","available_quantity":9}]}`), &item)
	require.NoError(t, err)
	require.Len(t, item.Variations, 2)
	assert.Equal(t, "1", item.Variations[0].ID.String())
	assert.Equal(t, "abc", item.Variations[1].ID.String())

	out, err := json.Marshal(MercadoLibreVariation{ID: "174997747", AvailableQuantity: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":174997747,"available_quantity":2}`, string(out))

	for id, want := range map[VariationID]string{"007": "7", "+5": "5", "-0": "0"} {
		out, err := json.Marshal(id)
		require.NoError(t, err, "id %q", id)
		assert.Equal(t, want, string(out), "id %q", id)
	}
}

func TestMercadoLibreItem_FindVariation(t *testing.T) {
	item := MercadoLibreItem{Variations: []MercadoLibreVariation{
		{ID: "1", AvailableQuantity: 5},
		{ID: "2", AvailableQuantity: 9},
	}}

	v, ok := item.FindVariation("2")
	require.True(t, ok)
	assert.Equal(t, 9, v.AvailableQuantity)

	_, ok = item.FindVariation("99")
	assert.False(t, ok)
}

func TestMercadoLibreConfig_Validate(t *testing.T) {
	cfg := &MercadoLibreConfig{APIBaseURL: "https://api.example.com/"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	assert.Equal(t, "https://api.example.com/oauth/token", cfg.TokenURL)

	cfg = &MercadoLibreConfig{APIBaseURL: "::bad"}
	assert.ErrorIs(t, cfg.Validate(), ErrMercadoLibreConfigInvalidAPIURL)
}

// ---------------------------------------------------------------------------
// Client Tests
// ---------------------------------------------------------------------------

// fakeMercadoLibre serves the OAuth and items endpoints
type fakeMercadoLibre struct {
	server     *httptest.Server
	tokenCalls atomic.Int32
	grants     []string
	refreshes  []string
	items      map[string]MercadoLibreItem
	itemStatus int
	lastUpdate map[string]any
	lastAuth   string
}

func newFakeMercadoLibre(t *testing.T) *fakeMercadoLibre {
	t.Helper()
	f := &fakeMercadoLibre{items: map[string]MercadoLibreItem{}}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		n := f.tokenCalls.Add(1)
		require.NoError(t, r.ParseForm())
		grant := r.PostForm.Get("grant_type")
		f.grants = append(f.grants, grant)
		f.refreshes = append(f.refreshes, r.PostForm.Get("refresh_token"))
		if grant == "authorization_code" && r.PostForm.Get("code") != "TG-good" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(TokenResponse{
			AccessToken:  "APP_USR-access",
			RefreshToken: "TG-rotated-" + string(rune('0'+n)),
			ExpiresIn:    21600,
		})
	})
	mux.HandleFunc("/items/", func(w http.ResponseWriter, r *http.Request) {
		f.lastAuth = r.Header.Get("Authorization")
		if f.itemStatus != 0 {
			w.WriteHeader(f.itemStatus)
			_, _ = w.Write([]byte(`{"message":"boom","error":"internal_error","status":500}`))
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/items/")
		switch r.Method {
		case http.MethodGet:
			item, ok := f.items[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"message":"Item not found","error":"not_found","status":404}`))
				return
			}
			_ = json.NewEncoder(w).Encode(item)
		case http.MethodPut:
			f.lastUpdate = map[string]any{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&f.lastUpdate))
			_ = json.NewEncoder(w).Encode(f.items[id])
		}
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeMercadoLibre) client(t *testing.T, opts ...Option) *MercadoLibreClient {
	t.Helper()
	cfg := NewMercadoLibreConfig("meli-client", "meli-secret", "TG-initial")
	cfg.APIBaseURL = f.server.URL
	cfg.TokenURL = ""
	cfg.RedirectURI = "https://example.com/callback"
	c, err := NewMercadoLibreClient(cfg, append([]Option{WithHTTPClient(f.server.Client())}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestMercadoLibreClient_Authenticate(t *testing.T) {
	t.Run("reuses rotated refresh token", func(t *testing.T) {
		f := newFakeMercadoLibre(t)
		clock := newFakeClock()
		c := f.client(t, WithClock(clock.Now))

		tok, err := c.Authenticate(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "APP_USR-access", tok)

		clock.Advance(7 * time.Hour)
		_, err = c.Authenticate(context.Background())
		require.NoError(t, err)

		require.Equal(t, []string{"TG-initial", "TG-rotated-1"}, f.refreshes)
		assert.Equal(t, []string{"refresh_token", "refresh_token"}, f.grants)
	})

	t.Run("missing refresh token is an auth failure", func(t *testing.T) {
		f := newFakeMercadoLibre(t)
		cfg := NewMercadoLibreConfig("meli-client", "meli-secret", "")
		cfg.APIBaseURL = f.server.URL
		c, err := NewMercadoLibreClient(cfg, WithHTTPClient(f.server.Client()))
		require.NoError(t, err)

		_, err = c.Authenticate(context.Background())
		assert.ErrorIs(t, err, integration.ErrAuthFailed)
		assert.ErrorIs(t, err, integration.ErrCredentialsMissing)
		assert.Equal(t, int32(0), f.tokenCalls.Load())
	})
}

func TestMercadoLibreClient_ExchangeAuthorizationCode(t *testing.T) {
	t.Run("stores exchanged token", func(t *testing.T) {
		f := newFakeMercadoLibre(t)
		c := f.client(t)

		tok, err := c.ExchangeAuthorizationCode(context.Background(), "TG-good")
		require.NoError(t, err)
		assert.Equal(t, "APP_USR-access", tok.AccessToken)
		assert.Equal(t, "TG-rotated-1", tok.RefreshToken)
		assert.Equal(t, []string{"authorization_code"}, f.grants)

		_, err = c.Authenticate(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int32(1), f.tokenCalls.Load())
	})

	t.Run("rejected code", func(t *testing.T) {
		f := newFakeMercadoLibre(t)
		c := f.client(t)

		_, err := c.ExchangeAuthorizationCode(context.Background(), "TG-bad")
		assert.ErrorIs(t, err, integration.ErrAuthFailed)
	})

	t.Run("empty code", func(t *testing.T) {
		f := newFakeMercadoLibre(t)
		c := f.client(t)

		_, err := c.ExchangeAuthorizationCode(context.Background(), "")
		assert.ErrorIs(t, err, integration.ErrCredentialsMissing)
	})
}

func TestMercadoLibreClient_GetInventory(t *testing.T) {
	f := newFakeMercadoLibre(t)
	f.items["MLA1"] = MercadoLibreItem{ID: "MLA1", AvailableQuantity: 14, Variations: []MercadoLibreVariation{
		{ID: "1", AvailableQuantity: 5},
		{ID: "2", AvailableQuantity: 9},
	}}
	c := f.client(t)
	ctx := context.Background()

	t.Run("item level quantity", func(t *testing.T) {
		res := c.GetInventory(ctx, integration.ItemRef{ExternalID: "MLA1"})
		require.True(t, res.Ok(), res.String())
		assert.Equal(t, 14, res.Quantity())
		assert.Equal(t, "Bearer APP_USR-access", f.lastAuth)
	})

	t.Run("variant 2 returns its quantity", func(t *testing.T) {
		res := c.GetInventory(ctx, integration.ItemRef{ExternalID: "MLA1", VariantID: "2"})
		require.True(t, res.Ok(), res.String())
		assert.Equal(t, 9, res.Quantity())
	})

	t.Run("unknown variant is absent", func(t *testing.T) {
		res := c.GetInventory(ctx, integration.ItemRef{ExternalID: "MLA1", VariantID: "99"})
		assert.False(t, res.Ok())
		assert.ErrorIs(t, res.Err(), integration.ErrVariantNotFound)
		assert.ErrorIs(t, res.Err(), integration.ErrRemoteReadFailed)
	})

	t.Run("missing item is a read failure", func(t *testing.T) {
		res := c.GetInventory(ctx, integration.ItemRef{ExternalID: "MLA404"})
		assert.ErrorIs(t, res.Err(), integration.ErrRemoteReadFailed)

		var statusErr *StatusError
		require.ErrorAs(t, res.Err(), &statusErr)
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	})

	assert.Equal(t, int32(1), f.tokenCalls.Load())
}

func TestMercadoLibreClient_UpdateInventory(t *testing.T) {
	t.Run("item level body", func(t *testing.T) {
		f := newFakeMercadoLibre(t)
		c := f.client(t)

		res := c.UpdateInventory(context.Background(), integration.ItemRef{ExternalID: "MLA1"}, 12)
		require.True(t, res.Ok(), "%v", res.Err())
		assert.Equal(t, float64(12), f.lastUpdate["available_quantity"])
		assert.NotContains(t, f.lastUpdate, "variations")
	})

	t.Run("variation body", func(t *testing.T) {
		f := newFakeMercadoLibre(t)
		c := f.client(t)

		res := c.UpdateInventory(context.Background(), integration.ItemRef{ExternalID: "MLA1", VariantID: "2"}, 4)
		require.True(t, res.Ok(), "%v", res.Err())
		assert.NotContains(t, f.lastUpdate, "available_quantity")

		variations, ok := f.lastUpdate["variations"].([]any)
		require.True(t, ok)
		require.Len(t, variations, 1)
		v := variations[0].(map[string]any)
		assert.Equal(t, float64(2), v["id"])
		assert.Equal(t, float64(4), v["available_quantity"])
	})

	t.Run("server error is a write failure", func(t *testing.T) {
		f := newFakeMercadoLibre(t)
		f.itemStatus = http.StatusInternalServerError
		c := f.client(t)

		res := c.UpdateInventory(context.Background(), integration.ItemRef{ExternalID: "MLA1"}, 1)
		assert.False(t, res.Ok())
		assert.ErrorIs(t, res.Err(), integration.ErrRemoteWriteFailed)
	})
}
