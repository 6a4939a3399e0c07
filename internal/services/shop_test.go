package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonT-ops/chatbot-project/internal/config"
)

func shopConfig(baseURL string) *config.Config {
	return &config.Config{
		APIEndpoint:    baseURL,
		HTTPTimeout:    5 * time.Second,
		SearchCacheTTL: time.Minute,
	}
}

func TestShopSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/shop/search/", r.URL.Path)
		assert.Equal(t, "iphone 13", r.URL.Query().Get("query"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"url": "https://shop.example/p1", "name": "iPhone 13", "price": 450000, "disponibilite": "en stock", "categorie": "telephones"},
			{"url": "https://shop.example/p2", "name": "iPhone 13 Pro", "price": 600000}
		]`))
	}))
	defer srv.Close()

	s := NewShopService(shopConfig(srv.URL))
	products, err := s.Search(context.Background(), "iphone 13")
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "iPhone 13", products[0].Name)
	assert.Equal(t, float64(450000), products[0].Price)
	assert.Equal(t, "en stock", products[0].Disponibilite)
}

func TestShopSearchEmptyResultIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	s := NewShopService(shopConfig(srv.URL))
	products, err := s.Search(context.Background(), "nothing here")
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestShopSearchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewShopService(shopConfig(srv.URL))
	_, err := s.Search(context.Background(), "iphone")
	require.Error(t, err)
}

func TestRegisterClick(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/shop/register-click/", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewShopService(shopConfig(srv.URL))
	require.NoError(t, s.RegisterClick(context.Background(), "https://shop.example/p1", "secret"))
	assert.Equal(t, "Token secret", gotAuth)

	// Anonymous clicks carry no Authorization header.
	require.NoError(t, s.RegisterClick(context.Background(), "https://shop.example/p1", ""))
	assert.Empty(t, gotAuth)
}
