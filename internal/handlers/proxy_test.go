package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func proxyApp() *fiber.App {
	app := fiber.New()
	app.Get("/api/proxy/image-proxy", NewImageProxyHandler().HandleImageProxy)
	return app
}

func TestImageProxyRequiresValidURL(t *testing.T) {
	app := proxyApp()

	for _, target := range []string{
		"/api/proxy/image-proxy",
		"/api/proxy/image-proxy?url=ftp%3A%2F%2Fexample.com%2Fa.png",
		"/api/proxy/image-proxy?url=not-a-url",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, target)
	}
}

func TestImageProxyStreamsWithCacheHeader(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer upstream.Close()

	app := proxyApp()
	req := httptest.NewRequest(http.MethodGet, "/api/proxy/image-proxy?url="+url.QueryEscape(upstream.URL+"/product.png"), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "public, max-age=86400, immutable", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "png-bytes", string(body))
}

func TestImageProxyUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer upstream.Close()

	app := proxyApp()
	req := httptest.NewRequest(http.MethodGet, "/api/proxy/image-proxy?url="+url.QueryEscape(upstream.URL+"/missing.png"), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
