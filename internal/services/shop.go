package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/BrandonT-ops/chatbot-project/internal/config"
	"github.com/BrandonT-ops/chatbot-project/internal/models"
	"github.com/BrandonT-ops/chatbot-project/internal/utils"
)

// ShopService is the client for the shop backend: product search and
// outbound click tracking.
type ShopService struct {
	baseURL    string
	httpClient *http.Client
	config     *config.Config
}

func NewShopService(cfg *config.Config) *ShopService {
	return &ShopService{
		baseURL:    cfg.APIEndpoint,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		config:     cfg,
	}
}

// Search queries the shop backend. The backend returns a bare JSON array of
// products; an empty array is a valid, empty result, not an error.
func (s *ShopService) Search(ctx context.Context, query string) ([]models.Product, error) {
	endpoint := fmt.Sprintf("%s/shop/search/?query=%s", s.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed with status: %d", resp.StatusCode)
	}

	var products []models.Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	utils.LogInfo(ctx, "shop search completed",
		slog.String("query", query),
		slog.Int("result_count", len(products)),
		slog.Float64("duration_seconds", time.Since(start).Seconds()),
	)

	return products, nil
}

// SearchWithCache checks the cache before hitting the backend and fills it
// on success. Cache failures degrade to a direct search.
func (s *ShopService) SearchWithCache(ctx context.Context, query string, cache *CacheService) ([]models.Product, error) {
	if cache != nil {
		cached, err := cache.GetSearchResults(ctx, query)
		if err == nil {
			utils.LogInfo(ctx, "using cached search results", slog.String("query", query))
			return cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			utils.LogWarn(ctx, "search cache read failed", slog.Any("error", err))
		}
	}

	products, err := s.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if cache != nil && len(products) > 0 {
		if err := cache.SetSearchResults(ctx, query, products, s.config.SearchCacheTTL); err != nil {
			utils.LogWarn(ctx, "search cache write failed", slog.Any("error", err))
		}
	}

	return products, nil
}

// RegisterClick relays an outbound product click. The token is optional;
// anonymous clicks are tracked without authorization.
func (s *ShopService) RegisterClick(ctx context.Context, productURL, token string) error {
	body, err := json.Marshal(models.RegisterClickRequest{ProductURL: productURL})
	if err != nil {
		return fmt.Errorf("failed to marshal click request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/shop/register-click/", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build click request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("click request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("click registration failed with status: %d", resp.StatusCode)
	}
	return nil
}
