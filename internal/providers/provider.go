// file: internal/providers/provider.go
// version: 1.0.0
// guid: 8f2a6d1c-4b9e-4f3a-8d7c-0e5b2f9a6c1d

package providers

import (
	"context"
	"strings"
	"time"

	"github.com/jdfalk/abs-meta/internal/cache"
	"github.com/jdfalk/abs-meta/internal/metrics"
	"github.com/jdfalk/abs-meta/internal/models"
)

// Provider is a metadata catalog backend. Implementations declare their
// path parameter contract as data via Config and perform their own
// upstream fetching in Search. Upstream and formatting failures are the
// provider's own concern and surface as empty result sets, not errors;
// only the cache core's validation and storage errors propagate.
type Provider interface {
	Config() models.ProviderConfig
	Search(ctx context.Context, query models.SearchQuery, pathParams map[string]string) ([]models.BookMetadata, error)
}

// ValidationError reports a rejected path parameter with enough detail to
// identify the offending parameter and, for whitelist violations, the
// allowed set.
type ValidationError struct {
	Provider string
	Param    string
	Value    string
	Allowed  []string
	Missing  bool
}

func (e *ValidationError) Error() string {
	if e.Missing {
		return "required parameter '" + e.Param + "' is missing for provider '" + e.Provider + "'"
	}
	return "invalid value '" + e.Value + "' for parameter '" + e.Param + "' in provider '" +
		e.Provider + "'. Allowed values: " + strings.Join(e.Allowed, ", ")
}

// ValidatePathParams checks pathParams against the provider's declared
// contract: required parameters must be present, and whitelisted
// parameters must hold allowed values. Comma-separated parameters are
// validated element-wise after trimming.
func ValidatePathParams(cfg models.ProviderConfig, pathParams map[string]string) error {
	for _, param := range cfg.RequiredParams {
		if pathParams[param] == "" {
			return &ValidationError{Provider: cfg.Name, Param: param, Missing: true}
		}
	}

	for param, value := range pathParams {
		allowed, ok := cfg.ParameterWhitelists[param]
		if !ok {
			continue
		}
		values := []string{value}
		if containsString(cfg.CommaSeparated, param) {
			values = strings.Split(value, ",")
		}
		for _, v := range values {
			v = strings.TrimSpace(v)
			if !containsString(allowed, v) {
				return &ValidationError{Provider: cfg.Name, Param: param, Value: v, Allowed: allowed}
			}
		}
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// SearchWithCache is the cached search path every API request goes
// through: validate path parameters, try the cache, fall through to the
// provider's upstream search on a miss and write the results back. The
// result is returned either way; a failed cache write is a real error
// because a silently dropped write would read as a miss forever.
func SearchWithCache(ctx context.Context, p Provider, svc *cache.Service, query models.SearchQuery, pathParams map[string]string) ([]models.BookMetadata, error) {
	cfg := p.Config()

	if err := ValidatePathParams(cfg, pathParams); err != nil {
		metrics.IncValidationFailure(cfg.Name)
		return nil, err
	}

	cached, hit, err := svc.Get(cfg.Name, query, pathParams)
	if err != nil {
		return nil, err
	}
	if hit {
		metrics.IncCacheHit(cfg.Name)
		metrics.IncSearch(cfg.Name, "cache")
		return cached, nil
	}
	metrics.IncCacheMiss(cfg.Name)

	start := time.Now()
	results, err := p.Search(ctx, query, pathParams)
	if err != nil {
		return nil, err
	}
	metrics.ObserveUpstreamDuration(cfg.Name, time.Since(start))
	metrics.IncSearch(cfg.Name, "upstream")

	if err := svc.Set(cfg.Name, query, results, pathParams); err != nil {
		return nil, err
	}
	return results, nil
}
