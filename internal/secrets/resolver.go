package secrets

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/Checker-Finance/trades-service/internal/metrics"
	"github.com/Checker-Finance/trades-service/pkg/secrets"
)

// Resolver resolves the database DSN from AWS Secrets Manager, with an
// in-memory TTL cache in front of the provider. The secret is expected to be
// a JSON map holding either a ready-made "dsn" entry or the parts
// {"url","username","password"}.
type Resolver struct {
	logger     *zap.Logger
	provider   secrets.Provider
	cache      *secrets.Cache[string]
	secretName string
}

// NewResolver builds a DSN resolver for the given secret name.
func NewResolver(logger *zap.Logger, provider secrets.Provider, cache *secrets.Cache[string], secretName string) *Resolver {
	return &Resolver{
		logger:     logger,
		provider:   provider,
		cache:      cache,
		secretName: secretName,
	}
}

// DatabaseDSN returns the resolved connection string.
func (r *Resolver) DatabaseDSN(ctx context.Context) (string, error) {
	if dsn, ok := r.cache.Get(r.secretName); ok {
		metrics.IncCacheHit("hit")
		return dsn, nil
	}
	metrics.IncCacheHit("miss")

	values, err := r.provider.GetSecret(ctx, r.secretName)
	if err != nil {
		metrics.IncError("secrets", "fetch_failed")
		return "", err
	}

	dsn, err := dsnFromSecret(values)
	if err != nil {
		metrics.IncError("secrets", "invalid_secret")
		return "", fmt.Errorf("secret [%s]: %w", r.secretName, err)
	}

	r.cache.Put(r.secretName, dsn)
	r.logger.Info("secrets.dsn_resolved", zap.String("secret", r.secretName))
	return dsn, nil
}

func dsnFromSecret(values map[string]string) (string, error) {
	if dsn := values["dsn"]; dsn != "" {
		return dsn, nil
	}

	rawURL := values["url"]
	if rawURL == "" {
		return "", fmt.Errorf("missing dsn and url entries")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url entry: %w", err)
	}
	if user := values["username"]; user != "" {
		u.User = url.UserPassword(user, values["password"])
	}
	return u.String(), nil
}
