package secrets

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
)

// Manager defines the interface for secrets management
type Manager interface {
	// GetSecret retrieves a secret by key
	GetSecret(ctx context.Context, key string) (string, error)

	// RefreshCache forces a refresh of the cache
	RefreshCache(ctx context.Context) error

	// Close closes any resources held by the manager
	Close() error
}

// Config holds secrets manager configuration
type Config struct {
	Backend       string        // "env" or "aws-secrets-manager"
	AWSRegion     string        // AWS region for Secrets Manager
	CacheDuration time.Duration // How long to cache secrets
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Backend:       "env",
		AWSRegion:     "us-east-1",
		CacheDuration: 5 * time.Minute,
	}
}

// NewManager creates a new secrets manager based on configuration
func NewManager(cfg Config) (Manager, error) {
	switch cfg.Backend {
	case "aws-secrets-manager", "aws":
		log.Printf("🔐 Initializing AWS Secrets Manager (region: %s)", cfg.AWSRegion)
		return NewAWSManager(cfg)
	case "env", "environment":
		log.Printf("🔐 Using environment variables for secrets (development mode)")
		return NewEnvManager(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported secrets backend: %s", cfg.Backend)
	}
}

// EnvManager loads secrets from environment variables
type EnvManager struct {
	cache    map[string]string
	cacheMu  sync.RWMutex
	config   Config
	cacheExp time.Time
}

// NewEnvManager creates a new environment-based secrets manager
func NewEnvManager(cfg Config) *EnvManager {
	return &EnvManager{
		cache:  make(map[string]string),
		config: cfg,
	}
}

// GetSecret retrieves a secret from environment variables
func (m *EnvManager) GetSecret(ctx context.Context, key string) (string, error) {
	if value, ok := m.getCached(key); ok {
		return value, nil
	}

	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("secret not found: %s", key)
	}

	m.setCached(key, value)

	return value, nil
}

// RefreshCache clears the cache (forces reload on next access)
func (m *EnvManager) RefreshCache(ctx context.Context) error {
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()

	m.cache = make(map[string]string)
	m.cacheExp = time.Time{}

	return nil
}

// Close is a no-op for environment manager
func (m *EnvManager) Close() error {
	return nil
}

func (m *EnvManager) getCached(key string) (string, bool) {
	m.cacheMu.RLock()
	defer m.cacheMu.RUnlock()

	if time.Now().After(m.cacheExp) {
		return "", false
	}

	value, ok := m.cache[key]
	return value, ok
}

func (m *EnvManager) setCached(key, value string) {
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()

	m.cache[key] = value
	if m.cacheExp.IsZero() {
		m.cacheExp = time.Now().Add(m.config.CacheDuration)
	}
}

// AWSManager loads secrets from AWS Secrets Manager
type AWSManager struct {
	client  *secretsmanager.SecretsManager
	cache   map[string]cachedSecret
	cacheMu sync.RWMutex
	config  Config
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

// NewAWSManager creates a new AWS Secrets Manager client
func NewAWSManager(cfg Config) (*AWSManager, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWSRegion),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &AWSManager{
		client: secretsmanager.New(sess),
		cache:  make(map[string]cachedSecret),
		config: cfg,
	}, nil
}

// GetSecret retrieves a secret from AWS Secrets Manager
func (m *AWSManager) GetSecret(ctx context.Context, key string) (string, error) {
	if value, ok := m.getCached(key); ok {
		return value, nil
	}

	input := &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(key),
	}

	result, err := m.client.GetSecretValueWithContext(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", key, err)
	}

	if result.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", key)
	}

	m.setCached(key, *result.SecretString)

	return *result.SecretString, nil
}

// RefreshCache forces a reload of all cached secrets
func (m *AWSManager) RefreshCache(ctx context.Context) error {
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()

	m.cache = make(map[string]cachedSecret)

	return nil
}

// Close closes the AWS Secrets Manager client
func (m *AWSManager) Close() error {
	// AWS SDK sessions don't need explicit cleanup
	return nil
}

func (m *AWSManager) getCached(key string) (string, bool) {
	m.cacheMu.RLock()
	defer m.cacheMu.RUnlock()

	cached, ok := m.cache[key]
	if !ok || time.Now().After(cached.expiresAt) {
		return "", false
	}

	return cached.value, true
}

func (m *AWSManager) setCached(key, value string) {
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()

	m.cache[key] = cachedSecret{
		value:     value,
		expiresAt: time.Now().Add(m.config.CacheDuration),
	}
}
