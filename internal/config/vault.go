package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"atsmatch/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets are KVv2 paths. An empty path skips that secret.
type VaultSecrets struct {
	// "keys" holds a comma-separated list, e.g. "key1,key2"
	APIKeys string `mapstructure:"apiKeys"`
	// "api_key" holds the Gemini key
	GeminiKey string `mapstructure:"geminiKey"`
	// "secret" holds the HS256 signing secret for bearer tokens
	JWTSecret string `mapstructure:"jwtSecret"`
	// "cert" and "key" hold PEM content
	TLSCerts string `mapstructure:"tlsCerts"`
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	logger *errors.Logger
}

// VaultSecret represents a secret read from Vault's KVv2 engine.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// NewVaultClient creates a connected Vault client. It returns nil, nil when
// Vault is disabled.
func NewVaultClient(cfg VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	apiCfg := api.DefaultConfig()
	if cfg.Address != "" {
		apiCfg.Address = cfg.Address
	}
	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	token, err := resolveVaultToken(cfg)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}
	if logger != nil {
		logger.Info("Connected to Vault",
			"address", apiCfg.Address,
			"version", health.Version,
			"sealed", health.Sealed)
	}

	return &VaultClient{client: client, logger: logger}, nil
}

// resolveVaultToken prefers the inline token over the token file
func resolveVaultToken(cfg VaultConfig) (string, error) {
	token := cfg.Token
	if token == "" && cfg.TokenFile != "" {
		data, err := os.ReadFile(cfg.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(data))
	}
	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// GetSecretV2 retrieves a secret from a Vault KVv2 store.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}
	return decodeKVv2(secret.Data, path)
}

// decodeKVv2 splits a raw KVv2 response body into data and version
func decodeKVv2(raw map[string]any, path string) (*VaultSecret, error) {
	data, ok := raw["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	metadata, ok := raw["metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	versionRaw, ok := metadata["version"]
	if !ok {
		return nil, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}
	version, err := parseVersionValue(versionRaw, path)
	if err != nil {
		return nil, err
	}
	return &VaultSecret{Data: data, Version: version}, nil
}

// parseVersionValue accepts the numeric shapes the Vault client decodes into
func parseVersionValue(versionRaw any, path string) (int64, error) {
	switch v := versionRaw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, versionRaw)
	}
}

// GetStringSecret retrieves a string value from a Vault secret
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	value, err := stringField(secret, path, key)
	if err != nil {
		return "", err
	}
	if vc.logger != nil {
		vc.logger.Debug("String secret retrieved from Vault",
			"path", path,
			"key", key,
			"masked_value", maskSecret(value))
	}
	return value, nil
}

func stringField(secret *VaultSecret, path, key string) (string, error) {
	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}
	return str, nil
}

func maskSecret(value string) string {
	switch {
	case len(value) > 8:
		return value[:4] + "****" + value[len(value)-4:]
	case value != "":
		return "****"
	default:
		return ""
	}
}

// splitList splits a comma-separated secret, dropping blanks
func splitList(value string) []string {
	result := []string{}
	for part := range strings.SplitSeq(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// ApplyVaultSecrets loads secrets from Vault and applies them to the config
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		return nil
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		if logger != nil {
			logger.LogError(err, "Failed to initialize Vault client")
		}
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}

	paths := config.Vault.Secrets
	loaders := []struct {
		path  string
		name  string
		apply func(*VaultSecret) error
	}{
		{paths.APIKeys, "API keys", func(s *VaultSecret) error {
			value, err := stringField(s, paths.APIKeys, "keys")
			if err != nil {
				return err
			}
			if keys := splitList(value); len(keys) > 0 {
				config.Server.APIKeys = keys
			}
			return nil
		}},
		{paths.GeminiKey, "Gemini API key", func(s *VaultSecret) error {
			value, err := stringField(s, paths.GeminiKey, "api_key")
			if err != nil {
				return err
			}
			applyGeminiKey(config, value)
			return nil
		}},
		{paths.JWTSecret, "JWT secret", func(s *VaultSecret) error {
			value, err := stringField(s, paths.JWTSecret, "secret")
			if err != nil {
				return err
			}
			if value != "" {
				config.Server.JWTSecret = value
			}
			return nil
		}},
		{paths.TLSCerts, "TLS certificates", func(s *VaultSecret) error {
			return applyTLSSecret(config, s)
		}},
	}

	for _, l := range loaders {
		if l.path == "" {
			continue
		}
		secret, err := client.GetSecretV2(l.path)
		if err == nil {
			err = l.apply(secret)
		}
		if err != nil {
			if logger != nil {
				logger.LogError(err, "Failed to load secret from Vault", "secret", l.name, "path", l.path)
			}
			return fmt.Errorf("failed to load %s from vault: %w", l.name, err)
		}
		if logger != nil {
			logger.Info("Secret loaded from Vault", "secret", l.name, "version", secret.Version)
		}
	}

	return nil
}

// applyGeminiKey sets the global key and fills per-operation keys that were
// left empty
func applyGeminiKey(config *Config, key string) {
	if key == "" {
		return
	}
	config.AI.APIKey = key
	for _, op := range []*OperationAIConfig{&config.AI.Optimize, &config.AI.Analyze, &config.AI.Rephrase} {
		if op.APIKey == "" {
			op.APIKey = key
		}
	}
}

// applyTLSSecret copies PEM content into the server TLS config. File paths
// stored in Vault are rejected since the content is what the server loads.
func applyTLSSecret(config *Config, secret *VaultSecret) error {
	for _, field := range []string{"cert_file", "key_file"} {
		if _, ok := secret.Data[field]; ok {
			return fmt.Errorf("'%s' is not supported in Vault, store PEM content in '%s'",
				field, strings.TrimSuffix(field, "_file"))
		}
	}

	cert, _ := secret.Data["cert"].(string)
	key, _ := secret.Data["key"].(string)
	if cert == "" || key == "" {
		return fmt.Errorf("TLS secret needs both 'cert' and 'key'")
	}
	config.Server.TLS.CertContent = cert
	config.Server.TLS.KeyContent = key
	config.Server.TLS.CertFile = ""
	config.Server.TLS.KeyFile = ""
	return nil
}
