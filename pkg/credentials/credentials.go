// Package credentials stores vendor secrets in .relay/credentials.toml and
// resolves them against the environment.
package credentials

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/relay/pkg/dotdir"
)

const (
	credentialsFile = "credentials.toml"

	currentVersion = 0
)

// Provider names accepted by the credential store.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderAWS       = "aws"
)

// providerEnvVars maps API-key providers to their environment variables.
var providerEnvVars = map[string]string{
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
}

// AWS environment variables, read by Resolve before credentials.toml.
const (
	EnvAWSAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvAWSSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvAWSSessionToken    = "AWS_SESSION_TOKEN"
)

// Manager manages reading and writing credentials.toml in the .relay/ directory.
type Manager struct {
	ddm        *dotdir.Manager
	targetPath string
}

// NewManager creates a new credentials Manager. If override is non-empty it is
// used as the .relay/ directory; otherwise the standard dotdir resolution
// applies, creating ~/.relay/ when nothing is found.
func NewManager(override string) (*Manager, error) {
	mgr := &Manager{}
	mgr.ddm = dotdir.NewManager()

	target, err := mgr.ddm.Ensure(override)
	if err != nil {
		return nil, err
	}

	mgr.targetPath = filepath.Join(target, credentialsFile)

	return mgr, nil
}

// Load reads credentials.toml from the target directory.
// Returns an empty Credentials if the file does not exist.
func (m *Manager) Load() (*Credentials, error) {
	data, err := os.ReadFile(m.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Credentials{
				Version:   currentVersion,
				Providers: make(map[string]ProviderCredential),
			}, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	creds := &Credentials{}
	if err := toml.Unmarshal(data, creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}

	if creds.Providers == nil {
		creds.Providers = make(map[string]ProviderCredential)
	}

	return creds, nil
}

// Save writes credentials to credentials.toml with 0600 permissions.
func (m *Manager) Save(creds *Credentials) error {
	if creds == nil {
		return errors.New("cannot save nil credentials")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(creds); err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	if err := os.WriteFile(m.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}

	return nil
}

// SetKey stores an API key for an API-key provider.
func (m *Manager) SetKey(provider, key string) error {
	if _, ok := providerEnvVars[provider]; !ok {
		return fmt.Errorf("provider %q does not use an API key", provider)
	}
	return m.set(provider, ProviderCredential{APIKey: key})
}

// SetAWS stores an AWS key pair.
func (m *Manager) SetAWS(aws AWS) error {
	if !aws.HasStaticKeys() {
		return errors.New("aws access key id and secret access key are both required")
	}
	return m.set(ProviderAWS, ProviderCredential{
		AccessKeyID:     aws.AccessKeyID,
		SecretAccessKey: aws.SecretAccessKey,
		SessionToken:    aws.SessionToken,
	})
}

func (m *Manager) set(provider string, pc ProviderCredential) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}

	creds.Providers[provider] = pc

	return m.Save(creds)
}

// GetKey returns the stored API key for the given provider.
// Returns an empty string if no key is stored.
func (m *Manager) GetKey(provider string) (string, error) {
	creds, err := m.Load()
	if err != nil {
		return "", err
	}

	return creds.Providers[provider].APIKey, nil
}

// RemoveKey deletes the stored credential for a provider.
func (m *Manager) RemoveKey(provider string) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}

	delete(creds.Providers, provider)

	return m.Save(creds)
}

// ListProviders returns the names of providers that have stored credentials.
func (m *Manager) ListProviders() ([]string, error) {
	creds, err := m.Load()
	if err != nil {
		return nil, err
	}

	providers := make([]string, 0, len(creds.Providers))
	for name := range creds.Providers {
		providers = append(providers, name)
	}

	sort.Strings(providers)

	return providers, nil
}

// GetTarget returns the resolved path to the credentials file.
func (m *Manager) GetTarget() string {
	return m.targetPath
}

// Resolve returns the vendor secrets, preferring environment variables over
// credentials.toml field by field.
func (m *Manager) Resolve() (Vendor, error) {
	creds, err := m.Load()
	if err != nil {
		return Vendor{}, err
	}
	return ResolveWith(creds, os.Getenv), nil
}

// ResolveWith resolves secrets from creds and getenv.
func ResolveWith(creds *Credentials, getenv func(string) string) Vendor {
	pick := func(env, stored string) string {
		if v := getenv(env); v != "" {
			return v
		}
		return stored
	}

	stored := func(provider string) ProviderCredential {
		if creds == nil {
			return ProviderCredential{}
		}
		return creds.Providers[provider]
	}

	aws := AWS{
		AccessKeyID:     getenv(EnvAWSAccessKeyID),
		SecretAccessKey: getenv(EnvAWSSecretAccessKey),
		SessionToken:    getenv(EnvAWSSessionToken),
	}
	// A half-set pair in the environment is not mixed with stored keys.
	if aws.AccessKeyID == "" && aws.SecretAccessKey == "" {
		s := stored(ProviderAWS)
		aws = AWS{
			AccessKeyID:     s.AccessKeyID,
			SecretAccessKey: s.SecretAccessKey,
			SessionToken:    s.SessionToken,
		}
	}

	return Vendor{
		AnthropicAPIKey: pick(providerEnvVars[ProviderAnthropic], stored(ProviderAnthropic).APIKey),
		OpenAIAPIKey:    pick(providerEnvVars[ProviderOpenAI], stored(ProviderOpenAI).APIKey),
		AWS:             aws,
	}
}

// EnvVarForProvider returns the environment variable name for a given provider.
// Returns an empty string for providers without a single key variable.
func EnvVarForProvider(provider string) string {
	return providerEnvVars[provider]
}

// SupportedProviders returns the providers the credential store accepts.
func SupportedProviders() []string {
	return []string{ProviderAnthropic, ProviderAWS, ProviderOpenAI}
}

// IsSupportedProvider returns true if the given provider is supported.
func IsSupportedProvider(provider string) bool {
	return slices.Contains(SupportedProviders(), provider)
}
