package credentials

// Credentials represents the stored vendor credentials in credentials.toml.
type Credentials struct {
	Version   int                           `toml:"version"`
	Providers map[string]ProviderCredential `toml:"providers"`
}

// ProviderCredential holds the secrets for a single provider. API-key
// vendors use APIKey; aws uses the access key fields.
type ProviderCredential struct {
	APIKey          string `toml:"api_key,omitempty"`
	AccessKeyID     string `toml:"access_key_id,omitempty"`
	SecretAccessKey string `toml:"secret_access_key,omitempty"`
	SessionToken    string `toml:"session_token,omitempty"`
}

// AWS is a resolved AWS key pair. Empty keys mean the default AWS
// credential chain applies.
type AWS struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// HasStaticKeys reports whether both halves of a key pair are set.
func (a AWS) HasStaticKeys() bool {
	return a.AccessKeyID != "" && a.SecretAccessKey != ""
}

// Vendor is the resolved set of secrets the transports are built from.
type Vendor struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
	AWS             AWS
}
