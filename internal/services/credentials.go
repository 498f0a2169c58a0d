package services

import (
	"strings"

	"github.com/sapbridge/sapbridge-api/internal/models"
)

// Well-known credential field names. Public fields land in the config
// column as plaintext, secret fields are encrypted into the secrets
// column.
const (
	FieldUsername     = "username"
	FieldPassword     = "password"
	FieldClientID     = "client_id"
	FieldClientSecret = "client_secret"
	FieldTokenURL     = "token_url"
	FieldScope        = "scope"
	FieldHeaderName   = "header_name"
	FieldHeaderValue  = "header_value"
	FieldAPIKey       = "api_key"
)

// CredentialFields is the untyped credential payload as submitted by a
// caller. Which fields matter is decided by the auth type; empty means
// "not supplied".
type CredentialFields struct {
	Username     string `json:"username,omitempty"`
	Password     string `json:"password,omitempty"`
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
	TokenURL     string `json:"token_url,omitempty"`
	Scope        string `json:"scope,omitempty"`
	HeaderName   string `json:"header_name,omitempty"`
	HeaderValue  string `json:"header_value,omitempty"`
	APIKey       string `json:"api_key,omitempty"`

	// Raw carries arbitrary key/value pairs for the custom variant.
	Raw []RawCredential `json:"raw,omitempty"`
}

type RawCredential struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Secret *bool  `json:"secret,omitempty"`
}

// IsSecretField classifies a field name as secret by substring match.
// Best-effort safety net for raw custom pairs; the typed variants carry
// an explicit classification and never rely on it.
func IsSecretField(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range []string{"secret", "password", "key", "token", "credential"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// CredentialCodec turns submitted credential fields into the storage
// shape: plaintext public config plus per-field encrypted secrets.
type CredentialCodec struct {
	crypto *CryptoService
}

func NewCredentialCodec(crypto *CryptoService) *CredentialCodec {
	return &CredentialCodec{crypto: crypto}
}

// BuildForCreate validates the required field set for the auth type and
// returns the storage records. Every secret value passes through the
// crypto service; empty secrets fail validation before encryption.
func (c *CredentialCodec) BuildForCreate(authType models.AuthType, fields CredentialFields) (map[string]string, map[string]string, error) {
	if missing := missingFields(authType, fields); len(missing) > 0 {
		return nil, nil, &ValidationError{Fields: missing}
	}

	config := map[string]string{}
	secrets := map[string]string{}

	encryptInto := func(key, value string) error {
		ciphertext, err := c.crypto.Encrypt(value)
		if err != nil {
			return err
		}
		secrets[key] = ciphertext
		return nil
	}

	switch authType {
	case models.AuthTypeNone:
		// nothing stored

	case models.AuthTypeBasic:
		config[FieldUsername] = fields.Username
		if err := encryptInto(FieldPassword, fields.Password); err != nil {
			return nil, nil, err
		}

	case models.AuthTypeOAuth2:
		config[FieldClientID] = fields.ClientID
		config[FieldTokenURL] = fields.TokenURL
		if fields.Scope != "" {
			config[FieldScope] = fields.Scope
		}
		if err := encryptInto(FieldClientSecret, fields.ClientSecret); err != nil {
			return nil, nil, err
		}

	case models.AuthTypeAPIKey:
		config[FieldHeaderName] = fields.HeaderName
		if err := encryptInto(FieldAPIKey, fields.APIKey); err != nil {
			return nil, nil, err
		}

	case models.AuthTypeCustom:
		if fields.HeaderName != "" {
			config[FieldHeaderName] = fields.HeaderName
			if err := encryptInto(FieldHeaderValue, fields.HeaderValue); err != nil {
				return nil, nil, err
			}
		}
		for _, raw := range fields.Raw {
			if raw.Key == "" {
				return nil, nil, NewValidationError("raw.key")
			}
			if isRawSecret(raw) {
				if raw.Value == "" {
					return nil, nil, NewValidationError(raw.Key)
				}
				if err := encryptInto(raw.Key, raw.Value); err != nil {
					return nil, nil, err
				}
			} else {
				config[raw.Key] = raw.Value
			}
		}

	default:
		return nil, nil, NewValidationError("auth_type")
	}

	return config, secrets, nil
}

// BuildForUpdate merges submitted fields over an existing record.
// Fields not supplied keep their stored values; a secret supplied as
// empty never clobbers a stored secret. Switching auth type behaves
// like a create: the previous type's fields are dropped entirely.
func (c *CredentialCodec) BuildForUpdate(authType models.AuthType, fields CredentialFields, existing *models.AuthConfig) (map[string]string, map[string]string, error) {
	if authType != existing.AuthType {
		return c.BuildForCreate(authType, fields)
	}

	config := map[string]string{}
	for k, v := range existing.Config {
		config[k] = v
	}
	secrets := map[string]string{}
	for k, v := range existing.Secrets {
		secrets[k] = v
	}

	setConfig := func(key, value string) {
		if value != "" {
			config[key] = value
		}
	}
	setSecret := func(key, value string) error {
		if value == "" {
			return nil
		}
		ciphertext, err := c.crypto.Encrypt(value)
		if err != nil {
			return err
		}
		secrets[key] = ciphertext
		return nil
	}

	switch authType {
	case models.AuthTypeNone:

	case models.AuthTypeBasic:
		setConfig(FieldUsername, fields.Username)
		if err := setSecret(FieldPassword, fields.Password); err != nil {
			return nil, nil, err
		}

	case models.AuthTypeOAuth2:
		setConfig(FieldClientID, fields.ClientID)
		setConfig(FieldTokenURL, fields.TokenURL)
		setConfig(FieldScope, fields.Scope)
		if err := setSecret(FieldClientSecret, fields.ClientSecret); err != nil {
			return nil, nil, err
		}

	case models.AuthTypeAPIKey:
		setConfig(FieldHeaderName, fields.HeaderName)
		if err := setSecret(FieldAPIKey, fields.APIKey); err != nil {
			return nil, nil, err
		}

	case models.AuthTypeCustom:
		setConfig(FieldHeaderName, fields.HeaderName)
		if err := setSecret(FieldHeaderValue, fields.HeaderValue); err != nil {
			return nil, nil, err
		}
		for _, raw := range fields.Raw {
			if raw.Key == "" {
				return nil, nil, NewValidationError("raw.key")
			}
			if isRawSecret(raw) {
				if err := setSecret(raw.Key, raw.Value); err != nil {
					return nil, nil, err
				}
			} else if raw.Value != "" {
				config[raw.Key] = raw.Value
			}
		}

	default:
		return nil, nil, NewValidationError("auth_type")
	}

	return config, secrets, nil
}

func isRawSecret(raw RawCredential) bool {
	if raw.Secret != nil {
		return *raw.Secret
	}
	return IsSecretField(raw.Key)
}

func missingFields(authType models.AuthType, fields CredentialFields) []string {
	var missing []string
	requireField := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}

	switch authType {
	case models.AuthTypeBasic:
		requireField(FieldUsername, fields.Username)
		requireField(FieldPassword, fields.Password)
	case models.AuthTypeOAuth2:
		requireField(FieldClientID, fields.ClientID)
		requireField(FieldClientSecret, fields.ClientSecret)
		requireField(FieldTokenURL, fields.TokenURL)
	case models.AuthTypeAPIKey:
		requireField(FieldHeaderName, fields.HeaderName)
		requireField(FieldAPIKey, fields.APIKey)
	case models.AuthTypeCustom:
		// either a header pair or raw pairs
		if fields.HeaderName == "" && len(fields.Raw) == 0 {
			missing = append(missing, FieldHeaderName)
		}
		if fields.HeaderName != "" {
			requireField(FieldHeaderValue, fields.HeaderValue)
		}
	}
	return missing
}
