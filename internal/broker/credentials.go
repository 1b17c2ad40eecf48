package broker

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Credentials identify the bucket and the service account that signs URLs.
type Credentials struct {
	Bucket      string
	ClientEmail string
	PrivateKey  string
}

type credentialNames struct {
	bucket, email, key string
}

var (
	primaryNames   = credentialNames{"GCS_BUCKET", "GCS_CLIENT_EMAIL", "GCS_PRIVATE_KEY"}
	secondaryNames = credentialNames{"STORAGE_BUCKET", "GOOGLE_CLIENT_EMAIL", "GOOGLE_PRIVATE_KEY"}
	secretsVars    = []string{"APP_SECRETS", "SECRETS_JSON"}
)

// ResolveCredentials reads signing credentials from the environment. Each field
// is taken from the primary variable names, then the secondary ones, then from a
// secrets blob (JSON object or KEY=VALUE lines) in APP_SECRETS or SECRETS_JSON.
func ResolveCredentials(getenv func(string) string) (Credentials, error) {
	secrets := map[string]string{}
	for _, name := range secretsVars {
		if blob := strings.TrimSpace(getenv(name)); blob != "" {
			secrets = parseSecrets(blob)
			break
		}
	}
	lookup := func(names ...string) string {
		for _, n := range names {
			if v := strings.TrimSpace(getenv(n)); v != "" {
				return v
			}
		}
		for _, n := range names {
			if v := strings.TrimSpace(secrets[n]); v != "" {
				return v
			}
		}
		return ""
	}

	creds := Credentials{
		Bucket:      lookup(primaryNames.bucket, secondaryNames.bucket, "bucket"),
		ClientEmail: lookup(primaryNames.email, secondaryNames.email, "client_email"),
		PrivateKey:  expandNewlines(lookup(primaryNames.key, secondaryNames.key, "private_key")),
	}

	var missing []string
	if creds.Bucket == "" {
		missing = append(missing, "bucket")
	}
	if creds.ClientEmail == "" {
		missing = append(missing, "client email")
	}
	if creds.PrivateKey == "" {
		missing = append(missing, "private key")
	}
	if len(missing) > 0 {
		return Credentials{}, fmt.Errorf("ResolveCredentials: missing %s", strings.Join(missing, ", "))
	}
	return creds, nil
}

// parseSecrets accepts a JSON object of strings or KEY=VALUE lines.
func parseSecrets(blob string) map[string]string {
	out := map[string]string{}
	if strings.HasPrefix(blob, "{") {
		var raw map[string]any
		if err := json.Unmarshal([]byte(blob), &raw); err == nil {
			for k, v := range raw {
				if s, ok := v.(string); ok {
					out[k] = s
				}
			}
			return out
		}
	}
	for _, line := range strings.Split(blob, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(strings.TrimPrefix(k, "export "))] = unquote(strings.TrimSpace(v))
	}
	return out
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}

func expandNewlines(key string) string {
	return strings.ReplaceAll(key, `\n`, "\n")
}

// ErrNoCredentials is returned by handlers when signing is not configured.
var ErrNoCredentials = errors.New("upload signing is not configured")
