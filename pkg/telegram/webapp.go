package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const webAppSecretKey = "WebAppData"

// WebAppUser is the user object embedded in mini-app init data.
type WebAppUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// WebAppData is the verified payload of a mini-app launch.
type WebAppData struct {
	QueryID    string
	StartParam string
	AuthDate   time.Time
	User       *WebAppUser
}

// ValidateInitData verifies the signature of raw init data against the bot token
// and rejects payloads older than maxAge (when maxAge > 0).
func ValidateInitData(raw, botToken string, maxAge time.Duration, now time.Time) (*WebAppData, error) {
	if strings.TrimSpace(botToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "telegram bot token not configured")
	}
	values, err := url.ParseQuery(strings.TrimSpace(raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "malformed init data")
	}
	hash := values.Get("hash")
	if hash == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "init data hash missing")
	}

	expected := SignInitData(values, botToken)
	if !hmac.Equal([]byte(strings.ToLower(hash)), []byte(expected)) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "init data signature mismatch")
	}

	data := &WebAppData{
		QueryID:    values.Get("query_id"),
		StartParam: values.Get("start_param"),
	}
	if rawDate := values.Get("auth_date"); rawDate != "" {
		secs, err := strconv.ParseInt(rawDate, 10, 64)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid auth_date")
		}
		data.AuthDate = time.Unix(secs, 0).UTC()
	}
	if maxAge > 0 {
		if data.AuthDate.IsZero() || now.Sub(data.AuthDate) > maxAge {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "init data expired")
		}
	}
	if rawUser := values.Get("user"); rawUser != "" {
		var user WebAppUser
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid init data user")
		}
		data.User = &user
	}
	return data, nil
}

// SignInitData computes the hex signature Telegram attaches to init data. The
// hash field itself is excluded from the data-check string.
func SignInitData(values url.Values, botToken string) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, key+"="+values.Get(key))
	}

	secret := hmacSHA256([]byte(webAppSecretKey), []byte(botToken))
	return hex.EncodeToString(hmacSHA256(secret, []byte(strings.Join(lines, "\n"))))
}

func hmacSHA256(key, msg []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	return mac.Sum(nil)
}
