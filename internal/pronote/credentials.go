package pronote

import (
	"bytes"
	"encoding/json"

	gojson "github.com/goccy/go-json"

	src "github.com/Spok95/curriculum-sync/internal/source/pronote"
)

const (
	defaultSpace = "student"
	defaultKind  = 6
)

// RotateCredentials строит учётные данные следующего входа из new_token.
// Пароль заменяется токеном, url и идентификаторы устройства сохраняются.
func RotateCredentials(old []byte, tok src.Token) (json.RawMessage, error) {
	creds := map[string]any{}
	if len(bytes.TrimSpace(old)) > 0 {
		if err := gojson.Unmarshal(old, &creds); err != nil || creds == nil {
			creds = map[string]any{}
		}
	}
	str := func(key string) string {
		s, _ := creds[key].(string)
		return s
	}
	firstOf := func(vals ...string) string {
		for _, v := range vals {
			if v != "" {
				return v
			}
		}
		return ""
	}

	kind := tok.Kind
	if kind == 0 {
		kind = defaultKind
	}

	creds["pronote_url"] = firstOf(str("pronote_url"), tok.URL)
	creds["base_url"] = firstOf(str("base_url"), tok.URL)
	creds["username"] = firstOf(tok.Username, str("username"))
	creds["password"] = tok.Token
	if v := firstOf(str("uuid"), str("deviceUUID")); v != "" {
		creds["uuid"] = v
	}
	if v := firstOf(str("deviceUUID"), str("uuid")); v != "" {
		creds["deviceUUID"] = v
	}
	creds["space"] = firstOf(str("space"), defaultSpace)
	creds["kind"] = kind
	creds["refresh_info"] = map[string]any{
		"kind":     kind,
		"url":      tok.URL,
		"username": tok.Username,
		"token":    tok.Token,
	}
	return gojson.Marshal(creds)
}

// usableCredentials: есть хоть что-то для входа.
func usableCredentials(b []byte) bool {
	switch string(bytes.TrimSpace(b)) {
	case "", "null", "{}", "[]", `""`:
		return false
	}
	return true
}
