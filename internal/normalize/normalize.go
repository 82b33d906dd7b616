// Package normalize приводит сырые строки источников к чистому
// натуральному ключу или отбрасывает их.
package normalize

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Placeholder значение "нет данных" в выгрузках источников.
const Placeholder = "-"

var diacritics = strings.NewReplacer(
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"à", "a", "â", "a",
	"ô", "o", "ö", "o",
	"î", "i", "ï", "i",
	"û", "u", "ü", "u",
	"ç", "c", "ñ", "n",
)

// XML-допустимый диапазон: \t \n \r, U+0020-U+D7FF, U+E000-U+FFFD.
func allowed(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return r != '\uFEFF'
	}
	return false
}

// Normalizer детерминирован: один и тот же вход всегда даёт один выход.
// Transliterate включает замену фиксированного набора французских
// диакритик (é -> e ...). Без неё имена сохраняются как есть ("6ème").
type Normalizer struct {
	Transliterate bool
}

func (n Normalizer) Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.ToValidUTF8(raw, "")
	// NFC до транслитерации: "e" + U+0301 должно совпасть с "é"
	s = norm.NFC.String(s)
	s, _, err := transform.String(runes.Remove(runes.Predicate(func(r rune) bool { return !allowed(r) })), s)
	if err != nil {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")
	if n.Transliterate {
		s = diacritics.Replace(s)
	}
	return s
}

// IsUsable: пусто, "null" и плейсхолдер "-" непригодны как имя узла.
func IsUsable(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" || v == Placeholder {
		return false
	}
	return !strings.EqualFold(v, "null")
}
