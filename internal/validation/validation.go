// Package validation содержит функции валидации входных данных.
package validation

import (
	"strings"
	"unicode"
)

// Минимальная длина телефона: код города плюс номер без кода страны.
const minPhoneDigits = 10

// Длина почтового индекса (CEP) в цифрах.
const postalCodeDigits = 8

// NormalizePhone приводит номер телефона к канонической форме: только цифры.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, ch := range raw {
		if unicode.IsDigit(ch) {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// IsValidPhone проверяет, что нормализованный номер телефона содержит достаточно цифр.
func IsValidPhone(normalized string) bool {
	if len(normalized) < minPhoneDigits {
		return false
	}
	for _, ch := range normalized {
		if !unicode.IsDigit(ch) {
			return false
		}
	}
	return true
}

// NormalizePostalCode убирает разделители из почтового индекса.
func NormalizePostalCode(raw string) string {
	var b strings.Builder
	for _, ch := range raw {
		if unicode.IsDigit(ch) {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// IsValidPostalCode проверяет, что индекс состоит ровно из восьми цифр.
func IsValidPostalCode(normalized string) bool {
	if len(normalized) != postalCodeDigits {
		return false
	}
	for _, ch := range normalized {
		if !unicode.IsDigit(ch) {
			return false
		}
	}
	return true
}
