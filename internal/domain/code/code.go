// Package code contiene las reglas puras de formato de códigos y normalización de categorías.
package code

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/robocode-api/internal/domain"
)

const (
	// Width es el ancho fijo del contador con ceros a la izquierda (ROB-A-0001).
	// Contadores más anchos no se truncan (ROB-A-12345).
	Width = 4

	// MaxCategoryLength límite en runas de una categoría normalizada.
	MaxCategoryLength = 255
)

// NormalizeCategory recorta espacios y aplica Unicode NFC para que una misma categoría
// escrita con distintas formas de composición caiga en el mismo contador.
// El texto es libre; solo se exige que no quede vacío, sin NUL y respete MaxCategoryLength.
func NormalizeCategory(raw string) (string, error) {
	category := norm.NFC.String(strings.TrimSpace(raw))
	if category == "" {
		return "", &domain.ValidationError{Field: "category", Reason: "tipo de robot no especificado"}
	}
	if !utf8.ValidString(category) {
		return "", &domain.ValidationError{Field: "category", Reason: "la categoría no es UTF-8 válido"}
	}
	// PostgreSQL TEXT no admite el byte 0x00 (SQLSTATE 22021).
	if strings.ContainsRune(category, 0) {
		return "", &domain.ValidationError{Field: "category", Reason: "la categoría contiene caracteres nulos"}
	}
	if utf8.RuneCountInString(category) > MaxCategoryLength {
		return "", &domain.ValidationError{
			Field:  "category",
			Reason: fmt.Sprintf("la categoría supera %d caracteres", MaxCategoryLength),
		}
	}
	return category, nil
}

// Format construye "{category}-{count:0Width}".
func Format(category string, count int64) string {
	return fmt.Sprintf("%s-%0*d", category, Width, count)
}
