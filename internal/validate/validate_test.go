package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"recogym/internal/apperr"
)

type sample struct {
	Code  string `json:"code" validate:"required,code"`
	Phone string `json:"phone" validate:"phone"`
	Plan  string `json:"plan" validate:"required,oneof=monthly quarterly yearly"`
}

func TestIsCode(t *testing.T) {
	for _, ok := range []string{"S001", "ABC1234", "s12", " S1 "} {
		assert.True(t, IsCode(ok), ok)
	}
	for _, bad := range []string{"", "S", "ABCD1", "S12345", "1S", "S-01"} {
		assert.False(t, IsCode(bad), bad)
	}
}

func TestIsPhone(t *testing.T) {
	assert.True(t, IsPhone("+52 (55) 1234-5678"))
	assert.True(t, IsPhone("55512345"))
	assert.False(t, IsPhone("1234"))
	assert.False(t, IsPhone("call me maybe"))
}

func TestStruct(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, Struct(sample{Code: "S001", Plan: "monthly"}))
	})

	t.Run("invalid collects every field", func(t *testing.T) {
		err := Struct(sample{Code: "bad", Phone: "x", Plan: "weekly"})

		assert.ErrorIs(t, err, apperr.ErrValidation)
		msg := apperr.Message(err)
		assert.Contains(t, msg, "Code must look like S001")
		assert.Contains(t, msg, "Phone is not a valid phone number")
		assert.Contains(t, msg, "Plan must be one of")
	})

	t.Run("fields", func(t *testing.T) {
		fields := Fields(sample{Plan: "yearly"})
		assert.Len(t, fields, 1)
		assert.Equal(t, "required", fields[0].Tag)
	})
}

func TestText(t *testing.T) {
	assert.Equal(t, "hello", Text("  hello \n"))
	assert.Len(t, []rune(Text(strings.Repeat("á", 1500))), 1000)
}

func TestSearch(t *testing.T) {
	assert.Equal(t, "Ana Pérez-1 --", Search(" Ana' Pérez-1; --"))
	assert.Equal(t, "", Search("<>"))
	assert.Len(t, Search(strings.Repeat("a", 300)), 100)
}

func TestDate(t *testing.T) {
	d, err := Date("fecha_inicio", "2024-02-29")
	assert.NoError(t, err)
	assert.Equal(t, 29, d.Day())

	_, err = Date("fecha_inicio", "29/02/2024")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, apperr.Message(err), "fecha_inicio")
}
