package format

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFormatter(t *testing.T, locale string) *Formatter {
	t.Helper()
	f, err := New("R$", locale)
	require.NoError(t, err)
	return f
}

func TestMoney(t *testing.T) {
	tests := []struct {
		locale string
		value  string
		want   string
	}{
		{"es-CO", "1234567.5", "R$ 1.234.567,50"},
		{"en-US", "1234567.5", "R$ 1,234,567.50"},
		{"es-CO", "0", "R$ 0,00"},
	}
	for _, tt := range tests {
		t.Run(tt.locale+"/"+tt.value, func(t *testing.T) {
			f := newFormatter(t, tt.locale)
			assert.Equal(t, tt.want, f.Money(decimal.RequireFromString(tt.value)))
		})
	}
}

func TestNumbers(t *testing.T) {
	f := newFormatter(t, "en-US")
	assert.Equal(t, "12,345", f.Int(12345))
}

func TestFixed(t *testing.T) {
	tests := []struct {
		locale string
		value  float64
		places int
		want   string
	}{
		{"en-US", 4.333, 1, "4.3"},
		{"en-US", 4.0, 1, "4.0"},
		{"en-US", 2.456, 2, "2.46"},
		{"en-US", 1234.56, 1, "1,234.6"},
		{"es-CO", 4.333, 1, "4,3"},
		{"es-CO", 1.5, 2, "1,50"},
	}
	for _, tt := range tests {
		t.Run(tt.locale+"/"+tt.want, func(t *testing.T) {
			f := newFormatter(t, tt.locale)
			assert.Equal(t, tt.want, f.Fixed(tt.value, tt.places))
		})
	}
}

func TestCategory(t *testing.T) {
	f := newFormatter(t, "es-CO")
	assert.Equal(t, "Cama Mesa Banho", f.Category("cama_mesa_banho"))
	assert.Equal(t, "Informatica", f.Category("informatica"))
	assert.Equal(t, "-", f.Category(""))
}

func TestPlace(t *testing.T) {
	f := newFormatter(t, "es-CO")
	assert.Equal(t, "Sao Paulo", f.Place("sao paulo"))
	assert.Equal(t, "SP", f.Place("sp"))
}

func TestCategory_Concurrent(t *testing.T) {
	f := newFormatter(t, "es-CO")
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "Beleza Saude", f.Category("beleza_saude"))
		}()
	}
	wg.Wait()
}

func TestNew_BadLocale(t *testing.T) {
	_, err := New("R$", "not a locale!")
	assert.Error(t, err)
}
