package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain ascii", "invoice.pdf", "invoice.pdf"},
		{"turkish letters", "Fatura_Şubat.pdf", "Fatura_Subat.pdf"},
		{"full turkish alphabet", "ıİşŞğĞüÜöÖçÇ.png", "iIsSgGuUoOcC.png"},
		{"diacritics", "café-menü.jpg", "cafe-menu.jpg"},
		{"url encoded", "Fatura%20Listesi.pdf", "Fatura_Listesi.pdf"},
		{"unsafe characters", "my file (1).pdf", "my_file__1_.pdf"},
		{"path separators", "a/b\\c.pdf", "a_b_c.pdf"},
		{"unknown non-ascii", "счёт.pdf", "____.pdf"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeFilename(tt.in))
		})
	}
}
