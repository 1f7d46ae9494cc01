package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/whoyoshome/mini-productos/internal/models"
)

func TestProduct_Accepts(t *testing.T) {
	t.Parallel()

	refs := []string{
		"https://example.com/a.jpg",
		"HTTP://example.com/a.jpg",
		"data:image/png;base64,AAAA",
		"DATA:IMAGE/jpeg;base64,AAAA",
		"blob:http://localhost:3000/6a1e",
	}
	for _, ref := range refs {
		got, errs := Product(models.ProductInput{Name: "  Keyboard  ", ImageURL: "  " + ref + " "})
		require.Nil(t, errs, ref)
		require.Equal(t, "Keyboard", got.Name)
		require.Equal(t, ref, got.ImageURL)
	}
}

func TestProduct_FieldErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input models.ProductInput
		field string
		msg   string
	}{
		{"blank name", models.ProductInput{Name: "   ", ImageURL: "https://x.io/a.png"}, "name", "Name is required"},
		{"long name", models.ProductInput{Name: strings.Repeat("n", 121), ImageURL: "https://x.io/a.png"}, "name", "Name is too long"},
		{"missing image", models.ProductInput{Name: "A", ImageURL: " "}, "imageUrl", "Image URL or file is required"},
		{"bare host", models.ProductInput{Name: "A", ImageURL: "example.com/a.png"}, "imageUrl", "Must be a valid http(s) URL or a data:image/… or a blob: URL"},
		{"non-image data", models.ProductInput{Name: "A", ImageURL: "data:text/html,<b>"}, "imageUrl", "Must be a valid http(s) URL or a data:image/… or a blob: URL"},
		{"uppercase blob", models.ProductInput{Name: "A", ImageURL: "BLOB:http://x"}, "imageUrl", "Must be a valid http(s) URL or a data:image/… or a blob: URL"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, errs := Product(tc.input)
			require.NotNil(t, errs)
			require.Equal(t, []string{tc.msg}, errs.FieldErrors[tc.field])
			require.Empty(t, errs.FormErrors)
		})
	}
}

func TestProduct_NameLengthCountsCharacters(t *testing.T) {
	t.Parallel()

	_, errs := Product(models.ProductInput{Name: strings.Repeat("é", 120), ImageURL: "https://x.io/a.png"})
	require.Nil(t, errs)
}

func TestProduct_ReportsBothFields(t *testing.T) {
	t.Parallel()

	_, errs := Product(models.ProductInput{})
	require.NotNil(t, errs)
	require.Len(t, errs.FieldErrors, 2)
}
