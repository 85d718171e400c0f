package slug_test

import (
	"testing"

	"github.com/kartingops/laptimeoor/pkg/slug"
	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "track name", in: "Sportzilla Formula Karting", want: "sportzilla-formula-karting"},
		{name: "surrounding whitespace", in: "  John   Doe  ", want: "john-doe"},
		{name: "punctuation stripped", in: "O'Brien Jr.", want: "obrien-jr"},
		{name: "parens and underscores", in: "Ali_Khan (PK)", want: "alikhan-pk"},
		{name: "existing hyphens collapsed", in: "A--B", want: "a-b"},
		{name: "only separators", in: "---", want: ""},
		{name: "empty", in: "", want: ""},
		{name: "digits kept", in: "Driver 42", want: "driver-42"},
		{name: "non-ascii removed", in: "Üter Zörker", want: "ter-zrker"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, slug.Make(tt.in))
		})
	}
}

func TestMake_Stable(t *testing.T) {
	// Slugging an already-slugged name must be a no-op.
	s := slug.Make("Apex Autodrome")
	assert.Equal(t, s, slug.Make(s))
}
