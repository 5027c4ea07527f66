package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupType(t *testing.T) {
	cases := []struct {
		name string
		want Type
		ok   bool
	}{
		{"ImageFile", ImageFile, true},
		{"image", ImageFile, true},
		{"dict", StructuredData, true},
		{"nonsense", "", false},
	}
	for _, c := range cases {
		got, ok := LookupType(c.name)
		assert.Equal(t, c.ok, ok, c.name)
		if ok {
			assert.Equal(t, c.want, got, c.name)
		}
	}
}

func TestParseTypeError(t *testing.T) {
	_, err := ParseType("Widget")
	require.Error(t, err)
}

func TestAllAreValid(t *testing.T) {
	for _, ty := range All {
		assert.True(t, ty.Valid(), ty)
	}
}

func TestIsNonSerializable(t *testing.T) {
	assert.True(t, IsNonSerializable("BaseChatModel"))
	assert.False(t, IsNonSerializable("ImageFile"))
}
