package student

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeResetToken(t *testing.T) {
	tok1, dig1, err := MakeResetToken()
	require.NoError(t, err)
	tok2, dig2, err := MakeResetToken()
	require.NoError(t, err)

	assert.Len(t, tok1, 2*resetTokenBytes)
	assert.NotEqual(t, tok1, tok2)
	assert.NotEqual(t, dig1, dig2)
	assert.NotEqual(t, tok1, dig1)
	assert.Equal(t, dig1, HashResetToken(tok1))
	assert.Equal(t, dig2, HashResetToken(tok2))
}
