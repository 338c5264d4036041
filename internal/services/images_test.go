package services

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unimerch_back_end/internal/apperr"
)

func TestImageKey(t *testing.T) {
	id := uuid.New()

	key, err := ImageKey(id, "image/PNG", 1024)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "products/"+id.String()+"/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	other, err := ImageKey(id, "image/png", 1024)
	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	_, err = ImageKey(id, "application/pdf", 1024)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = ImageKey(id, "image/jpeg", MaxImageSize+1)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = ImageKey(id, "image/jpeg", 0)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
