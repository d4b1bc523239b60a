package handlers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTextCountsBytes(t *testing.T) {
	assert.NoError(t, validateText("alias", strings.Repeat("a", 50), 50))
	assert.Error(t, validateText("alias", strings.Repeat("a", 51), 50))

	// 25 two-byte runes fit, 26 do not, although both are far below 50 runes.
	assert.NoError(t, validateText("alias", strings.Repeat("é", 25), 50))
	assert.Error(t, validateText("alias", strings.Repeat("é", 26), 50))
}

func TestValidateTextRejectsEmpty(t *testing.T) {
	assert.Error(t, validateText("text", "", 10))
}
