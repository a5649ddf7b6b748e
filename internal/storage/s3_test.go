package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".jpg", extensionFor("image/jpeg"))
	assert.Equal(t, ".png", extensionFor("image/png"))
	assert.Equal(t, ".pdf", extensionFor("application/pdf"))
	assert.Equal(t, "", extensionFor("application/x-unknown-receipt"))
}
