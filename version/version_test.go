package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	assert.Contains(t, String(), "datagen "+GetVersion())
	assert.Contains(t, String(), GetBuildDate())
}
