package banner

import (
	"testing"

	"github.com/gookit/color"
	"github.com/stretchr/testify/assert"
)

func TestBanner(t *testing.T) {
	color.Disable()
	t.Cleanup(func() { color.Enable = true })

	got := Banner("v1.2.3")
	assert.Contains(t, got, "v1.2.3")
	assert.Contains(t, got, "comment popularity regression")
	assert.NotContains(t, got, "\x1b[")
}
