package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFields_HighlightsRequestTrail(t *testing.T) {
	out := Fields(`{"request_id":"abc","model":"model1","status":503,"bytes":42,"latency":"1ms","x":null}` + "\n")

	assert.Contains(t, out, DimCode+`"request_id"`+ResetCode+":"+Cyan+`"abc"`+ResetCode)
	assert.Contains(t, out, Bold+Cyan+`"model1"`+ResetCode)
	assert.Contains(t, out, Red+"503"+ResetCode)
	assert.Contains(t, out, Purple+"42"+ResetCode)
	assert.Contains(t, out, Green+`"1ms"`+ResetCode)
	assert.Contains(t, out, DimCode+"null"+ResetCode)
	assert.True(t, len(out) > 0 && out[len(out)-1] == '\n')
}

func TestFields_KeepsTrailingStack(t *testing.T) {
	out := Fields("{\"status\":200}\nmain.main\n\t/src/main.go:10\n")

	assert.Contains(t, out, Green+"200"+ResetCode)
	assert.Contains(t, out, "}\nmain.main\n\t/src/main.go:10\n")
}

func TestFields_LeavesNonObjectsAlone(t *testing.T) {
	for _, in := range []string{"plain text", "[1,2]", `{"broken":`} {
		assert.Equal(t, in, Fields(in))
	}
}

func TestStatusColor(t *testing.T) {
	assert.Equal(t, Green, StatusColor(200))
	assert.Equal(t, Blue, StatusColor(304))
	assert.Equal(t, Yellow, StatusColor(404))
	assert.Equal(t, Red, StatusColor(502))
}

func TestStyle_Disabled(t *testing.T) {
	prev := disableColor
	disableColor = true
	defer func() { disableColor = prev }()

	assert.Equal(t, "plain", Style("plain", Red))
	assert.Equal(t, "prism", Banner("prism"))
	assert.False(t, Enabled())
}
