package vcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseCapabilities_Typical verifies codes and nested value lists are extracted.
func TestParseCapabilities_Typical(t *testing.T) {
	raw := "(prot(monitor)type(LCD)model(U2720Q)cmds(01 02 03 07 0C E3 F3)vcp(02 04 05 08 10 12 14(05 08 0B) 16 18 1A 60( 0F 10 11) D6(01 04 05))mccs_ver(2.1))"

	caps, err := ParseCapabilities(raw)
	require.NoError(t, err)

	assert.True(t, caps.Supports(Luminance))
	assert.True(t, caps.Supports(Contrast))
	assert.False(t, caps.Supports(0xE3), "cmds section must not leak into vcp features")
	assert.Equal(t, []uint8{0x05, 0x08, 0x0B}, caps[0x14].Values)
	assert.Equal(t, []uint8{0x0F, 0x10, 0x11}, caps[0x60].Values)
	assert.Len(t, caps, 12)
}

// TestParseCapabilities_NoSpaces verifies packed code lists are split two digits at a time.
func TestParseCapabilities_NoSpaces(t *testing.T) {
	caps, err := ParseCapabilities("(vcp(021012))")
	require.NoError(t, err)
	assert.True(t, caps.Supports(0x02))
	assert.True(t, caps.Supports(Luminance))
	assert.True(t, caps.Supports(Contrast))
}

// TestParseCapabilities_Truncated verifies a string cut off inside vcp(...) still yields the codes seen.
func TestParseCapabilities_Truncated(t *testing.T) {
	caps, err := ParseCapabilities("(prot(monitor)vcp(10 12 ")
	require.NoError(t, err)
	assert.True(t, caps.Supports(Luminance))
	assert.True(t, caps.Supports(Contrast))
}

// TestParseCapabilities_MissingSection verifies strings without vcp(...) are rejected.
func TestParseCapabilities_MissingSection(t *testing.T) {
	_, err := ParseCapabilities("(prot(monitor)type(LCD))")
	require.ErrorIs(t, err, ErrNoVCPSection)
}

// TestParseCapabilities_IgnoresVcpName verifies vcpname(...) is not mistaken for the feature list.
func TestParseCapabilities_IgnoresVcpName(t *testing.T) {
	caps, err := ParseCapabilities("(vcpname(10(Brightness))vcp(12))")
	require.NoError(t, err)
	assert.True(t, caps.Supports(Contrast))
	assert.False(t, caps.Supports(Luminance))
}

// TestParseCapabilities_BadCode verifies non-hex codes are reported.
func TestParseCapabilities_BadCode(t *testing.T) {
	_, err := ParseCapabilities("(vcp(10 zz))")
	require.Error(t, err)
}

// TestCodeString verifies known codes get names.
func TestCodeString(t *testing.T) {
	assert.Equal(t, "luminance", Luminance.String())
	assert.Equal(t, "contrast", Contrast.String())
	assert.Equal(t, "0x60", Code(0x60).String())
}
