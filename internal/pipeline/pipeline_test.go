package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Loadstring-Afk/Celestial-SF/internal/obferr"
	"github.com/Loadstring-Afk/Celestial-SF/internal/parser"
)

func boolPtr(b bool) *bool { return &b }

func TestObfuscate_Scenario1_BasicProfileRenamesLocal(t *testing.T) {
	res, err := Obfuscate([]byte("local x=1 return x"), Options{Profile: "basic"}, 0)
	require.NoError(t, err)
	require.NotContains(t, res.Code, "x")
}

func TestObfuscate_Scenario2_StringEncryptionHidesLiteral(t *testing.T) {
	res, err := Obfuscate([]byte(`print("hi")`), Options{StringEncryption: boolPtr(true)}, 42)
	require.NoError(t, err)
	require.NotContains(t, res.Code, `"hi"`)
}

func TestObfuscate_Scenario3_StandardProfileProducesParseableOutput(t *testing.T) {
	res, err := Obfuscate([]byte("for i=1,3 do print(i) end"), Options{Profile: "standard"}, 1)
	require.NoError(t, err)
	require.NotEmpty(t, res.Code)
	_, err = parser.Parse(res.Code)
	require.NoError(t, err)
}

func TestObfuscate_Scenario4_ProfessionalProfileExpandsOutput(t *testing.T) {
	src := "function f(a,b) return a+b end return f(2,3)"
	res, err := Obfuscate([]byte(src), Options{Profile: "professional"}, 7)
	require.NoError(t, err)
	require.GreaterOrEqual(t, res.ObfuscatedSize, 2*len(src))
}

func TestObfuscate_Scenario5_ParseErrorAtOffset(t *testing.T) {
	_, err := Obfuscate([]byte("local ="), Options{Profile: "basic"}, 0)
	require.Error(t, err)
	var pe *obferr.ParseError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, 6, pe.Offset)
}

func TestObfuscate_Scenario6_OversizeInputFailsResourceExceeded(t *testing.T) {
	huge := strings.Repeat("x", 6*1024*1024)
	_, err := Obfuscate([]byte(huge), Options{}, 0)
	require.Error(t, err)
	var re *obferr.ResourceExceeded
	require.ErrorAs(t, err, &re)
}

func TestObfuscate_InvalidProfileIsRejected(t *testing.T) {
	_, err := Obfuscate([]byte("local x = 1"), Options{Profile: "nonexistent"}, 0)
	require.Error(t, err)
	var io *obferr.InvalidOption
	require.ErrorAs(t, err, &io)
}

func TestObfuscate_MalformedTargetDialectVersionIsRejected(t *testing.T) {
	_, err := Obfuscate([]byte("local x = 1"), Options{TargetDialectVersion: "not-a-version"}, 0)
	require.Error(t, err)
	var io *obferr.InvalidOption
	require.ErrorAs(t, err, &io)
}

func TestObfuscate_PreBitwiseTargetVersionRejectsExplicitStringEncryption(t *testing.T) {
	_, err := Obfuscate([]byte("local x = 1"), Options{
		TargetDialectVersion: "v5.1.0",
		StringEncryption:     boolPtr(true),
	}, 0)
	require.Error(t, err)
	var io *obferr.InvalidOption
	require.ErrorAs(t, err, &io)
}

func TestObfuscate_PreBitwiseTargetVersionAcceptedWhenBitwisePassesDisabled(t *testing.T) {
	_, err := Obfuscate([]byte("local x = 1"), Options{
		Profile:              "professional",
		TargetDialectVersion: "v5.1.0",
		StringEncryption:     boolPtr(false),
		VMObfuscation:        boolPtr(false),
	}, 0)
	require.NoError(t, err)
}

func TestObfuscate_PostBitwiseTargetVersionAccepted(t *testing.T) {
	_, err := Obfuscate([]byte("local x = 1"), Options{TargetDialectVersion: "v5.4.0"}, 0)
	require.NoError(t, err)
}

func TestObfuscate_InvalidLevelIsRejected(t *testing.T) {
	_, err := Obfuscate([]byte("local x = 1"), Options{ObfuscationLevel: 99}, 0)
	require.Error(t, err)
}

func TestObfuscate_DeterministicForSameSeed(t *testing.T) {
	src := []byte("local x = 1\nlocal y = 2\nreturn x + y\n")
	opts := Options{Profile: "standard"}
	r1, err := Obfuscate(src, opts, 123)
	require.NoError(t, err)
	r2, err := Obfuscate(src, opts, 123)
	require.NoError(t, err)
	require.Equal(t, r1.Code, r2.Code)
	require.Equal(t, r1.Checksum, r2.Checksum)
}

func TestObfuscate_SizeBoundHolds(t *testing.T) {
	src := []byte("function f(a,b) return a+b end return f(2,3)")
	res, err := Obfuscate(src, Options{Profile: "military"}, 1)
	require.NoError(t, err)
	require.LessOrEqual(t, res.ObfuscatedSize, 20*len(src))
}

func TestObfuscate_EmptyOptionsRunsNoPasses(t *testing.T) {
	res, err := Obfuscate([]byte("local x = 1"), Options{}, 0)
	require.NoError(t, err)
	require.Contains(t, res.Code, "local x = 1")
}
