package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	DisableColors()
}

func TestNew(t *testing.T) {
	tests := []struct {
		code    string
		wantMsg string
		wantCat Category
	}{
		{"G101", "Config file not found", CategoryConfig},
		{"G203", "Invalid route pattern", CategoryManifest},
		{"G207", "Missing route parameter", CategoryRouting},
		{"G302", "Server failed", CategoryServer},
		{"G999", "Unknown error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.wantMsg, err.Message)
			assert.Equal(t, tt.wantCat, err.Category)
		})
	}

	assert.Equal(t, docBase+"G203", New("G203").DocURL)
	assert.Empty(t, New("G999").DocURL)
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "G206: Route not found", New("G206").Error())
	assert.Equal(t, "bad port 0", Newf(CategoryConfig, "bad port %d", 0).Error())

	cause := fmt.Errorf("open gravity.json: %w", os.ErrNotExist)
	err := New("G101").Wrap(cause)
	assert.Equal(t, "G101: Config file not found: open gravity.json: file does not exist", err.Error())
}

func TestWrapAndIs(t *testing.T) {
	err := New("G101").Wrap(os.ErrNotExist)
	assert.True(t, stderrors.Is(err, os.ErrNotExist))
	assert.True(t, stderrors.Is(fmt.Errorf("load: %w", err), New("G101")))
	assert.False(t, stderrors.Is(err, New("G102")))

	var ge *GravityError
	require.True(t, stderrors.As(fmt.Errorf("outer: %w", err), &ge))
	assert.Equal(t, "G101", ge.Code)
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil, "G202"))

	orig := New("G204")
	assert.Same(t, orig, FromError(orig, "G202"))

	wrapped := FromError(stderrors.New("boom"), "G202")
	assert.Equal(t, "G202", wrapped.Code)
	assert.EqualError(t, wrapped.Wrapped, "boom")
}

func TestWithOffset(t *testing.T) {
	src := []byte("{\n  \"server\": {\n    \"port\": 80,\n  }\n}\n")
	var v map[string]any
	err := json.Unmarshal(src, &v)
	var syn *json.SyntaxError
	require.ErrorAs(t, err, &syn)

	ge := New("G102").WithOffset("gravity.json", src, syn.Offset)
	require.NotNil(t, ge.Location)
	assert.Equal(t, "gravity.json", ge.Location.File)
	assert.Equal(t, 4, ge.Location.Line)
	assert.Equal(t, 2, ge.ContextStart)
	assert.Contains(t, ge.Context, "  }")

	out := ge.Format()
	assert.Contains(t, out, "gravity.json:4:")
	assert.Contains(t, out, "→    4 │   }")
	assert.Contains(t, out, "^")

	unchanged := New("G102").WithOffset("gravity.json", src, int64(len(src)+10))
	assert.Nil(t, unchanged.Location)
}

func TestWithLocation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gravity.json")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\nc\nd\ne\nf\n"), 0o644))

	ge := New("G103").WithLocation(path, 1, 0)
	assert.Equal(t, path+":1", ge.Location.String())
	assert.Equal(t, 1, ge.ContextStart)
	assert.Equal(t, []string{"a", "b", "c"}, ge.Context)

	missing := New("G103").WithLocation(filepath.Join(t.TempDir(), "nope.json"), 3, 1)
	assert.NotNil(t, missing.Location)
	assert.Empty(t, missing.Context)
}

func TestFormat(t *testing.T) {
	ge := New("G204").
		Wrap(stderrors.New("illegal base64 data at input byte 3")).
		WithSuggestion("Rebuild the site to regenerate the key")

	out := ge.Format()
	assert.Contains(t, out, "ERROR G204: Invalid manifest key")
	assert.Contains(t, out, "Cause: illegal base64 data")
	assert.Contains(t, out, "Hint: Rebuild the site")
	assert.Contains(t, out, "Learn more: "+docBase+"G204")
	assert.NotContains(t, out, "\033[")

	assert.Equal(t, "G204: Invalid manifest key: illegal base64 data at input byte 3", ge.FormatCompact())

	loc := New("G102")
	loc.Location = &Location{File: "gravity.json", Line: 2, Column: 5}
	assert.Equal(t, "gravity.json:2:5: G102: Invalid config file", loc.FormatCompact())
}

func TestFormatColors(t *testing.T) {
	EnableColors()
	defer DisableColors()
	assert.True(t, ColorsEnabled())
	assert.Contains(t, New("G101").Format(), colorRed)
}

func TestFormatJSON(t *testing.T) {
	ge := New("G102").Wrap(stderrors.New("unexpected end of JSON input"))
	ge.Location = &Location{File: "gravity.json", Line: 3, Column: 1}

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(ge.FormatJSON()), &got))
	assert.Equal(t, "G102", got["code"])
	assert.Equal(t, "config", got["category"])
	assert.Equal(t, "unexpected end of JSON input", got["cause"])
	assert.Equal(t, map[string]any{"file": "gravity.json", "line": float64(3), "column": float64(1)}, got["location"])
}

func TestFprintError(t *testing.T) {
	var buf bytes.Buffer
	FprintError(&buf, New("G301"))
	assert.Contains(t, buf.String(), "ERROR G301: Invalid argument")

	buf.Reset()
	FprintError(&buf, stderrors.New("plain"))
	assert.Equal(t, "\nERROR: plain\n\n", buf.String())
}

func TestWrapText(t *testing.T) {
	assert.Nil(t, wrapText("", 10))
	assert.Equal(t, []string{"short"}, wrapText("short", 10))
	lines := wrapText("one two three four five six", 9)
	for _, l := range lines {
		assert.LessOrEqual(t, len(l), 9)
	}
	assert.Equal(t, "one two three four five six", strings.Join(lines, " "))
}

func TestRegistry(t *testing.T) {
	codes := GetAllCodes()
	require.NotEmpty(t, codes)
	assert.IsIncreasing(t, codes)
	for _, code := range codes {
		tmpl, ok := GetTemplate(code)
		require.True(t, ok)
		assert.NotEmpty(t, tmpl.Message, code)
		assert.NotEmpty(t, tmpl.Category, code)
	}

	Register("G399", ErrorTemplate{Category: CategoryCLI, Message: "Test only"})
	defer delete(registry, "G399")
	assert.Equal(t, "Test only", New("G399").Message)
}

func TestStatusTable(t *testing.T) {
	assert.Equal(t, "NOT_FOUND", StatusName(404))
	assert.Equal(t, "CONTENT_TOO_LARGE", StatusName(413))
	assert.Equal(t, "NETWORK_AUTHENTICATION_REQUIRED", StatusName(511))
	assert.Empty(t, StatusName(200))

	code, ok := StatusCode("GATEWAY_TIMEOUT")
	require.True(t, ok)
	assert.Equal(t, 504, code)

	_, ok = StatusCode("OK")
	assert.False(t, ok)

	for name, code := range statusNames {
		assert.Equal(t, name, StatusName(code))
	}
}
