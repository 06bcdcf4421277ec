package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<?xml version="1.0"?><root/>`))
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Equal(t, `<?xml version="1.0"?><root/>`, result.Body)
	assert.Equal(t, "text/xml", result.ContentType)
	assert.Equal(t, http.StatusOK, result.StatusCode)
}

func TestURL_SendsHeaders(t *testing.T) {
	var gotUA, gotAccept, gotCustom string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		gotCustom = r.Header.Get("X-Test")
		_, _ = w.Write([]byte("<root/>"))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.Headers = map[string]string{"X-Test": "yes"}

	_, err := URL(context.Background(), server.URL, opts)
	require.NoError(t, err)
	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Equal(t, DefaultAccept, gotAccept)
	assert.Equal(t, "yes", gotCustom)
}

func TestURL_InvalidURL(t *testing.T) {
	_, err := URL(context.Background(), "not-a-valid-url", nil)
	require.Error(t, err)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "invalid URL")
}

func TestURL_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.NotNil(t, result) // Result is returned even on error
	assert.Equal(t, http.StatusNotFound, result.StatusCode)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "404")
}

func TestLooksLikeXML(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"declaration", `<?xml version="1.0" encoding="utf-8"?><root/>`, true},
		{"root tag", `<basketDayArchives xmlns="http://tempuri.org/basketDayArchives.xsd"/>`, true},
		{"leading whitespace", "\n  <root/>", true},
		{"utf8 bom", "\xEF\xBB\xBF<?xml version=\"1.0\"?><root/>", true},
		{"html doctype", "<!DOCTYPE html><html><body></body></html>", false},
		{"html root", "<html><body><pre>x</pre></body></html>", false},
		{"plain text", "Service unavailable", false},
		{"empty", "", false},
		{"bare angle", "< root", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksLikeXML(tt.body))
		})
	}
}

func TestBrowserOptions_EffectivePreWait(t *testing.T) {
	opts := DefaultBrowserOptions()
	assert.Equal(t, MaxPreWait, opts.EffectivePreWait())

	opts.PreWait = 0
	assert.Equal(t, MaxPreWait, opts.EffectivePreWait())

	opts.PreWait = MaxPreWait * 3
	assert.Equal(t, MaxPreWait, opts.EffectivePreWait())

	opts.PreWait = MaxPreWait / 2
	assert.Equal(t, MaxPreWait/2, opts.EffectivePreWait())
}

func TestDefaultBrowserOptions(t *testing.T) {
	opts := DefaultBrowserOptions()
	assert.True(t, opts.Headless)
	assert.True(t, opts.NoSandbox)
	assert.True(t, opts.DisableDevShmUsage)
	assert.Equal(t, 1920, opts.WindowWidth)
	assert.Equal(t, 1080, opts.WindowHeight)
	assert.NotEmpty(t, opts.allocatorOptions())
}
