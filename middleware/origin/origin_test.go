package origin

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const site = "https://example.com"

var (
	production  = Env{}
	development = Env{Development: true}
	testMode    = Env{Test: true}
)

func request(headers map[string]string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "https://example.com/api/search.json", nil)
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	return r
}

func withOrigin(o string) *http.Request { return request(map[string]string{"Origin": o}) }

func TestValidate_ExactSiteOriginAllowedInEveryMode(t *testing.T) {
	t.Parallel()

	for _, env := range []Env{production, development, testMode} {
		for _, o := range []string{"https://example.com", "https://EXAMPLE.com", "https://example.com:443", "https://example.com/"} {
			ok, err := Validate(withOrigin(o), site, env)
			require.NoError(t, err)
			assert.True(t, ok, "origin %q env %+v", o, env)
		}
	}
}

func TestValidate_LookAlikesRejectedInProduction(t *testing.T) {
	t.Parallel()

	lookAlikes := []string{
		"https://evil.example.com",
		"https://example.com.evil.com",
		"https://evil-example.com",
		"https://examp1e.com",
		"https://example.co",
		"https://example.com:8443",
		"http://example.com",
		"https://example.com@evil.com",
		"https://example.com/path",
		"null",
		"example.com",
	}
	for _, o := range lookAlikes {
		ok, err := Validate(withOrigin(o), site, production)
		require.NoError(t, err, o)
		assert.False(t, ok, "origin %q must be rejected", o)
	}
}

func TestValidate_LoopbackOnlyOutsideProduction(t *testing.T) {
	t.Parallel()

	loopbacks := []string{
		"http://localhost",
		"http://localhost:4321",
		"https://localhost:8443",
		"http://127.0.0.1",
		"http://127.0.0.1:3000",
		"http://[::1]",
		"http://[::1]:4321",
	}
	for _, o := range loopbacks {
		for _, env := range []Env{development, testMode} {
			ok, err := Validate(withOrigin(o), site, env)
			require.NoError(t, err)
			assert.True(t, ok, "origin %q env %+v", o, env)
		}
		ok, err := Validate(withOrigin(o), site, production)
		require.NoError(t, err)
		assert.False(t, ok, "origin %q must be rejected in production", o)
	}
}

func TestValidate_LoopbackMatchIsExact(t *testing.T) {
	t.Parallel()

	others := []string{
		"http://localhost.evil.com",
		"http://evil-localhost",
		"http://127.0.0.1.nip.io",
		"http://127.0.0.2",
		"ftp://localhost",
		"http://0.0.0.0",
		"http://[::2]",
	}
	for _, o := range others {
		ok, err := Validate(withOrigin(o), site, development)
		require.NoError(t, err)
		assert.False(t, ok, "origin %q must be rejected", o)
	}
}

func TestValidate_MissingHeaders(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		env  Env
		want bool
	}{
		{production, false},
		{development, true},
		{testMode, true},
	} {
		ok, err := Validate(request(nil), site, tc.env)
		require.NoError(t, err)
		assert.Equal(t, tc.want, ok, "env %+v", tc.env)
	}
}

func TestValidate_RefererUsedWhenOriginAbsent(t *testing.T) {
	t.Parallel()

	ok, err := Validate(request(map[string]string{"Referer": "https://example.com/docs/intro?x=1#top"}), site, production)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Validate(request(map[string]string{"Referer": "https://example.com.evil.com/docs"}), site, production)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidate_OriginTakesPrecedenceOverReferer(t *testing.T) {
	t.Parallel()

	r := request(map[string]string{
		"Origin":  "https://evil.example.com",
		"Referer": "https://example.com/docs",
	})
	ok, err := Validate(r, site, production)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidate_MalformedRefererIsAnError(t *testing.T) {
	t.Parallel()

	for _, ref := range []string{"http://[::1", "not a url", "/relative/path"} {
		ok, err := Validate(request(map[string]string{"Referer": ref}), site, development)
		require.Error(t, err, ref)
		assert.True(t, errors.Is(err, ErrMalformedReferer), ref)
		assert.False(t, ok)
	}
}

func TestValidate_UnconfiguredSiteOrigin(t *testing.T) {
	t.Parallel()

	ok, err := Validate(withOrigin("https://example.com"), "", production)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Validate(withOrigin("http://localhost:4321"), "", development)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOrigin_String(t *testing.T) {
	t.Parallel()

	o, err := FromReferer("HTTP://[::1]:4321/a/b")
	require.NoError(t, err)
	assert.Equal(t, "http://[::1]:4321", o.String())

	o, err = FromReferer("https://Docs.Example.com:443/x")
	require.NoError(t, err)
	assert.Equal(t, "https://docs.example.com", o.String())
}

func TestMiddleware_RejectsWith403AndNoDetail(t *testing.T) {
	t.Parallel()

	rejected := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := Middleware(Options{
		SiteOrigin: site,
		OnReject:   func(http.ResponseWriter, *http.Request) { rejected++ },
	})(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withOrigin("https://evil.example.com"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Forbidden"}`, rec.Body.String())
	assert.Equal(t, 1, rejected)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, request(map[string]string{"Referer": "http://[::1"}))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withOrigin(site))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, rejected)
}
