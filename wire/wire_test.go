package wire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nczempin/asynchttp/headers"
	"github.com/nczempin/asynchttp/method"
)

func TestSerialize_defaultPreamble(t *testing.T) {
	got := Serialize(SerializeOptions{
		Method:  method.GET,
		Target:  "/path",
		Version: Version11,
		Host:    "host",
		Port:    80,
		Secure:  false,
	})

	want := "GET /path HTTP/1.1\r\n" +
		"Host: host\r\n" +
		"Accept: */*\r\n" +
		"Accept-Encoding: gzip\r\n" +
		"Connection: close\r\n" +
		"\r\n"

	require.Equal(t, want, string(got))
}

func TestSerialize_emptyTargetBecomesSlash(t *testing.T) {
	got := Serialize(SerializeOptions{Method: method.GET, Version: Version11, Host: "h", Port: 80})
	require.Equal(t, "GET / HTTP", string(got[:len("GET / HTTP")]))
}

func TestSerialize_nonDefaultPortAppearsInHost(t *testing.T) {
	got := Serialize(SerializeOptions{
		Method: method.GET, Version: Version11, Host: "host", Port: 8443, Secure: true,
	})
	require.Contains(t, string(got), "Host: host:8443\r\n")
}

func TestSerialize_defaultPortOmittedFromHost(t *testing.T) {
	got := Serialize(SerializeOptions{
		Method: method.GET, Version: Version11, Host: "host", Port: 443, Secure: true,
	})
	require.Contains(t, string(got), "Host: host\r\n")
}

func TestSerialize_userAgentAndRefererOmittedWhenEmpty(t *testing.T) {
	got := Serialize(SerializeOptions{Method: method.GET, Version: Version11, Host: "h", Port: 80})
	require.NotContains(t, string(got), "User-Agent")
	require.NotContains(t, string(got), "Referer")
}

func TestSerialize_extraHeadersSuppressDefaults(t *testing.T) {
	extra := headers.New(headers.Field{Name: "Connection", Value: "keep-alive"})
	got := Serialize(SerializeOptions{
		Method: method.GET, Version: Version11, Host: "h", Port: 80, ExtraHeaders: extra,
	})
	require.NotContains(t, string(got), "Connection: close")
	require.Contains(t, string(got), "Connection: keep-alive")
}

func TestExtractLine_incompleteWithoutLF(t *testing.T) {
	_, _, err := ExtractLine([]byte("no newline here"))
	require.Equal(t, ErrIncomplete, err)
}

func TestExtractLine_stripsTrailingCR(t *testing.T) {
	line, rest, err := ExtractLine([]byte("hello\r\nworld"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(line))
	require.Equal(t, "world", string(rest))
}

func TestExtractLine_noTrailingCR(t *testing.T) {
	line, _, err := ExtractLine([]byte("hello\nworld"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(line))
}

func TestParseStatusLine_success(t *testing.T) {
	status, err := ParseStatusLine([]byte("HTTP/1.1 200 OK"))
	require.NoError(t, err)
	require.Equal(t, 200, status.Code)
	require.Equal(t, "OK", status.Text)
}

func TestParseStatusLine_tooShortIsIncomplete(t *testing.T) {
	_, err := ParseStatusLine([]byte("HTTP/1.1 2"))
	require.Equal(t, ErrIncomplete, err)
}

func TestParseStatusLine_nonDigitCodeIsIncomplete(t *testing.T) {
	_, err := ParseStatusLine([]byte("HTTP/1.1 2XX OK"))
	require.Equal(t, ErrIncomplete, err)
}

func TestParseHeaderLine_emptyLineSignalsDone(t *testing.T) {
	h := headers.New()
	done := ParseHeaderLine([]byte(""), h)
	require.True(t, done, `ParseHeaderLine("") should report done`)
}

func TestParseHeaderLine_appendsField(t *testing.T) {
	h := headers.New()
	done := ParseHeaderLine([]byte("Content-Length: 5"), h)
	require.False(t, done, "ParseHeaderLine() should not report done for a real header")
	v, ok := h.Get("Content-Length")
	require.True(t, ok)
	require.Equal(t, "5", v)
}

func TestStatusClassPredicates(t *testing.T) {
	cases := []struct {
		code                                            int
		info, success, redirect, clientErr, serverErr bool
	}{
		{100, true, false, false, false, false},
		{200, false, true, false, false, false},
		{204, false, true, false, false, false},
		{301, false, false, true, false, false},
		{404, false, false, false, true, false},
		{500, false, false, false, false, true},
	}
	for _, c := range cases {
		require.Equal(t, c.info, IsInformational(c.code), "IsInformational(%d)", c.code)
		require.Equal(t, c.success, IsSuccess(c.code), "IsSuccess(%d)", c.code)
		require.Equal(t, c.redirect, IsRedirect(c.code), "IsRedirect(%d)", c.code)
		require.Equal(t, c.clientErr, IsClientError(c.code), "IsClientError(%d)", c.code)
		require.Equal(t, c.serverErr, IsServerError(c.code), "IsServerError(%d)", c.code)
	}
}
