package httpclient

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockedClient(transport *httpmock.MockTransport) *Client {
	c := New(0)
	c.HTTPClient().Transport = transport
	return c
}

func TestClient_SendsSessionHeaders(t *testing.T) {
	transport := httpmock.NewMockTransport()

	var got http.Header
	transport.RegisterResponder("GET", "http://storefront.test/",
		func(req *http.Request) (*http.Response, error) {
			got = req.Header.Clone()
			return httpmock.NewStringResponse(200, "ok"), nil
		})

	c := newMockedClient(transport)
	resp, err := c.Get(context.Background(), "http://storefront.test/")
	require.NoError(t, err)
	assert.True(t, resp.OK())

	assert.Contains(t, got.Get("User-Agent"), "Chrome/91")
	assert.Equal(t, "application/json, text/plain, */*", got.Get("Accept"))
	assert.Equal(t, "en-US,en;q=0.9", got.Get("Accept-Language"))
	assert.Equal(t, "gzip, deflate", got.Get("Accept-Encoding"))
	assert.Equal(t, "keep-alive", got.Get("Connection"))
}

func TestClient_NonSuccessIsNotAnError(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://storefront.test/missing",
		httpmock.NewStringResponder(404, "not here"))

	c := newMockedClient(transport)
	resp, err := c.Get(context.Background(), "http://storefront.test/missing")
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "not here", resp.Body)
}

func TestClient_DecodesGzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte("compressed catalog page"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://storefront.test/",
		func(*http.Request) (*http.Response, error) {
			resp := httpmock.NewBytesResponse(200, buf.Bytes())
			resp.Header.Set("Content-Encoding", "gzip")
			return resp, nil
		})

	c := newMockedClient(transport)
	resp, err := c.Get(context.Background(), "http://storefront.test/")
	require.NoError(t, err)
	assert.Equal(t, "compressed catalog page", resp.Body)
}

func TestClient_DecodesDeflate(t *testing.T) {
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = fw.Write([]byte("deflated catalog page"))
	require.NoError(t, err)
	require.NoError(t, fw.Close())

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://storefront.test/",
		func(*http.Request) (*http.Response, error) {
			resp := httpmock.NewBytesResponse(200, buf.Bytes())
			resp.Header.Set("Content-Encoding", "deflate")
			return resp, nil
		})

	c := newMockedClient(transport)
	resp, err := c.Get(context.Background(), "http://storefront.test/")
	require.NoError(t, err)
	assert.Equal(t, "deflated catalog page", resp.Body)
}

func TestClient_FetchError(t *testing.T) {
	c := newMockedClient(httpmock.NewMockTransport())
	_, err := c.Get(context.Background(), "http://storefront.test/unregistered")
	assert.Error(t, err)
}
