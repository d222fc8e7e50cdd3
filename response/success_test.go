// response/success_test.go
package response

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/deploymenttheory/go-api-http-session/mocklogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResponse(contentType, body string) *http.Response {
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
	if contentType != "" {
		resp.Header.Set("Content-Type", contentType)
	}
	return resp
}

func TestHandleAPISuccessResponse_JSON(t *testing.T) {
	var out struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}

	err := HandleAPISuccessResponse(newResponse("application/json", `{"id":1,"name":"Alice"}`), &out, mocklogger.NewPermissiveMockLogger())

	require.NoError(t, err)
	assert.Equal(t, 1, out.ID)
	assert.Equal(t, "Alice", out.Name)
}

func TestHandleAPISuccessResponse_XML(t *testing.T) {
	var out struct {
		Name string `xml:"name"`
	}

	err := HandleAPISuccessResponse(newResponse("text/xml", `<contact><name>Bob</name></contact>`), &out, mocklogger.NewPermissiveMockLogger())

	require.NoError(t, err)
	assert.Equal(t, "Bob", out.Name)
}

func TestHandleAPISuccessResponse_RawBytes(t *testing.T) {
	var out []byte

	err := HandleAPISuccessResponse(newResponse("application/octet-stream", "abc"), &out, mocklogger.NewPermissiveMockLogger())

	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), out)
}

func TestHandleAPISuccessResponse_EmptyBodyOrNilOut(t *testing.T) {
	var out map[string]any
	assert.NoError(t, HandleAPISuccessResponse(newResponse("application/json", ""), &out, mocklogger.NewPermissiveMockLogger()))
	assert.Nil(t, out)

	assert.NoError(t, HandleAPISuccessResponse(newResponse("application/json", `{"a":1}`), nil, mocklogger.NewPermissiveMockLogger()))
}

func TestHandleAPISuccessResponse_Errors(t *testing.T) {
	var out map[string]any

	err := HandleAPISuccessResponse(newResponse("application/json", `{not json`), &out, mocklogger.NewPermissiveMockLogger())
	assert.ErrorContains(t, err, "decoding JSON response")

	err = HandleAPISuccessResponse(newResponse("image/png", `xx`), &out, mocklogger.NewPermissiveMockLogger())
	assert.EqualError(t, err, "unexpected MIME type: image/png")
}
