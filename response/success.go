// response/success.go
/* Responsible for handling successful API responses. It reads the response body, logs the raw response details,
and unmarshals the response based on the content type (JSON or XML). */
package response

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/deploymenttheory/go-api-http-session/logger"
	"go.uber.org/zap"
)

// contentHandler defines the signature for unmarshaling content from an io.Reader.
type contentHandler func(io.Reader, any, logger.Logger, string) error

// responseUnmarshallers maps MIME types to the corresponding contentHandler functions.
var responseUnmarshallers = map[string]contentHandler{
	"application/json": handlerUnmarshalJSON,
	"application/xml":  handlerUnmarshalXML,
	"text/xml":         handlerUnmarshalXML,
}

// HandleAPISuccessResponse reads the response body, logs it, and unmarshals it into out based on the
// content type. A nil out, or an empty body, only drains the response. *[]byte receives the raw body.
func HandleAPISuccessResponse(resp *http.Response, out any, log logger.Logger) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return log.Error("Failed to read response body", zap.Error(err))
	}

	log.Debug("Raw HTTP Response", zap.Int("status_code", resp.StatusCode), zap.Int("body_length", len(bodyBytes)))

	if out == nil || len(bytes.TrimSpace(bodyBytes)) == 0 {
		return nil
	}

	if raw, ok := out.(*[]byte); ok {
		*raw = bodyBytes
		return nil
	}

	contentType := resp.Header.Get("Content-Type")
	mimeType, _ := parseHeader(contentType)

	if handler, ok := responseUnmarshallers[mimeType]; ok {
		return handler(bytes.NewReader(bodyBytes), out, log, contentType)
	}

	errMsg := fmt.Sprintf("unexpected MIME type: %s", contentType)
	log.Warn("Unmarshal error", zap.String("content_type", contentType))
	return errors.New(errMsg)
}

// handlerUnmarshalJSON unmarshals JSON content from an io.Reader into the provided output structure.
func handlerUnmarshalJSON(reader io.Reader, out any, log logger.Logger, mimeType string) error {
	if err := json.NewDecoder(reader).Decode(out); err != nil {
		log.Warn("JSON Unmarshal error", zap.Error(err))
		return fmt.Errorf("decoding JSON response: %w", err)
	}
	log.Debug("Successfully unmarshalled JSON response", zap.String("content_type", mimeType))
	return nil
}

// handlerUnmarshalXML unmarshals XML content from an io.Reader into the provided output structure.
func handlerUnmarshalXML(reader io.Reader, out any, log logger.Logger, mimeType string) error {
	if err := xml.NewDecoder(reader).Decode(out); err != nil {
		log.Warn("XML Unmarshal error", zap.Error(err))
		return fmt.Errorf("decoding XML response: %w", err)
	}
	log.Debug("Successfully unmarshalled XML response", zap.String("content_type", mimeType))
	return nil
}
