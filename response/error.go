// response/error.go
// This package provides utility functions and structures for handling and categorizing HTTP error responses.
package response

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/deploymenttheory/go-api-http-session/logger"
	"github.com/deploymenttheory/go-api-http-session/status"
	"golang.org/x/net/html"
)

// APIError represents an api error response.
type APIError struct {
	StatusCode  int      `json:"status_code"` // HTTP status code
	Method      string   `json:"method"`      // HTTP method used for the request
	URL         string   `json:"url"`         // The URL of the HTTP request
	Kind        string   `json:"kind"`        // Failure classification, see status.Kind
	Message     string   `json:"message"`     // Summary of the error
	Details     []string `json:"details,omitempty"`
	RawResponse string   `json:"raw_response"` // Raw response body for debugging
}

// Error returns a string representation of the APIError, making it compatible with the error interface.
func (e *APIError) Error() string {
	data, err := json.Marshal(e)
	if err == nil {
		return string(data)
	}
	return fmt.Sprintf("API Error: StatusCode=%d, Message=%s", e.StatusCode, e.Message)
}

// HandleAPIErrorResponse reads the body of a non-2xx response into an APIError and logs it.
// The body is consumed but not closed.
func HandleAPIErrorResponse(resp *http.Response, log logger.Logger) *APIError {
	apiError := &APIError{
		StatusCode: resp.StatusCode,
		Kind:       status.ClassifyStatusCode(resp.StatusCode).String(),
		Message:    "API Error Response",
	}
	if resp.Request != nil {
		apiError.Method = resp.Request.Method
		apiError.URL = resp.Request.URL.String()
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		apiError.RawResponse = "Failed to read response body"
		log.LogError("api_error_response", apiError.Method, apiError.URL, apiError.StatusCode, resp.Status, err, apiError.RawResponse)
		return apiError
	}

	mimeType, _ := parseHeader(resp.Header.Get("Content-Type"))
	switch {
	case len(bytes.TrimSpace(bodyBytes)) == 0:
		apiError.Message = status.TranslateStatusCode(resp)
	case mimeType == "application/json":
		parseJSONResponse(bodyBytes, apiError)
	case mimeType == "application/xml", mimeType == "text/xml":
		parseXMLResponse(bodyBytes, apiError)
	case mimeType == "text/html":
		parseHTMLResponse(bodyBytes, apiError)
	case mimeType == "text/plain":
		parseTextResponse(bodyBytes, apiError)
	default:
		apiError.RawResponse = string(bodyBytes)
		apiError.Message = "Unknown content type error"
	}

	log.LogError("api_error_response", apiError.Method, apiError.URL, apiError.StatusCode, resp.Status, nil, apiError.RawResponse)

	return apiError
}

// parseJSONResponse attempts to parse the JSON error response and update the APIError structure.
func parseJSONResponse(bodyBytes []byte, apiError *APIError) {
	apiError.RawResponse = string(bodyBytes)

	var body struct {
		Message string   `json:"message"`
		Error   string   `json:"error"`
		Details []string `json:"details"`
	}
	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		apiError.Message = "Failed to parse JSON error response"
		return
	}

	switch {
	case body.Message != "":
		apiError.Message = body.Message
	case body.Error != "":
		apiError.Message = body.Error
	default:
		apiError.Message = "An unknown error occurred"
	}
	apiError.Details = body.Details
}

// parseXMLResponse dynamically parses XML error responses and accumulates potential error messages.
func parseXMLResponse(bodyBytes []byte, apiError *APIError) {
	apiError.RawResponse = string(bodyBytes)

	doc, err := xmlquery.Parse(bytes.NewReader(bodyBytes))
	if err != nil {
		return
	}

	var messages []string
	var traverse func(*xmlquery.Node)
	traverse = func(n *xmlquery.Node) {
		if n.Type == xmlquery.TextNode && strings.TrimSpace(n.Data) != "" {
			messages = append(messages, strings.TrimSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}

	traverse(doc)

	if len(messages) > 0 {
		apiError.Message = strings.Join(messages, "; ")
	} else {
		apiError.Message = "Failed to extract error details from XML response"
	}
}

// parseTextResponse updates the APIError structure based on a plain text error response.
func parseTextResponse(bodyBytes []byte, apiError *APIError) {
	bodyText := string(bodyBytes)
	apiError.RawResponse = bodyText
	apiError.Message = strings.TrimSpace(bodyText)
}

// parseHTMLResponse extracts meaningful information from an HTML error response,
// concatenating all text within <p> tags and links found within them.
// Application servers answer with HTML error pages when a request never reaches the REST layer.
func parseHTMLResponse(bodyBytes []byte, apiError *APIError) {
	apiError.RawResponse = string(bodyBytes)

	doc, err := html.Parse(bytes.NewReader(bodyBytes))
	if err != nil {
		return
	}

	var messages []string
	var parse func(*html.Node)
	parse = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "p" || n.Data == "h1") {
			var content strings.Builder
			var traverseChildren func(*html.Node)
			traverseChildren = func(c *html.Node) {
				if c.Type == html.TextNode {
					content.WriteString(strings.TrimSpace(c.Data) + " ")
				} else if c.Type == html.ElementNode && c.Data == "a" {
					for _, attr := range c.Attr {
						if attr.Key == "href" {
							content.WriteString("[Link: " + attr.Val + "] ")
							break
						}
					}
				}
				for child := c.FirstChild; child != nil; child = child.NextSibling {
					traverseChildren(child)
				}
			}
			for child := n.FirstChild; child != nil; child = child.NextSibling {
				traverseChildren(child)
			}
			if final := strings.TrimSpace(content.String()); final != "" {
				messages = append(messages, final)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			parse(c)
		}
	}

	parse(doc)

	if len(messages) > 0 {
		apiError.Message = strings.Join(messages, "; ")
	} else {
		apiError.Message = "HTML Error: See 'raw_response' field for details."
	}
}
