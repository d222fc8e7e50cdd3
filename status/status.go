// status.go
// This package provides utility functions and structures for handling and categorizing HTTP error responses.
package status

import (
	"fmt"
	"net/http"
)

// Kind classifies the outcome of an HTTP exchange. Only Unauthorized drives recovery; the other
// kinds are used for logging.
type Kind int

const (
	// OK is any 1xx, 2xx or 3xx outcome.
	OK Kind = iota
	// NetworkFailure is a transport error with no response.
	NetworkFailure
	// Unauthorized is a 401.
	Unauthorized
	// Forbidden is a 403.
	Forbidden
	// BadRequest is a 400.
	BadRequest
	// ServerError is a 500.
	ServerError
	// Other is any remaining non-success status.
	Other
)

func (k Kind) String() string {
	switch k {
	case OK:
		return "OK"
	case NetworkFailure:
		return "NetworkFailure"
	case Unauthorized:
		return "Unauthorized"
	case Forbidden:
		return "Forbidden"
	case BadRequest:
		return "BadRequest"
	case ServerError:
		return "ServerError"
	default:
		return "Other"
	}
}

// Classify maps a response or transport error onto a Kind. A non-nil err wins over resp.
func Classify(resp *http.Response, err error) Kind {
	if err != nil || resp == nil {
		return NetworkFailure
	}
	return ClassifyStatusCode(resp.StatusCode)
}

// ClassifyStatusCode maps a status code onto a Kind.
func ClassifyStatusCode(statusCode int) Kind {
	switch {
	case statusCode < http.StatusBadRequest:
		return OK
	case statusCode == http.StatusUnauthorized:
		return Unauthorized
	case statusCode == http.StatusForbidden:
		return Forbidden
	case statusCode == http.StatusBadRequest:
		return BadRequest
	case statusCode == http.StatusInternalServerError:
		return ServerError
	default:
		return Other
	}
}

// LogMessage is the diagnostic line written for a failed exchange of the given kind.
func (k Kind) LogMessage() string {
	switch k {
	case NetworkFailure:
		return "Request failed before a response was received."
	case Unauthorized:
		return "Unauthorized response from the server."
	case Forbidden:
		return "Authorization denied by the server."
	case BadRequest:
		return "Bad request response from the server."
	case ServerError:
		return "Internal server error."
	case OK:
		return ""
	default:
		return "Unexpected error from server."
	}
}

// IsSuccess reports whether statusCode is 2xx.
func IsSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// IsRedirectStatusCode checks if the provided HTTP status code is one of the redirect codes.
// 301, 302, 303, 307 and 308 instruct the client to make a new request to the Location header.
func IsRedirectStatusCode(statusCode int) bool {
	switch statusCode {
	case http.StatusMovedPermanently,
		http.StatusFound,
		http.StatusSeeOther,
		http.StatusTemporaryRedirect,
		http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}

// TranslateStatusCode provides a human-readable message for HTTP status codes.
func TranslateStatusCode(resp *http.Response) string {
	if resp == nil {
		return "No status code received, possible network or connection error."
	}

	messages := map[int]string{
		http.StatusOK:                            "Request successful.",
		http.StatusCreated:                       "Request to create or update resource successful.",
		http.StatusAccepted:                      "The request was accepted for processing, but the processing has not completed.",
		http.StatusNoContent:                     "Request successful. No content to send for this request.",
		http.StatusBadRequest:                    "Bad request. Verify the syntax of the request.",
		http.StatusUnauthorized:                  "Authentication failed. Verify the credentials being used for the request.",
		http.StatusForbidden:                     "Invalid permissions. Verify the account has the proper permissions for the resource.",
		http.StatusNotFound:                      "Resource not found. Verify the URL path is correct.",
		http.StatusMethodNotAllowed:              "Method not allowed. The method specified is not allowed for the resource.",
		http.StatusRequestTimeout:                "Request timeout. The server timed out waiting for the request.",
		http.StatusConflict:                      "Conflict. The request could not be processed because of conflict in the request.",
		http.StatusUnsupportedMediaType:          "Unsupported media type. The request entity has a media type which the server or resource does not support.",
		http.StatusUnprocessableEntity:           "Unprocessable entity. The server understands the content type and syntax of the request but was unable to process the contained instructions.",
		http.StatusTooManyRequests:               "Too many requests. The user has sent too many requests in a given amount of time.",
		http.StatusInternalServerError:           "Internal server error. The server encountered an unexpected condition that prevented it from fulfilling the request.",
		http.StatusNotImplemented:                "Not implemented. The server does not support the functionality required to fulfill the request.",
		http.StatusBadGateway:                    "Bad gateway. The server received an invalid response from the upstream server while trying to fulfill the request.",
		http.StatusServiceUnavailable:            "Service unavailable. The server is currently unable to handle the request due to temporary overloading or maintenance.",
		http.StatusGatewayTimeout:                "Gateway timeout. The server did not receive a timely response from the upstream server.",
		http.StatusNetworkAuthenticationRequired: "Network authentication required. The client needs to authenticate to gain network access.",
	}

	if message, exists := messages[resp.StatusCode]; exists {
		return message
	}
	return fmt.Sprintf("Unknown status code: %d", resp.StatusCode)
}
