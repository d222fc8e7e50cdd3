// httpclient/methods.go
package httpclient

import "net/http"

/* Ref: https://www.rfc-editor.org/rfc/rfc7231#section-8.1.3

+---------+------+------------+
| Method  | Safe | Idempotent |
+---------+------+------------+
| DELETE  | no   | yes        |
| GET     | yes  | yes        |
| HEAD    | yes  | yes        |
| OPTIONS | yes  | yes        |
| PATCH   | no   | no         |
| POST    | no   | no         |
| PUT     | no   | yes        |
+---------+------+------------+

CONNECT and TRACE are never sent to the API.
*/

var methodsMap = map[string]bool{
	http.MethodGet:     true,
	http.MethodPut:     true,
	http.MethodDelete:  true,
	http.MethodHead:    true,
	http.MethodOptions: true,
	http.MethodPost:    false,
	http.MethodPatch:   false,
}

// IsIdempotentHTTPMethod checks if the given HTTP method is idempotent.
func IsIdempotentHTTPMethod(method string) bool {
	return methodsMap[method]
}

func isSupportedHTTPMethod(method string) bool {
	_, ok := methodsMap[method]
	return ok
}
