package errors

// statusNames maps IANA status names to client and server error codes.
var statusNames = map[string]int{
	"BAD_REQUEST":                     400,
	"UNAUTHORIZED":                    401,
	"PAYMENT_REQUIRED":                402,
	"FORBIDDEN":                       403,
	"NOT_FOUND":                       404,
	"METHOD_NOT_ALLOWED":              405,
	"NOT_ACCEPTABLE":                  406,
	"PROXY_AUTHENTICATION_REQUIRED":   407,
	"REQUEST_TIMEOUT":                 408,
	"CONFLICT":                        409,
	"GONE":                            410,
	"LENGTH_REQUIRED":                 411,
	"PRECONDITION_FAILED":             412,
	"CONTENT_TOO_LARGE":               413,
	"URI_TOO_LONG":                    414,
	"UNSUPPORTED_MEDIA_TYPE":          415,
	"RANGE_NOT_SATISFIABLE":           416,
	"EXPECTATION_FAILED":              417,
	"MISDIRECTED_REQUEST":             421,
	"UNPROCESSABLE_CONTENT":           422,
	"LOCKED":                          423,
	"FAILED_DEPENDENCY":               424,
	"TOO_EARLY":                       425,
	"UPGRADE_REQUIRED":                426,
	"PRECONDITION_REQUIRED":           428,
	"TOO_MANY_REQUESTS":               429,
	"REQUEST_HEADER_FIELDS_TOO_LARGE": 431,
	"UNAVAILABLE_FOR_LEGAL_REASONS":   451,
	"INTERNAL_SERVER_ERROR":           500,
	"NOT_IMPLEMENTED":                 501,
	"BAD_GATEWAY":                     502,
	"SERVICE_UNAVAILABLE":             503,
	"GATEWAY_TIMEOUT":                 504,
	"HTTP_VERSION_NOT_SUPPORTED":      505,
	"VARIANT_ALSO_NEGOTIATES":         506,
	"INSUFFICIENT_STORAGE":            507,
	"LOOP_DETECTED":                   508,
	"NETWORK_AUTHENTICATION_REQUIRED": 511,
}

var statusCodes = func() map[int]string {
	m := make(map[int]string, len(statusNames))
	for name, code := range statusNames {
		m[code] = name
	}
	return m
}()

// StatusCode returns the HTTP status for a name such as "NOT_FOUND".
func StatusCode(name string) (int, bool) {
	code, ok := statusNames[name]
	return code, ok
}

// StatusName returns the name for an HTTP error status, e.g. 404 gives
// "NOT_FOUND". Statuses outside the table return "".
func StatusName(code int) string {
	return statusCodes[code]
}
