/*
Package response writes every API response in one envelope:

	success: { success: true, data: {...}, message: "...", code: 200, request_id: "..." }
	failure: { success: false, error: "ERROR_CODE", message: "...", field: "...", code: 4xx/5xx, request_id: "..." }

Internal errors never leak their message; the real error is only logged.
*/
package response

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

type Response struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Field     string `json:"field,omitempty"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ListResponse carries a list with its length.
type ListResponse struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data"`
	Count     int    `json:"count"`
	Message   string `json:"message"`
	Code      int    `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}
