package models

// MessageResponse is the envelope for responses without a payload.
type MessageResponse struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

// ValidationResponse carries a field to message map for rejected input.
type ValidationResponse struct {
	StatusCode int               `json:"status_code"`
	Message    string            `json:"message"`
	Errors     map[string]string `json:"errors"`
}

type DataResponse struct {
	StatusCode int         `json:"status_code"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
}

func NewMessageResponse(statusCode int, message string) MessageResponse {
	return MessageResponse{
		StatusCode: statusCode,
		Message:    message,
	}
}

func NewValidationResponse(statusCode int, errors map[string]string) ValidationResponse {
	return ValidationResponse{
		StatusCode: statusCode,
		Message:    "Validation failed",
		Errors:     errors,
	}
}

func NewDataResponse(statusCode int, message string, data interface{}) DataResponse {
	return DataResponse{
		StatusCode: statusCode,
		Message:    message,
		Data:       data,
	}
}
