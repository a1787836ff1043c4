package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"retailtasks/models"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var Validate *validator.Validate

func init() {
	Validate = validator.New()

	// Report json names so clients see the field they sent.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	Validate.RegisterValidation("notblank", validators.NotBlank)
	Validate.RegisterValidation("duedate", func(fl validator.FieldLevel) bool {
		_, err := models.ParseDueDate(fl.Field().String())
		return err == nil
	})
	Validate.RegisterValidation("importance", func(fl validator.FieldLevel) bool {
		return models.Importance(fl.Field().String()).Valid()
	})
}

// DecodeAndValidate decodes the request body into v and validates it. On
// failure the response has already been written.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		HandleMessageResponse(w, "Invalid request body", http.StatusBadRequest)
		return err
	}
	if err := Validate.Struct(v); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			HandleMessageResponse(w, err.Error(), http.StatusBadRequest)
			return err
		}
		HandleValidationResponse(w, http.StatusBadRequest, ValidationMessages(validationErrors))
		return err
	}
	return nil
}

// ValidationMessages turns validator errors into a field to message map.
func ValidationMessages(errs validator.ValidationErrors) map[string]string {
	messages := make(map[string]string, len(errs))
	for _, e := range errs {
		messages[e.Field()] = validationMessage(e)
	}
	return messages
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", e.Field())
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", e.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", e.Param())
	case "numeric":
		return "must contain digits only"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "datetime":
		return fmt.Sprintf("must match the format %s", e.Param())
	case "duedate":
		return "must be a valid date"
	case "importance":
		return "must be High Priority, Medium Priority or Low Priority"
	}
	return fmt.Sprintf("failed on %s", e.Tag())
}

// HandleMessageResponse writes a status and a message.
func HandleMessageResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	response := models.NewMessageResponse(statusCode, message)
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// HandleValidationResponse writes per-field validation errors.
func HandleValidationResponse(w http.ResponseWriter, statusCode int, validationErrors map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	response := models.NewValidationResponse(statusCode, validationErrors)
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// HandleDataResponse writes a message with a payload.
func HandleDataResponse(w http.ResponseWriter, message string, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	response := models.NewDataResponse(statusCode, message, data)
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}
