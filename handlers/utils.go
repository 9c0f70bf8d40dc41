package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/andrewpaige1/flashcards-ai/models"
	"github.com/andrewpaige1/flashcards-ai/services"
	"github.com/andrewpaige1/flashcards-ai/utils"
)

const maxBodyBytes = 1 << 20

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report JSON field names instead of Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(flashcardSourceRule, flashcardInput{})

	return v
}

// flashcardSourceRule ties generation_id to the card source: required for AI cards,
// forbidden for manual ones.
func flashcardSourceRule(sl validator.StructLevel) {
	in := sl.Current().Interface().(flashcardInput)

	switch {
	case in.Source.IsAI() && in.GenerationID == nil:
		sl.ReportError(in.GenerationID, "generation_id", "GenerationID", "required_for_ai", "")
	case in.Source == models.SourceManual && in.GenerationID != nil:
		sl.ReportError(in.GenerationID, "generation_id", "GenerationID", "excluded_for_manual", "")
	}
}

// decode reads a JSON body into dst and validates it.
func (a *API) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return services.NewServiceError(err, http.StatusBadRequest, services.CodeValidation, "Invalid JSON body")
	}
	return a.check(dst)
}

func (a *API) check(v any) error {
	err := a.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate request: %w", err)
	}

	details := make([]services.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, services.FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: describe(fe),
		})
	}

	se := services.NewServiceError(err, http.StatusBadRequest, services.CodeValidation, "Validation failed")
	se.Details = details
	return se
}

// fieldPath drops the struct name validator puts in front of the namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_for_ai":
		return "is required for ai and ai-edited flashcards"
	case "excluded_for_manual":
		return "must be empty for manual flashcards"
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "must be a valid email address"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}

// handleErr logs err and writes the matching JSON error response.
func (a *API) handleErr(w http.ResponseWriter, r *http.Request, err error) {
	var se *services.ServiceError
	if !errors.As(err, &se) {
		a.logger.Error("request error",
			"error", err,
			"method", r.Method,
			"url", r.URL.String(),
			"request_id", utils.RequestID(r.Context()))
		utils.WriteError(a.logger, w, http.StatusInternalServerError, services.CodeInternal, "Internal server error", nil)
		return
	}

	level := a.logger.Warn
	if se.StatusCode >= http.StatusInternalServerError {
		level = a.logger.Error
	}
	level("request error",
		"error", err,
		"code", se.Code,
		"status", se.StatusCode,
		"env", se.Env,
		"method", r.Method,
		"url", r.URL.String(),
		"request_id", utils.RequestID(r.Context()))

	utils.WriteError(a.logger, w, se.StatusCode, se.Code, se.Msg, se.Details)
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		se := services.NewServiceError(err, http.StatusBadRequest, services.CodeValidation, "Invalid ID parameter")
		se.Details = []services.FieldError{{Field: name, Message: "must be a positive integer"}}
		return 0, se
	}
	return id, nil
}

// queryInt returns def when the parameter is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		se := services.NewServiceError(err, http.StatusBadRequest, services.CodeValidation, "Invalid query parameter")
		se.Details = []services.FieldError{{Field: name, Message: "must be an integer"}}
		return 0, se
	}
	return n, nil
}

func (a *API) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := utils.GetUserID(r)
	if !ok {
		utils.WriteError(a.logger, w, http.StatusUnauthorized, services.CodeUnauthorized, "Unauthorized", nil)
		return "", false
	}
	return id, true
}
