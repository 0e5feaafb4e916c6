package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"mrdinner/internal/pkg/errs"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/labstack/echo/v4"
)

// ContentTypeProblemJSON is the media type of error responses.
const ContentTypeProblemJSON = "application/problem+json"

// Problem types.
const (
	TypeValidation = "/problems/validation-error"
	TypeNotFound   = "/problems/not-found"
	TypeConflict   = "/problems/conflict"
	TypeInternal   = "/problems/internal-error"
)

// FieldError names one invalid input field.
type FieldError struct {
	Field  string `json:"field"`
	Detail string `json:"detail"`
}

// Problem is an RFC 7807 problem document. Field holds the first offending
// input field of a validation problem and Errors all of them.
type Problem struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	Field    string       `json:"field,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
}

func (p Problem) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s: %s", p.Title, p.Detail)
	}
	return p.Title
}

// ProblemFromError maps an application error onto its problem document.
func ProblemFromError(err error) Problem {
	var problem Problem
	if errors.As(err, &problem) {
		return problem
	}

	if fields := fieldErrors(err); len(fields) > 0 {
		return Problem{
			Type:   TypeValidation,
			Title:  "Validation Error",
			Status: http.StatusBadRequest,
			Detail: fields[0].Detail,
			Field:  fields[0].Field,
			Errors: fields,
		}
	}

	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return Problem{
			Type:   TypeNotFound,
			Title:  "Resource Not Found",
			Status: http.StatusNotFound,
			Detail: err.Error(),
		}
	case errors.Is(err, errs.ErrDomainConflict):
		return Problem{
			Type:   TypeConflict,
			Title:  "Conflict",
			Status: http.StatusConflict,
			Detail: err.Error(),
		}
	}

	return Problem{
		Type:   TypeInternal,
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
	}
}

func validationProblem(field string, err error) Problem {
	return Problem{
		Type:   TypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
		Detail: err.Error(),
		Field:  field,
		Errors: []FieldError{{Field: field, Detail: err.Error()}},
	}
}

// fieldErrors collects the input fields named by err and any errors joined
// into it. It returns nil when err is not an input validation error.
func fieldErrors(err error) []FieldError {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []FieldError
		for _, e := range joined.Unwrap() {
			out = append(out, fieldErrors(e)...)
		}
		return out
	}

	var (
		required   *errs.ValueIsRequiredError
		invalid    *errs.ValueIsInvalidError
		outOfRange *errs.ValueIsOutOfRangeError
		version    *errs.VersionIsInvalidError
		request    *openapi3filter.RequestError
	)
	switch {
	case errors.As(err, &required):
		return []FieldError{{Field: required.ParamName, Detail: err.Error()}}
	case errors.As(err, &invalid):
		return []FieldError{{Field: invalid.ParamName, Detail: err.Error()}}
	case errors.As(err, &outOfRange):
		return []FieldError{{Field: outOfRange.ParamName, Detail: err.Error()}}
	case errors.As(err, &version):
		return []FieldError{{Field: version.ParamName, Detail: err.Error()}}
	case errors.As(err, &request):
		return []FieldError{{Field: requestErrorField(request), Detail: request.Error()}}
	}
	return nil
}

func requestErrorField(err *openapi3filter.RequestError) string {
	if err.Parameter != nil {
		return err.Parameter.Name
	}
	var schemaErr *openapi3.SchemaError
	if errors.As(err.Err, &schemaErr) {
		if path := schemaErr.JSONPointer(); len(path) > 0 {
			return strings.Join(path, ".")
		}
	}
	return "body"
}

// HTTPErrorHandler renders every error returned by a handler as a problem
// document. Echo's own errors keep their status code.
func HTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var problem Problem
		var he *echo.HTTPError
		if errors.As(err, &he) && !errors.As(err, &problem) {
			problem = Problem{
				Type:   "about:blank",
				Title:  http.StatusText(he.Code),
				Status: he.Code,
				Detail: fmt.Sprint(he.Message),
			}
		} else {
			problem = ProblemFromError(err)
		}

		if problem.Status >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "Request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
		}
		if problem.Instance == "" {
			problem.Instance = c.Request().URL.Path
		}

		c.Response().Header().Set(echo.HeaderContentType, ContentTypeProblemJSON)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(problem.Status)
			return
		}
		_ = c.JSON(problem.Status, problem)
	}
}
