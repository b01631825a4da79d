package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/devconnect/apiserver/internal/token"
	"github.com/go-playground/validator/v10"
)

// AuthHeader is the fixed request header carrying the session token.
const AuthHeader = "x-auth-token"

type contextKey string

const contextUserIDKey contextKey = "user_id"

// RequireAuth enforces token authentication and injects the verified
// user id into the request context. No database lookup happens here;
// existence of the user is checked lazily by operations that need the
// record.
func RequireAuth(jwtSecret string) func(http.Handler) http.Handler {
	secret := []byte(jwtSecret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := token.Verify(r.Header.Get(AuthHeader), secret)
			if err != nil {
				if errors.Is(err, token.ErrMissing) {
					writeError(w, http.StatusUnauthorized, "no token, authorization denied")
					return
				}
				writeError(w, http.StatusUnauthorized, "token is not valid")
				return
			}

			ctx := context.WithValue(r.Context(), contextUserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(contextUserIDKey).(string)
	if !ok || strings.TrimSpace(userID) == "" {
		return "", errors.New("missing user id")
	}
	return userID, nil
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FieldError reports a single request validation failure.
type FieldError struct {
	Param string `json:"param"`
	Msg   string `json:"msg"`
}

// ValidationErrorResponse lists every field that failed validation.
type ValidationErrorResponse struct {
	Errors []FieldError `json:"errors"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report field names as their json names, the way clients see them.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// validateRequest checks the DTO and, on failure, writes the 400
// response itself. Returns true when the request is valid.
func validateRequest(w http.ResponseWriter, req any) bool {
	err := validate.Struct(req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeError(w, http.StatusBadRequest, "invalid request")
		return false
	}

	fieldErrors := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fieldErrors = append(fieldErrors, FieldError{
			Param: fe.Field(),
			Msg:   fieldErrorMessage(fe),
		})
	}
	writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{Errors: fieldErrors})
	return false
}

func fieldErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", titleCase(fe.Field()))
	case "email":
		return "please include a valid email"
	case "min":
		return fmt.Sprintf("please enter a %s with %s or more characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", titleCase(fe.Field()))
	}
}

func titleCase(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
