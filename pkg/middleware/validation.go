package middleware

import (
	stderrors "errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rezahawari/qurban-marketplace/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	enumMu    sync.RWMutex
	enumTags  = map[string]map[string]bool{}
	enumHints = map[string]string{}
)

// InitValidator configures the validator gin binds with and returns it.
// Decimal amounts validate as float64 so numeric tags like gte apply to them.
func InitValidator() *validator.Validate {
	validateOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			v = validator.New()
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})

		_ = v.RegisterValidation("order_id", validateOrderID)

		validate = v
	})

	return validate
}

// GetValidator returns the singleton validator instance
func GetValidator() *validator.Validate {
	return InitValidator()
}

// RegisterEnum registers a validation tag accepting exactly the given values
func RegisterEnum(tag string, values ...string) error {
	allowed := make(map[string]bool, len(values))
	for _, value := range values {
		allowed[value] = true
	}

	enumMu.Lock()
	enumTags[tag] = allowed
	enumHints[tag] = strings.Join(values, ", ")
	enumMu.Unlock()

	return InitValidator().RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		enumMu.RLock()
		defer enumMu.RUnlock()
		return enumTags[fl.GetTag()][fl.Field().String()]
	})
}

var orderIDRegex = regexp.MustCompile(`^PYR-\d{5}$`)

func validateOrderID(fl validator.FieldLevel) bool {
	return orderIDRegex.MatchString(fl.Field().String())
}

// ValidationErrorFormatter formats validation errors into a map
func ValidationErrorFormatter(err error) map[string]string {
	fields := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if stderrors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			fields[e.Field()] = formatValidationError(e)
		}
	}

	return fields
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "order_id":
		return "must be a valid order ID (format: PYR-NNNNN)"
	case "oneof":
		return "must be one of: " + e.Param()
	}

	enumMu.RLock()
	hint, ok := enumHints[e.Tag()]
	enumMu.RUnlock()
	if ok {
		return "must be one of: " + hint
	}
	return "is invalid"
}

func validationError(err error, fallback string) *errors.AppError {
	var validationErrors validator.ValidationErrors
	if stderrors.As(err, &validationErrors) {
		return errors.ErrValidationWithFields("validation failed", ValidationErrorFormatter(validationErrors))
	}
	return errors.ErrBadRequest(fallback + ": " + err.Error())
}

// BindAndValidate binds request body and validates it
func BindAndValidate(c *gin.Context, obj any) *errors.AppError {
	InitValidator()
	if err := c.ShouldBindJSON(obj); err != nil {
		return validationError(err, "invalid request body")
	}
	return nil
}

// BindQuery binds and validates query parameters
func BindQuery(c *gin.Context, obj any) *errors.AppError {
	InitValidator()
	if err := c.ShouldBindQuery(obj); err != nil {
		return validationError(err, "invalid query")
	}
	return nil
}

// BindURI binds and validates path parameters
func BindURI(c *gin.Context, obj any) *errors.AppError {
	InitValidator()
	if err := c.ShouldBindUri(obj); err != nil {
		return validationError(err, "invalid path")
	}
	return nil
}

// ValidateStruct validates a struct using the validator
func ValidateStruct(obj any) *errors.AppError {
	if err := GetValidator().Struct(obj); err != nil {
		return validationError(err, "validation failed")
	}
	return nil
}

// SanitizeString removes null bytes and surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}

// InputSanitizer middleware sanitizes query parameters
func InputSanitizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Request.URL.Query()
		for key, values := range query {
			for i, v := range values {
				values[i] = SanitizeString(v)
			}
			query[key] = values
		}
		c.Request.URL.RawQuery = query.Encode()

		c.Next()
	}
}

// ContentType middleware ensures proper content type for POST/PUT/PATCH bodies
func ContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			contentType := c.GetHeader("Content-Type")
			if !strings.HasPrefix(contentType, "application/json") && c.Request.ContentLength > 0 {
				AbortWithAppError(c, errors.NewAppError("INVALID_CONTENT_TYPE", "Content-Type must be application/json", http.StatusUnsupportedMediaType))
				return
			}
		}
		c.Next()
	}
}
