package ginserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	gin "github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	domainproperties "staywise/internal/domain/properties"
	"staywise/internal/domain/shared/daterange"
)

var registerOnce sync.Once

// RegisterValidators installs the request validators on gin's binding engine
// and reports fields by their JSON or form name.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("ginserver: unexpected binding validator engine")
			return
		}
		engine.RegisterTagNameFunc(fieldName)
		if err = engine.RegisterValidation("iso8601", isISO8601); err != nil {
			return
		}
		err = engine.RegisterValidation("propertytype", isPropertyType)
	})
	return err
}

func isISO8601(fl validator.FieldLevel) bool {
	_, err := daterange.ParseTime(fl.Field().String())
	return err == nil
}

func isPropertyType(fl validator.FieldLevel) bool {
	_, err := domainproperties.ParseType(fl.Field().String())
	return err == nil
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// bindJSON decodes the body into req and answers 400 itself on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondValidation(c, bindingErrors(err))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		respondValidation(c, bindingErrors(err))
		return false
	}
	return true
}

func bindingErrors(err error) []fieldError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, fieldError{Field: fe.Field(), Message: describe(fe)})
		}
		return out
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []fieldError{{Field: typeErr.Field, Message: "has the wrong type"}}
	}
	return []fieldError{{Field: "body", Message: "malformed request"}}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "iso8601":
		return "must be an ISO-8601 date"
	case "propertytype":
		return "must be one of: apartment house villa studio"
	default:
		return "is invalid"
	}
}
