package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	orderapp "github.com/orderboard/api-server/internal/domains/orders/application"
	apierrors "github.com/orderboard/api-server/internal/shared/errors"
)

// respondServiceError maps coordinator errors to RFC 7807 problems. Store
// absence only becomes a 404 here, at the route boundary.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, orderapp.ErrOrderNotFound):
		apierrors.Respond(c, apierrors.NewNotFoundProblem("order", c.Param("orderId")))
	case errors.Is(err, orderapp.ErrDuplicateOrder):
		apierrors.Respond(c, apierrors.NewConflictProblem("order", c.Param("orderId")))
	case errors.Is(err, orderapp.ErrInvalidInput):
		apierrors.Respond(c, apierrors.ErrValidation.WithDetail(err.Error()))
	default:
		apierrors.RespondError(c, err)
	}
}

// respondBindingError renders body/schema failures as field-level validation
// problems without leaking internals.
func respondBindingError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldName(fe)] = fieldMessage(fe)
		}
		apierrors.DefaultResponder.ValidationFailed(c, fields)
		return
	}
	apierrors.DefaultResponder.BadRequest(c, "request body is malformed")
}

// bindBulk decodes a non-empty bulk array and enforces the element cap.
func bindBulk[T any](c *gin.Context, payload *[]T) bool {
	if err := c.ShouldBindJSON(payload); err != nil {
		respondBindingError(c, err)
		return false
	}
	if len(*payload) == 0 {
		apierrors.DefaultResponder.BadRequest(c, "bulk request must contain at least one element")
		return false
	}
	return checkBulkSize(c, len(*payload))
}

func checkBulkSize(c *gin.Context, n int) bool {
	if n > maxBulkItems {
		apierrors.Respond(c, apierrors.ErrValidation.
			WithDetail(fmt.Sprintf("bulk requests are capped at %d elements", maxBulkItems)).
			WithExtension("provided", n))
		return false
	}
	return true
}

func fieldName(fe validator.FieldError) string {
	// StructNamespace looks like CreateOrderRequest.CollectorName; the JSON
	// field is the lower-camel leaf.
	name := fe.Field()
	if name == "" {
		return "body"
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return "is invalid"
	}
}
