package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	domainErrors "github.com/polkiloo/catalogsync/internal/domain/errors"
	"github.com/polkiloo/catalogsync/internal/server/http/dto"
)

const internalErrorMessage = "Internal server error"

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, dto.Envelope{Success: false, Message: message})
}

// respondError maps domain errors to HTTP statuses. notFound is the message
// used for a missing resource.
func respondError(c *gin.Context, err error, notFound string) {
	_ = c.Error(err)

	var validationErr *domainErrors.ValidationError
	switch {
	case errors.Is(err, domainErrors.ErrNotFound):
		fail(c, http.StatusNotFound, notFound)
	case errors.Is(err, domainErrors.ErrSyncInProgress):
		fail(c, http.StatusConflict, "Sync already in progress")
	case errors.As(err, &validationErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.Envelope{
			Success: false,
			Message: "Validation Error",
			Errors:  []string{validationErr.Error()},
		})
	default:
		fail(c, http.StatusInternalServerError, internalErrorMessage)
	}
}

func pathID(c *gin.Context, param, resource string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "Invalid "+resource+" id")
		return 0, false
	}
	return id, true
}

func bindListQuery(c *gin.Context) (dto.ListQuery, bool) {
	var q dto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.Envelope{
			Success: false,
			Message: "Invalid query parameters",
			Errors:  queryErrors(err),
		})
		return dto.ListQuery{}, false
	}
	return q, true
}

func queryErrors(err error) []string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, fmt.Sprintf("%q %s", strings.ToLower(fe.Field()), ruleMessage(fe)))
	}
	return out
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return "must be greater than or equal to " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "length must be less than or equal to " + fe.Param()
		}
		return "must be less than or equal to " + fe.Param()
	case "oneof":
		return "must be one of [" + strings.ReplaceAll(fe.Param(), " ", ", ") + "]"
	default:
		return "failed on " + fe.Tag()
	}
}
