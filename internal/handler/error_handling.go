package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"passage-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var errResp models.ErrorResponse

	switch {
	case errors.Is(err, models.ErrInvalidNavigation):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeInvalidNavigation, Message: "Invalid navigation"}
	case errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Not found"}
	case errors.Is(err, models.ErrInvalidReference):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeInvalidReference, Message: err.Error()}
	case errors.Is(err, models.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeValidation, Message: err.Error()}
	case errors.Is(err, models.ErrNumberingConflict), errors.Is(err, models.ErrPassageNumberTaken):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeNumberingConflict, Message: "Passage numbering conflict, please retry"}
	case errors.Is(err, models.ErrAlreadyBookmarked):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeAlreadyBookmarked, Message: "Already bookmarked"}
	case errors.Is(err, models.ErrTokenExpired):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeTokenExpired, Message: "Token has expired"}
	case errors.Is(err, models.ErrUnauthorized), errors.Is(err, models.ErrTokenInvalid), errors.Is(err, models.ErrTokenMalformed):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeTokenInvalid, Message: "Token is invalid or malformed"}
	case errors.Is(err, models.ErrForbidden):
		statusCode = http.StatusForbidden
		errResp = models.ErrorResponse{Code: models.ErrCodeForbidden, Message: "Insufficient permissions"}
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeInternal, Message: "An unexpected internal error occurred"}
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
		Code:    models.ErrCodeBadRequest,
		Message: strings.TrimSpace(message),
	})
}

// bindErrorMessage turns gin binding failures into a short client message.
// Validation failures name the offending fields.
func bindErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s failed '%s'", fe.Field(), fe.Tag()))
		}
		return "Invalid request body: " + strings.Join(fields, ", ")
	}
	return "Invalid request body: " + err.Error()
}
