package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"menugen-studio/internal/gateway"
	"menugen-studio/internal/imagedata"
	"menugen-studio/internal/studio"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": ErrorResponse{Code: code, Message: message},
	})
}

// writeError maps studio and gateway failures onto HTTP responses. Gateway
// messages are already written for end users and are passed through.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var (
		parseErr *gateway.MenuParseError
		genErr   *gateway.GenerationError
		editErr  *gateway.EditError
	)

	switch {
	case errors.Is(err, studio.ErrEmptyMenu):
		abortWithError(c, http.StatusBadRequest, "EMPTY_MENU", err.Error())
	case errors.Is(err, studio.ErrEmptyInstruction):
		abortWithError(c, http.StatusBadRequest, "EMPTY_INSTRUCTION", err.Error())
	case errors.Is(err, studio.ErrUnknownStyle):
		abortWithError(c, http.StatusBadRequest, "UNKNOWN_STYLE", "Unknown style")
	case errors.Is(err, imagedata.ErrNotImage), errors.Is(err, imagedata.ErrMalformed), errors.Is(err, imagedata.ErrEmpty):
		abortWithError(c, http.StatusBadRequest, "INVALID_IMAGE", "File must be an image")
	case errors.Is(err, studio.ErrNotFound):
		abortWithError(c, http.StatusNotFound, "DISH_NOT_FOUND", "Dish not found")
	case errors.Is(err, studio.ErrBusy):
		abortWithError(c, http.StatusConflict, "DISH_BUSY", "An image is already being generated for this dish")
	case errors.Is(err, studio.ErrParseInProgress):
		abortWithError(c, http.StatusConflict, "PARSE_IN_PROGRESS", "A menu is already being parsed")
	case errors.Is(err, studio.ErrNoReference):
		abortWithError(c, http.StatusConflict, "NO_REFERENCE", "Upload a reference photo first")
	case errors.Is(err, studio.ErrNoImage):
		abortWithError(c, http.StatusConflict, "NO_IMAGE", "This dish has no generated image yet")
	case errors.As(err, &parseErr):
		abortWithError(c, http.StatusBadGateway, "MENU_PARSE_FAILED", parseErr.Error())
	case errors.As(err, &genErr):
		abortWithError(c, http.StatusBadGateway, "GENERATION_FAILED", genErr.Error())
	case errors.As(err, &editErr):
		abortWithError(c, http.StatusBadGateway, "EDIT_FAILED", editErr.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unknown error occurred.")
	}
}
