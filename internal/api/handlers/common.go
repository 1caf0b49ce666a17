package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/careermentor/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

// writeError renders err as APIError. Internal details stay in the request
// log via c.Error, never in the body.
func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)
	_ = c.Error(err)

	body := APIError{Code: utils.CodeOf(err), Message: "internal error"}
	var ae *utils.AppError
	if errors.As(err, &ae) && ae.Message != "" {
		body.Message = ae.Message
	}
	c.AbortWithStatusJSON(status, body)
}

func requireUserID(c *gin.Context) (string, bool) {
	if id := c.GetString("user_id"); id != "" {
		return id, true
	}
	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "unauthorized", nil))
	return "", false
}

// bindJSON decodes the body into dst. An empty body is accepted when
// optional is set.
func bindJSON(c *gin.Context, op string, dst any, optional bool) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
	return false
}
