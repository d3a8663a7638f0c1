package apihttp

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 业务错误码，0 表示成功。
const (
	codeOK         = 0
	codeBadRequest = 40000
	codeNotFound   = 40400
	codeConflict   = 40900
	codeInternal   = 50000
)

type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, envelope{Code: codeOK, Message: "ok", Data: data})
}

func respondError(c *gin.Context, status, code int, msg string) {
	c.AbortWithStatusJSON(status, envelope{Code: code, Message: msg})
}

type pageResult struct {
	Items    any   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}
