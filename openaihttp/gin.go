package openaihttp

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func RegisterGinRoutes(r gin.IRouter, cfg Config) error {
	if r == nil {
		return fmt.Errorf("router is nil")
	}
	modelsHandler, responsesHandler, err := Handlers(cfg)
	if err != nil {
		return err
	}

	basePath := normalizeBasePath(cfg.BasePath)
	r.GET(joinPath(basePath, "/models"), gin.WrapF(modelsHandler))
	r.POST(joinPath(basePath, "/responses"), gin.WrapF(responsesHandler))
	return nil
}

// NoRouteHandler 对 BasePath 之下未注册的路径返回 OpenAI 风格的 404。
// 用于 gin.Engine.NoRoute，其它路径交给 next（可为 nil）。
func NoRouteHandler(basePath string, next gin.HandlerFunc) gin.HandlerFunc {
	prefix := normalizeBasePath(basePath)
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if prefix == "/" || p == prefix || strings.HasPrefix(p, prefix+"/") {
			writeOpenAIError(c.Writer, http.StatusNotFound, fmt.Sprintf("unknown path: %s", p))
			c.Abort()
			return
		}
		if next != nil {
			next(c)
		}
	}
}
