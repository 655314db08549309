package router

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/tribuna/internal/handler"
	"github.com/tribuna/internal/logger"
	"github.com/tribuna/internal/metrics"
	"github.com/tribuna/internal/view"
)

const sessionName = "tribuna_session"

// Options 描述路由层需要的静态资源与会话配置。
type Options struct {
	SessionSecret string
	StaticDir     string
	// UploadDir is served under UploadURLPath when files live on local disk.
	UploadDir     string
	UploadURLPath string
	Templates     *template.Template
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.Middleware(), metrics.Middleware())

	secret := opts.SessionSecret
	if secret == "" {
		secret = "tribuna-dev-secret"
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	tmpl := opts.Templates
	if tmpl == nil {
		tmpl = view.MustTemplates()
	}
	r.SetHTMLTemplate(tmpl)

	if opts.StaticDir != "" {
		r.Static("/static", opts.StaticDir)
	}
	if opts.UploadDir != "" {
		urlPath := "/" + strings.Trim(opts.UploadURLPath, "/")
		if urlPath == "/" {
			urlPath = "/uploads"
		}
		r.Static(urlPath, opts.UploadDir)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", metrics.Handler())

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/edicoes")
	})

	editions := r.Group("/edicoes")
	{
		editions.GET("", api.ShowEditions)
		editions.GET("/more", api.LoadMoreEditions)
		editions.GET("/viewer", api.ShowEditionViewer)
	}

	// 后台管理路由
	admin := r.Group("/admin")
	{
		admin.GET("/login", api.ShowLoginPage)
		admin.POST("/login", api.Login)
		admin.GET("/logout", api.Logout)

		auth := admin.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("", func(c *gin.Context) {
				c.Redirect(http.StatusFound, "/admin/editions")
			})
			auth.GET("/editions", api.ShowAdminEditions)

			apiGroup := auth.Group("/api")
			{
				apiGroup.GET("/editions", api.ListEditions)
				apiGroup.POST("/editions", api.CreateEdition)
				apiGroup.PUT("/editions/:id", api.UpdateEdition)
				apiGroup.DELETE("/editions/:id", api.DeleteEdition)
				apiGroup.POST("/editions/check-link", api.CheckEditionLink)
				apiGroup.POST("/cache/clear", api.ClearLinkCache)
			}
		}
	}

	return r
}
