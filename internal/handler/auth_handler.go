package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tribuna/internal/db"
)

const (
	sessionUserIDKey   = "user_id"
	sessionUsernameKey = "username"
	msgBadCredentials  = "Usuário ou senha inválidos"
)

// ShowLoginPage 渲染登录页面
func (a *API) ShowLoginPage(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "login.html", gin.H{
		"title": "Acesso administrativo",
	})
}

// Login 校验用户名与密码并写入会话，请求默认来自 HTMX
func (a *API) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	user, err := db.Authenticate(a.db, username, password)
	if err != nil {
		status := http.StatusUnauthorized
		message := msgBadCredentials
		if !errors.Is(err, db.ErrInvalidCredentials) {
			log.Error().Err(err).Msg("login lookup failed")
			status = http.StatusInternalServerError
			message = "Falha ao verificar credenciais"
		}
		c.HTML(status, "login_error.html", gin.H{"error": message})
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserIDKey, user.ID)
	session.Set(sessionUsernameKey, user.Username)
	if err := session.Save(); err != nil {
		log.Error().Err(err).Msg("session save failed")
		c.HTML(http.StatusInternalServerError, "login_error.html", gin.H{"error": "Falha ao salvar a sessão"})
		return
	}

	// HTMX 通过响应头完成跳转
	c.Header("HX-Redirect", "/admin/editions")
	c.Redirect(http.StatusFound, "/admin/editions")
}

// Logout 清空会话
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		log.Warn().Err(err).Msg("session clear failed")
	}
	c.Redirect(http.StatusFound, "/admin/login")
}

// AuthRequired 是一个简单的认证中间件，API 请求返回 401，页面请求跳转登录页
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if session.Get(sessionUserIDKey) == nil {
			if strings.HasPrefix(c.Request.URL.Path, "/admin/api/") {
				respondError(c, http.StatusUnauthorized, "Não autorizado")
				c.Abort()
				return
			}
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}
