package session

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const DefaultCookieName = "atelier_token"

// Manager reads the access token the hosted auth provider issued, either from
// the Authorization header or from the session cookie set by the web client.
type Manager struct {
	cookieName string
}

func NewManager() *Manager {
	return &Manager{cookieName: DefaultCookieName}
}

func (m *Manager) CookieName() string {
	return m.cookieName
}

func (m *Manager) ReadToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			return "", false
		}
		token = strings.TrimSpace(token)
		return token, token != ""
	}

	token, err := c.Cookie(m.cookieName)
	if err != nil {
		return "", false
	}
	if strings.TrimSpace(token) == "" {
		return "", false
	}
	return token, true
}
