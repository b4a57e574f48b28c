package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newContext(req *http.Request) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req
	return c
}

func TestReadToken(t *testing.T) {
	m := NewManager()

	cases := []struct {
		name   string
		header string
		cookie string
		want   string
		ok     bool
	}{
		{name: "bearer", header: "Bearer abc", want: "abc", ok: true},
		{name: "bearer_case_insensitive", header: "bearer  abc ", want: "abc", ok: true},
		{name: "wrong_scheme", header: "Basic abc", ok: false},
		{name: "empty_bearer", header: "Bearer ", ok: false},
		{name: "cookie", cookie: "xyz", want: "xyz", ok: true},
		{name: "header_wins", header: "Bearer abc", cookie: "xyz", want: "abc", ok: true},
		{name: "none", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/dashboard/metrics", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: tc.cookie})
			}
			got, ok := m.ReadToken(newContext(req))
			if ok != tc.ok || got != tc.want {
				t.Fatalf("expected (%q, %v), got (%q, %v)", tc.want, tc.ok, got, ok)
			}
		})
	}
}
