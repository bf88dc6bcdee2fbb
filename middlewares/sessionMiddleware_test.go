package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/lumeray/royalty_backend/utils"
)

func TestSessionMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name        string
		userId      string
		role        string
		wantUser    int
		wantPresent bool
		wantAdmin   bool
	}{
		{"admin session", "42", "A", 42, true, true},
		{"manager session", "7", "M", 7, true, false},
		{"artist session", "9", "U", 9, true, false},
		{"no role header", "42", "", 42, true, false},
		{"no identity", "", "A", 0, false, false},
		{"garbage user id", "abc", "A", 0, false, false},
		{"non-positive user id", "0", "A", 0, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotUser int
			var gotPresent, gotAdmin bool

			r := gin.New()
			r.Use(SessionMiddleware())
			r.GET("/", func(c *gin.Context) {
				gotUser, gotPresent = utils.GetUserIdFromContext(c.Request.Context())
				gotAdmin, _ = utils.GetIsAdminFromContext(c.Request.Context())
				c.Status(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.userId != "" {
				req.Header.Set("X-User-Id", tc.userId)
			}
			if tc.role != "" {
				req.Header.Set("X-User-Role", tc.role)
			}
			r.ServeHTTP(httptest.NewRecorder(), req)

			if gotPresent != tc.wantPresent || gotUser != tc.wantUser {
				t.Fatalf("user id = (%d, %v), expected (%d, %v)", gotUser, gotPresent, tc.wantUser, tc.wantPresent)
			}
			if gotAdmin != tc.wantAdmin {
				t.Fatalf("is admin = %v, expected %v", gotAdmin, tc.wantAdmin)
			}
		})
	}
}
