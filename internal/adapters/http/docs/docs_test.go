package docs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestDocsHandler(t *testing.T) {
	convey.Convey("Given the docs handler", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()

		convey.Convey("When registering the docs handler", func() {
			Register(ctx, mux)

			convey.Convey("Then it should serve /openapi.yaml", func() {
				req := httptest.NewRequest("GET", "/openapi.yaml", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "application/yaml; charset=utf-8")
				convey.So(w.Body.Len(), convey.ShouldBeGreaterThan, 0)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "openapi: 3.0.3")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "/analyses")
			})
		})

		convey.Convey("When registering against a nil mux", func() {
			convey.Convey("Then it should panic", func() {
				convey.So(func() { Register(ctx, nil) }, convey.ShouldPanic)
			})
		})
	})
}
