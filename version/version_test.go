package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/livetv-cli/livetv/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestCompare(t *testing.T) {
	Convey("Compare", t, func() {
		c, err := Compare("v0.4.0", "0.3.9")
		So(err, ShouldBeNil)
		So(c, ShouldEqual, 1)

		c, err = Compare("0.3.0", "0.10.0")
		So(err, ShouldBeNil)
		So(c, ShouldEqual, -1)

		c, err = Compare("1.2.3-rc.1", "1.2.3")
		So(err, ShouldBeNil)
		So(c, ShouldEqual, 0)

		_, err = Compare("1.2", "1.2.0")
		So(err, ShouldNotBeNil)
	})
}

func TestLatest(t *testing.T) {
	Convey("Given a release endpoint", t, func() {
		hits := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits++
			w.Write([]byte(`{"tag_name":"v0.9.1"}`))
		}))
		defer srv.Close()

		previous := ReleasesURL
		ReleasesURL = srv.URL
		Reset(func() {
			ReleasesURL = previous
			_ = versionCacher.Set("")
		})

		Convey("The tag should be returned without its prefix and cached", func() {
			latest, err := Latest(context.Background())
			So(err, ShouldBeNil)
			So(latest, ShouldEqual, "0.9.1")

			latest, err = Latest(context.Background())
			So(err, ShouldBeNil)
			So(latest, ShouldEqual, "0.9.1")
			So(hits, ShouldEqual, 1)
		})
	})
}
