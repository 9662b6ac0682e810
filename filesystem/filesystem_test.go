package filesystem

import (
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBackend(t *testing.T) {
	Convey("Given the in-memory backend", t, func() {
		SetMemMapFs()
		Reset(SetOsFs)

		So(API().Name(), ShouldEqual, "MemMapFS")

		Convey("Files written through GacheFs should be visible through API", func() {
			var g GacheFs
			So(g.MkdirAll("/livetv", 0o755), ShouldBeNil)

			f, err := g.OpenFile("/livetv/history.json", os.O_RDWR|os.O_CREATE, 0o644)
			So(err, ShouldBeNil)
			_, err = f.Write([]byte("{}"))
			So(err, ShouldBeNil)
			So(f.Close(), ShouldBeNil)

			data, err := API().ReadFile("/livetv/history.json")
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "{}")
		})

		Convey("Switching back should restore the real filesystem", func() {
			SetOsFs()
			So(API().Name(), ShouldEqual, "OsFs")
		})
	})
}
