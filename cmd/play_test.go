package cmd

import (
	"errors"
	"testing"

	"github.com/livetv-cli/livetv/catalog"
	"github.com/livetv-cli/livetv/controller"
	"github.com/livetv-cli/livetv/engine/mse"
	"github.com/livetv-cli/livetv/engine/native"
	"github.com/livetv-cli/livetv/filesystem"
	"github.com/livetv-cli/livetv/history"
	"github.com/livetv-cli/livetv/source"
	"github.com/livetv-cli/livetv/surface"
	"github.com/livetv-cli/livetv/tui"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestLookup(t *testing.T) {
	Convey("Given command line input", t, func() {
		Convey("A manifest URL should become an ad-hoc source", func() {
			src, err := lookup("https://live.example.com/ch1/index.m3u8")
			So(err, ShouldBeNil)
			So(src.Locator, ShouldEqual, "https://live.example.com/ch1/index.m3u8")
			So(src.Name, ShouldEqual, "live.example.com")
		})

		Convey("A channel id should resolve through the catalog", func() {
			src, err := lookup("aljazeera")
			So(err, ShouldBeNil)
			So(src.Name, ShouldEqual, "Al Jazeera HD")
			So(src.Logo.IsPresent(), ShouldBeTrue)
		})

		Convey("A misspelled name should still find the channel", func() {
			src, err := lookup("al jazera hd")
			So(err, ShouldBeNil)
			So(src.ID, ShouldStartWith, "aljazeera")
		})

		Convey("A channel without a stream should be refused", func() {
			for _, c := range catalog.All() {
				if !c.Playable() {
					_, err := lookup(c.ID)
					So(errors.Is(err, catalog.ErrNoStream), ShouldBeTrue)
					break
				}
			}
		})
	})
}

func TestResolveSource(t *testing.T) {
	Convey("Given an empty history", t, func() {
		Convey("Continuing should fail", func() {
			_, err := resolveSource(nil, true)
			So(err, ShouldEqual, errNoHistory)
		})

		Convey("After watching a channel continuing should pick it again", func() {
			watched := source.New("bbc-world", "BBC World News", "https://live.example.com/bbc/index.m3u8", "")
			So(history.Save(watched), ShouldBeNil)
			Reset(func() {
				_ = history.Remove(watched.ID)
			})

			src, err := resolveSource([]string{"ignored"}, true)
			So(err, ShouldBeNil)
			So(src.Same(watched), ShouldBeTrue)
		})
	})
}

func TestNewFactory(t *testing.T) {
	Convey("The engine kind should pick the engine", t, func() {
		s := surface.NewNull(surface.NullOptions{Native: true, Buffer: true})

		_, ok := newFactory("native")(s).(*native.Engine)
		So(ok, ShouldBeTrue)

		_, ok = newFactory("mse")(s).(*mse.Engine)
		So(ok, ShouldBeTrue)
	})
}

func TestWatch(t *testing.T) {
	Convey("Given a control surface that fails before it is closed", t, func() {
		s := surface.NewNull(surface.NullOptions{Native: true, Buffer: true})
		src := source.FromLocator("http://127.0.0.1:1/live/index.m3u8")
		failed := errors.New("no terminal")

		var c *controller.Controller
		err := watch(s, src, func(opts *tui.Options) error {
			c = opts.Controller
			return failed
		})

		Convey("The error should be returned and the player released", func() {
			So(err, ShouldEqual, failed)
			So(c, ShouldNotBeNil)
			So(c.Mount(src), ShouldEqual, controller.ErrUnmounted)
			So(s.Owner(), ShouldBeEmpty)
		})
	})
}
