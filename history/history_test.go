package history

import (
	"testing"
	"time"

	"github.com/livetv-cli/livetv/filesystem"
	"github.com/livetv-cli/livetv/source"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestHistory(t *testing.T) {
	Convey("Given two channels", t, func() {
		aljazeera := source.New("aljazeera", "Al Jazeera", "https://live.example.com/aje/index.m3u8", "aje.png")
		quran := source.New("alquran", "Al Quran", "https://live.example.com/quran/index.m3u8", "")

		Reset(func() {
			_ = cacher.Set(map[string]*Entry{})
		})

		Convey("When both are watched", func() {
			So(Save(aljazeera), ShouldBeNil)
			time.Sleep(time.Millisecond)
			So(Save(quran), ShouldBeNil)

			Convey("Recent should list the latest first", func() {
				recent, err := Recent(0)
				So(err, ShouldBeNil)
				So(recent, ShouldHaveLength, 2)
				So(recent[0].ID, ShouldEqual, "alquran")
			})

			Convey("Last should return the latest", func() {
				last, err := Last()
				So(err, ShouldBeNil)
				So(last.MustGet().Name, ShouldEqual, "Al Quran")
			})

			Convey("Watching again should count plays and move it up", func() {
				time.Sleep(time.Millisecond)
				So(Save(aljazeera), ShouldBeNil)

				recent, err := Recent(1)
				So(err, ShouldBeNil)
				So(recent, ShouldHaveLength, 1)
				So(recent[0].ID, ShouldEqual, "aljazeera")
				So(recent[0].Plays, ShouldEqual, 2)
			})

			Convey("Entries should rebuild their source", func() {
				saved, err := Get()
				So(err, ShouldBeNil)
				src := saved["aljazeera"].Source()
				So(src.Locator, ShouldEqual, aljazeera.Locator)
				So(src.Logo.MustGet(), ShouldEqual, "aje.png")
			})

			Convey("Remove should forget it", func() {
				So(Remove("alquran"), ShouldBeNil)
				recent, _ := Recent(0)
				So(recent, ShouldHaveLength, 1)
			})
		})

		Convey("With nothing watched Last should be empty", func() {
			last, err := Last()
			So(err, ShouldBeNil)
			So(last.IsAbsent(), ShouldBeTrue)
		})
	})
}

func TestFavorites(t *testing.T) {
	Convey("Given a channel", t, func() {
		src := source.New("aljazeera-mubasher", "Al Jazeera Mubasher", "https://live.example.com/ajm/index.m3u8", "")

		Reset(func() {
			_ = favorites.Set(map[string]*Entry{})
		})

		Convey("Toggling should add and then remove it", func() {
			on, err := ToggleFavorite(src)
			So(err, ShouldBeNil)
			So(on, ShouldBeTrue)

			fav, err := IsFavorite(src.ID)
			So(err, ShouldBeNil)
			So(fav, ShouldBeTrue)

			on, err = ToggleFavorite(src)
			So(err, ShouldBeNil)
			So(on, ShouldBeFalse)

			list, err := Favorites()
			So(err, ShouldBeNil)
			So(list, ShouldBeEmpty)
		})

		Convey("Favorites should be ordered by name", func() {
			_, _ = ToggleFavorite(src)
			_, _ = ToggleFavorite(source.New("alquran", "Al Quran", "https://live.example.com/q.m3u8", ""))

			list, err := Favorites()
			So(err, ShouldBeNil)
			So(list[0].ID, ShouldEqual, "aljazeera-mubasher")
			So(list[1].ID, ShouldEqual, "alquran")
		})
	})
}
