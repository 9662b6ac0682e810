package catalog

import (
	"errors"
	"testing"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCatalog(t *testing.T) {
	Convey("Given the built-in lineup", t, func() {
		Convey("Channel ids should be unique", func() {
			ids := lo.Map(All(), func(c *Channel, _ int) string { return c.ID })
			So(len(lo.Uniq(ids)), ShouldEqual, len(ids))
		})

		Convey("Every playable channel should produce a valid source", func() {
			So(Playable(), ShouldNotBeEmpty)
			for _, c := range Playable() {
				src, err := c.Source()
				So(err, ShouldBeNil)
				So(src.Validate(), ShouldBeNil)
				So(src.Logo.IsPresent(), ShouldBeTrue)
			}
		})

		Convey("A channel without a stream should refuse to produce a source", func() {
			c, ok := Get("bbc-world")
			So(ok, ShouldBeTrue)
			_, err := c.Source()
			So(errors.Is(err, ErrNoStream), ShouldBeTrue)
		})

		Convey("ByCategory should filter", func() {
			news := ByCategory("news")
			So(news, ShouldNotBeEmpty)
			for _, c := range news {
				So(c.Category, ShouldEqual, "news")
			}
			So(len(ByCategory("all")), ShouldEqual, len(All()))
			So(ByCategory("weather"), ShouldBeEmpty)
		})

		Convey("Categories should be sorted and distinct", func() {
			categories := Categories()
			So(categories, ShouldContain, "news")
			So(len(lo.Uniq(categories)), ShouldEqual, len(categories))
			So(categories[0] <= categories[len(categories)-1], ShouldBeTrue)
		})

		Convey("Featured should hold at most five channels", func() {
			So(len(Featured()), ShouldBeLessThanOrEqualTo, 5)
		})
	})
}

func TestFind(t *testing.T) {
	Convey("Find", t, func() {
		Convey("Should resolve an id", func() {
			c, err := Find("alquran")
			So(err, ShouldBeNil)
			So(c.Name, ShouldEqual, "Al Quran TV")
		})

		Convey("Should resolve a name regardless of case", func() {
			c, err := Find("al jazeera mubasher")
			So(err, ShouldBeNil)
			So(c.ID, ShouldEqual, "aljazeera-mubasher")
		})

		Convey("Should resolve a fuzzy name", func() {
			c, err := Find("natgeo")
			So(err, ShouldBeNil)
			So(c.ID, ShouldEqual, "natgeo")

			c, err = Find("mubasher")
			So(err, ShouldBeNil)
			So(c.ID, ShouldEqual, "aljazeera-mubasher")
		})

		Convey("Should suggest the closest name on a miss", func() {
			_, err := Find("Deutsche Welll")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "Deutsche Welle")
		})

		Convey("Should reject empty input", func() {
			_, err := Find("  ")
			So(err, ShouldNotBeNil)
		})
	})
}
