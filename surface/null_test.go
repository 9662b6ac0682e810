package surface

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func next(ch <-chan Event) Event {
	select {
	case ev := <-ch:
		return ev
	default:
		return Event{Kind: -1}
	}
}

func TestNull(t *testing.T) {
	ctx := context.Background()

	Convey("Given a null surface", t, func() {
		s := NewNull(NullOptions{Native: true, Buffer: true})
		events, stop := s.Subscribe()
		defer stop()

		Convey("Attach should be exclusive", func() {
			So(s.Attach("engine-1"), ShouldBeNil)
			err := s.Attach("engine-2")
			So(errors.Is(err, ErrBusy), ShouldBeTrue)
			So(s.Stats().Conflicts, ShouldEqual, 1)

			Convey("Detach by a stranger should be ignored", func() {
				s.Detach("engine-2")
				So(s.Owner(), ShouldEqual, "engine-1")
			})

			Convey("Detach by the owner should free it", func() {
				s.Detach("engine-1")
				So(s.Attach("engine-2"), ShouldBeNil)
			})
		})

		Convey("Append should require an owner", func() {
			err := s.Append(ctx, []byte{1})
			So(errors.Is(err, ErrAppend), ShouldBeTrue)
		})

		Convey("The first append should report canplay", func() {
			So(s.Attach("engine-1"), ShouldBeNil)
			So(s.Append(ctx, make([]byte, 188)), ShouldBeNil)
			So(next(events).Kind, ShouldEqual, EventCanPlay)
			So(s.Append(ctx, make([]byte, 188)), ShouldBeNil)
			So(next(events).Kind, ShouldEqual, -1)
			So(s.Stats().Written, ShouldEqual, 376)
		})

		Convey("Load should report loaded metadata", func() {
			So(s.Attach("engine-1"), ShouldBeNil)
			So(s.Load("https://example.com/live.m3u8"), ShouldBeNil)
			So(next(events).Kind, ShouldEqual, EventLoadedMetadata)
		})

		Convey("Play and pause should be mirrored as events", func() {
			So(s.Play(context.Background()), ShouldBeNil)
			So(next(events).Kind, ShouldEqual, EventPlay)
			So(s.Pause(), ShouldBeNil)
			So(next(events).Kind, ShouldEqual, EventPause)
			So(s.Paused(), ShouldBeTrue)
		})

		Convey("Volume changes should carry both fields", func() {
			So(s.SetVolume(0.4), ShouldBeNil)
			ev := next(events)
			So(ev.Kind, ShouldEqual, EventVolume)
			So(ev.Volume, ShouldEqual, 0.4)
			So(s.SetMuted(true), ShouldBeNil)
			ev = next(events)
			So(ev.Muted, ShouldBeTrue)
			So(ev.Volume, ShouldEqual, 0.4)
		})

		Convey("Fullscreen should be unsupported by default", func() {
			So(errors.Is(s.SetFullscreen(true), ErrUnsupported), ShouldBeTrue)
		})

		Convey("Close should end subscriptions", func() {
			So(s.Close(), ShouldBeNil)
			_, open := <-events
			So(open, ShouldBeFalse)
			So(errors.Is(s.Attach("engine-3"), ErrClosed), ShouldBeTrue)
		})
	})

	Convey("Given a surface that blocks autoplay", t, func() {
		s := NewNull(NullOptions{Buffer: true, BlockFirstPlay: true})

		Convey("Only the first play should be rejected", func() {
			So(errors.Is(s.Play(context.Background()), ErrAutoplayBlocked), ShouldBeTrue)
			So(s.Play(context.Background()), ShouldBeNil)
		})

		Convey("Load should be unsupported", func() {
			So(errors.Is(s.Load("https://example.com/live.m3u8"), ErrUnsupported), ShouldBeTrue)
		})
	})

	Convey("Given a surface with failing appends", t, func() {
		s := NewNull(NullOptions{Buffer: true, FailAppends: 1})
		So(s.Attach("engine-1"), ShouldBeNil)

		Convey("The failure should be an append error and then recover", func() {
			So(errors.Is(s.Append(ctx, []byte{1}), ErrAppend), ShouldBeTrue)
			So(s.Append(ctx, []byte{1}), ShouldBeNil)
		})

		Convey("A cancelled append should write nothing", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			So(s.Append(cancelled, []byte{1}), ShouldEqual, context.Canceled)
			So(s.Stats().Written, ShouldBeZeroValue)
		})
	})
}
