package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/livetv-cli/livetv/surface"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassify(t *testing.T) {
	Convey("Classify", t, func() {
		Convey("HTTP failures should be network errors", func() {
			err := fmt.Errorf("level: %w", &StatusError{URL: "https://x/y.m3u8", Status: 503})
			So(Classify(err, true).Kind, ShouldEqual, NetworkError)
			So(Classify(io.ErrUnexpectedEOF, false).Kind, ShouldEqual, NetworkError)
			So(Classify(context.DeadlineExceeded, false).Kind, ShouldEqual, NetworkError)
		})

		Convey("Decode and append failures should be media errors", func() {
			So(Classify(fmt.Errorf("%w: bad tag", ErrDecode), true).Kind, ShouldEqual, MediaError)
			So(Classify(fmt.Errorf("%w: rejected", surface.ErrAppend), true).Kind, ShouldEqual, MediaError)
		})

		Convey("Missing capabilities should be unsupported", func() {
			e := Classify(surface.ErrUnsupported, true)
			So(e.Kind, ShouldEqual, UnsupportedPlatform)
			So(e.Retryable(), ShouldBeFalse)
		})

		Convey("Anything else should be an unknown fatal error", func() {
			So(Classify(errors.New("boom"), true).Kind, ShouldEqual, UnknownFatal)
		})

		Convey("A classified error should keep its kind and take the new severity", func() {
			inner := NewError(MediaError, true, errors.New("encrypted"))
			e := Classify(fmt.Errorf("wrapped: %w", inner), false)
			So(e.Kind, ShouldEqual, MediaError)
			So(e.Fatal, ShouldBeFalse)
		})

		Convey("Messages should be viewer facing", func() {
			So(NewError(NetworkError, true, nil).Message(), ShouldContainSubstring, "check your connection")
			So(NewError(UnsupportedPlatform, true, nil).Message(), ShouldContainSubstring, "not supported")
		})
	})
}

func TestRetry(t *testing.T) {
	Convey("Given a retry policy", t, func() {
		p := Policy{Timeout: time.Second, MaxRetry: 2, RetryDelay: time.Millisecond}
		ctx := context.Background()

		Convey("A success after failures should be returned", func() {
			calls := 0
			v, err := Retry(ctx, p, func(context.Context) (int, error) {
				calls++
				if calls < 3 {
					return 0, errors.New("flaky")
				}
				return 42, nil
			})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 42)
			So(calls, ShouldEqual, 3)
		})

		Convey("The last error should be returned once retries are spent", func() {
			calls := 0
			_, err := Retry(ctx, p, func(context.Context) (int, error) {
				calls++
				return 0, fmt.Errorf("attempt %d", calls)
			})
			So(err, ShouldBeError, "attempt 3")
		})

		Convey("Each attempt should get its own deadline", func() {
			p.Timeout = 20 * time.Millisecond
			p.MaxRetry = 0
			_, err := Retry(ctx, p, func(ctx context.Context) (int, error) {
				<-ctx.Done()
				return 0, ctx.Err()
			})
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		})

		Convey("A cancelled caller should stop retrying", func() {
			cancelled, cancel := context.WithCancel(ctx)
			calls := 0
			_, err := Retry(cancelled, p, func(context.Context) (int, error) {
				calls++
				cancel()
				return 0, errors.New("flaky")
			})
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(calls, ShouldEqual, 1)
		})
	})
}

func TestEmitter(t *testing.T) {
	Convey("Given an emitter", t, func() {
		done := make(chan struct{})
		em := NewEmitter(done)

		Convey("Events should be delivered in order", func() {
			em.Emit(ManifestParsed{})
			em.Emit(QualityChanged{Level: 2})
			_, ok := (<-em.Events()).(ManifestParsed)
			So(ok, ShouldBeTrue)
			So((<-em.Events()).(QualityChanged).Level, ShouldEqual, 2)
		})

		Convey("Emit should give up once done is closed", func() {
			for i := 0; i < 64; i++ {
				em.Emit(FragmentLoaded{})
			}
			returned := make(chan struct{})
			go func() {
				em.Emit(FragmentLoaded{})
				close(returned)
			}()
			close(done)
			select {
			case <-returned:
			case <-time.After(time.Second):
				So("emit blocked", ShouldBeEmpty)
			}
		})

		Convey("Close should be idempotent and silence later emits", func() {
			close(done)
			em.Close()
			em.Close()
			em.Emit(QualityChanged{})
			_, open := <-em.Events()
			So(open, ShouldBeFalse)
		})
	})
}

func TestLevel(t *testing.T) {
	Convey("Level labels", t, func() {
		So(LabelFor(720, 2_500_000), ShouldEqual, "720p")
		So(LabelFor(0, 2_500_000), ShouldEqual, "2500k")
		So(LabelFor(0, 0), ShouldEqual, "Unknown")
		So(Level{Label: "720p", Bitrate: 2_500_000}.Describe(), ShouldEqual, "720p - 2500kbps")
	})
}

func TestSelection(t *testing.T) {
	Convey("Selection", t, func() {
		So(Automatic().IsAutomatic(), ShouldBeTrue)
		So(Automatic().ActiveIndex(), ShouldEqual, Auto)
		So(Selection{}, ShouldResemble, Automatic())

		pending := PendingManual(2)
		So(pending.IsPending(), ShouldBeTrue)
		So(pending.ActiveIndex(), ShouldEqual, 2)

		confirmed := Confirmed(2)
		So(confirmed.IsPending(), ShouldBeFalse)
		So(confirmed.IsAutomatic(), ShouldBeFalse)
		So(confirmed.String(), ShouldEqual, "level 2")
	})
}
