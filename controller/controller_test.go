package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/livetv-cli/livetv/engine"
	"github.com/livetv-cli/livetv/source"
	"github.com/livetv-cli/livetv/surface"
	. "github.com/smartystreets/goconvey/convey"
)

var threeLevels = []engine.Level{
	{Index: 0, Label: "360p", Bitrate: 800_000, URI: "https://cdn.example.com/sd.m3u8"},
	{Index: 1, Label: "720p", Bitrate: 2_500_000, URI: "https://cdn.example.com/hd.m3u8"},
	{Index: 2, Label: "1080p", Bitrate: 5_000_000, URI: "https://cdn.example.com/fhd.m3u8"},
}

// fakeFactory hands out scripted engines and counts how many are alive.
type fakeFactory struct {
	mu       sync.Mutex
	levels   []engine.Level
	fail     *engine.Error
	block    bool
	engines  []*fakeEngine
	alive    int
	maxAlive int
}

func (f *fakeFactory) New(s surface.Surface) engine.Engine {
	f.mu.Lock()
	defer f.mu.Unlock()

	done := make(chan struct{})
	e := &fakeEngine{
		factory: f,
		surface: s,
		owner:   fmt.Sprintf("fake-%d", len(f.engines)+1),
		levels:  f.levels,
		fail:    f.fail,
		block:   f.block,
		done:    done,
		emit:    engine.NewEmitter(done),
		started: make(chan struct{}),
	}
	f.engines = append(f.engines, e)
	f.alive++
	f.maxAlive = max(f.maxAlive, f.alive)
	return e
}

func (f *fakeFactory) set(fn func(f *fakeFactory)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeFactory) created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.engines)
}

func (f *fakeFactory) last() *fakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.engines[len(f.engines)-1]
}

func (f *fakeFactory) counts() (alive, maxAlive int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive, f.maxAlive
}

type fakeEngine struct {
	factory *fakeFactory
	surface surface.Surface
	owner   string
	levels  []engine.Level
	fail    *engine.Error
	block   bool

	done    chan struct{}
	emit    *engine.Emitter
	started chan struct{}
	once    sync.Once

	mu        sync.Mutex
	overrides []int
	destroys  int
}

func (e *fakeEngine) Load(ctx context.Context, _ source.Source) (engine.ParseResult, error) {
	if err := e.surface.Attach(e.owner); err != nil {
		return engine.ParseResult{}, err
	}
	close(e.started)

	switch {
	case e.block:
		<-ctx.Done()
		return engine.ParseResult{}, ctx.Err()
	case e.fail != nil:
		e.emit.Emit(engine.FatalError{Err: e.fail})
		return engine.ParseResult{}, e.fail
	}

	info := engine.StreamInfo{Levels: len(e.levels)}
	e.emit.Emit(engine.ManifestParsed{Levels: e.levels, Info: info})
	return engine.ParseResult{Levels: e.levels, Info: info, Live: true}, nil
}

func (e *fakeEngine) Destroy() {
	e.mu.Lock()
	e.destroys++
	e.mu.Unlock()

	e.once.Do(func() {
		close(e.done)
		e.surface.Detach(e.owner)
		e.emit.Close()

		e.factory.mu.Lock()
		e.factory.alive--
		e.factory.mu.Unlock()
	})
}

func (e *fakeEngine) SetQualityOverride(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.overrides = append(e.overrides, index)
}

func (e *fakeEngine) QualityLevels() []engine.Level {
	return e.levels
}

func (e *fakeEngine) Events() <-chan engine.Event {
	return e.emit.Events()
}

func (e *fakeEngine) Overrides() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.overrides...)
}

func (e *fakeEngine) Destroys() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.destroys
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.HideDelay = 60 * time.Millisecond
	opts.LeaveDelay = 20 * time.Millisecond
	return opts
}

var channel = source.New("aja", "Al Jazeera HD", "https://live.example.com/aja/index.m3u8", "")

func TestLifecycle(t *testing.T) {
	Convey("Given an unmounted controller", t, func() {
		s := surface.NewNull(surface.NullOptions{Buffer: true})
		f := &fakeFactory{levels: threeLevels}
		c := New(s, f.New, testOptions())
		Reset(c.Unmount)

		Convey("It should be idle", func() {
			session := c.Session()
			So(session.Connection, ShouldEqual, Idle)
			So(session.Levels, ShouldBeEmpty)
			So(session.ControlsVisible, ShouldBeTrue)
		})

		Convey("Operations should require a mount", func() {
			So(c.TogglePlay(), ShouldEqual, ErrNotMounted)
			So(c.Restart(), ShouldEqual, ErrNotMounted)
			So(c.SetQualityOverride(0), ShouldEqual, ErrNotMounted)
			So(c.SetSource(channel), ShouldEqual, ErrNotMounted)
		})

		Convey("An invalid source should be rejected before any engine exists", func() {
			err := c.Mount(source.FromLocator("file:///etc/passwd"))
			So(err, ShouldNotBeNil)
			So(f.created(), ShouldEqual, 0)
		})

		Convey("Mounting a source with three levels", func() {
			So(c.Mount(channel), ShouldBeNil)

			Convey("It should connect with automatic selection", func() {
				So(eventually(func() bool { return c.Session().Connection == Connected }), ShouldBeTrue)

				session := c.Session()
				So(session.Levels, ShouldHaveLength, 3)
				So(session.Selection.IsAutomatic(), ShouldBeTrue)
				So(session.Info.Levels, ShouldEqual, 3)
				So(session.Source.MustGet().Name, ShouldEqual, "Al Jazeera HD")
				So(s.Owner(), ShouldEqual, "fake-1")
			})

			Convey("It should start playing on its own", func() {
				So(eventually(func() bool { return c.Session().Play == Playing }), ShouldBeTrue)
				So(s.Paused(), ShouldBeFalse)
			})

			Convey("A fatal error should stop playback and keep the levels", func() {
				So(eventually(func() bool { return c.Session().Play == Playing }), ShouldBeTrue)

				fatal := engine.NewError(engine.MediaError, true, errors.New("decoder died"))
				f.last().emit.Emit(engine.FatalError{Err: fatal})

				So(eventually(func() bool { return c.Session().Connection == Error }), ShouldBeTrue)
				session := c.Session()
				So(session.Play, ShouldNotEqual, Playing)
				So(session.LastError.MustGet(), ShouldEqual, fatal)
				So(session.Levels, ShouldHaveLength, 3)
				So(eventually(s.Paused), ShouldBeTrue)

				Convey("Surface play events should not resume an errored session", func() {
					So(s.Play(context.Background()), ShouldBeNil)
					time.Sleep(50 * time.Millisecond)
					So(c.Session().Play, ShouldNotEqual, Playing)
				})

				Convey("A later parse should reconnect and clear the error", func() {
					f.last().emit.Emit(engine.ManifestParsed{Levels: threeLevels})
					So(eventually(func() bool { return c.Session().Connection == Connected }), ShouldBeTrue)
					So(c.Session().LastError.IsAbsent(), ShouldBeTrue)
				})
			})

			Convey("A recoverable error should change nothing", func() {
				So(eventually(func() bool { return c.Session().Connection == Connected }), ShouldBeTrue)
				before := c.Session()

				f.last().emit.Emit(engine.RecoverableError{Err: engine.NewError(engine.NetworkError, false, errors.New("503"))})
				f.last().emit.Emit(engine.FragmentLoaded{Bytes: 10})
				So(eventually(func() bool { return c.Session().Stats.Fragments == 1 }), ShouldBeTrue)

				after := c.Session()
				So(after.Connection, ShouldEqual, before.Connection)
				So(after.LastError.IsAbsent(), ShouldBeTrue)
			})

			Convey("Changing the source should tear the old engine down first", func() {
				So(eventually(func() bool { return c.Session().Connection == Connected }), ShouldBeTrue)
				first := f.last()

				other := source.New("bbc", "BBC News", "https://live.example.com/bbc/index.m3u8", "")
				So(c.SetSource(other), ShouldBeNil)

				So(first.Destroys(), ShouldEqual, 1)
				So(f.created(), ShouldEqual, 2)
				So(c.Session().Source.MustGet().ID, ShouldEqual, "bbc")

				_, maxAlive := f.counts()
				So(maxAlive, ShouldEqual, 1)
				So(s.Stats().Conflicts, ShouldEqual, 0)
			})

			Convey("Switching sources while still connecting should never overlap engines", func() {
				f.set(func(f *fakeFactory) { f.block = true })

				for i := 0; i < 20; i++ {
					next := source.New(
						fmt.Sprintf("ch-%d", i),
						fmt.Sprintf("Channel %d", i),
						fmt.Sprintf("https://live.example.com/ch-%d/index.m3u8", i),
						"",
					)
					So(c.SetSource(next), ShouldBeNil)
					So(c.Session().Connection, ShouldEqual, Connecting)
				}

				So(f.created(), ShouldEqual, 21)
				alive, maxAlive := f.counts()
				So(alive, ShouldEqual, 1)
				So(maxAlive, ShouldEqual, 1)
				So(s.Stats().Conflicts, ShouldEqual, 0)
				So(c.Session().Source.MustGet().ID, ShouldEqual, "ch-19")
			})

			Convey("Setting the same source should keep the engine", func() {
				So(c.SetSource(channel), ShouldBeNil)
				So(f.created(), ShouldEqual, 1)
			})
		})

		Convey("Mounting a source whose load fails with a network error", func() {
			f.set(func(f *fakeFactory) {
				f.fail = engine.NewError(engine.NetworkError, true, errors.New("manifest: 404"))
			})
			So(c.Mount(channel), ShouldBeNil)

			Convey("It should end in the error state without retrying", func() {
				So(eventually(func() bool { return c.Session().Connection == Error }), ShouldBeTrue)
				So(c.Session().LastError.MustGet().Kind, ShouldEqual, engine.NetworkError)
				So(c.Session().CanRetry(), ShouldBeTrue)

				time.Sleep(50 * time.Millisecond)
				So(f.created(), ShouldEqual, 1)
			})

			Convey("Restart should reconnect with a new engine", func() {
				So(eventually(func() bool { return c.Session().Connection == Error }), ShouldBeTrue)
				f.set(func(f *fakeFactory) {
					f.fail = nil
					f.block = true
				})

				So(c.Restart(), ShouldBeNil)
				So(c.Session().Connection, ShouldEqual, Connecting)
				So(f.created(), ShouldEqual, 2)
				So(f.engines[0].Destroys(), ShouldEqual, 1)

				alive, maxAlive := f.counts()
				So(alive, ShouldEqual, 1)
				So(maxAlive, ShouldEqual, 1)
			})
		})

		Convey("Unmounting while connecting", func() {
			f.set(func(f *fakeFactory) { f.block = true })
			So(c.Mount(channel), ShouldBeNil)

			e := f.last()
			<-e.started
			c.Unmount()

			Convey("The engine should be destroyed exactly once", func() {
				So(e.Destroys(), ShouldEqual, 1)
				So(s.Owner(), ShouldBeEmpty)
				alive, _ := f.counts()
				So(alive, ShouldEqual, 0)
			})

			Convey("Nothing should change the session afterwards", func() {
				e.emit.Emit(engine.ManifestParsed{Levels: threeLevels})
				s.Fail(errors.New("late"))
				_ = s.Play(context.Background())
				time.Sleep(50 * time.Millisecond)

				session := c.Session()
				So(session.Connection, ShouldEqual, Idle)
				So(session.Play, ShouldEqual, Paused)
				So(session.Levels, ShouldBeEmpty)
			})

			Convey("The controller should not mount again", func() {
				So(c.Mount(channel), ShouldEqual, ErrUnmounted)
				So(c.TogglePlay(), ShouldEqual, ErrUnmounted)
			})
		})

		Convey("Events of a replaced engine should be dropped", func() {
			So(c.Mount(channel), ShouldBeNil)
			So(eventually(func() bool { return c.Session().Connection == Connected }), ShouldBeTrue)

			c.mu.Lock()
			stale := c.bind
			c.mu.Unlock()

			So(c.Restart(), ShouldBeNil)
			So(eventually(func() bool { return c.Session().Connection == Connected }), ShouldBeTrue)

			c.apply(stale, engine.FatalError{Err: engine.NewError(engine.UnknownFatal, true, errors.New("stale"))})
			So(c.Session().Connection, ShouldEqual, Connected)
			So(c.Generation(), ShouldBeGreaterThan, stale.gen)
		})
	})
}

func TestQuality(t *testing.T) {
	Convey("Given a connected controller", t, func() {
		s := surface.NewNull(surface.NullOptions{Buffer: true})
		f := &fakeFactory{}
		c := New(s, f.New, testOptions())
		Reset(c.Unmount)

		Convey("Overrides should be refused while no levels are known", func() {
			f.set(func(f *fakeFactory) { f.block = true })
			So(c.Mount(channel), ShouldBeNil)
			So(c.SetQualityOverride(0), ShouldEqual, ErrNoLevels)
		})

		Convey("With three levels", func() {
			f.set(func(f *fakeFactory) { f.levels = threeLevels })
			So(c.Mount(channel), ShouldBeNil)
			So(eventually(func() bool { return c.Session().Connection == Connected }), ShouldBeTrue)
			e := f.last()

			Convey("An out of range level should be refused", func() {
				So(c.SetQualityOverride(3), ShouldEqual, ErrInvalidLevel)
				So(c.SetQualityOverride(-4), ShouldEqual, ErrInvalidLevel)
				So(e.Overrides(), ShouldBeEmpty)
			})

			Convey("A manual level should be pending until the engine confirms one", func() {
				So(c.SetQualityOverride(1), ShouldBeNil)
				So(c.Session().Selection, ShouldResemble, engine.PendingManual(1))
				So(e.Overrides(), ShouldResemble, []int{1})

				e.emit.Emit(engine.QualityChanged{Level: 2})
				So(eventually(func() bool { return c.Session().PlayingLevel == 2 }), ShouldBeTrue)
				So(c.Session().Selection, ShouldResemble, engine.Confirmed(2))
				So(c.Session().ActiveLevel().MustGet().Label, ShouldEqual, "1080p")
			})

			Convey("Automatic should be restored with Auto", func() {
				So(c.SetQualityOverride(1), ShouldBeNil)
				So(c.SetQualityOverride(engine.Auto), ShouldBeNil)
				So(c.Session().Selection.IsAutomatic(), ShouldBeTrue)
				So(e.Overrides(), ShouldResemble, []int{1, engine.Auto})

				e.emit.Emit(engine.QualityChanged{Level: 0})
				So(eventually(func() bool { return c.Session().PlayingLevel == 0 }), ShouldBeTrue)
				So(c.Session().Selection.IsAutomatic(), ShouldBeTrue)
			})

			Convey("Restart should apply the manual level to the new engine", func() {
				So(c.SetQualityOverride(1), ShouldBeNil)
				So(c.Restart(), ShouldBeNil)

				next := f.last()
				So(next.owner, ShouldNotEqual, e.owner)
				So(eventually(func() bool { return len(next.Overrides()) == 1 }), ShouldBeTrue)
				So(next.Overrides(), ShouldResemble, []int{1})
				So(c.Session().Selection, ShouldResemble, engine.PendingManual(1))
			})

			Convey("Restart should ask for the level the engine confirmed", func() {
				So(c.SetQualityOverride(1), ShouldBeNil)
				e.emit.Emit(engine.QualityChanged{Level: 2})
				So(eventually(func() bool { return c.Session().PlayingLevel == 2 }), ShouldBeTrue)

				So(c.Restart(), ShouldBeNil)
				next := f.last()
				So(eventually(func() bool { return len(next.Overrides()) == 1 }), ShouldBeTrue)
				So(next.Overrides(), ShouldResemble, []int{2})
				So(c.Session().Selection, ShouldResemble, engine.PendingManual(2))
			})

			Convey("A new source should start automatic", func() {
				So(c.SetQualityOverride(2), ShouldBeNil)
				other := source.New("bbc", "BBC News", "https://live.example.com/bbc/index.m3u8", "")
				So(c.SetSource(other), ShouldBeNil)
				So(eventually(func() bool { return c.Session().Connection == Connected }), ShouldBeTrue)

				So(c.Session().Selection.IsAutomatic(), ShouldBeTrue)
				So(f.last().Overrides(), ShouldBeEmpty)
			})
		})
	})
}

// slowPlaySurface holds every Play call until its context ends.
type slowPlaySurface struct {
	*surface.Null
	entered  chan struct{}
	once     sync.Once
	mu       sync.Mutex
	inflight int
}

func (s *slowPlaySurface) Play(ctx context.Context) error {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inflight--
		s.mu.Unlock()
	}()

	s.once.Do(func() { close(s.entered) })
	<-ctx.Done()
	return ctx.Err()
}

func (s *slowPlaySurface) playing() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight
}

func TestAutoplayTeardown(t *testing.T) {
	Convey("Given a controller whose autoplay is still waiting on the surface", t, func() {
		s := &slowPlaySurface{
			Null:    surface.NewNull(surface.NullOptions{Buffer: true}),
			entered: make(chan struct{}),
		}
		f := &fakeFactory{levels: threeLevels}
		c := New(s, f.New, testOptions())

		So(c.Mount(channel), ShouldBeNil)
		So(eventually(func() bool {
			select {
			case <-s.entered:
				return true
			default:
				return false
			}
		}), ShouldBeTrue)

		Convey("Unmount should cancel it and return only after it finished", func() {
			done := make(chan struct{})
			go func() {
				c.Unmount()
				close(done)
			}()

			var returned bool
			select {
			case <-done:
				returned = true
			case <-time.After(2 * time.Second):
			}

			So(returned, ShouldBeTrue)
			So(s.playing(), ShouldEqual, 0)
		})
	})
}

func TestControls(t *testing.T) {
	Convey("Given a mounted controller", t, func() {
		s := surface.NewNull(surface.NullOptions{Buffer: true, BlockFirstPlay: true})
		f := &fakeFactory{levels: threeLevels}
		c := New(s, f.New, testOptions())
		Reset(c.Unmount)

		So(c.Mount(channel), ShouldBeNil)
		So(eventually(func() bool { return c.Session().Connection == Connected }), ShouldBeTrue)

		Convey("A blocked autoplay should leave the session paused without an error", func() {
			time.Sleep(30 * time.Millisecond)
			session := c.Session()
			So(session.Play, ShouldEqual, Paused)
			So(session.LastError.IsAbsent(), ShouldBeTrue)

			Convey("TogglePlay should start and pause playback", func() {
				So(c.TogglePlay(), ShouldBeNil)
				So(eventually(func() bool { return c.Session().Play == Playing }), ShouldBeTrue)
				So(c.TogglePlay(), ShouldBeNil)
				So(eventually(func() bool { return c.Session().Play == Paused }), ShouldBeTrue)
			})
		})

		Convey("TogglePlay should need a connection", func() {
			f.set(func(f *fakeFactory) { f.block = true })
			So(c.Restart(), ShouldBeNil)
			So(c.TogglePlay(), ShouldEqual, ErrNotConnected)
		})

		Convey("Mute and volume", func() {
			So(c.ToggleMute(), ShouldBeNil)
			So(eventually(func() bool { return c.Session().Audio.Muted }), ShouldBeTrue)

			Convey("A positive volume should unmute", func() {
				So(c.SetVolume(0.5), ShouldBeNil)
				So(eventually(func() bool { return c.Session().Audio == Audio{Volume: 0.5} }), ShouldBeTrue)
			})

			Convey("A zero volume should mute", func() {
				So(c.ToggleMute(), ShouldBeNil)
				So(c.SetVolume(0), ShouldBeNil)
				So(eventually(func() bool { return c.Session().Audio == Audio{Volume: 0, Muted: true} }), ShouldBeTrue)
			})

			Convey("Volume should be clamped", func() {
				So(c.SetVolume(1.7), ShouldBeNil)
				So(eventually(func() bool { return c.Session().Audio.Volume == 1 }), ShouldBeTrue)
				So(c.StepVolume(-0.3), ShouldBeNil)
				So(eventually(func() bool { return c.Session().Audio.Volume == 0.7 }), ShouldBeTrue)
			})
		})

		Convey("Subscribers should hear about changes", func() {
			changes, cancel := c.Subscribe()
			defer cancel()

			So(c.ToggleMute(), ShouldBeNil)
			select {
			case <-changes:
			case <-time.After(time.Second):
				So("no notification", ShouldBeEmpty)
			}
		})
	})
}

func TestAutoHide(t *testing.T) {
	Convey("Given a mounted controller on a surface without fullscreen", t, func() {
		s := surface.NewNull(surface.NullOptions{Buffer: true})
		f := &fakeFactory{levels: threeLevels}
		c := New(s, f.New, testOptions())
		Reset(c.Unmount)
		So(c.Mount(channel), ShouldBeNil)

		Convey("Controls should stay visible outside fullscreen", func() {
			c.PointerMoved()
			c.PointerLeft()
			time.Sleep(100 * time.Millisecond)
			So(c.Session().ControlsVisible, ShouldBeTrue)
		})

		Convey("Fullscreen should fall back to the layout flag", func() {
			So(c.ToggleFullscreen(), ShouldBeNil)
			So(c.Session().Fullscreen, ShouldBeTrue)
			So(c.Session().ControlsVisible, ShouldBeTrue)

			Convey("Controls should hide after the idle delay", func() {
				So(eventually(func() bool { return !c.Session().ControlsVisible }), ShouldBeTrue)

				Convey("and come back on pointer motion", func() {
					c.PointerMoved()
					So(c.Session().ControlsVisible, ShouldBeTrue)
					So(eventually(func() bool { return !c.Session().ControlsVisible }), ShouldBeTrue)
				})
			})

			Convey("Leaving should hide the controls sooner", func() {
				c.PointerLeft()
				time.Sleep(40 * time.Millisecond)
				So(c.Session().ControlsVisible, ShouldBeFalse)
			})

			Convey("Leaving fullscreen should stop the timer", func() {
				So(c.ToggleFullscreen(), ShouldBeNil)
				time.Sleep(100 * time.Millisecond)
				session := c.Session()
				So(session.Fullscreen, ShouldBeFalse)
				So(session.ControlsVisible, ShouldBeTrue)
			})

			Convey("Unmount should stop the timer", func() {
				c.Unmount()
				time.Sleep(100 * time.Millisecond)
				So(c.Session().ControlsVisible, ShouldBeTrue)
			})
		})
	})

	Convey("Given a surface with fullscreen support", t, func() {
		s := surface.NewNull(surface.NullOptions{Buffer: true, Fullscreen: true})
		c := New(s, (&fakeFactory{levels: threeLevels}).New, testOptions())
		Reset(c.Unmount)
		So(c.Mount(channel), ShouldBeNil)

		Convey("Fullscreen changes made by the viewer in the player should be followed", func() {
			So(s.SetFullscreen(true), ShouldBeNil)
			So(eventually(func() bool { return c.Session().Fullscreen }), ShouldBeTrue)
		})
	})
}
