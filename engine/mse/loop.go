package mse

import (
	"time"

	"github.com/livetv-cli/livetv/engine"
	"github.com/livetv-cli/livetv/engine/playlist"
	"github.com/livetv-cli/livetv/log"
	"github.com/samber/lo"
)

// bufferPoll is how often a full buffer is re-checked.
const bufferPoll = 250 * time.Millisecond

// run feeds the surface until Destroy or a fatal error.
func (e *Engine) run(level int) {
	defer e.wg.Done()

	var (
		ph      = &playhead{}
		lastSeq uint64
		fed     bool
	)

	e.emit.Emit(engine.QualityChanged{Level: level})

	for e.ctx.Err() == nil {
		if next, ok := e.takeSwitch(level); ok {
			level = next
		}

		media, err := e.loader.Media(e.ctx, e.levelURI(level))
		if err != nil {
			if e.ctx.Err() != nil {
				return
			}
			if level = e.failover(level, err); level < 0 {
				return
			}
			continue
		}

		segments := pending(media, lastSeq, fed, e.tuning.LiveSyncCount)
		fresh := len(segments) > 0

	feed:
		for _, seg := range segments {
			if !e.waitForRoom(ph) {
				return
			}

			body, elapsed, err := e.loader.Fragment(e.ctx, seg.URI)
			if err != nil {
				if e.ctx.Err() != nil {
					return
				}
				if level = e.failover(level, err); level < 0 {
					return
				}
				break feed
			}

			if !e.append(body, ph) {
				return
			}
			ph.add(seg.Duration, len(body))
			lastSeq, fed = seg.Seq, true

			e.abr.sample(len(body), elapsed, seg.Duration)
			e.emit.Emit(engine.FragmentLoaded{
				Level:     level,
				Bytes:     len(body),
				Duration:  seg.Duration,
				Bandwidth: e.abr.bandwidth(),
			})

			if next, ok := e.takeSwitch(level); ok {
				level = next
				break feed
			}
			if next := e.adapt(level); next != level {
				level = next
				e.emit.Emit(engine.QualityChanged{Level: level})
				break feed
			}
		}

		if media.Ended && !fresh {
			log.Infof("mse: playlist ended")
			return
		}

		// poll faster while the playlist keeps growing
		wait := media.TargetDuration
		if fresh {
			wait /= 2
		}
		if wait <= 0 {
			wait = time.Second
		}

		timer := time.NewTimer(wait)
		select {
		case <-e.ctx.Done():
			timer.Stop()
			return
		case <-e.switches:
			timer.Stop()
			// re-arm so takeSwitch sees it at the top of the loop
			select {
			case e.switches <- struct{}{}:
			default:
			}
		case <-timer.C:
		}
	}
}

// takeSwitch applies a pending quality override.
func (e *Engine) takeSwitch(level int) (int, bool) {
	select {
	case <-e.switches:
	default:
		return level, false
	}

	e.mu.Lock()
	manual := e.manual
	e.mu.Unlock()

	if manual == engine.Auto {
		next := e.adapt(level)
		if next != level {
			e.emit.Emit(engine.QualityChanged{Level: next})
		}
		return next, true
	}

	// a manual pick is always confirmed, even when it is the current level
	e.emit.Emit(engine.QualityChanged{Level: manual})
	return manual, true
}

// adapt returns the level ABR prefers, or level itself under a manual override.
func (e *Engine) adapt(level int) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.manual != engine.Auto {
		return level
	}
	if next := e.abr.pick(e.levels, e.failed); next >= 0 {
		return next
	}
	return level
}

// failover marks level failed and moves to the nearest usable one.
// It returns -1 after emitting a fatal error when none is left.
func (e *Engine) failover(level int, err error) int {
	e.mu.Lock()
	e.failed[level] = true
	next := nearest(e.levels, e.failed, level)
	if e.manual != engine.Auto && next >= 0 {
		e.manual = next
	}
	e.mu.Unlock()

	if next < 0 {
		fatal := engine.Classify(err, true)
		log.Errorf("mse: no level left: %v", fatal)
		e.emit.Emit(engine.FatalError{Err: fatal})
		return -1
	}

	log.Warnf("mse: level %d failed, falling back to %d: %v", level, next, err)
	e.emit.Emit(engine.RecoverableError{Err: engine.Classify(err, false)})
	e.emit.Emit(engine.QualityChanged{Level: next})
	return next
}

// append hands a fragment to the surface, resetting the decoder after failures.
func (e *Engine) append(body []byte, ph *playhead) bool {
	for failures := 0; ; failures++ {
		err := e.surface.Append(e.ctx, body)
		if err == nil {
			return true
		}
		if e.ctx.Err() != nil {
			return false
		}

		if failures >= e.tuning.RecoverMaxRetry {
			fatal := engine.NewError(engine.MediaError, true, err)
			log.Errorf("mse: giving up after %d decoder resets: %v", failures, err)
			e.emit.Emit(engine.FatalError{Err: fatal})
			return false
		}

		log.Warnf("mse: append failed, resetting decoder: %v", err)
		e.emit.Emit(engine.RecoverableError{Err: engine.NewError(engine.MediaError, false, err)})
		if err := e.surface.ResetBuffer(); err != nil {
			log.Warnf("mse: reset buffer: %v", err)
		}
		ph.reset()
	}
}

// waitForRoom blocks while the buffer is full. It returns false once the engine stops.
func (e *Engine) waitForRoom(ph *playhead) bool {
	for {
		ahead, bytes := ph.ahead(time.Now())
		if ahead < e.tuning.MaxBufferLength && (e.tuning.MaxBufferSize <= 0 || bytes < e.tuning.MaxBufferSize) {
			return true
		}

		timer := time.NewTimer(min(max(ahead-e.tuning.MaxBufferLength, bufferPoll), time.Second))
		select {
		case <-e.ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}
}

func (e *Engine) levelURI(level int) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.levels[level].URI
}

// pending selects the segments to fetch next. A fresh start, or a reader that fell
// out of the playlist window, jumps to liveSync segments before the live edge.
func pending(media playlist.Media, lastSeq uint64, fed bool, liveSync int) []playlist.Segment {
	segs := media.Segments
	if len(segs) == 0 {
		return nil
	}

	if !fed || lastSeq+1 < segs[0].Seq {
		start := max(len(segs)-max(liveSync, 1), 0)
		return segs[start:]
	}

	return lo.Filter(segs, func(s playlist.Segment, _ int) bool {
		return s.Seq > lastSeq
	})
}

// playhead estimates how much appended media is still ahead of playback,
// assuming playback runs at wall-clock speed from the first append.
type playhead struct {
	started  time.Time
	buffered time.Duration
	queue    []queued
}

type queued struct {
	end   time.Duration
	bytes int
}

func (p *playhead) add(d time.Duration, bytes int) {
	if p.started.IsZero() {
		p.started = time.Now()
	}
	p.buffered += d
	p.queue = append(p.queue, queued{end: p.buffered, bytes: bytes})
}

func (p *playhead) ahead(now time.Time) (time.Duration, int) {
	if p.started.IsZero() {
		return 0, 0
	}

	played := now.Sub(p.started)
	p.queue = lo.Filter(p.queue, func(q queued, _ int) bool {
		return q.end > played
	})

	bytes := lo.SumBy(p.queue, func(q queued) int { return q.bytes })
	return max(p.buffered-played, 0), bytes
}

func (p *playhead) reset() {
	*p = playhead{}
}
