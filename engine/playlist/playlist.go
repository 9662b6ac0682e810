// Package playlist fetches and decodes HLS manifests and fragments for the engines.
package playlist

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/grafov/m3u8"
	"github.com/livetv-cli/livetv/engine"
	"github.com/livetv-cli/livetv/log"
	"github.com/samber/lo"
)

// maxPlaylistSize bounds manifest bodies; fragments are unbounded.
const maxPlaylistSize = 4 << 20

// Segment is one fragment of a media playlist.
type Segment struct {
	Seq      uint64
	URI      string
	Duration time.Duration
}

// Media is a decoded media playlist.
type Media struct {
	Segments       []Segment
	TargetDuration time.Duration
	// Ended is set once the playlist carries EXT-X-ENDLIST.
	Ended bool
}

// Loader performs the HTTP side of an engine.
type Loader struct {
	Client *http.Client
	Tuning engine.Tuning
}

// Master fetches a manifest and returns its levels ordered by ascending bitrate.
// A media playlist given directly becomes a single level.
func (l *Loader) Master(ctx context.Context, uri string) (engine.ParseResult, error) {
	body, err := engine.Retry(ctx, l.Tuning.Manifest, func(ctx context.Context) ([]byte, error) {
		return l.fetch(ctx, uri, maxPlaylistSize)
	})
	if err != nil {
		return engine.ParseResult{}, err
	}

	return ParseMaster(uri, body)
}

// ParseMaster decodes a manifest body fetched from base.
func ParseMaster(base string, body []byte) (engine.ParseResult, error) {
	pl, kind, err := m3u8.DecodeFrom(bytes.NewReader(body), false)
	if err != nil {
		return engine.ParseResult{}, engine.NewError(engine.MediaError, true, fmt.Errorf("%w: manifest: %v", engine.ErrDecode, err))
	}

	switch kind {
	case m3u8.MEDIA:
		media := pl.(*m3u8.MediaPlaylist)
		level := engine.Level{Label: engine.LabelFor(0, 0), URI: base}
		return engine.ParseResult{
			Levels: []engine.Level{level},
			Info:   engine.StreamInfo{Levels: 1},
			Live:   !media.Closed,
		}, nil
	case m3u8.MASTER:
		return parseVariants(base, pl.(*m3u8.MasterPlaylist))
	default:
		return engine.ParseResult{}, engine.NewError(engine.MediaError, true, fmt.Errorf("%w: unknown playlist type", engine.ErrDecode))
	}
}

func parseVariants(base string, master *m3u8.MasterPlaylist) (engine.ParseResult, error) {
	var (
		levels    []engine.Level
		audio     []string
		subtitles []string
	)

	for _, v := range master.Variants {
		if v == nil || v.Iframe {
			continue
		}

		uri, err := Resolve(base, v.URI)
		if err != nil {
			log.Warnf("playlist: skipping variant %q: %v", v.URI, err)
			continue
		}

		width, height := parseResolution(v.Resolution)
		levels = append(levels, engine.Level{
			Label:   engine.LabelFor(height, int(v.Bandwidth)),
			Bitrate: int(v.Bandwidth),
			Width:   width,
			Height:  height,
			Codecs:  v.Codecs,
			URI:     uri,
		})

		for _, alt := range v.Alternatives {
			if alt == nil {
				continue
			}
			id := alt.GroupId + "/" + alt.Name
			switch alt.Type {
			case "AUDIO":
				audio = append(audio, id)
			case "SUBTITLES":
				subtitles = append(subtitles, id)
			}
		}
	}

	if len(levels) == 0 {
		return engine.ParseResult{}, engine.NewError(engine.MediaError, true, fmt.Errorf("%w: manifest has no playable levels", engine.ErrDecode))
	}

	levels = lo.UniqBy(levels, func(l engine.Level) string { return l.URI })
	sort.SliceStable(levels, func(i, j int) bool {
		return levels[i].Bitrate < levels[j].Bitrate
	})
	for i := range levels {
		levels[i].Index = i
	}

	return engine.ParseResult{
		Levels: levels,
		Info: engine.StreamInfo{
			Levels:      len(levels),
			AudioTracks: len(lo.Uniq(audio)),
			Subtitles:   len(lo.Uniq(subtitles)),
		},
		Live: true,
	}, nil
}

// Media fetches a level playlist.
func (l *Loader) Media(ctx context.Context, uri string) (Media, error) {
	body, err := engine.Retry(ctx, l.Tuning.Level, func(ctx context.Context) ([]byte, error) {
		return l.fetch(ctx, uri, maxPlaylistSize)
	})
	if err != nil {
		return Media{}, err
	}

	return ParseMedia(uri, body)
}

// ParseMedia decodes a media playlist body fetched from base.
func ParseMedia(base string, body []byte) (Media, error) {
	pl, kind, err := m3u8.DecodeFrom(bytes.NewReader(body), false)
	if err != nil {
		return Media{}, engine.NewError(engine.MediaError, true, fmt.Errorf("%w: level playlist: %v", engine.ErrDecode, err))
	}
	if kind != m3u8.MEDIA {
		return Media{}, engine.NewError(engine.MediaError, true, fmt.Errorf("%w: expected a media playlist", engine.ErrDecode))
	}

	mp := pl.(*m3u8.MediaPlaylist)
	if encrypted(mp.Key) {
		return Media{}, engine.NewError(engine.MediaError, true, fmt.Errorf("%w: encrypted streams are not supported", engine.ErrDecode))
	}

	media := Media{
		TargetDuration: seconds(mp.TargetDuration),
		Ended:          mp.Closed,
	}

	// Segments is a ring with nil padding past the last entry
	var i uint64
	for _, seg := range mp.Segments {
		if seg == nil {
			continue
		}
		if encrypted(seg.Key) {
			return Media{}, engine.NewError(engine.MediaError, true, fmt.Errorf("%w: encrypted streams are not supported", engine.ErrDecode))
		}

		uri, err := Resolve(base, seg.URI)
		if err != nil {
			return Media{}, engine.NewError(engine.MediaError, true, fmt.Errorf("%w: segment %q: %v", engine.ErrDecode, seg.URI, err))
		}

		media.Segments = append(media.Segments, Segment{
			Seq:      mp.SeqNo + i,
			URI:      uri,
			Duration: seconds(seg.Duration),
		})
		i++
	}

	if media.TargetDuration <= 0 {
		media.TargetDuration = lo.MaxBy(media.Segments, func(a, b Segment) bool {
			return a.Duration > b.Duration
		}).Duration
	}

	return media, nil
}

// Fragment downloads one segment and reports how long the transfer took.
func (l *Loader) Fragment(ctx context.Context, uri string) ([]byte, time.Duration, error) {
	type result struct {
		body    []byte
		elapsed time.Duration
	}

	r, err := engine.Retry(ctx, l.Tuning.Fragment, func(ctx context.Context) (result, error) {
		start := time.Now()
		body, err := l.fetch(ctx, uri, 0)
		return result{body: body, elapsed: time.Since(start)}, err
	})
	return r.body, r.elapsed, err
}

func (l *Loader) fetch(ctx context.Context, uri string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	if l.Tuning.UserAgent != "" {
		req.Header.Set("User-Agent", l.Tuning.UserAgent)
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &engine.StatusError{URL: uri, Status: resp.StatusCode}
	}

	if limit <= 0 {
		return io.ReadAll(resp.Body)
	}

	// one byte past the limit tells a full body from a cut one
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, engine.NewError(engine.MediaError, true, fmt.Errorf("%w: %s is larger than %d bytes", engine.ErrDecode, uri, limit))
	}
	return body, nil
}

// Resolve turns a playlist reference into an absolute URI.
func Resolve(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}

func encrypted(k *m3u8.Key) bool {
	return k != nil && k.Method != "" && !strings.EqualFold(k.Method, "NONE")
}

func parseResolution(res string) (int, int) {
	w, h, ok := strings.Cut(strings.ToLower(res), "x")
	if !ok {
		return 0, 0
	}
	width, _ := strconv.Atoi(w)
	height, _ := strconv.Atoi(h)
	return width, height
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
