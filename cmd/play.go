package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/livetv-cli/livetv/catalog"
	"github.com/livetv-cli/livetv/controller"
	"github.com/livetv-cli/livetv/engine"
	"github.com/livetv-cli/livetv/engine/mse"
	"github.com/livetv-cli/livetv/engine/native"
	"github.com/livetv-cli/livetv/history"
	"github.com/livetv-cli/livetv/key"
	"github.com/livetv-cli/livetv/log"
	"github.com/livetv-cli/livetv/metrics"
	"github.com/livetv-cli/livetv/network"
	"github.com/livetv-cli/livetv/source"
	"github.com/livetv-cli/livetv/surface"
	"github.com/livetv-cli/livetv/tui"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

var errNoHistory = errors.New("nothing was watched yet")

// resolveSource turns the command line into the stream to mount.
func resolveSource(args []string, resume bool) (source.Source, error) {
	switch {
	case resume:
		last, err := history.Last()
		if err != nil {
			return source.Source{}, err
		}
		entry, ok := last.Get()
		if !ok {
			return source.Source{}, errNoHistory
		}
		return entry.Source(), nil
	case len(args) > 0:
		return lookup(args[0])
	default:
		return pickChannel()
	}
}

// lookup treats http(s) arguments as manifest locators and everything else as a channel name.
func lookup(query string) (source.Source, error) {
	if isLocator(query) {
		return source.FromLocator(query), nil
	}

	channel, err := catalog.Find(query)
	if err != nil {
		return source.Source{}, err
	}
	return channel.Source()
}

func isLocator(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func pickChannel() (source.Source, error) {
	channels := catalog.Playable()
	if len(channels) == 0 {
		return source.Source{}, catalog.ErrNoStream
	}

	var index int
	err := survey.AskOne(&survey.Select{
		Message: "Channel",
		Options: lo.Map(channels, func(c *catalog.Channel, _ int) string {
			return c.Name
		}),
		Description: func(_ string, i int) string {
			return fmt.Sprintf("%s · %s", channels[i].Category, channels[i].Quality)
		},
		PageSize: 15,
	}, &index)
	if err != nil {
		return source.Source{}, err
	}

	return channels[index].Source()
}

func newSurface(kind, title string) (surface.Surface, error) {
	switch kind {
	case "null":
		return surface.NewNull(surface.NullOptions{Native: true, Buffer: true, Fullscreen: true}), nil
	default:
		CheckDependencies()

		mpv := surface.NewMPV(title)
		if err := mpv.Open(); err != nil {
			return nil, fmt.Errorf("open mpv: %w", err)
		}
		return mpv, nil
	}
}

func newFactory(kind string) engine.Factory {
	tuning := engine.TuningFromConfig()

	switch kind {
	case "native":
		return func(s surface.Surface) engine.Engine {
			return native.New(s, native.WithClient(network.Client), native.WithTuning(tuning))
		}
	default:
		return func(s surface.Surface) engine.Engine {
			return mse.New(s, mse.WithClient(network.Client), mse.WithTuning(tuning))
		}
	}
}

// play mounts src on a fresh surface and hands the session to the control surface.
func play(src source.Source) error {
	s, err := newSurface(viper.GetString(key.PlayerSurface), src.Name)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Warnf("close surface: %v", err)
		}
	}()

	return watch(s, src, tui.Run)
}

// watch mounts src on s and hands the session to ui. The controller is unmounted
// on every return path, before the caller closes the surface.
func watch(s surface.Surface, src source.Source, ui func(*tui.Options) error) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	if addr := viper.GetString(key.MetricsListen); addr != "" {
		go func() {
			if err := m.Serve(ctx, addr); err != nil {
				log.Errorf("metrics: %v", err)
			}
		}()
	}

	opts := controller.OptionsFromConfig()
	opts.Metrics = m

	c := controller.New(s, newFactory(viper.GetString(key.EngineKind)), opts)
	if err := c.Mount(src); err != nil {
		return err
	}
	defer c.Unmount()
	log.Infof("playing %s", src)

	if viper.GetBool(key.HistorySaveOnPlay) {
		if err := history.Save(src); err != nil {
			log.Warnf("save history: %v", err)
		}
	}

	options := tui.Options{
		Controller: c,
		OnClose:    c.Unmount,
	}
	if w, ok := s.(interface{ Wait() <-chan struct{} }); ok {
		options.SurfaceGone = w.Wait()
	}

	return ui(&options)
}
