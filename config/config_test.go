package config

import (
	"errors"
	"testing"

	"github.com/livetv-cli/livetv/filesystem"
	"github.com/livetv-cli/livetv/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		Convey("Should initialize without error", func() {
			So(Setup(), ShouldBeNil)
		})

		Convey("Should have default values populated", func() {
			So(Setup(), ShouldBeNil)
			for name := range Default {
				So(viper.Get(name), ShouldNotBeNil)
			}
		})

		Convey("Should register every declared key", func() {
			So(len(Default), ShouldEqual, key.DefinedFieldsCount)
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			So(EnvKeyReplacer.Replace("manifest.max_retry"), ShouldEqual, "manifest_max_retry")
		})
	})
}

func TestField(t *testing.T) {
	Convey("Given the manifest retry field", t, func() {
		field := Default[key.ManifestMaxRetry]

		Convey("Env should be prefixed with the app name", func() {
			So(field.Env(), ShouldEqual, "LIVETV_MANIFEST_MAX_RETRY")
		})

		Convey("Type name should match the default value", func() {
			So(field.typeName(), ShouldEqual, "int")
			volume := Default[key.PlayerVolume]
			So(volume.typeName(), ShouldEqual, "float")
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		So(Setup(), ShouldBeNil)

		Convey("It should be valid", func() {
			So(Validate(), ShouldBeNil)
		})

		Convey("An unknown engine should be rejected", func() {
			viper.Set(key.EngineKind, "flash")
			defer viper.Set(key.EngineKind, "mse")
			So(Validate(), ShouldNotBeNil)
		})

		Convey("An unknown surface should be rejected", func() {
			viper.Set(key.PlayerSurface, "vlc")
			defer viper.Set(key.PlayerSurface, "mpv")
			So(Validate(), ShouldNotBeNil)
		})

		Convey("A volume above one should be rejected", func() {
			viper.Set(key.PlayerVolume, 1.5)
			defer viper.Set(key.PlayerVolume, 1.0)
			So(Validate(), ShouldNotBeNil)
		})

		Convey("A zero live sync count should be rejected", func() {
			viper.Set(key.BufferLiveSyncCount, 0)
			defer viper.Set(key.BufferLiveSyncCount, 3)
			So(Validate(), ShouldNotBeNil)
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Parse should follow the default value type", t, func() {
		v, err := Parse(key.ManifestMaxRetry, []string{"4"})
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 4)

		v, err = Parse(key.PlayerVolume, []string{"0.25"})
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 0.25)

		v, err = Parse(key.PlayerAutoplay, []string{"false"})
		So(err, ShouldBeNil)
		So(v, ShouldEqual, false)

		v, err = Parse(key.EngineKind, []string{"native"})
		So(err, ShouldBeNil)
		So(v, ShouldEqual, "native")

		_, err = Parse(key.ManifestMaxRetry, []string{"many"})
		So(err, ShouldNotBeNil)

		_, err = Parse(key.PlayerMuted, nil)
		So(err, ShouldNotBeNil)

		_, err = Parse("player.colour", []string{"red"})
		So(errors.Is(err, ErrUnknownKey), ShouldBeTrue)
	})
}

func TestSet(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		So(Setup(), ShouldBeNil)

		Convey("A valid value should be stored", func() {
			So(Set(key.EngineKind, "native"), ShouldBeNil)
			defer viper.Set(key.EngineKind, "mse")
			So(viper.GetString(key.EngineKind), ShouldEqual, "native")
		})

		Convey("An invalid value should be rolled back", func() {
			before := viper.GetString(key.PlayerSurface)
			So(Set(key.PlayerSurface, "vlc"), ShouldNotBeNil)
			So(viper.GetString(key.PlayerSurface), ShouldEqual, before)
		})
	})
}
