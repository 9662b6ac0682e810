package log

import (
	"testing"

	"github.com/livetv-cli/livetv/filesystem"
	"github.com/livetv-cli/livetv/key"
	"github.com/livetv-cli/livetv/where"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Given logging is disabled", t, func() {
		viper.Set(key.LogsWrite, false)
		So(Setup(), ShouldBeNil)

		Convey("Entries should be discarded", func() {
			entry := With(Fields{"channel": "aja"})
			So(entry.Logger.Out, ShouldNotBeNil)
			So(func() { entry.Info("ignored") }, ShouldNotPanic)
		})
	})

	Convey("Given logging is enabled", t, func() {
		viper.Set(key.LogsWrite, true)
		viper.Set(key.LogsLevel, "debug")
		defer viper.Set(key.LogsWrite, false)

		So(Setup(), ShouldBeNil)

		Convey("A daily log file should be created", func() {
			Infof("engine %d created", 1)
			files, err := afero.ReadDir(filesystem.API(), where.Logs())
			So(err, ShouldBeNil)
			So(files, ShouldNotBeEmpty)
		})
	})
}
