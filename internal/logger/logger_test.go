package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetVerbosity(int(Info))
		SetJSON(false)
	})
	return buf
}

func TestVerbosityFiltersMessages(t *testing.T) {
	buf := capture(t)

	SetVerbosity(int(Info))
	Debugf("hidden %d", 1)
	Infof("shown %d", 2)

	assert.NotContains(t, buf.String(), "hidden 1")
	assert.Contains(t, buf.String(), "shown 2")

	SetVerbosity(int(Trace))
	Tracef("trace %s", "on")
	assert.Contains(t, buf.String(), "trace on")
}

func TestErrorOnly(t *testing.T) {
	buf := capture(t)

	SetVerbosity(int(Error))
	Infof("quiet")
	Warnf("also quiet")
	Errorf("boom")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "boom")
}

func TestVerbosityClamped(t *testing.T) {
	capture(t)

	SetVerbosity(-4)
	assert.Equal(t, logrus.ErrorLevel, std.GetLevel())

	SetVerbosity(9)
	assert.Equal(t, logrus.TraceLevel, std.GetLevel())
}

func TestJSONFields(t *testing.T) {
	buf := capture(t)

	SetJSON(true)
	WithFields(logrus.Fields{"ticker": "AAPL"}).Info("snapshot")

	assert.Contains(t, buf.String(), `"ticker":"AAPL"`)
	assert.Contains(t, buf.String(), `"msg":"snapshot"`)
}
