package runtime_test

import (
	"testing"

	rtt "github.com/filecoin-project/go-state-types/rt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vestledger/grant-actors/actors/runtime"
)

func TestRecordingLogger(t *testing.T) {
	var log runtime.RecordingLogger
	log.Log(rtt.DEBUG, "granted %d to %s", 50, "f0101")
	log.Log(rtt.WARN, "rejected debit of %d", 1)

	assert.Equal(t, []string{"granted 50 to f0101", "rejected debit of 1"}, log.Messages(rtt.DEBUG))
	assert.Equal(t, []string{"rejected debit of 1"}, log.Messages(rtt.INFO))
	assert.Empty(t, log.Messages(rtt.ERROR))
}

func TestParseLogLevel(t *testing.T) {
	for name, want := range map[string]rtt.LogLevel{
		"debug": rtt.DEBUG,
		"INFO":  rtt.INFO,
		"":      rtt.INFO,
		"warn":  rtt.WARN,
		"error": rtt.ERROR,
	} {
		got, err := runtime.ParseLogLevel(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}

	_, err := runtime.ParseLogLevel("loud")
	assert.Error(t, err)
}

func TestNewLoggerFiltersBelowMinimum(t *testing.T) {
	// Only checks that filtering and dispatch do not panic for every level.
	log := runtime.NewLogger("grants-test", rtt.WARN)
	for _, lvl := range []rtt.LogLevel{rtt.DEBUG, rtt.INFO, rtt.WARN, rtt.ERROR} {
		log.Log(lvl, "level %d", lvl)
	}
	runtime.NopLogger{}.Log(rtt.ERROR, "dropped")
}
