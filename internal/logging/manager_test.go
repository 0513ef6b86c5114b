package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedManager(bufs map[string]*bytes.Buffer) *LoggerManager {
	lm := NewLoggerManager()
	lm.newLogger = func(component string) (*Logger, error) {
		buf := &bytes.Buffer{}
		bufs[component] = buf
		return NewWriterLogger(component, buf), nil
	}
	return lm
}

func TestManagerReusesComponentLogger(t *testing.T) {
	bufs := make(map[string]*bytes.Buffer)
	lm := newBufferedManager(bufs)

	a := lm.Logger(ComponentGame)
	b := lm.Logger(ComponentGame)
	assert.Same(t, a, b)

	lm.Logger(ComponentWorld)
	assert.Equal(t, []string{ComponentGame, ComponentWorld}, lm.Components())
}

func TestManagerConsoleLevelAppliesToAllLoggers(t *testing.T) {
	bufs := make(map[string]*bytes.Buffer)
	lm := newBufferedManager(bufs)

	game := lm.Logger(ComponentGame)
	game.Debug("до смены уровня")
	assert.Empty(t, bufs[ComponentGame].String(), "по умолчанию DEBUG не выводится")

	lm.SetConsoleLevel(DEBUG)
	game.Debug("кадр %d", 7)
	assert.Contains(t, bufs[ComponentGame].String(), "кадр 7")

	// Новый логгер получает уже выставленный уровень
	lm.Logger(ComponentCombat).Debug("урон")
	assert.Contains(t, bufs[ComponentCombat].String(), "урон")
	assert.Contains(t, bufs[ComponentCombat].String(), "component=combat")
}

func TestManagerFallsBackWhenFileFails(t *testing.T) {
	lm := NewLoggerManager()
	lm.newLogger = func(string) (*Logger, error) { return nil, errors.New("нет прав") }

	logger := lm.Logger(ComponentStorage)
	require.NotNil(t, logger)
	assert.Equal(t, ComponentStorage, logger.Component())
}

func TestManagerCloseAllForgetsLoggers(t *testing.T) {
	lm := newBufferedManager(make(map[string]*bytes.Buffer))
	lm.Logger(ComponentServer)

	require.NoError(t, lm.CloseAll())
	assert.Empty(t, lm.Components())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("WARN"))
	assert.Equal(t, INFO, ParseLevel("шум"))
}
