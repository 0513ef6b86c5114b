package logging

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
)

// Компоненты сервера, у каждого свой файл логов
const (
	ComponentServer  = "server"
	ComponentNetwork = "network"
	ComponentGame    = "game"
	ComponentWorld   = "world"
	ComponentCombat  = "combat"
	ComponentStorage = "storage"
)

// LoggerManager хранит логгеры компонентов и общий уровень консоли.
// Уровень из конфигурации применяется и к уже созданным, и к будущим логгерам.
type LoggerManager struct {
	mu           sync.Mutex
	loggers      map[string]*Logger
	consoleLevel LogLevel

	// newLogger подменяется в тестах, чтобы не создавать файлы
	newLogger func(component string) (*Logger, error)
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// NewLoggerManager создаёт пустой менеджер с уровнем консоли INFO
func NewLoggerManager() *LoggerManager {
	return &LoggerManager{
		loggers:      make(map[string]*Logger),
		consoleLevel: INFO,
		newLogger:    NewLogger,
	}
}

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() { globalManager = NewLoggerManager() })
	return globalManager
}

// Logger возвращает логгер компонента. Если файл логов создать не удалось,
// компонент пишет только в stdout.
func (lm *LoggerManager) Logger(component string) *Logger {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if logger, ok := lm.loggers[component]; ok {
		return logger
	}

	logger, err := lm.newLogger(component)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️ логгер %s без файла: %v\n", component, err)
		logger = NewWriterLogger(component, os.Stdout)
	}
	logger.SetLevels(lm.consoleLevel, TRACE)
	lm.loggers[component] = logger
	return logger
}

// SetConsoleLevel меняет уровень консоли у всех компонентов
func (lm *LoggerManager) SetConsoleLevel(level LogLevel) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lm.consoleLevel = level
	for _, logger := range lm.loggers {
		logger.SetLevels(level, TRACE)
	}
}

// Components имена созданных логгеров по алфавиту
func (lm *LoggerManager) Components() []string {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	out := make([]string, 0, len(lm.loggers))
	for c := range lm.loggers {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// CloseAll закрывает файлы всех логгеров и забывает их
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var errs []error
	for c, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", c, err))
		}
	}
	lm.loggers = make(map[string]*Logger)
	return errors.Join(errs...)
}

// GetComponentLogger логгер компонента из глобального менеджера
func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().Logger(component)
}

func GetNetworkLogger() *Logger { return GetComponentLogger(ComponentNetwork) }

func GetServerLogger() *Logger { return GetComponentLogger(ComponentServer) }

func GetGameLogger() *Logger { return GetComponentLogger(ComponentGame) }

func GetWorldLogger() *Logger { return GetComponentLogger(ComponentWorld) }

func GetCombatLogger() *Logger { return GetComponentLogger(ComponentCombat) }

func GetStorageLogger() *Logger { return GetComponentLogger(ComponentStorage) }
