package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает строку уровня ("debug", "INFO"...). Неизвестное значение -> INFO.
func ParseLevel(s string) LogLevel {
	lvl, err := logrus.ParseLevel(s)
	if err != nil {
		return INFO
	}
	return fromLogrus(lvl)
}

func (l LogLevel) logrus() logrus.Level {
	switch l {
	case TRACE:
		return logrus.TraceLevel
	case DEBUG:
		return logrus.DebugLevel
	case WARN:
		return logrus.WarnLevel
	case ERROR:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func fromLogrus(l logrus.Level) LogLevel {
	switch l {
	case logrus.TraceLevel:
		return TRACE
	case logrus.DebugLevel:
		return DEBUG
	case logrus.WarnLevel:
		return WARN
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return ERROR
	default:
		return INFO
	}
}

// Fields структурированный контекст записи
type Fields = logrus.Fields

// Logger логгер компонента: консоль (INFO+) и файл (все уровни).
type Logger struct {
	component       string
	consoleLogger   *logrus.Logger
	fileLogger      *logrus.Logger
	file            *os.File
	minConsoleLevel LogLevel
	minFileLevel    LogLevel
	mu              sync.Mutex
}

// LogDir каталог для файлов логов
var LogDir = "logs"

// NewLogger создаёт логгер компонента с файлом logs/<component>_<timestamp>.log
func NewLogger(component string) (*Logger, error) {
	if err := os.MkdirAll(LogDir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории %s: %w", LogDir, err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join(LogDir, fmt.Sprintf("%s_%s.log", component, timestamp))

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания файла логов: %w", err)
	}

	logger := NewWriterLogger(component, os.Stdout)
	logger.file = file
	logger.fileLogger = newLogrus(file, &logrus.JSONFormatter{})
	return logger, nil
}

// NewWriterLogger создаёт логгер без файла, пишущий в w (тесты, fallback).
func NewWriterLogger(component string, w io.Writer) *Logger {
	return &Logger{
		component: component,
		consoleLogger: newLogrus(w, &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		}),
		minConsoleLevel: INFO,
		minFileLevel:    TRACE,
	}
}

func newLogrus(w io.Writer, formatter logrus.Formatter) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(formatter)
	l.SetLevel(logrus.TraceLevel)
	return l
}

// Close закрывает файл логгера
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.fileLogger = nil
	return err
}

// SetLevels устанавливает минимальные уровни для консоли и файла
func (l *Logger) SetLevels(console, file LogLevel) {
	l.mu.Lock()
	l.minConsoleLevel = console
	l.minFileLevel = file
	l.mu.Unlock()
}

// Component возвращает имя компонента
func (l *Logger) Component() string {
	return l.component
}

func (l *Logger) log(level LogLevel, fields Fields, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	message := fmt.Sprintf(format, args...)

	if l.fileLogger != nil && level >= l.minFileLevel {
		l.fileLogger.WithFields(fields).WithField("component", l.component).Log(level.logrus(), message)
	}
	if l.consoleLogger != nil && level >= l.minConsoleLevel {
		l.consoleLogger.WithFields(fields).WithField("component", l.component).Log(level.logrus(), message)
	}
}

// Trace логирует сообщение уровня TRACE
func (l *Logger) Trace(format string, args ...interface{}) { l.log(TRACE, nil, format, args...) }

// Debug логирует сообщение уровня DEBUG
func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, nil, format, args...) }

// Info логирует сообщение уровня INFO
func (l *Logger) Info(format string, args ...interface{}) { l.log(INFO, nil, format, args...) }

// Warn логирует сообщение уровня WARN
func (l *Logger) Warn(format string, args ...interface{}) { l.log(WARN, nil, format, args...) }

// Error логирует сообщение уровня ERROR
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, nil, format, args...) }

// WithFields возвращает запись с прикреплённым контекстом
func (l *Logger) WithFields(fields Fields) *Entry {
	return &Entry{logger: l, fields: fields}
}

// Entry запись логгера с полями
type Entry struct {
	logger *Logger
	fields Fields
}

// WithField добавляет поле к записи
func (e *Entry) WithField(key string, value interface{}) *Entry {
	fields := make(Fields, len(e.fields)+1)
	for k, v := range e.fields {
		fields[k] = v
	}
	fields[key] = value
	return &Entry{logger: e.logger, fields: fields}
}

func (e *Entry) Debug(format string, args ...interface{}) {
	e.logger.log(DEBUG, e.fields, format, args...)
}

func (e *Entry) Info(format string, args ...interface{}) {
	e.logger.log(INFO, e.fields, format, args...)
}

func (e *Entry) Warn(format string, args ...interface{}) {
	e.logger.log(WARN, e.fields, format, args...)
}

func (e *Entry) Error(format string, args ...interface{}) {
	e.logger.log(ERROR, e.fields, format, args...)
}

// ================= Глобальный логгер =================

// defaultLogger используется пакетными функциями до и после InitDefaultLogger
var defaultLogger = NewWriterLogger("default", os.Stdout)

var defaultMu sync.RWMutex

// InitDefaultLogger инициализирует глобальный логгер с файлом для компонента
func InitDefaultLogger(component string) error {
	logger, err := NewLogger(component)
	if err != nil {
		return err
	}
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
	return nil
}

// CloseDefaultLogger закрывает глобальный логгер
func CloseDefaultLogger() {
	defaultMu.RLock()
	logger := defaultLogger
	defaultMu.RUnlock()
	_ = logger.Close()
}

// SetDefaultLevel меняет уровень консоли глобального логгера и всех компонентов
func SetDefaultLevel(level LogLevel) {
	defaultMu.RLock()
	logger := defaultLogger
	defaultMu.RUnlock()
	logger.SetLevels(level, TRACE)
	GetLoggerManager().SetConsoleLevel(level)
}

// Default возвращает глобальный логгер
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// Trace логирует сообщение уровня TRACE в глобальный логгер
func Trace(format string, args ...interface{}) { Default().Trace(format, args...) }

// Debug логирует сообщение уровня DEBUG в глобальный логгер
func Debug(format string, args ...interface{}) { Default().Debug(format, args...) }

// Info логирует сообщение уровня INFO в глобальный логгер
func Info(format string, args ...interface{}) { Default().Info(format, args...) }

// Warn логирует сообщение уровня WARN в глобальный логгер
func Warn(format string, args ...interface{}) { Default().Warn(format, args...) }

// Error логирует сообщение уровня ERROR в глобальный логгер
func Error(format string, args ...interface{}) { Default().Error(format, args...) }

// LogTileActivation логирует открытие тайла
func LogTileActivation(x, y int, spawned int) {
	GetWorldLogger().Debug("Tile (%d,%d) opened, %d closed tiles spawned on frontier", x, y, spawned)
}
