package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	kit "infokiosk/internal/transport"
)

var stdout io.Writer = os.Stdout

const defaultLogPath = "./kiosk.log"

type Config struct {
	Level   string
	Console bool
	// JSON writes raw JSON lines to the console (journald friendly).
	JSON     bool
	File     FileConfig
	Telegram TelegramConfig
}

type FileConfig struct {
	Enabled bool
	Path    string
}

// TelegramConfig controls the operator alert sink.
type TelegramConfig struct {
	Enabled  bool
	ChatID   int64
	ThreadID int
	// Label names the kiosk in every alert, usually its location.
	Label      string
	MinLevel   string
	RatePerSec int
	QueueSize  int
	// Repeat suppresses an identical alert for this long (default 10m).
	Repeat time.Duration
}

// Service owns the sinks. Loggers taken from it follow Apply.
type Service struct {
	mu   sync.Mutex
	root atomic.Pointer[zerolog.Logger]

	file     *os.File
	filePath string

	alerts *alertSink
}

// New builds the service and applies cfg. sender may be nil when no
// operator chat is configured.
func New(cfg Config, sender kit.Sender) (*Service, Logger) {
	globals()
	s := &Service{}
	boot := zerolog.New(consoleWriter(stdout)).Level(parseLevel(cfg.Level, LevelInfo)).With().Timestamp().Logger()
	s.root.Store(&boot)
	if sender != nil {
		s.alerts = newAlertSink(sender, cfg.Telegram.QueueSize)
	}
	s.Apply(cfg)
	return s, Logger{svc: s}
}

func (s *Service) current() zerolog.Logger {
	if zl := s.root.Load(); zl != nil {
		return *zl
	}
	return zerolog.Nop()
}

func (s *Service) Logger() Logger { return Logger{svc: s} }

// Apply swaps levels and sinks. The log file is only reopened when its
// path changes. Safe for concurrent use.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	writers := make([]io.Writer, 0, 3)
	if cfg.Console {
		if cfg.JSON {
			writers = append(writers, stdout)
		} else {
			writers = append(writers, consoleWriter(stdout))
		}
	}

	path := strings.TrimSpace(cfg.File.Path)
	if path == "" {
		path = defaultLogPath
	}
	if !cfg.File.Enabled || path != s.filePath {
		s.closeFile()
	}
	if cfg.File.Enabled {
		if s.file == nil {
			f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				fmt.Fprintf(os.Stderr, "logx: open log file %q: %v\n", path, err)
			} else {
				s.file, s.filePath = f, path
			}
		}
		if s.file != nil {
			writers = append(writers, zerolog.SyncWriter(s.file))
		}
	}

	if cfg.Telegram.Enabled {
		switch {
		case s.alerts == nil:
			fmt.Fprintln(os.Stderr, "logx: logging.telegram enabled without a sender")
		case cfg.Telegram.ChatID == 0:
			fmt.Fprintln(os.Stderr, "logx: logging.telegram.chat_id is not set")
		default:
			s.alerts.configure(cfg.Telegram)
			writers = append(writers, s.alerts)
		}
	}

	if len(writers) == 0 {
		writers = append(writers, consoleWriter(stdout))
	}
	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(parseLevel(cfg.Level, LevelInfo)).
		With().Timestamp().Logger()
	s.root.Store(&zl)
}

// Close flushes pending alerts (bounded) and closes the log file.
func (s *Service) Close() error {
	if s.alerts != nil {
		s.alerts.close(2 * time.Second)
	}
	s.mu.Lock()
	s.closeFile()
	s.mu.Unlock()
	return nil
}

func (s *Service) closeFile() {
	if s.file != nil {
		_ = s.file.Close()
	}
	s.file, s.filePath = nil, ""
}
