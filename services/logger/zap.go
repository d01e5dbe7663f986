package logsvc

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kifolio/backend/core"
)

// ZapLogger writes structured console output; meant for CLI tools where
// rollbar reporting is just noise.
type ZapLogger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

var _ core.Logger = (*ZapLogger)(nil)

func NewZapLogger(conf *core.Config) *ZapLogger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if conf.Debug {
		level.SetLevel(zapcore.DebugLevel)
	}

	encConf := zap.NewDevelopmentEncoderConfig()
	zapCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encConf),
		zapcore.Lock(os.Stderr),
		level,
	)
	return &ZapLogger{
		sugar: zap.New(zapCore).Sugar().Named(conf.AppName),
		level: level,
	}
}

func (l *ZapLogger) Enable(enabled bool) {
	if enabled {
		l.level.SetLevel(zapcore.DebugLevel)
	} else {
		l.level.SetLevel(zapcore.FatalLevel)
	}
}

func (l *ZapLogger) Debug(msg string, args ...interface{}) { l.sugar.Debugw(msg, sweeten(args)...) }
func (l *ZapLogger) Info(msg string, args ...interface{})  { l.sugar.Infow(msg, sweeten(args)...) }
func (l *ZapLogger) Warn(msg string, args ...interface{})  { l.sugar.Warnw(msg, sweeten(args)...) }
func (l *ZapLogger) Error(msg string, args ...interface{}) { l.sugar.Errorw(msg, sweeten(args)...) }
func (l *ZapLogger) Fatal(msg string, args ...interface{}) { l.sugar.Fatalw(msg, sweeten(args)...) }

// sweeten turns loose args into zap key/value pairs; bare values (errors
// mostly) get a generic key so Sugared logging does not complain.
func sweeten(args []interface{}) []interface{} {
	if len(args)%2 == 0 {
		for i := 0; i < len(args); i += 2 {
			if _, ok := args[i].(string); !ok {
				return []interface{}{"details", args}
			}
		}
		return args
	}
	if err, ok := args[0].(error); ok && len(args) == 1 {
		return []interface{}{"error", err}
	}
	return []interface{}{"details", args}
}
