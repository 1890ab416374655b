package observability

import (
	"os"

	"github.com/hjeldin/dive-computer-proto/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger installs a console logger tagged with app as the global logger.
func InitLogger(app string, cfg logging.Config) zerolog.Logger {
	logger := logging.NewLogger(os.Stderr, cfg).With().Str("app", app).Logger()
	zerolog.SetGlobalLevel(cfg.Level)
	log.Logger = logger
	return logger
}
