package server

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"webchat/apperrors"
	"webchat/pkg/logger"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"gopkg.in/natefinch/lumberjack.v2"
)

// setupLogging installs the HTTP request logger. Requests go to stdout, or
// to a rotated access log next to the application log file.
func setupLogging(app *fiber.App, logFile string) error {
	var out io.Writer = os.Stdout
	if logFile != "" && logFile != "stdout" && logFile != "-" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			return err
		}
		out = &lumberjack.Logger{
			Filename:   accessLogPath(logFile),
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     14,
			Compress:   true,
		}
	}

	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
		Output:     out,
	}))
	return nil
}

// accessLogPath turns log/app.log into log/app.access.log
func accessLogPath(logFile string) string {
	ext := filepath.Ext(logFile)
	return strings.TrimSuffix(logFile, ext) + ".access" + ext
}

// setupErrorLogging routes error handler output through the app logger
func setupErrorLogging() apperrors.Printer {
	return logger.WithComponent("http")
}
