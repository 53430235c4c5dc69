package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

// InitLogger initializes the structured logger with proper configuration
func InitLogger(logLevel string, isDevelopment bool) *logrus.Logger {
	log := logrus.New()

	// Override with environment if not provided
	if logLevel == "" {
		logLevel = os.Getenv("LOG_LEVEL")
		if logLevel == "" {
			if isDevelopment {
				logLevel = "debug"
			} else {
				logLevel = "info"
			}
		}
	}

	if level, err := logrus.ParseLevel(strings.ToLower(logLevel)); err == nil {
		log.SetLevel(level)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", logLevel).Warn("Invalid LOG_LEVEL, using INFO")
	}

	// Set formatter based on environment
	if !isDevelopment || strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			ForceColors:     true,
		})
	}

	log.SetOutput(os.Stdout)

	Logger = log

	return log
}

// GetLogger returns the global logger instance
func GetLogger() *logrus.Logger {
	if Logger == nil {
		return InitLogger("info", false)
	}
	return Logger
}

// WithService creates a logger with service context
func WithService(serviceName string) *logrus.Entry {
	return GetLogger().WithField("service", serviceName)
}

// WithGenerationContext scopes a logger to one roster-generation run
func WithGenerationContext(log *logrus.Logger, generationID, sport, site string) *logrus.Entry {
	if log == nil {
		log = GetLogger()
	}
	return log.WithFields(logrus.Fields{
		"generation_id": generationID,
		"sport":         sport,
		"site":          site,
	})
}

// WithSimulationContext scopes a logger to one Monte Carlo ranking run
func WithSimulationContext(log *logrus.Logger, simulationID string, numRosters int) *logrus.Entry {
	if log == nil {
		log = GetLogger()
	}
	return log.WithFields(logrus.Fields{
		"simulation_id": simulationID,
		"num_rosters":   numRosters,
	})
}

// WithRequestContext scopes a logger to one HTTP request
func WithRequestContext(log *logrus.Logger, requestID, path string) *logrus.Entry {
	if log == nil {
		log = GetLogger()
	}
	return log.WithFields(logrus.Fields{
		"request_id": requestID,
		"http_path":  path,
	})
}
