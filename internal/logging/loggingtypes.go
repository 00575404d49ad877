package logging

import (
	"sync"

	"github.com/samborkent/uuidv7"
	"go.uber.org/zap"
)

var correlationMutex sync.RWMutex
var currentCorrelationIds = make(map[string]string)

// GetLogType creates the key/value slice passed to the Log* functions.
// It takes up to 3 arguments: subType, contextId1 and correlationId.
// When no correlationId is given, the id of a running StartCorrelation for subType is attached.
func GetLogType(logType ...string) []any {
	var temp []any
	for i, value := range logType {
		switch i {
		case 0:
			temp = append(temp, "subType", value)
		case 1:
			temp = append(temp, "contextId1", value)
		case 2:
			if len(value) > 0 {
				temp = append(temp, "correlationId", value)
			}
		default:
			zap.S().Warnf("GetLogType: parameter %d unknown: %v", i+1, value)
		}
	}

	if len(logType) > 0 && len(logType) < 3 {
		correlationMutex.RLock()
		if val, ok := currentCorrelationIds[logType[0]]; ok {
			temp = append(temp, "correlationId", val)
		}
		correlationMutex.RUnlock()
	}
	return temp
}

// StartCorrelation assigns a fresh correlation id to every log line of subType
// until EndCorrelation is called
func StartCorrelation(subType string) string {
	id := uuidv7.New().String()
	correlationMutex.Lock()
	currentCorrelationIds[subType] = id
	correlationMutex.Unlock()
	return id
}

func EndCorrelation(subType string) {
	correlationMutex.Lock()
	delete(currentCorrelationIds, subType)
	correlationMutex.Unlock()
}

func GetLogTypeInitialization() []any {
	return GetLogType("initialization")
}

func GetLogTypeHousekeeping() []any {
	return GetLogType("housekeeping")
}

func GetLogTypeEditor(sessionId string) []any {
	return GetLogType("editor", sessionId)
}

func GetLogTypeContent() []any {
	return GetLogType("content")
}

func GetLogTypeAuth() []any {
	return GetLogType("auth")
}

func GetLogTypeMedia() []any {
	return GetLogType("media")
}
