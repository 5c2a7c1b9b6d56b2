package logger

// The global file and JSONL loggers are swapped under their own locks so a
// re-init closes the previous file before the new one takes over.

func initGlobalFileLogger(fl *FileLogger) {
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()

	if globalFileLogger != nil {
		globalFileLogger.Close()
	}
	globalFileLogger = fl
}

func closeGlobalFileLogger() error {
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()

	if globalFileLogger == nil {
		return nil
	}
	err := globalFileLogger.Close()
	globalFileLogger = nil
	return err
}

func initGlobalJSONLLogger(jl *JSONLLogger) {
	globalJSONLMu.Lock()
	defer globalJSONLMu.Unlock()

	if globalJSONLLogger != nil {
		globalJSONLLogger.Close()
	}
	globalJSONLLogger = jl
}

func closeGlobalJSONLLogger() error {
	globalJSONLMu.Lock()
	defer globalJSONLMu.Unlock()

	if globalJSONLLogger == nil {
		return nil
	}
	err := globalJSONLLogger.Close()
	globalJSONLLogger = nil
	return err
}
