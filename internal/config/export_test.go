package config

import "time"

func NewClientForTest(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, timeout: timeout}
}

func NewCacheForTest(stale, retain time.Duration) *Cache {
	return &Cache{stale: stale, retain: retain}
}

func NewUIForTest(theme string, pageSize int) *UI {
	return &UI{theme: theme, pageSize: pageSize}
}

func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

func NewSourceForTest(path string) *Source {
	return &Source{path: path}
}
