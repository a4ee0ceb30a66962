/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"html"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

var (
	ErrInvalidBoardShape = errors.New("invalid board shape")
	ErrIndexOutOfRange   = errors.New("cell index out of range")
)

// NetworkError reports a failed or malformed call to the remote clue API.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func newLogger(cfg *Config) *log.Logger {
	logger := log.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: logDate,
	})

	if cfg.verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}

	return logger
}

func newPage(prefix, title, href, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(faviconLinks(prefix))
	fmt.Fprintf(&htmlBody, `<link rel="stylesheet" href="%s/assets/app.css">`, prefix)
	fmt.Fprintf(&htmlBody, "<title>%s</title></head>", html.EscapeString(title))
	fmt.Fprintf(&htmlBody, `<body class="page"><a href="%s">%s</a></body></html>`, html.EscapeString(href), body)

	return htmlBody.String()
}
