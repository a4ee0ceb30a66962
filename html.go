/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"
)

//go:embed assets/*
var assets embed.FS

var staticTypes = map[string]string{
	".css":         "text/css; charset=utf-8",
	".html":        "text/html; charset=utf-8",
	".js":          "text/javascript; charset=utf-8",
	".svg":         "image/svg+xml",
	".webmanifest": "application/manifest+json",
}

// Crawlers that are refused the whole site.
var blockedAgents = []string{
	"Amazonbot",
	"Applebot-Extended",
	"Bytespider",
	"CCBot",
	"ClaudeBot",
	"Google-Extended",
	"GPTBot",
	"meta-externalagent",
}

func robotsPolicy() string {
	var b strings.Builder

	for i, agent := range blockedAgents {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "User-agent: %s\nDisallow: /\n", agent)
	}

	return b.String()
}

func serveHomePage(cfg *Config, boardPath string, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		body := fmt.Sprintf(`<p>Start a trivia board</p><img src="%s/qr" alt="QR code for this board" width="320" height="320">`, cfg.prefix)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		_, err := w.Write([]byte(newPage(cfg.prefix, "triviabox", cfg.prefix+boardPath, body)))
		if err != nil {
			errs <- err
		}
	}
}

func serveHealthCheck(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)

		if _, err := w.Write([]byte("Ok\n")); err != nil {
			errs <- err
		}
	}
}

// serveStatic serves files out of an embedded tree, keyed by the request
// path with the prefix removed.
func serveStatic(cfg *Config, files fs.ReadFileFS, kind string, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		name := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, cfg.prefix), "/")

		data, err := files.ReadFile(name)
		if err != nil {
			http.NotFound(w, r)
			return
		}

		if ct, ok := staticTypes[strings.ToLower(path.Ext(name))]; ok {
			w.Header().Set("Content-Type", ct)
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		if _, err := w.Write(data); err != nil {
			errs <- err
			return
		}

		cfg.log.WithFields(log.Fields{
			"kind":   kind,
			"file":   name,
			"size":   humanReadableSize(int64(len(data))),
			"remote": realIP(r),
		}).Debug("served static file")
	}
}

func serveRobots(cfg *Config, errs chan<- error) httprouter.Handle {
	policy := robotsPolicy()

	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(policy)))
		securityHeaders(cfg, w)

		if _, err := w.Write([]byte(policy)); err != nil {
			errs <- err
		}
	}
}
