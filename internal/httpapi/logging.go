package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, score logging is off.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

func logScore(r *http.Request, status int, dur time.Duration, err error) {
	if zlog == nil {
		return
	}
	ev := zlog.Info().Str("path", r.URL.Path).Int("status", status).Dur("dur", dur)
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		ev = ev.Str("request_id", rid)
	}
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("score")
}
