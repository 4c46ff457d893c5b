package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/ctxutil"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/logger"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/requestdata"
)

// RequestLogger emits one line per request after the handler chain finishes,
// so every id patched into the carrier along the way is included.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		td := ctxutil.GetTraceData(c.Request.Context())
		rd := requestdata.Get(c.Request.Context())

		fields := []interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if td != nil {
			if td.TraceID != "" {
				fields = append(fields, "trace_id", td.TraceID)
			}
			if td.RequestID != "" {
				fields = append(fields, "request_id", td.RequestID)
			}
		}
		if rd != nil {
			if rd.UserID != uuid.Nil {
				fields = append(fields, "user_id", rd.UserID.String())
			}
			if rd.SessionID != uuid.Nil {
				fields = append(fields, "session_id", rd.SessionID.String())
			}
			if rd.QuestID != uuid.Nil {
				fields = append(fields, "quest_id", rd.QuestID.String())
			}
			if rd.ChapterID != uuid.Nil {
				fields = append(fields, "chapter_id", rd.ChapterID.String())
			}
			if rd.JobID != uuid.Nil {
				fields = append(fields, "job_id", rd.JobID.String())
			}
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
