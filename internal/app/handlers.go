package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyellow/degree-planner/internal/config"
	"github.com/garyellow/degree-planner/internal/ctxutil"
	domerrors "github.com/garyellow/degree-planner/internal/errors"
	"github.com/garyellow/degree-planner/internal/profile"
	"github.com/garyellow/degree-planner/internal/requirements"
	"github.com/garyellow/degree-planner/internal/schedule"
	"github.com/garyellow/degree-planner/internal/sentry"
)

const msgInternalError = "Internal server error"

// progressResponse flattens the progress summary into the response envelope.
type progressResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	requirements.Summary
}

// errorStatus maps a domain error to an HTTP status and a metrics label.
func errorStatus(err error) (int, string) {
	switch {
	case domerrors.IsInvalidInput(err):
		return http.StatusBadRequest, "invalid_input"
	case domerrors.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case domerrors.IsConflict(err):
		return http.StatusConflict, "conflict"
	case domerrors.IsRateLimitExceeded(err):
		return http.StatusTooManyRequests, "rate_limited"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// respondError aborts the request with the {success:false, error} envelope.
// Only unexpected failures reach Sentry.
func (a *Application) respondError(c *gin.Context, module string, err error) {
	ctx := c.Request.Context()
	status, errType := errorStatus(err)
	a.metrics.RecordHTTPError(errType, module)

	body := gin.H{"success": false}
	switch status {
	case http.StatusInternalServerError:
		msg := msgInternalError
		var wrapped *domerrors.WrappedError
		if errors.As(err, &wrapped) {
			msg = wrapped.UserMessage
		}
		body["error"] = msg
		sentry.CaptureExceptionWithContext(ctx, err)
		a.logger.WithModule(module).WithError(err).ErrorContext(ctx, "Request failed")
	case http.StatusTooManyRequests:
		body["error"] = "Too many requests, please slow down"
	default:
		body["error"] = domerrors.GetUserMessage(err)
		var conflict *domerrors.ConflictError
		if errors.As(err, &conflict) {
			body["reason"] = conflict.Reason
			body["crn"] = conflict.CRN
		}
	}
	c.AbortWithStatusJSON(status, body)
}

// withOperation tags the request context with the operation name for logs
// and error reports.
func withOperation(c *gin.Context, op string) context.Context {
	ctx := ctxutil.WithOperation(c.Request.Context(), op)
	c.Request = c.Request.WithContext(ctx)
	return ctx
}

func invalidBody(err error) error {
	return domerrors.NewValidationError("body", "Invalid JSON body: "+err.Error())
}

func (a *Application) getRequirements(c *gin.Context) {
	withOperation(c, "get_requirements")
	view, err := a.catalog.Catalog().Requirements(c.Param("program"))
	if err != nil {
		a.respondError(c, "requirements", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "requirements": view})
}

func (a *Application) getProfile(c *gin.Context) {
	ctx := withOperation(c, "read_profile")
	p, err := a.profiles.Read(ctx, ctxutil.MustGetUserID(ctx))
	if err != nil {
		a.respondError(c, profile.ModuleName, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "profile": p})
}

func (a *Application) updateProfile(c *gin.Context) {
	ctx := withOperation(c, "update_profile")

	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		a.respondError(c, profile.ModuleName, invalidBody(err))
		return
	}
	updates, err := profile.ParseUpdates(raw)
	if err != nil {
		a.respondError(c, profile.ModuleName, err)
		return
	}

	res, err := a.profiles.Update(ctx, ctxutil.MustGetUserID(ctx), updates)
	if err != nil {
		a.respondError(c, profile.ModuleName, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": res.Message,
		"fields":  res.Fields,
		"profile": res.Profile,
	})
}

func (a *Application) getProgress(c *gin.Context) {
	ctx := withOperation(c, "check_progress")
	userID := ctxutil.MustGetUserID(ctx)

	p, err := a.profiles.Read(ctx, userID)
	if err != nil {
		a.respondError(c, "progress", err)
		return
	}

	start := time.Now()
	program := c.Query("program")
	summary, err := a.catalog.Catalog().CheckProgress(p.CoursesCompleted, p.Majors, p.Minors, program)
	if err != nil {
		a.respondError(c, "progress", err)
		return
	}
	a.metrics.RecordProgressDuration(time.Since(start).Seconds())
	for _, r := range summary.Programs {
		a.metrics.RecordProgressEvaluation(string(r.Kind))
	}

	res := progressResponse{Success: true, Summary: summary}
	if len(summary.Programs) == 0 && strings.TrimSpace(program) == "" {
		res.Message = "No majors or minors declared"
	}
	c.JSON(http.StatusOK, res)
}

func (a *Application) viewSchedule(c *gin.Context) {
	ctx := withOperation(c, "view_schedule")
	res, err := a.schedules.View(ctx, ctxutil.MustGetUserID(ctx))
	if err != nil {
		a.respondError(c, schedule.ModuleName, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *Application) addCourse(c *gin.Context) {
	ctx := withOperation(c, "add_course")

	var course schedule.ScheduledCourse
	if err := c.ShouldBindJSON(&course); err != nil {
		a.respondError(c, schedule.ModuleName, invalidBody(err))
		return
	}
	res, err := a.schedules.Add(ctx, ctxutil.MustGetUserID(ctx), course)
	if err != nil {
		a.respondError(c, schedule.ModuleName, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (a *Application) removeCourse(c *gin.Context) {
	ctx := withOperation(c, "remove_course")
	crn := schedule.CRN(strings.TrimSpace(c.Param("crn")))
	res, err := a.schedules.Remove(ctx, ctxutil.MustGetUserID(ctx), crn)
	if err != nil {
		a.respondError(c, schedule.ModuleName, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *Application) clearSchedule(c *gin.Context) {
	ctx := withOperation(c, "clear_schedule")
	res, err := a.schedules.Clear(ctx, ctxutil.MustGetUserID(ctx))
	if err != nil {
		a.respondError(c, schedule.ModuleName, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// reloadCatalogHandler reloads the catalog on demand. A bad catalog leaves the
// previous one active and is reported as 422.
func (a *Application) reloadCatalogHandler(c *gin.Context) {
	// The reload outlives a client disconnect; other waiters may share it.
	ctx, cancel := context.WithTimeout(ctxutil.PreserveTracing(withOperation(c, "reload_catalog")), config.CatalogReload)
	defer cancel()

	cat, shared, err := a.reloadCatalog(ctx, "http")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error":   "Catalog reload failed; previous catalog kept",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Catalog reloaded",
		"majors":    len(cat.Majors),
		"minors":    len(cat.Minors),
		"shared":    shared,
		"loaded_at": a.catalog.LoadedAt().UTC().Format(time.RFC3339),
	})
}

// reloadCatalog reloads the catalog and records the outcome. trigger is
// "http" or "signal".
func (a *Application) reloadCatalog(ctx context.Context, trigger string) (*requirements.Catalog, bool, error) {
	log := a.logger.WithModule("catalog").WithField("trigger", trigger)

	cat, shared, err := a.catalog.Reload(ctx)
	if shared {
		a.metrics.RecordSingleflightDedup("catalog")
	}
	if err != nil {
		a.metrics.RecordCatalogReload(trigger, "error")
		log.WithError(err).ErrorContext(ctx, "Catalog reload failed, keeping previous catalog")
		return nil, shared, err
	}
	a.metrics.RecordCatalogReload(trigger, "success")
	log.WithField("majors", len(cat.Majors)).
		WithField("minors", len(cat.Minors)).
		WithField("shared", shared).
		InfoContext(ctx, "Catalog reloaded")
	return cat, shared, nil
}
