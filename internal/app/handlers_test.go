package app

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/garyellow/degree-planner/internal/errors"
	"github.com/garyellow/degree-planner/internal/profile"
	"github.com/garyellow/degree-planner/internal/storage"
)

func TestErrorStatus(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"validation", domerrors.NewValidationError("name", "too long"), http.StatusBadRequest, "invalid_input"},
		{"not found", domerrors.NewNotFoundError("course", "1", ""), http.StatusNotFound, "not_found"},
		{"conflict", domerrors.NewConflictError(domerrors.ReasonDuplicateCRN, "1", "dup"), http.StatusConflict, "conflict"},
		{"rate limit", domerrors.ErrRateLimitExceeded, http.StatusTooManyRequests, "rate_limited"},
		{
			"wrapped storage failure",
			domerrors.NewWrapper("profile", "update").Wrap(errors.New("disk full"), "Failed to save profile"),
			http.StatusInternalServerError, "internal",
		},
		{"wrapped validation", domerrors.NewWrapper("profile", "update").Wrap(domerrors.ErrInvalidInput, "bad"), http.StatusBadRequest, "invalid_input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			status, typ := errorStatus(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantType, typ)
		})
	}
}

// brokenStore fails every profile read.
type brokenStore struct {
	storage.Store
}

func (brokenStore) GetProfile(context.Context, string) (*profile.Profile, error) {
	return nil, errors.New("disk on fire")
}

func TestRespondError_Internal(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t, testConfig(), nil)
	app.store = brokenStore{Store: app.store}
	app.profiles = profile.NewService(app.store, func() profile.Programs { return app.catalog.Catalog() }, nil, app.metrics, app.logger)

	w := serve(t, app, http.MethodGet, "/api/v1/users/zoe/profile", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Failed to load profile", body["error"])
	assert.NotContains(t, w.Body.String(), "disk on fire")
	assert.InDelta(t, 1, testutil.ToFloat64(app.metrics.HTTPErrorsTotal.WithLabelValues("internal", profile.ModuleName)), 0)
}
