package errors_test

import (
	stderrors "errors"
	"net/http"
	"strings"
	"testing"

	uierrors "github.com/dalemusser/organigram/internal/app/features/errors"
	"github.com/dalemusser/organigram/internal/app/system/locale"
	"github.com/dalemusser/organigram/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestHandler_Fallbacks(t *testing.T) {
	el := uierrors.NewErrorLogger(zap.NewNop(), nil, "de")
	h := uierrors.NewHandler(el)

	rec := testutil.NewRecorder()
	h.NotFound(rec, testutil.NewRequest(http.MethodGet, "/nope?locale=en"))
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertContains(t, `"Not found"`)

	rec = testutil.NewRecorder()
	el.Write(rec, testutil.NewRequest(http.MethodGet, "/api/auth/me"), http.StatusUnauthorized, locale.MsgUnauthorized, "UNAUTHENTICATED")
	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertContains(t, "Nicht angemeldet")

	rec = testutil.NewRecorder()
	h.MethodNotAllowed(rec, testutil.NewRequest(http.MethodPut, "/api/org-chart"))
	rec.AssertStatus(t, http.StatusMethodNotAllowed)
}

func TestErrorLogger_ServerErrorHidesDetails(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	el := uierrors.NewErrorLogger(zap.New(core), nil, "en")

	rec := testutil.NewRecorder()
	el.LogServerError(rec, testutil.NewRequest(http.MethodPost, "/api/auth/register"), "insert user", stderrors.New("connection reset by peer"))

	rec.AssertStatus(t, http.StatusInternalServerError)
	rec.AssertContains(t, "Something went wrong.")
	if got := rec.Body.String(); strings.Contains(got, "connection reset") {
		t.Errorf("internal error leaked: %s", got)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected one log entry, got %d", logs.Len())
	}
	if logs.All()[0].Message != "insert user" {
		t.Errorf("log message = %q", logs.All()[0].Message)
	}
}
