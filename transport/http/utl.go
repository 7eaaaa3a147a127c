package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"syscall"

	goerrs "github.com/nicolasparada/go-errs"
	"github.com/nicolasparada/go-errs/httperrs"

	"github.com/linkupapp/linkup/errs"
	"github.com/linkupapp/linkup/types"
	"github.com/linkupapp/linkup/validator"
)

var errBadRequest = goerrs.InvalidArgumentError("bad request")

type errRespBody struct {
	Error string `json:"error"`
}

type okRespBody struct {
	OK bool `json:"ok"`
}

func (h *Handler) respond(w http.ResponseWriter, v any, statusCode int) {
	b, err := json.Marshal(v)
	if err != nil {
		h.respondErr(w, fmt.Errorf("could not json marshal http response body: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write(b); err != nil && !errors.Is(err, syscall.EPIPE) && !errors.Is(err, context.Canceled) {
		h.Logger.Error("write http response", "err", err)
	}
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	statusCode := err2code(err)
	if statusCode == http.StatusInternalServerError {
		// Store internals never reach the caller.
		if !errors.Is(err, context.Canceled) {
			h.Logger.Error("internal error", "err", err)
		}
		h.respond(w, errRespBody{Error: "internal server error"}, statusCode)
		return
	}

	h.respond(w, errRespBody{Error: err.Error()}, statusCode)
}

// err2code maps domain errors onto the API contract. State conflicts
// respond 400, not the 409 the error kind would suggest, matching the
// published contract.
func err2code(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var v *validator.Validator
	if errors.As(err, &v) {
		return http.StatusBadRequest
	}

	var invalidArgument goerrs.InvalidArgumentError
	if errors.As(err, &invalidArgument) {
		return http.StatusBadRequest
	}

	switch {
	case errors.Is(err, errs.ActivityNotActive),
		errors.Is(err, errs.AlreadyJoined),
		errors.Is(err, errs.ActivityFull),
		errors.Is(err, errs.CreatorCannotLeave),
		errors.Is(err, errs.NotParticipant),
		errors.Is(err, errs.ChatNotEnabled),
		errors.Is(err, errs.AlreadyResponded):
		return http.StatusBadRequest
	}

	return httperrs.Code(err)
}

func parsePageArgs(q interface{ Get(string) string }) (types.PageArgs, error) {
	var out types.PageArgs

	if s := q.Get("first"); s != "" {
		first, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return out, goerrs.InvalidArgumentError("invalid first")
		}
		f := uint(first)
		out.First = &f
	}

	if s := q.Get("after"); s != "" {
		after := s
		out.After = &after
	}

	return out, nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errBadRequest
	}
	return f, nil
}

func emptyStrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
