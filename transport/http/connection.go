package http

import (
	"encoding/json"
	"net/http"

	"github.com/matryer/way"

	"github.com/linkupapp/linkup/types"
)

func (h *Handler) connections(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pageArgs, err := parsePageArgs(q)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	in := types.ListConnections{PageArgs: pageArgs}
	if s := q.Get("status"); s != "" {
		status := types.ConnectionStatus(s)
		in.Status = &status
	}

	page, err := h.Service.Connections(r.Context(), in)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if page.Items == nil {
		page.Items = []types.Connection{} // non null array
	}

	h.respond(w, page, http.StatusOK)
}

func (h *Handler) pendingConnections(w http.ResponseWriter, r *http.Request) {
	pageArgs, err := parsePageArgs(r.URL.Query())
	if err != nil {
		h.respondErr(w, err)
		return
	}

	page, err := h.Service.PendingConnections(r.Context(), types.ListPendingConnections{
		PageArgs: pageArgs,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if page.Items == nil {
		page.Items = []types.Connection{} // non null array
	}

	h.respond(w, page, http.StatusOK)
}

func (h *Handler) connection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	out, err := h.Service.Connection(ctx, types.RetrieveConnection{
		ConnectionID: way.Param(ctx, "connection_id"),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, out, http.StatusOK)
}

func (h *Handler) respondToConnection(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var in types.RespondToConnection
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.respondErr(w, errBadRequest)
		return
	}

	ctx := r.Context()
	in.ConnectionID = way.Param(ctx, "connection_id")

	out, err := h.Service.RespondToConnection(ctx, in)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, out, http.StatusOK)
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var in types.SendMessage
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.respondErr(w, errBadRequest)
		return
	}

	ctx := r.Context()
	in.ConnectionID = way.Param(ctx, "connection_id")

	out, err := h.Service.SendMessage(ctx, in)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, out, http.StatusOK)
}

func (h *Handler) messages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pageArgs, err := parsePageArgs(r.URL.Query())
	if err != nil {
		h.respondErr(w, err)
		return
	}

	page, err := h.Service.Messages(ctx, types.ListMessages{
		ConnectionID: way.Param(ctx, "connection_id"),
		PageArgs:     pageArgs,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if page.Items == nil {
		page.Items = []types.Message{} // non null array
	}

	h.respond(w, page, http.StatusOK)
}
