package http

import (
	"net/http"

	"github.com/matryer/way"

	"github.com/linkupapp/linkup/types"
)

func (h *Handler) user(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	out, err := h.Service.User(ctx, types.RetrieveUser{
		UserID: way.Param(ctx, "user_id"),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, out, http.StatusOK)
}
