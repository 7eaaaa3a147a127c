package http

import (
	"encoding/json"
	"net/http"

	"github.com/matryer/way"

	"github.com/linkupapp/linkup/types"
)

type categoriesRespBody struct {
	Categories map[types.Category]types.CategoryInfo `json:"categories"`
	Moods      []types.Mood                          `json:"moods"`
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	h.respond(w, categoriesRespBody{
		Categories: types.Categories,
		Moods:      types.Moods,
	}, http.StatusOK)
}

func (h *Handler) createActivity(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var in types.CreateActivity
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.respondErr(w, errBadRequest)
		return
	}

	out, err := h.Service.CreateActivity(r.Context(), in)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, out, http.StatusOK)
}

func (h *Handler) activity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	out, err := h.Service.Activity(ctx, types.RetrieveActivity{
		ActivityID: way.Param(ctx, "activity_id"),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, out, http.StatusOK)
}

func (h *Handler) userActivities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	pageArgs, err := parsePageArgs(q)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	in := types.ListActivities{
		UserID:   way.Param(ctx, "user_id"),
		PageArgs: pageArgs,
	}

	if s := q.Get("status"); s != "" {
		status := types.ActivityStatus(s)
		in.Status = &status
	}

	page, err := h.Service.Activities(ctx, in)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if page.Items == nil {
		page.Items = []types.Activity{} // non null array
	}

	h.respond(w, page, http.StatusOK)
}

func (h *Handler) updateActivity(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var in types.UpdateActivity
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.respondErr(w, errBadRequest)
		return
	}

	ctx := r.Context()
	in.ActivityID = way.Param(ctx, "activity_id")

	out, err := h.Service.UpdateActivity(ctx, in)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, out, http.StatusOK)
}

func (h *Handler) cancelActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	err := h.Service.CancelActivity(ctx, types.CancelActivity{
		ActivityID: way.Param(ctx, "activity_id"),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, okRespBody{OK: true}, http.StatusOK)
}

func (h *Handler) nearbyActivities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := parseFloat(q.Get("lat"))
	if err != nil {
		h.respondErr(w, err)
		return
	}

	lon, err := parseFloat(q.Get("lon"))
	if err != nil {
		h.respondErr(w, err)
		return
	}

	in := types.NearbyActivities{
		Lat:           lat,
		Lon:           lon,
		ExcludeUserID: emptyStrPtr(q.Get("exclude_user_id")),
	}

	if s := q.Get("radius_km"); s != "" {
		if in.RadiusKm, err = parseFloat(s); err != nil {
			h.respondErr(w, err)
			return
		}
	}
	if s := q.Get("limit"); s != "" {
		limit, err := parseFloat(s)
		if err != nil {
			h.respondErr(w, err)
			return
		}
		in.Limit = int32(limit)
	}
	if s := q.Get("category"); s != "" {
		category := types.Category(s)
		in.Category = &category
	}
	if s := q.Get("mood"); s != "" {
		mood := types.Mood(s)
		in.Mood = &mood
	}

	out, err := h.Service.NearbyActivities(r.Context(), in)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if out == nil {
		out = []types.NearbyActivity{} // non null array
	}

	h.respond(w, out, http.StatusOK)
}

func (h *Handler) matchActivities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := parseFloat(q.Get("lat"))
	if err != nil {
		h.respondErr(w, err)
		return
	}

	lon, err := parseFloat(q.Get("lon"))
	if err != nil {
		h.respondErr(w, err)
		return
	}

	in := types.MatchActivities{
		Lat:      lat,
		Lon:      lon,
		Category: types.Category(q.Get("category")),
	}

	if s := q.Get("radius_km"); s != "" {
		if in.RadiusKm, err = parseFloat(s); err != nil {
			h.respondErr(w, err)
			return
		}
	}
	if s := q.Get("time_window_hours"); s != "" {
		hours, err := parseFloat(s)
		if err != nil {
			h.respondErr(w, err)
			return
		}
		in.TimeWindowHours = int32(hours)
	}

	out, err := h.Service.MatchActivities(r.Context(), in)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, out, http.StatusOK)
}

type joinRespBody struct {
	Activity   types.Activity   `json:"activity"`
	Connection types.Connection `json:"connection"`
}

func (h *Handler) joinActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	activity, connection, err := h.Service.JoinActivity(ctx, types.JoinActivity{
		ActivityID: way.Param(ctx, "activity_id"),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, joinRespBody{
		Activity:   activity,
		Connection: connection,
	}, http.StatusOK)
}

func (h *Handler) leaveActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	err := h.Service.LeaveActivity(ctx, types.LeaveActivity{
		ActivityID: way.Param(ctx, "activity_id"),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, okRespBody{OK: true}, http.StatusOK)
}

func (h *Handler) participants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	out, err := h.Service.Participants(ctx, types.RetrieveActivity{
		ActivityID: way.Param(ctx, "activity_id"),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, out, http.StatusOK)
}

func (h *Handler) activityStats(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.ActivityStats(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, out, http.StatusOK)
}

type cleanupRespBody struct {
	Swept int64 `json:"swept"`
}

func (h *Handler) cleanup(w http.ResponseWriter, r *http.Request) {
	swept, err := h.Service.SweepExpired(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, cleanupRespBody{Swept: swept}, http.StatusOK)
}
