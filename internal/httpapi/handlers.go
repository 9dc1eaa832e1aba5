package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/example/trip-sharing/internal/chats"
	"github.com/example/trip-sharing/internal/geo"
	"github.com/example/trip-sharing/internal/match"
	"github.com/example/trip-sharing/internal/models"
	"github.com/example/trip-sharing/internal/places"
	"github.com/example/trip-sharing/internal/search"
	"github.com/example/trip-sharing/internal/trips"
)

type createTripRequest struct {
	OwnerID              string       `json:"owner_id"`
	StartPoint           models.Coord `json:"start_point"`
	EndPoint             models.Coord `json:"end_point"`
	StartLabel           string       `json:"start_label"`
	EndLabel             string       `json:"end_label"`
	DepartureTime        time.Time    `json:"departure_time"`
	AvailableForDelivery bool         `json:"available_for_delivery"`
}

func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	var req createTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.OwnerID == "" || !validCoord(req.StartPoint) || !validCoord(req.EndPoint) {
		http.Error(w, "owner_id and valid start/end points required", http.StatusBadRequest)
		return
	}
	t := &models.Trip{
		ID:                   uuid.NewString(),
		OwnerID:              req.OwnerID,
		StartPoint:           req.StartPoint,
		EndPoint:             req.EndPoint,
		StartLabel:           req.StartLabel,
		EndLabel:             req.EndLabel,
		DepartureTime:        req.DepartureTime,
		Status:               models.TripActive,
		CreatedAt:            time.Now(),
		AvailableForDelivery: req.AvailableForDelivery,
		Requests:             []models.MatchRequest{},
	}
	if err := s.Trips.Create(r.Context(), t); err != nil {
		s.logger.Error("trip create failed", "error", err)
		http.Error(w, "could not create trip", http.StatusInternalServerError)
		return
	}
	// the indexer owns the geo projection when kafka is wired; without
	// it the API process updates the index inline
	if s.Kafka != nil {
		if err := s.Kafka.PublishTripEvent(models.TripEventCreated, t); err != nil {
			s.logger.Warn("trip event publish failed", "trip_id", t.ID, "error", err)
		}
	} else if err := s.Geo.Upsert(r.Context(), tripPoint(t)); err != nil {
		s.logger.Warn("geo upsert failed", "trip_id", t.ID, "error", err)
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	t, err := s.Trips.Get(r.Context(), mux.Vars(r)["trip_id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		http.Error(w, "owner_id required", http.StatusBadRequest)
		return
	}
	list, err := s.Trips.ListByOwner(r.Context(), ownerID)
	if err != nil {
		s.logger.Error("trip list failed", "owner_id", ownerID, "error", err)
		http.Error(w, "could not list trips", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trips": list})
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status models.TripStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	tripID := mux.Vars(r)["trip_id"]
	t, err := s.Trips.UpdateStatus(r.Context(), tripID, req.Status)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if s.Kafka != nil {
		if err := s.Kafka.PublishTripEvent(models.TripEventStatusChanged, t); err != nil {
			s.logger.Warn("trip event publish failed", "trip_id", t.ID, "error", err)
		}
	} else if t.Status.Terminal() {
		if err := s.Geo.Remove(r.Context(), t.ID); err != nil {
			s.logger.Warn("geo remove failed", "trip_id", t.ID, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleSearchNearby(w http.ResponseWriter, r *http.Request) {
	var q search.Query
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if q.RequesterID == "" {
		http.Error(w, "requester_id required", http.StatusBadRequest)
		return
	}
	cands, err := s.Search.Nearby(r.Context(), q)
	switch {
	case errors.Is(err, search.ErrBadQuery):
		http.Error(w, "invalid search query", http.StatusBadRequest)
		return
	case errors.Is(err, geo.ErrUnavailable):
		// distinct from an empty result on purpose
		s.logger.Error("geo index unavailable", "error", err)
		http.Error(w, "search unavailable", http.StatusServiceUnavailable)
		return
	case err != nil:
		s.logger.Error("search failed", "error", err)
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": cands})
}

type submitRequestBody struct {
	RequesterID      string `json:"requester_id"`
	PickupLabel      string `json:"pickup_label"`
	DestinationLabel string `json:"destination_label"`
}

func (s *Server) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	var body submitRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	t, err := s.Workflow.Submit(r.Context(), mux.Vars(r)["trip_id"], body.RequesterID, body.PickupLabel, body.DestinationLabel)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Decision models.RequestStatus `json:"decision"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	vars := mux.Vars(r)
	t, chat, err := s.Workflow.Respond(r.Context(), vars["trip_id"], vars["requester_id"], body.Decision)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	resp := map[string]any{"trip": t}
	if chat != nil {
		resp["chat"] = chat
	}
	writeJSON(w, http.StatusOK, resp)
}

type incomingRequest struct {
	TripID        string              `json:"trip_id"`
	RequesterName string              `json:"requester_name"`
	Request       models.MatchRequest `json:"request"`
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		http.Error(w, "owner_id required", http.StatusBadRequest)
		return
	}
	list, err := s.Trips.ListByOwner(r.Context(), ownerID)
	if err != nil {
		s.logger.Error("request list failed", "owner_id", ownerID, "error", err)
		http.Error(w, "could not list requests", http.StatusInternalServerError)
		return
	}
	out := []incomingRequest{}
	for _, t := range list {
		for _, req := range t.Requests {
			name, err := s.Search.Directory.GetUserName(r.Context(), req.RequesterID)
			if err != nil || name == "" {
				name = search.FallbackDisplayName
			}
			out = append(out, incomingRequest{TripID: t.ID, RequesterName: name, Request: req})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": out})
}

func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	c, err := s.Chats.Get(r.Context(), mux.Vars(r)["chat_id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	suggestions := s.Places.Autocomplete(r.Context(), r.URL.Query().Get("q"))
	if suggestions == nil {
		suggestions = []places.Suggestion{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

func (s *Server) handlePlaceDetails(w http.ResponseWriter, r *http.Request) {
	placeID := r.URL.Query().Get("place_id")
	if placeID == "" {
		http.Error(w, "place_id required", http.StatusBadRequest)
		return
	}
	p, err := s.Places.Details(r.Context(), placeID)
	if err != nil {
		s.logger.Warn("place details unavailable", "place_id", placeID, "error", err)
		http.Error(w, "place details unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleReverseGeocode(w http.ResponseWriter, r *http.Request) {
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err1 != nil || err2 != nil {
		http.Error(w, "lat and lon required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"address": s.Places.ReverseGeocode(r.Context(), lat, lon)})
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err1 != nil || err2 != nil {
		http.Error(w, "lat and lon required", http.StatusBadRequest)
		return
	}
	cond, err := s.Weather.Current(r.Context(), lat, lon)
	if err != nil {
		s.logger.Warn("weather unavailable", "error", err)
		http.Error(w, "weather unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, cond)
}

var upgrader = websocket.Upgrader{}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["user_id"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}
	s.WSReg.Add(id, conn)
	// drain the connection; once the peer closes, drop the session so
	// notices fall back to push instead of writing to a dead socket
	go func() {
		defer func() {
			s.WSReg.Remove(id)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// writeStoreError maps domain sentinels onto HTTP statuses.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, trips.ErrTripNotFound), errors.Is(err, trips.ErrRequestNotFound), errors.Is(err, chats.ErrChatNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, trips.ErrDuplicateRequest):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, trips.ErrTripNotActive), errors.Is(err, trips.ErrBadTransition):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, trips.ErrBadDecision), errors.Is(err, match.ErrBadRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error("store operation failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func tripPoint(t *models.Trip) models.TripPoint {
	return models.TripPoint{
		TripID:        t.ID,
		OwnerID:       t.OwnerID,
		Status:        t.Status,
		StartPoint:    t.StartPoint,
		EndPoint:      t.EndPoint,
		StartLabel:    t.StartLabel,
		EndLabel:      t.EndLabel,
		CreatedAt:     t.CreatedAt,
		DepartureTime: t.DepartureTime,
	}
}

func validCoord(c models.Coord) bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180 && (c.Lat != 0 || c.Lon != 0)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
