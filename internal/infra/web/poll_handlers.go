package web

import (
	"errors"
	"net/http"
	"time"

	"tlangau-server/internal/domain"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handlePollList(w http.ResponseWriter, r *http.Request) {
	polls, err := s.polls.List(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("listing polls failed")
		fail(w, http.StatusInternalServerError, "Failed to list polls")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true, "polls": polls, "count": len(polls),
	})
}

func (s *Server) handlePollGet(w http.ResponseWriter, r *http.Request) {
	poll, err := s.polls.Get(r.Context(), chi.URLParam(r, "pollID"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			fail(w, http.StatusNotFound, "Poll not found")
			return
		}
		s.log.Error().Err(err).Msg("poll lookup failed")
		fail(w, http.StatusInternalServerError, "Failed to load poll")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "poll": poll})
}

type pollVoteRequest struct {
	OptionID *int `json:"optionId"`
}

func (s *Server) handlePollVote(w http.ResponseWriter, r *http.Request) {
	var req pollVoteRequest
	if err := decodeBody(r, &req); err != nil || req.OptionID == nil {
		fail(w, http.StatusBadRequest, "optionId is required")
		return
	}

	c, _ := callerFrom(r.Context())
	err := s.polls.Vote(r.Context(), chi.URLParam(r, "pollID"), *req.OptionID, c.Email)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		fail(w, http.StatusNotFound, "Poll not found")
		return
	case errors.Is(err, domain.ErrAlreadyVoted):
		fail(w, http.StatusConflict, "You have already voted on this poll")
		return
	case errors.Is(err, domain.ErrInvalidArgument):
		fail(w, http.StatusBadRequest, "Invalid option or the poll is not open for voting")
		return
	default:
		s.log.Error().Err(err).Msg("poll vote failed")
		fail(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Vote recorded"})
}

func (s *Server) handlePollMyVote(w http.ResponseWriter, r *http.Request) {
	c, _ := callerFrom(r.Context())
	choice, err := s.polls.VoterChoice(r.Context(), chi.URLParam(r, "pollID"), c.Email)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "voted": false})
		return
	default:
		s.log.Error().Err(err).Msg("voter choice lookup failed")
		fail(w, http.StatusInternalServerError, "Failed to look up vote")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true, "voted": true, "optionId": choice,
	})
}

type pollCreateRequest struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CreatedBy    string   `json:"createdBy"`
	ExpiresAt    string   `json:"expiresAt"`
	DurationType string   `json:"durationType"`
}

func (s *Server) handleAdminPollCreate(w http.ResponseWriter, r *http.Request) {
	var req pollCreateRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			fail(w, http.StatusBadRequest, "expiresAt must be RFC 3339")
			return
		}
		expiresAt = &t
	}

	poll, err := s.polls.Create(r.Context(), req.Question, req.Options, req.CreatedBy, expiresAt, req.DurationType)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			fail(w, http.StatusBadRequest, "A question and at least two options are required")
			return
		}
		s.log.Error().Err(err).Msg("poll creation failed")
		fail(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "poll": poll})
}

type pollCloseRequest struct {
	PublishResults bool `json:"publishResults"`
}

func (s *Server) handleAdminPollClose(w http.ResponseWriter, r *http.Request) {
	var req pollCloseRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.polls.Close(r.Context(), chi.URLParam(r, "pollID"), req.PublishResults); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			fail(w, http.StatusNotFound, "Poll not found")
			return
		}
		s.log.Error().Err(err).Msg("closing poll failed")
		fail(w, http.StatusInternalServerError, "Failed to close poll")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Poll closed"})
}

func (s *Server) handleAdminPollDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.polls.Delete(r.Context(), chi.URLParam(r, "pollID")); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			fail(w, http.StatusNotFound, "Poll not found")
			return
		}
		s.log.Error().Err(err).Msg("deleting poll failed")
		fail(w, http.StatusInternalServerError, "Failed to delete poll")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Poll deleted"})
}
