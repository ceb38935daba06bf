package web

import (
	"errors"
	"net/http"

	"tlangau-server/internal/domain"
	"tlangau-server/internal/usecase"
)

type sendRingRequest struct {
	FCMTopicName string `json:"fcmTopicName"`
	BundleName   string `json:"bundleName"`
	TopicName    string `json:"topicName"`
	RingType     string `json:"ringType"`
}

func (s *Server) handleSendRing(w http.ResponseWriter, r *http.Request) {
	var req sendRingRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, _ := callerFrom(r.Context())
	outcome, err := s.notify.SendRing(r.Context(), &usecase.RingRequest{
		FCMTopicName: req.FCMTopicName,
		BundleName:   req.BundleName,
		TopicName:    req.TopicName,
		RingType:     req.RingType,
	})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidArgument):
		fail(w, http.StatusBadRequest, "Missing required fields: fcmTopicName, bundleName, topicName")
		return
	default:
		s.log.Error().Err(err).Str("sender", c.Email).Msg("ring send failed")
		fail(w, http.StatusInternalServerError, "Failed to send ring notification")
		return
	}

	s.log.Info().Str("sender", c.Email).Str("bundle", req.BundleName).Str("topic", req.TopicName).Msg("ring sent")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"messageId": firstOrEmpty(outcome.MessageIDs),
	})
}

type sendMessageRequest struct {
	FCMTopicName      string   `json:"fcmTopicName"`
	FCMTopicNames     []string `json:"fcmTopicNames"`
	BundleName        string   `json:"bundleName"`
	MessageText       string   `json:"messageText"`
	AttachmentURL     string   `json:"attachmentUrl"`
	DocumentURL       string   `json:"documentUrl"`
	DocumentName      string   `json:"documentName"`
	AudioURL          string   `json:"audioUrl"`
	AudioDuration     string   `json:"audioDuration"`
	LocationLatitude  string   `json:"locationLatitude"`
	LocationLongitude string   `json:"locationLongitude"`
	LocationAddress   string   `json:"locationAddress"`
	IsBroadcast       bool     `json:"isBroadcast"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Broadcast mode needs the broadcast service, normal mode needs message.
	required := "message"
	if req.IsBroadcast {
		required = "broadcast"
	}
	c, ok := callerFrom(r.Context())
	if !ok || !c.allows(required) {
		writeServiceDenied(w, required)
		return
	}

	topics := req.FCMTopicNames
	if len(topics) == 0 && req.FCMTopicName != "" {
		topics = []string{req.FCMTopicName}
	}

	outcome, err := s.notify.SendMessage(r.Context(), &usecase.MessageRequest{
		FCMTopicNames:     topics,
		BundleName:        req.BundleName,
		MessageText:       req.MessageText,
		AttachmentURL:     req.AttachmentURL,
		DocumentURL:       req.DocumentURL,
		DocumentName:      req.DocumentName,
		AudioURL:          req.AudioURL,
		AudioDuration:     req.AudioDuration,
		LocationLatitude:  req.LocationLatitude,
		LocationLongitude: req.LocationLongitude,
		LocationAddress:   req.LocationAddress,
		IsBroadcast:       req.IsBroadcast,
	})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidArgument):
		fail(w, http.StatusBadRequest, "Missing required fields: fcmTopicName(s), bundleName, messageText")
		return
	default:
		s.log.Error().Err(err).Str("sender", c.Email).Msg("message send failed")
		fail(w, http.StatusInternalServerError, "Failed to send message notification")
		return
	}

	s.log.Info().
		Str("sender", c.Email).
		Str("bundle", req.BundleName).
		Int("topics", len(topics)).
		Int("sent", outcome.Sent).
		Int("failed", outcome.Failed).
		Msg("message sent")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"sent":       outcome.Sent,
		"failed":     outcome.Failed,
		"messageIds": outcome.MessageIDs,
	})
}

func firstOrEmpty(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}
