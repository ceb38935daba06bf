package web

import (
	"errors"
	"net/http"

	"tlangau-server/internal/domain"

	"github.com/go-chi/chi/v5"
)

type adminLoginRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := decodeBody(r, &req); err != nil || req.Password == "" {
		fail(w, http.StatusBadRequest, "Password is required")
		return
	}

	if !s.auth.CheckPassword(req.Password) {
		s.log.Warn().Str("remote", r.RemoteAddr).Msg("failed admin login")
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"success": false, "error": "Invalid password",
		})
		return
	}

	token, err := s.auth.Mint(w)
	if err != nil {
		s.log.Error().Err(err).Msg("minting admin session failed")
		fail(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	s.log.Info().Str("remote", r.RemoteAddr).Msg("admin login")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Login successful",
		"token":   token,
	})
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Clear(w)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Logged out"})
}

func (s *Server) handleAdminOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.admin.ListOrders(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("listing orders failed")
		fail(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true, "orders": orders, "count": len(orders),
	})
}

func (s *Server) handleAdminAccessCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := s.admin.ListAccessCodes(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("listing access codes failed")
		fail(w, http.StatusInternalServerError, "Failed to list access codes")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true, "codes": codes, "count": len(codes),
	})
}

func (s *Server) handleAdminDeleteCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if err := s.admin.DeleteAccessCode(r.Context(), code); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			fail(w, http.StatusNotFound, "Access code not found")
			return
		}
		s.log.Error().Err(err).Msg("deleting access code failed")
		fail(w, http.StatusInternalServerError, "Failed to delete access code")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Access code deleted"})
}

func (s *Server) handleAdminDeleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if err := s.admin.DeleteOrder(r.Context(), orderID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			fail(w, http.StatusNotFound, "Order not found")
			return
		}
		s.log.Error().Err(err).Msg("deleting order failed")
		fail(w, http.StatusInternalServerError, "Failed to delete order")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Order deleted"})
}

func (s *Server) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	res, err := s.admin.DeleteUserData(r.Context(), email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			fail(w, http.StatusNotFound, "No data found for this user")
			return
		}
		s.log.Error().Err(err).Msg("deleting user data failed")
		fail(w, http.StatusInternalServerError, "Failed to delete user data")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"message":       "User data deleted",
		"ordersDeleted": res.OrdersDeleted,
		"codesDeleted":  res.CodesDeleted,
	})
}

func (s *Server) handleAdminStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.admin.Statistics(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("computing statistics failed")
		fail(w, http.StatusInternalServerError, "Failed to compute statistics")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "statistics": stats})
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.admin.ListUsers(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("listing users failed")
		fail(w, http.StatusInternalServerError, "Failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true, "users": users, "count": len(users),
	})
}

type resendEmailRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleAdminResendEmail(w http.ResponseWriter, r *http.Request) {
	var req resendEmailRequest
	if err := decodeBody(r, &req); err != nil || req.Email == "" {
		fail(w, http.StatusBadRequest, "email is required")
		return
	}

	code, err := s.admin.ResendEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			fail(w, http.StatusNotFound, "No access code found for this email")
			return
		}
		// Mail failure still surfaces the code so the operator can relay it.
		if code != "" {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success": false,
				"message": "Email delivery failed; code returned for manual delivery",
				"code":    code,
			})
			return
		}
		s.log.Error().Err(err).Msg("resending access code failed")
		fail(w, http.StatusInternalServerError, "Failed to resend email")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Access code email re-sent",
		"code":    code,
	})
}

func (s *Server) handleAdminBundles(w http.ResponseWriter, r *http.Request) {
	bundles, err := s.admin.ListBundles(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("listing bundles failed")
		fail(w, http.StatusInternalServerError, "Failed to list bundles")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true, "bundles": bundles, "count": len(bundles),
	})
}

func (s *Server) handleAdminDeleteBundle(w http.ResponseWriter, r *http.Request) {
	bundleID := chi.URLParam(r, "bundleID")
	if err := s.admin.DeleteBundle(r.Context(), bundleID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			fail(w, http.StatusNotFound, "Bundle not found")
			return
		}
		s.log.Error().Err(err).Msg("deleting bundle failed")
		fail(w, http.StatusInternalServerError, "Failed to delete bundle")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Bundle deleted"})
}

func (s *Server) handleAdminDeleteTopic(w http.ResponseWriter, r *http.Request) {
	bundleID := chi.URLParam(r, "bundleID")
	topicID := chi.URLParam(r, "topicID")
	if err := s.admin.DeleteTopic(r.Context(), bundleID, topicID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			fail(w, http.StatusNotFound, "Bundle or topic not found")
			return
		}
		s.log.Error().Err(err).Msg("deleting topic failed")
		fail(w, http.StatusInternalServerError, "Failed to delete topic")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Topic deleted"})
}
