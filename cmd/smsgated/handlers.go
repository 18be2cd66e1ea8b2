package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pefocdelemne/ratelimit/core/logger"
	"github.com/pefocdelemne/ratelimit/core/response"
	"github.com/pefocdelemne/ratelimit/pkg/phone"
)

type smsRequest struct {
	PhoneNumber      string `json:"phone_number"`
	VerificationCode string `json:"verification_code,omitempty"`
}

// handleVerify accepts a verification-code request. Dispatching the
// actual SMS is left to the messaging provider integration; the
// handler is the protected surface the gate in front of it meters.
func handleVerify(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req smsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			_ = response.Fail(w, response.ErrBadRequest.WithMessage("Invalid JSON payload."))
			return
		}

		number := phone.Normalize(req.PhoneNumber)
		if number == "" {
			_ = response.Fail(w, response.ErrBadRequest.WithMessage("Missing required field: phone_number."))
			return
		}

		log.InfoContext(r.Context(), "verification code requested",
			logger.Component("sms"),
			slog.String("phone", phone.Mask(number)),
		)

		_ = response.OK(w, map[string]any{
			"phone_number": phone.Mask(number),
			"message":      "Verification code sent.",
		})
	}
}

// handleConfirm accepts a code confirmation request.
func handleConfirm(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req smsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			_ = response.Fail(w, response.ErrBadRequest.WithMessage("Invalid JSON payload."))
			return
		}

		number := phone.Normalize(req.PhoneNumber)
		if number == "" {
			_ = response.Fail(w, response.ErrBadRequest.WithMessage("Missing required field: phone_number."))
			return
		}
		if req.VerificationCode == "" {
			_ = response.Fail(w, response.ErrBadRequest.WithMessage("Missing required field: verification_code."))
			return
		}

		log.InfoContext(r.Context(), "verification code confirmed",
			logger.Component("sms"),
			slog.String("phone", phone.Mask(number)),
		)

		_ = response.OK(w, map[string]any{
			"phone_number": phone.Mask(number),
			"confirmed":    true,
		})
	}
}

// handleHealth reports service liveness plus the health of the
// configured rate-limit backend.
func handleHealth(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				_ = response.Fail(w, response.ErrServiceUnavailable.WithError(err))
				return
			}
		}
		_ = response.OK(w, map[string]string{"status": "ok"})
	}
}
