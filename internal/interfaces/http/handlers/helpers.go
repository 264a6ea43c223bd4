package handlers

import (
	"encoding/json"
	"net/http"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/interfaces/http/dto"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

var kindStatus = map[domainErrors.Kind]int{
	domainErrors.KindInvalidArgument:    http.StatusBadRequest,
	domainErrors.KindNotFound:           http.StatusNotFound,
	domainErrors.KindFailedPrecondition: http.StatusPreconditionFailed,
	domainErrors.KindAborted:            http.StatusConflict,
	domainErrors.KindCancelled:          http.StatusConflict,
	domainErrors.KindAlreadyExists:      http.StatusConflict,
	domainErrors.KindUnavailable:        http.StatusServiceUnavailable,
	domainErrors.KindUnknown:            http.StatusInternalServerError,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	kind := domainErrors.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if kind == domainErrors.KindUnknown {
		log.Error().Err(err).Msg("unhandled error in handler")
	}
	writeJSON(w, status, dto.ErrorResponse{Error: err.Error(), Code: string(kind)})
}

func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domainErrors.Wrap(domainErrors.KindInvalidArgument, "invalid JSON body", err)
	}
	if err := validate.Struct(dst); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			return domainErrors.Newf(domainErrors.KindInvalidArgument, "%s failed %s validation", ve[0].Field(), ve[0].Tag())
		}
		return domainErrors.Wrap(domainErrors.KindInvalidArgument, "invalid request", err)
	}
	return nil
}
