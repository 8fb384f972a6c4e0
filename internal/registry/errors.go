package registry

import (
	"errors"

	"github.com/nmos-cm/connection-core/internal/apierr"
	"github.com/nmos-cm/connection-core/internal/paramset"
	"github.com/nmos-cm/connection-core/internal/transceiver"
)

// translateStateError maps a TransceiverState error onto the HTTP-facing
// apierr.Kind the error handling design assigns it.
func translateStateError(err error) error {
	switch {
	case errors.Is(err, transceiver.ErrStagedLocked):
		return apierr.New(apierr.KindStagedLocked, err.Error())
	case errors.Is(err, transceiver.ErrInvalidUUID):
		return apierr.New(apierr.KindValidation, err.Error())
	case errors.Is(err, transceiver.ErrLegCount):
		return apierr.New(apierr.KindValidation, err.Error())
	default:
		var ufe *paramset.UnknownFieldError
		if errors.As(err, &ufe) {
			return apierr.New(apierr.KindValidation, err.Error())
		}
		var cv *transceiver.ErrConstraintViolation
		if errors.As(err, &cv) {
			return apierr.New(apierr.KindValidation, err.Error())
		}
		var sv *transceiver.ErrSchemaViolation
		if errors.As(err, &sv) {
			return apierr.New(apierr.KindValidation, err.Error())
		}
		return apierr.New(apierr.KindValidation, err.Error())
	}
}
