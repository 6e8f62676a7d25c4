package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"vgp_platform/internal/common"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a bounded JSON body and rejects unknown fields. It writes
// the 400 itself and reports whether the handler may continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		common.RespondWithDomainError(w, fmt.Errorf("invalid request payload: %v: %w", err, common.ErrValidation))
		return false
	}
	return true
}
