package httpapi

import (
	"errors"
	"net/http"

	"github.com/hive-mind/coordinator/internal/hiveerr"
)

// writeHiveErr maps a hiveerr.Code to an HTTP status line, per the error
// taxonomy table in internal/hiveerr.
func writeHiveErr(w http.ResponseWriter, err error) {
	var herr *hiveerr.Error
	if !errors.As(err, &herr) {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusInternalServerError
	switch herr.Code {
	case hiveerr.InvalidRequest, hiveerr.CyclicDependency, hiveerr.UnknownDependency, hiveerr.UnsatisfiableCapability:
		status = http.StatusBadRequest
	case hiveerr.UnknownEntity, hiveerr.NamespaceUnknown:
		status = http.StatusNotFound
	case hiveerr.Busy:
		status = http.StatusConflict
	case hiveerr.CapacityExceeded:
		status = http.StatusTooManyRequests
	case hiveerr.QueryTimeout:
		status = http.StatusGatewayTimeout
	case hiveerr.StoreUnavailable, hiveerr.SchemaIncompatible:
		status = http.StatusServiceUnavailable
	case hiveerr.InternalInvariant:
		status = http.StatusInternalServerError
	}
	respondError(w, status, herr.Error())
}
