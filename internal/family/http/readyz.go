package http

import (
	"net/http"
	"time"

	"github.com/kinfolkhq/kinfolk/internal/family/store"
	"github.com/kinfolkhq/kinfolk/pkg/familysdk"
	"github.com/kinfolkhq/kinfolk/pkg/httpx"
	"github.com/kinfolkhq/kinfolk/pkg/jwtx"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Probe Endpoint
//	@Description	Reports whether the service can take traffic by probing its critical
//	@Description	dependencies: database connectivity and loaded signing keys.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	familysdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	familysdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	keys *jwtx.KeySet,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &familysdk.HealthChecks{Database: "ok", Signer: "ok"}

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
		}
		if !keys.IsReady() {
			checks.Signer = "error: no keys loaded"
		}

		status, code := "ok", http.StatusOK
		if checks.Database != "ok" || checks.Signer != "ok" {
			status, code = "degraded", http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, familysdk.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
