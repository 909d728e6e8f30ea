package http

import (
	"net/http"

	"github.com/kinfolkhq/kinfolk/pkg/familysdk"
	"github.com/kinfolkhq/kinfolk/pkg/httpx"
	"github.com/kinfolkhq/kinfolk/pkg/jwtx"
)

// JWKSHandler publishes the public halves of the signing keys. Partner
// services fetch this endpoint so they can verify access tokens locally
// instead of calling back into the family service.
//
//	@Summary		JSON Web Key Set
//	@Description	Returns the public signing keys used to verify access tokens,
//	@Description	including retired keys still inside their verification grace period.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	familysdk.JWKSResponse	"The current key set"
//	@Router			/.well-known/jwks.json [get].
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, familysdk.JWKSResponse(keys.PublicJWKS()))
	}
}
