package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/imovlocal/backend/internal/api/middleware"
	"github.com/imovlocal/backend/internal/domain/user"
	"github.com/imovlocal/backend/internal/pkg/errors"
	"github.com/imovlocal/backend/internal/pkg/logger"
	"github.com/imovlocal/backend/internal/pkg/utils"
	"github.com/imovlocal/backend/internal/pkg/validator"
)

// maxJSONBody bounds request bodies that are not file uploads
const maxJSONBody = 1 << 20

// currentUser returns the authenticated caller or writes 401
func currentUser(w http.ResponseWriter, r *http.Request) (*user.User, bool) {
	u, ok := middleware.GetUser(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("Authentication required"))
		return nil, false
	}
	return u, true
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags
func decodeAndValidate(w http.ResponseWriter, r *http.Request, val *validator.Validator, dst interface{}) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return false
	}
	if err := val.Check(dst); err != nil {
		utils.WriteError(w, err)
		return false
	}
	return true
}

// respondError logs unexpected failures and renders err. Client errors are
// not logged here; the access log already records them.
func respondError(w http.ResponseWriter, log *logger.Logger, err error, msg string) {
	appErr, ok := errors.As(err)
	if !ok || appErr.StatusCode >= http.StatusInternalServerError {
		log.ErrorWithErr(err, msg)
	}
	utils.WriteError(w, err)
}

// emptyIfNil keeps list responses as [] instead of null
func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
