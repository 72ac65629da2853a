package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/partfinderz-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/partfinderz-backend/pkg/errors"
)

func userFromRequest(r *http.Request) (uuid.UUID, error) {
	userID := middleware.UserUUIDFromContext(r.Context())
	if userID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return userID, nil
}
