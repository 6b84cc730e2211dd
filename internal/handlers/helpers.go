package handlers

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"garagebill/internal/common"
)

// ownerFrom returns the owner of the authenticated caller, or writes a 401
// and returns ok=false.
func ownerFrom(c echo.Context) (uuid.UUID, bool, error) {
	session, ok := common.GetSessionFromContext(c.Request().Context())
	if !ok {
		return uuid.Nil, false, common.SendUnauthorizedError(c)
	}
	return session.OwnerID, true, nil
}

// uuidParam parses a path parameter, writing a 400 on failure.
func uuidParam(c echo.Context, name string) (uuid.UUID, bool, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, false, common.SendValidationError(c, name, "must be a valid UUID")
	}
	return id, true, nil
}
