package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// pathID parses a positive numeric :id path parameter.
func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
