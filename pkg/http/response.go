package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"CommodSim/pkg/http/middleware"
)

// DataResponse wraps data in the response envelope with the given status.
func DataResponse(c echo.Context, status int, data interface{}) error {
	c.Set(middleware.APIStatusKey, status)
	return c.JSON(http.StatusOK, APIResponse{
		Status:  status,
		Message: http.StatusText(status),
		Data:    data,
	})
}

func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

func BadRequestResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusBadRequest, data)
}

// AppErrorResponse reports err with its own status when it is an *AppError
// and as a generic 500 otherwise.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return DataResponse(c, appErr.Status, []*AppError{appErr})
	}
	return DataResponse(c, http.StatusInternalServerError, "Something went wrong")
}
