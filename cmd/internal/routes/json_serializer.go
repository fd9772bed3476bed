package routes

import (
	"encoding/json"
	"errors"
	"hospitalintake/cmd/internal/utils/apierror"
	"io"

	"github.com/labstack/echo/v4"
)

// StrictJSONSerializer rejects request bodies that carry anything but
// whitespace after the first JSON value. Responses are encoded by echo's
// default serializer.
type StrictJSONSerializer struct {
	echo.DefaultJSONSerializer
}

func (StrictJSONSerializer) Deserialize(c echo.Context, i interface{}) error {
	dec := json.NewDecoder(c.Request().Body)
	if err := dec.Decode(i); err != nil {
		return err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return apierror.ErrTrailingData
	}
	return nil
}
