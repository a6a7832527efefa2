package echoapi

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/seatech/enthusiasm/core"
	"github.com/seatech/enthusiasm/core/token"
)

var (
	errHttpNotFound = echo.NewHTTPError(http.StatusNotFound, "not found")
	errFileRequired = core.NewValidationError(nil, core.FieldError{Field: "file", Error: "a file is required"})
)

// pageError sends browsers back to Path with an `error` query indicator.
// JSON clients get Code and Message instead.
type pageError struct {
	Path    string
	Message string
	Code    int
}

func (e *pageError) Error() string { return e.Message }

func newAuthError(role token.Role, msg string) error {
	return &pageError{Path: loginPaths[role], Message: msg, Code: http.StatusUnauthorized}
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}

		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *pageError:
			if !wantsJSON(ctx) {
				if rErr := redirectWith(ctx, origErr.Path, "error", origErr.Message); rErr != nil {
					ctx.Echo().Logger.Error(rErr)
				}
				return
			}
			code = origErr.Code
			message = origErr.Message
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			message = core.TranslateErrors(origErr, translator)
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var person core.Person
			if id, ok := contextIdentity(ctx); ok {
				person.ID = id.Subject
				person.Username = string(id.Role)
			}
			logger.Error(msg, errors.Wrap(err, msg), person)

			// shutting down...
			if core.IsShutdown(err) && signalShutdown != nil {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}

		// Send response
		if ctx.Request().Method == http.MethodHead { // Issue #608
			err = ctx.NoContent(code)
		} else if wantsJSON(ctx) {
			if m, ok := message.(string); ok {
				message = echo.Map{"error": m}
			}
			err = ctx.JSON(code, message)
		} else {
			err = ctx.String(code, plainMessage(message))
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}

// plainMessage flattens an error message for text/plain responses.
func plainMessage(message interface{}) string {
	switch m := message.(type) {
	case string:
		return m
	case map[string]string:
		flds := make([]string, 0, len(m))
		for fld := range m {
			flds = append(flds, fld)
		}
		sort.Strings(flds)
		lines := make([]string, 0, len(m))
		for _, fld := range flds {
			lines = append(lines, fld+": "+m[fld])
		}
		return strings.Join(lines, "\n")
	}
	return fmt.Sprint(message)
}

func wantsJSON(ctx echo.Context) bool {
	return strings.Contains(ctx.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

// redirectWith redirects to path, adding a `message` or `error` indicator to its query.
func redirectWith(ctx echo.Context, path, key, msg string) error {
	if msg != "" {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		path += sep + url.Values{key: {msg}}.Encode()
	}
	return ctx.Redirect(http.StatusSeeOther, path)
}

// respond redirects browsers to path with a `message` indicator; JSON clients get data.
func respond(ctx echo.Context, code int, data interface{}, path, msg string) error {
	if wantsJSON(ctx) {
		return ctx.JSON(code, data)
	}
	return redirectWith(ctx, path, "message", msg)
}
