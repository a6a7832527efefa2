package echoapi

import (
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/seatech/enthusiasm/core/student"
	appfs "github.com/seatech/enthusiasm/fs"
)

var viewsDir = "templates/views"

type renderer struct {
	views map[string]*template.Template
}

var _ echo.Renderer = (*renderer)(nil)

// page is the data every view is executed with.
type page struct {
	AppName string
	Message string
	Error   string
	Data    interface{}
}

var viewFuncs = template.FuncMap{
	"date": func(t time.Time) string { return t.Local().Format("02 Jan 2006 15:04") },
	"join": strings.Join,
	"isPending": func(status student.Status) bool {
		return status == student.StatusPending
	},
}

// newRenderer parses every embedded view with the base layout. Views are embedded so a parsing failure is a bug.
func newRenderer() *renderer {
	fps, err := fs.Glob(appfs.FS, path.Join(viewsDir, "*.gohtml"))
	if err != nil {
		panic(err)
	}

	r := &renderer{views: make(map[string]*template.Template, len(fps))}
	for _, fp := range fps {
		fname := path.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		tmpl := template.Must(
			template.New(fname).Funcs(viewFuncs).ParseFS(appfs.FS, path.Join(viewsDir, "_base.gohtml"), fp),
		)
		r.views[strings.TrimSuffix(fname, ".gohtml")] = tmpl.Option("missingkey=error")
	}
	return r
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, ctx echo.Context) error {
	tmpl, ok := r.views[name]
	if !ok {
		return errors.Errorf("view %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "_base.gohtml", data)
}

func render(ctx echo.Context, appName, name string, data interface{}) error {
	return ctx.Render(http.StatusOK, name, page{
		AppName: appName,
		Message: ctx.QueryParam("message"),
		Error:   ctx.QueryParam("error"),
		Data:    data,
	})
}
