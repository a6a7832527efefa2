package echoapi

import (
	"mime/multipart"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/seatech/enthusiasm/core"
	"github.com/seatech/enthusiasm/core/admin"
	"github.com/seatech/enthusiasm/core/student"
	"github.com/seatech/enthusiasm/core/token"
	"github.com/seatech/enthusiasm/services/metrics"
)

const (
	dashboardPath      = "/dashboard"
	forgotPasswordPath = "/forgot-password"

	resetRequestedMsg = "If that email exists, a link was sent"
)

// multipart fields accepted for each submission kind, besides `file`
var uploadFields = map[student.Kind]string{
	student.KindProject:    "projectFile",
	student.KindAssignment: "assignmentFile",
}

type studentApi struct {
	svc      *student.Service
	adminSvc *admin.Service
	tokens   *token.Issuer
	validate *validator.Validate
	logger   core.Logger
	conf     *core.Config
}

func registerStudentAPI(e *echo.Echo, opts *Options) {
	api := studentApi{
		svc:      opts.StudentSvc,
		adminSvc: opts.AdminSvc,
		tokens:   opts.Tokens,
		validate: opts.Validate,
		logger:   opts.Logger,
		conf:     opts.Conf,
	}
	auth := authMiddleware(api.tokens, token.RoleStudent)
	bodyLimit := middleware.BodyLimit(api.conf.Server.UploadLimit)

	// un-authed endpoints
	e.GET("/", api.registerPage)
	e.GET("/register", api.registerPage)
	e.POST("/register", api.register)
	e.GET("/login", api.loginPage)
	e.POST("/login", api.login)
	e.POST("/logout", api.logout)
	e.GET("/forgot-password", api.forgotPasswordPage)
	e.POST("/forgot-password", api.forgotPassword)
	e.GET("/reset-password/:token", api.resetPasswordPage)
	e.POST("/reset-password/:token", api.resetPassword)

	// authed endpoints
	e.GET("/dashboard", api.dashboard, auth)
	e.POST("/mark-attendance", api.markAttendance, auth)
	e.POST("/upload-project", api.upload(student.KindProject), bodyLimit, auth)
	e.POST("/upload-assignment", api.upload(student.KindAssignment), bodyLimit, auth)
	e.POST("/join-class", api.joinClass, auth)
}

// Handlers

func (api *studentApi) registerPage(ctx echo.Context) error {
	return render(ctx, api.conf.AppName, "register", nil)
}

func (api *studentApi) register(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	stu, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == student.ErrEmailExists {
			if wantsJSON(ctx) {
				return ctx.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
			}
			return redirectWith(ctx, loginPaths[token.RoleStudent], "message", "Already registered")
		}
		return errors.Wrap(err, "registering student")
	}
	metrics.Registrations.Inc()

	return respond(ctx, http.StatusCreated, NewStudentProfile(stu), loginPaths[token.RoleStudent], "Registration Successful")
}

func (api *studentApi) loginPage(ctx echo.Context) error {
	return render(ctx, api.conf.AppName, "login", nil)
}

func (api *studentApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	stu, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		if errors.Cause(err) == student.ErrInvalidCredentials {
			metrics.Logins.WithLabelValues(string(token.RoleStudent), "failed").Inc()
			return newAuthError(token.RoleStudent, "Invalid Credentials")
		}
		return errors.Wrap(err, "authenticating")
	}
	tkn, err := api.tokens.Issue(token.Identity{Subject: stu.ID, Role: token.RoleStudent})
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	metrics.Logins.WithLabelValues(string(token.RoleStudent), "succeeded").Inc()

	setTokenCookie(ctx, token.RoleStudent, tkn, api.tokens.TTL(token.RoleStudent), !api.conf.Debug)
	if wantsJSON(ctx) {
		return ctx.JSON(http.StatusOK, LoginResponse{Token: tkn})
	}
	return ctx.Redirect(http.StatusSeeOther, dashboardPath)
}

func (api *studentApi) logout(ctx echo.Context) error {
	clearTokenCookie(ctx, token.RoleStudent)
	return respond(ctx, http.StatusOK, SuccessResponse{Success: "Logged Out"}, loginPaths[token.RoleStudent], "Logged Out")
}

func (api *studentApi) forgotPasswordPage(ctx echo.Context) error {
	return render(ctx, api.conf.AppName, "forgot-password", nil)
}

func (api *studentApi) forgotPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || errors.Cause(err) == student.ErrNotFound) {
		// do not return errors to attackers
		api.logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
	}
	return respond(ctx, http.StatusOK, SuccessResponse{Success: resetRequestedMsg}, forgotPasswordPath, resetRequestedMsg)
}

func (api *studentApi) resetPasswordPage(ctx echo.Context) error {
	tkn := ctx.Param("token")
	if err := api.svc.CheckResetToken(ctx.Request().Context(), tkn); err != nil {
		if errors.Cause(err) == student.ErrResetTokenInvalid {
			return &pageError{Path: forgotPasswordPath, Message: err.Error(), Code: http.StatusBadRequest}
		}
		return errors.Wrap(err, "checking reset token")
	}
	return render(ctx, api.conf.AppName, "reset-password", echo.Map{"Token": tkn})
}

func (api *studentApi) resetPassword(ctx echo.Context) error {
	var data student.ResetPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetPassword")
	}
	data.Token = ctx.Param("token")
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		if errors.Cause(err) == student.ErrResetTokenInvalid {
			return &pageError{Path: forgotPasswordPath, Message: err.Error(), Code: http.StatusBadRequest}
		}
		return errors.Wrap(err, "resetting password")
	}
	return respond(
		ctx, http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."},
		loginPaths[token.RoleStudent], "Password Reset Successful",
	)
}

func (api *studentApi) dashboard(ctx echo.Context) error {
	stu, err := api.contextStudent(ctx)
	if err != nil {
		return err
	}
	meetLink, err := api.adminSvc.MeetLink(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting meet link")
	}
	ans, err := api.adminSvc.Announcements(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}

	data := StudentDashboard{
		Student:       NewStudentProfile(stu),
		MeetLink:      meetLink,
		Announcements: ans,
	}
	if wantsJSON(ctx) {
		return ctx.JSON(http.StatusOK, data)
	}
	return render(ctx, api.conf.AppName, "dashboard", data)
}

func (api *studentApi) markAttendance(ctx echo.Context) error {
	id, _ := contextIdentity(ctx)
	if err := api.svc.MarkAttendance(ctx.Request().Context(), id.Subject); err != nil {
		switch errors.Cause(err) {
		case student.ErrAlreadyMarkedToday, student.ErrWeeklyLimitExceeded:
			return &pageError{Path: dashboardPath, Message: err.Error(), Code: http.StatusConflict}
		case student.ErrNotFound:
			return errHttpNotFound
		}
		return errors.Wrap(err, "marking attendance")
	}
	metrics.Attendances.Inc()
	return respond(ctx, http.StatusOK, SuccessResponse{Success: "Attendance Marked"}, dashboardPath, "Attendance Marked")
}

func (api *studentApi) upload(kind student.Kind) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		fh, err := formFile(ctx, "file", uploadFields[kind])
		if err != nil {
			return err
		}
		data := student.NewSubmission{
			Kind:     kind,
			Course:   ctx.FormValue("course"),
			Filename: fh.Filename,
			Size:     fh.Size,
		}
		if err := data.Validate(api.validate); err != nil {
			return err
		}

		src, err := fh.Open()
		if err != nil {
			return errors.Wrap(err, "opening uploaded file")
		}
		defer src.Close()

		id, _ := contextIdentity(ctx)
		sub, err := api.svc.Upload(ctx.Request().Context(), id.Subject, data, src)
		if err != nil {
			if errors.Cause(err) == student.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "uploading submission")
		}
		metrics.Uploads.WithLabelValues(string(kind)).Inc()

		return respond(ctx, http.StatusCreated, sub, dashboardPath, "Upload Successful")
	}
}

func (api *studentApi) joinClass(ctx echo.Context) error {
	link, err := api.adminSvc.MeetLink(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting meet link")
	}
	if wantsJSON(ctx) {
		return ctx.JSON(http.StatusOK, echo.Map{"meet_link": link})
	}
	return ctx.Redirect(http.StatusSeeOther, link)
}

// Helpers

func (api *studentApi) contextStudent(ctx echo.Context) (student.Student, error) {
	id, ok := contextIdentity(ctx)
	if !ok {
		return student.Student{}, newAuthError(token.RoleStudent, missingTokenMsgs[token.RoleStudent])
	}
	stu, err := api.svc.GetByID(ctx.Request().Context(), id.Subject)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return student.Student{}, errHttpNotFound
		}
		return student.Student{}, errors.Wrap(err, "finding student by ID")
	}
	return stu, nil
}

// formFile returns the first file found under one of the fields.
func formFile(ctx echo.Context, fields ...string) (*multipart.FileHeader, error) {
	for _, fld := range fields {
		fh, err := ctx.FormFile(fld)
		if err == nil {
			return fh, nil
		}
		if err != http.ErrMissingFile {
			if errors.Cause(err) == http.ErrNotMultipart {
				return nil, errFileRequired
			}
			return nil, errors.Wrap(err, "reading multipart form")
		}
	}
	return nil, errFileRequired
}
