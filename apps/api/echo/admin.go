package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/seatech/enthusiasm/core"
	"github.com/seatech/enthusiasm/core/admin"
	"github.com/seatech/enthusiasm/core/student"
	"github.com/seatech/enthusiasm/core/token"
	"github.com/seatech/enthusiasm/services/metrics"
)

const adminDashboardPath = "/admin/dashboard"

type adminApi struct {
	svc        *admin.Service
	studentSvc *student.Service
	tokens     *token.Issuer
	validate   *validator.Validate
	conf       *core.Config
}

func registerAdminAPI(g *echo.Group, opts *Options) {
	api := adminApi{
		svc:        opts.AdminSvc,
		studentSvc: opts.StudentSvc,
		tokens:     opts.Tokens,
		validate:   opts.Validate,
		conf:       opts.Conf,
	}
	auth := authMiddleware(api.tokens, token.RoleAdmin)

	// un-authed endpoints
	g.GET("/login", api.loginPage)
	g.POST("/login", api.login)
	g.POST("/logout", api.logout)

	// authed endpoints
	g.GET("/dashboard", api.dashboard, auth)
	g.POST("/update-link", api.updateLink, auth)
	g.POST("/post-announcement", api.postAnnouncement, auth)
	g.POST("/delete-student/:id", api.deleteStudent, auth)
	g.POST("/review/:studentId/:submissionId", api.review, auth)

	// per kind shortcuts; without a submission id the latest submission of the kind is used
	for kind, param := range map[student.Kind]string{student.KindProject: "projectId", student.KindAssignment: "submissionId"} {
		g.POST("/approve-"+string(kind)+"/:studentId", api.approve(kind, ""), auth)
		g.POST("/approve-"+string(kind)+"/:studentId/:"+param, api.approve(kind, param), auth)
		g.POST("/delete-"+string(kind)+"/:studentId", api.deleteSubmission(kind, ""), auth)
		g.POST("/delete-"+string(kind)+"/:studentId/:"+param, api.deleteSubmission(kind, param), auth)
	}
}

// Handlers

func (api *adminApi) loginPage(ctx echo.Context) error {
	return render(ctx, api.conf.AppName, "admin-login", nil)
}

func (api *adminApi) login(ctx echo.Context) error {
	var data AdminLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AdminLoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	adm, err := api.svc.Authenticate(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		if errors.Cause(err) == admin.ErrInvalidCredentials {
			metrics.Logins.WithLabelValues(string(token.RoleAdmin), "failed").Inc()
			return newAuthError(token.RoleAdmin, "Invalid")
		}
		return errors.Wrap(err, "authenticating")
	}
	tkn, err := api.tokens.Issue(token.Identity{Subject: adm.ID, Role: token.RoleAdmin})
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	metrics.Logins.WithLabelValues(string(token.RoleAdmin), "succeeded").Inc()

	setTokenCookie(ctx, token.RoleAdmin, tkn, api.tokens.TTL(token.RoleAdmin), !api.conf.Debug)
	if wantsJSON(ctx) {
		return ctx.JSON(http.StatusOK, LoginResponse{Token: tkn})
	}
	return ctx.Redirect(http.StatusSeeOther, adminDashboardPath)
}

func (api *adminApi) logout(ctx echo.Context) error {
	clearTokenCookie(ctx, token.RoleAdmin)
	return respond(ctx, http.StatusOK, SuccessResponse{Success: "Logged Out"}, loginPaths[token.RoleAdmin], "Logged Out")
}

func (api *adminApi) dashboard(ctx echo.Context) error {
	id, _ := contextIdentity(ctx)
	adm, err := api.svc.GetByID(ctx.Request().Context(), id.Subject)
	if err != nil {
		if errors.Cause(err) == admin.ErrNotFound {
			return newAuthError(token.RoleAdmin, invalidTokenMsgs[token.RoleAdmin])
		}
		return errors.Wrap(err, "finding admin by ID")
	}

	students, err := api.studentSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	meetLink, err := api.svc.MeetLink(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting meet link")
	}
	ans, err := api.svc.Announcements(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}

	data := AdminDashboard{
		Username:      adm.Username,
		MeetLink:      meetLink,
		Students:      make([]StudentProfile, 0, len(students)),
		Announcements: ans,
	}
	for _, stu := range students {
		data.Students = append(data.Students, NewStudentProfile(stu))
	}
	if wantsJSON(ctx) {
		return ctx.JSON(http.StatusOK, data)
	}
	return render(ctx, api.conf.AppName, "admin-dashboard", data)
}

func (api *adminApi) updateLink(ctx echo.Context) error {
	var data admin.UpdateMeetLink
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMeetLink")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.UpdateMeetLink(ctx.Request().Context(), data); err != nil {
		return dashboardError(errors.Wrap(err, "updating meet link"))
	}
	return respond(ctx, http.StatusOK, echo.Map{"meet_link": data.MeetLink}, adminDashboardPath, "Link Updated")
}

func (api *adminApi) postAnnouncement(ctx echo.Context) error {
	var data admin.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	id, _ := contextIdentity(ctx)
	an, err := api.svc.PostAnnouncement(ctx.Request().Context(), id.Subject, data)
	if err != nil {
		if errors.Cause(err) == admin.ErrNotFound {
			return newAuthError(token.RoleAdmin, invalidTokenMsgs[token.RoleAdmin])
		}
		return errors.Wrap(err, "posting announcement")
	}
	return respond(ctx, http.StatusCreated, an, adminDashboardPath, "Announcement Posted")
}

func (api *adminApi) deleteStudent(ctx echo.Context) error {
	if err := api.studentSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return dashboardError(errors.Wrap(err, "deleting student"))
	}
	return respond(ctx, http.StatusOK, SuccessResponse{Success: "Student Removed"}, adminDashboardPath, "Student Removed")
}

func (api *adminApi) review(ctx echo.Context) error {
	var data student.Review
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Review")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	return api.setStatus(ctx, ctx.Param("studentId"), ctx.Param("submissionId"), data.Status)
}

func (api *adminApi) approve(kind student.Kind, param string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		stuID := ctx.Param("studentId")
		subID, err := api.submissionID(ctx, stuID, kind, param)
		if err != nil {
			return err
		}
		return api.setStatus(ctx, stuID, subID, student.StatusApproved)
	}
}

func (api *adminApi) deleteSubmission(kind student.Kind, param string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		stuID := ctx.Param("studentId")
		subID, err := api.submissionID(ctx, stuID, kind, param)
		if err != nil {
			return err
		}
		if err := api.studentSvc.DeleteSubmission(ctx.Request().Context(), stuID, subID); err != nil {
			return dashboardError(errors.Wrap(err, "deleting submission"))
		}
		return respond(ctx, http.StatusOK, SuccessResponse{Success: "Deleted"}, adminDashboardPath, "Deleted")
	}
}

// Helpers

func (api *adminApi) setStatus(ctx echo.Context, stuID, subID string, status student.Status) error {
	if err := api.studentSvc.Review(ctx.Request().Context(), stuID, subID, status); err != nil {
		return dashboardError(errors.Wrap(err, "reviewing submission"))
	}
	return respond(ctx, http.StatusOK, SuccessResponse{Success: string(status)}, adminDashboardPath, string(status))
}

// submissionID reads the submission id from the route param, or picks the latest submission of kind.
func (api *adminApi) submissionID(ctx echo.Context, stuID string, kind student.Kind, param string) (string, error) {
	if param != "" {
		return ctx.Param(param), nil
	}
	sub, err := api.studentSvc.Latest(ctx.Request().Context(), stuID, kind)
	if err != nil {
		return "", dashboardError(errors.Wrap(err, "finding latest submission"))
	}
	return sub.ID, nil
}

// dashboardError sends the admin back to the dashboard when a student or a submission cannot be acted on.
func dashboardError(err error) error {
	switch errors.Cause(err) {
	case student.ErrNotFound:
		return &pageError{Path: adminDashboardPath, Message: "Student Not Found", Code: http.StatusNotFound}
	case student.ErrSubmissionNotFound:
		return &pageError{Path: adminDashboardPath, Message: "Submission Not Found", Code: http.StatusNotFound}
	case student.ErrSubmissionReviewed:
		return &pageError{Path: adminDashboardPath, Message: "Already Reviewed", Code: http.StatusConflict}
	case admin.ErrNotFound:
		return &pageError{Path: adminDashboardPath, Message: "Admin Not Found", Code: http.StatusNotFound}
	}
	return err
}
