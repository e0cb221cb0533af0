package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ukaguzi/core/inspection"
	"github.com/trezcool/ukaguzi/core/user"
)

type dashboardApi struct {
	svc    inspection.Service
	usrSvc user.Service
}

func registerDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc inspection.Service, usrSvc user.Service) {
	api := dashboardApi{svc: svc, usrSvc: usrSvc}

	dg := g.Group("/inspections", jwt)
	dg.GET("/dashboard", api.retrieve, inspectorMiddleware())
	dg.GET("/teachers/:id/average-rating", api.teacherAverageRating)
}

// Handlers

func (api *dashboardApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	stats, err := api.svc.Dashboard(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "building dashboard")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *dashboardApi) teacherAverageRating(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	avg, err := api.svc.TeacherAverageRating(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "computing average rating")
	}
	return ctx.JSON(http.StatusOK, AverageRatingResponse{TeacherID: ctx.Param("id"), AverageRating: avg})
}

// AverageRatingResponse carries a teacher's mean approved final rating.
type AverageRatingResponse struct {
	TeacherID     string  `json:"teacher_id"`
	AverageRating float64 `json:"average_rating"`
}
