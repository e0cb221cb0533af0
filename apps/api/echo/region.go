package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ukaguzi/core/school"
	"github.com/trezcool/ukaguzi/core/user"
)

type regionApi struct {
	svc    school.Service
	usrSvc user.Service
}

func registerRegionAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc school.Service, usrSvc user.Service) {
	api := regionApi{svc: svc, usrSvc: usrSvc}

	rg := g.Group("/regions", jwt)
	rg.GET("", api.query)
	rg.POST("", api.create, adminMiddleware())

	ag := g.Group("/assignments", jwt)
	ag.POST("", api.assign, gpiMiddleware())
	ag.POST("/:id/deactivate", api.deactivateAssignment, gpiMiddleware())
}

// Handlers

func (api *regionApi) create(ctx echo.Context) error {
	var data school.NewRegion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRegion")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	reg, err := api.svc.CreateRegion(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "creating region")
	}
	return ctx.JSON(http.StatusCreated, reg)
}

func (api *regionApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	regions, err := api.svc.QueryRegions(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "querying regions")
	}
	if regions == nil {
		regions = []school.Region{}
	}
	return ctx.JSON(http.StatusOK, regions)
}

func (api *regionApi) assign(ctx echo.Context) error {
	var data school.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	asg, err := api.svc.Assign(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "assigning inspector")
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *regionApi) deactivateAssignment(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	asg, err := api.svc.DeactivateAssignment(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deactivating assignment")
	}
	return ctx.JSON(http.StatusOK, asg)
}
