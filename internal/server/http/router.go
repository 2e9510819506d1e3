// Package httpserver exposes the services over HTTP with gin.
package httpserver

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/pontofacil/internal/civiltime"
	"github.com/and161185/pontofacil/internal/service"
)

// Deps are the collaborators of the HTTP handlers.
type Deps struct {
	Log         *zap.Logger
	Zone        *civiltime.Zone
	Auth        service.AuthService
	Punches     service.PunchService
	Workdays    service.WorkdayService
	Employees   service.EmployeeService
	Settings    service.SettingsService
	Corrections service.CorrectionService
}

type handler struct {
	Deps
}

// NewRouter builds the engine with every route registered.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(AccessLog(d.Log), Recovery(d.Log))

	h := &handler{Deps: d}

	r.GET("/health", h.health)
	r.GET("/config-local", h.getSite)
	r.POST("/pair-device", h.pairDevice)

	auth := r.Group("/auth")
	{
		auth.POST("/login", h.login)
		auth.POST("/device-login", h.deviceLogin)
	}

	pontos := r.Group("/pontos", Bearer(d.Auth, d.Log))
	{
		pontos.POST("", h.punch)
		pontos.POST("/auto", h.autoPunch)
		pontos.GET("/me", h.listOwn)
		pontos.GET("/jornada", h.ownWorkday)
	}

	admin := r.Group("/admin", Bearer(d.Auth, d.Log), RequireAdmin(d.Log))
	{
		admin.GET("/me", h.me)

		admin.GET("/funcionarios", h.listEmployees)
		admin.POST("/funcionarios", h.createEmployee)
		admin.PATCH("/funcionarios/:id", h.setEmployeeActive)
		admin.GET("/funcionarios/:id/auth-policy", h.getPolicy)
		admin.PUT("/funcionarios/:id/auth-policy", h.putPolicy)
		admin.POST("/funcionarios/:id/device-pairing-code", h.issuePairingCode)

		admin.PUT("/config-local", h.putSite)
		admin.GET("/pontos-correction-config", h.getCorrectionWindow)
		admin.PUT("/pontos-correction-config", h.putCorrectionWindow)
		admin.GET("/jornada-validation-config", h.getValidation)
		admin.PUT("/jornada-validation-config", h.putValidation)

		admin.GET("/pontos", h.adminListPontos)
		admin.GET("/pontos/last", h.adminLastPonto)
		admin.GET("/pontos/audit", h.adminAudit)
		admin.POST("/pontos", h.adminCreatePonto)
		admin.PUT("/pontos/:id", h.adminUpdatePonto)
		admin.DELETE("/pontos/:id", h.adminDeletePonto)

		admin.GET("/jornada", h.adminWorkday)
	}

	return r
}
