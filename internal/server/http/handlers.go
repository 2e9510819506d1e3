package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"

	"github.com/and161185/pontofacil/internal/audit"
	"github.com/and161185/pontofacil/internal/convert"
	"github.com/and161185/pontofacil/internal/errs"
	"github.com/and161185/pontofacil/internal/model"
	"github.com/and161185/pontofacil/internal/service"
)

// bind decodes a JSON body, reporting malformed input as a validation error.
func (h *handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, h.Log, errs.Invalid("invalid request body: %v", err))
		return false
	}
	return true
}

func (h *handler) fail(c *gin.Context, err error) {
	writeError(c, h.Log, err)
}

func parseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.FromString(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, errs.Invalid("invalid %s", field)
	}
	return id, nil
}

func (h *handler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := parseID(c.Param("id"), "id")
	if err != nil {
		h.fail(c, err)
		return uuid.Nil, false
	}
	return id, true
}

// queryID reads a required uuid query parameter.
func (h *handler) queryID(c *gin.Context, name string) (uuid.UUID, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		h.fail(c, errs.Invalid("%s is required", name))
		return uuid.Nil, false
	}
	id, err := parseID(raw, name)
	if err != nil {
		h.fail(c, err)
		return uuid.Nil, false
	}
	return id, true
}

// optionalID reads an optional uuid query parameter.
func (h *handler) optionalID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := parseID(raw, name)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return &id, true
}

func (h *handler) requiredQuery(c *gin.Context, name string) (string, bool) {
	v := c.Query(name)
	if v == "" {
		h.fail(c, errs.Invalid("%s is required", name))
		return "", false
	}
	return v, true
}

func (h *handler) caller(c *gin.Context) *model.User {
	u, _ := userFrom(c)
	return u
}

// --- public ---

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) getSite(c *gin.Context) {
	site, err := h.Settings.Site(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.Site(site, h.Zone.Location()))
}

func (h *handler) pairDevice(c *gin.Context) {
	var in convert.PairDeviceIn
	if !h.bind(c, &in) {
		return
	}
	res, err := h.Auth.PairDevice(c.Request.Context(), in.PairRequest(), c.ClientIP())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.PairDevice(res))
}

// --- auth ---

func (h *handler) login(c *gin.Context) {
	var in convert.LoginIn
	if !h.bind(c, &in) {
		return
	}
	tok, _, err := h.Auth.Login(c.Request.Context(), in.Email, in.Password, c.ClientIP())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.Token(tok))
}

func (h *handler) deviceLogin(c *gin.Context) {
	var in convert.DeviceLoginIn
	if !h.bind(c, &in) {
		return
	}
	tok, _, err := h.Auth.DeviceLogin(c.Request.Context(), in.DeviceID, in.DeviceSecret, c.ClientIP())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.Token(tok))
}

// --- employee self ---

func (h *handler) punch(c *gin.Context) {
	var in convert.PunchIn
	if !h.bind(c, &in) {
		return
	}
	kind, err := model.ParseKind(in.Tipo)
	if err != nil {
		h.fail(c, err)
		return
	}
	ev, err := h.Punches.Punch(c.Request.Context(), h.caller(c), kind, in.Location())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.Ponto(*ev, h.Zone.Location()))
}

func (h *handler) autoPunch(c *gin.Context) {
	var in convert.AutoPunchIn
	if !h.bind(c, &in) {
		return
	}
	ev, err := h.Punches.AutoPunch(c.Request.Context(), h.caller(c), in.Location())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.Ponto(*ev, h.Zone.Location()))
}

func (h *handler) listOwn(c *gin.Context) {
	evs, err := h.Punches.ListOwn(c.Request.Context(), h.caller(c), c.Query("start"), c.Query("end"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.Pontos(evs, h.Zone.Location()))
}

func (h *handler) ownWorkday(c *gin.Context) {
	date, ok := h.requiredQuery(c, "date")
	if !ok {
		return
	}
	d, err := h.Workdays.Own(c.Request.Context(), h.caller(c), date)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.Jornada(d))
}

// --- admin: accounts ---

func (h *handler) me(c *gin.Context) {
	c.JSON(http.StatusOK, convert.UserMe(h.caller(c)))
}

func (h *handler) listEmployees(c *gin.Context) {
	us, err := h.Employees.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.Employees(us))
}

func (h *handler) createEmployee(c *gin.Context) {
	var in convert.EmployeeIn
	if !h.bind(c, &in) {
		return
	}
	u, err := h.Employees.Create(c.Request.Context(), in.NewEmployee())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.Employee(*u))
}

func (h *handler) setEmployeeActive(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var in convert.EmployeeActiveIn
	if !h.bind(c, &in) {
		return
	}
	u, err := h.Employees.SetActive(c.Request.Context(), id, *in.IsActive)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.Employee(*u))
}

func (h *handler) getPolicy(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	p, err := h.Employees.Policy(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.AuthPolicy(p, h.Zone.Location()))
}

func (h *handler) putPolicy(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var in convert.AuthPolicyIn
	if !h.bind(c, &in) {
		return
	}
	p, err := h.Employees.UpdatePolicy(c.Request.Context(), id, *in.AllowPasswordLogin, *in.AllowFaceLogin)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.AuthPolicy(p, h.Zone.Location()))
}

func (h *handler) issuePairingCode(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	code, err := h.Employees.IssuePairingCode(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.PairingCode(code, h.Zone.Location()))
}

// --- admin: settings ---

func (h *handler) putSite(c *gin.Context) {
	var in convert.SiteIn
	if !h.bind(c, &in) {
		return
	}
	site, err := h.Settings.UpdateSite(c.Request.Context(), *in.Lat, *in.Lng, in.RadiusM)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.Site(site, h.Zone.Location()))
}

func (h *handler) getCorrectionWindow(c *gin.Context) {
	w, err := h.Settings.CorrectionWindow(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.CorrectionWindow(w, h.Zone.Location()))
}

func (h *handler) putCorrectionWindow(c *gin.Context) {
	var in convert.CorrectionWindowIn
	if !h.bind(c, &in) {
		return
	}
	w, err := h.Settings.UpdateCorrectionWindow(c.Request.Context(), in.WindowDays)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.CorrectionWindow(w, h.Zone.Location()))
}

func (h *handler) getValidation(c *gin.Context) {
	v, err := h.Settings.Validation(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.Validation(v, h.Zone.Location()))
}

func (h *handler) putValidation(c *gin.Context) {
	var in convert.ValidationIn
	if !h.bind(c, &in) {
		return
	}
	v, err := h.Settings.UpdateValidation(c.Request.Context(), *in.RequireFour)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.Validation(v, h.Zone.Location()))
}

// --- admin: punches ---

func (h *handler) adminListPontos(c *gin.Context) {
	id, ok := h.queryID(c, "user_id")
	if !ok {
		return
	}
	evs, u, err := h.Corrections.List(c.Request.Context(), id, c.Query("start"), c.Query("end"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.PontosAdmin(evs, u, h.Zone.Location()))
}

func (h *handler) adminLastPonto(c *gin.Context) {
	id, ok := h.queryID(c, "user_id")
	if !ok {
		return
	}
	ev, u, err := h.Corrections.Last(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.PontoAdmin(*ev, u, h.Zone.Location()))
}

func (h *handler) adminAudit(c *gin.Context) {
	employeeID, ok := h.optionalID(c, "user_id")
	if !ok {
		return
	}
	eventID, ok := h.optionalID(c, "ponto_id")
	if !ok {
		return
	}
	limit := audit.DefaultLimit
	if raw, present := c.GetQuery("limit"); present {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(c, errs.Invalid("invalid limit"))
			return
		}
		limit = n
	}
	page, err := h.Corrections.Audit(c.Request.Context(), service.AuditFilter{
		EmployeeID:     employeeID,
		EventID:        eventID,
		Action:         c.Query("action"),
		ReasonContains: c.Query("motivo_contains"),
		StartDate:      c.Query("start"),
		EndDate:        c.Query("end"),
		Limit:          limit,
		Cursor:         c.Query("cursor"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.AuditPage(page, h.Zone.Location()))
}

func (h *handler) adminCreatePonto(c *gin.Context) {
	var in convert.AdminPontoCreateIn
	if !h.bind(c, &in) {
		return
	}
	ev, u, err := h.Corrections.Create(c.Request.Context(), h.caller(c), in.UserID, in.Correction())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.PontoAdmin(*ev, u, h.Zone.Location()))
}

func (h *handler) adminUpdatePonto(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var in convert.AdminPontoUpdateIn
	if !h.bind(c, &in) {
		return
	}
	ev, u, err := h.Corrections.Update(c.Request.Context(), h.caller(c), id, in.Correction())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.PontoAdmin(*ev, u, h.Zone.Location()))
}

func (h *handler) adminDeletePonto(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var in convert.AdminPontoDeleteIn
	if !h.bind(c, &in) {
		return
	}
	if err := h.Corrections.Delete(c.Request.Context(), h.caller(c), id, in.Motivo); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *handler) adminWorkday(c *gin.Context) {
	id, ok := h.queryID(c, "user_id")
	if !ok {
		return
	}
	date, ok := h.requiredQuery(c, "date")
	if !ok {
		return
	}
	u, d, err := h.Workdays.ForEmployee(c.Request.Context(), id, date)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.JornadaAdmin(u, d))
}
