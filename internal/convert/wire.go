// Package convert maps domain values to and from the JSON wire shapes used by
// the existing web and kiosk clients. Timestamps leave the server in the
// deployment's civil zone.
package convert

import (
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/pontofacil/internal/model"
	"github.com/and161185/pontofacil/internal/service"
	"github.com/and161185/pontofacil/internal/workday"
)

// --- auth ---

type LoginIn struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type DeviceLoginIn struct {
	DeviceID     string `json:"device_id" binding:"required"`
	DeviceSecret string `json:"device_secret" binding:"required"`
}

type TokenOut struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Token wraps an issued access token.
func Token(t model.Tokens) TokenOut {
	return TokenOut{AccessToken: t.AccessToken, TokenType: "bearer"}
}

type UserMeOut struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

func UserMe(u *model.User) UserMeOut {
	return UserMeOut{ID: u.ID, Email: u.Email, Role: string(u.Role)}
}

// --- pairing ---

type PairDeviceIn struct {
	Code       string  `json:"code" binding:"required"`
	DeviceID   string  `json:"device_id" binding:"required"`
	DeviceName *string `json:"device_name"`
}

// PairRequest converts the body into the service request.
func (in PairDeviceIn) PairRequest() service.PairRequest {
	r := service.PairRequest{Code: in.Code, DeviceID: in.DeviceID}
	if in.DeviceName != nil {
		r.DeviceName = *in.DeviceName
	}
	return r
}

type PairDeviceOut struct {
	DeviceSecret   string    `json:"device_secret"`
	EmployeeUserID uuid.UUID `json:"employee_user_id"`
}

func PairDevice(r *service.PairResult) PairDeviceOut {
	return PairDeviceOut{DeviceSecret: r.DeviceSecret, EmployeeUserID: r.EmployeeID}
}

type PairingCodeOut struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

func PairingCode(c *service.IssuedCode, loc *time.Location) PairingCodeOut {
	return PairingCodeOut{Code: c.Code, ExpiresAt: c.ExpiresAt.In(loc)}
}

// --- employees ---

type EmployeeIn struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Nome     string `json:"nome" binding:"required"`
}

func (in EmployeeIn) NewEmployee() service.NewEmployee {
	return service.NewEmployee{Email: in.Email, Password: in.Password, Name: in.Nome}
}

type EmployeeActiveIn struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type EmployeeOut struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Nome     string    `json:"nome"`
	IsActive bool      `json:"is_active"`
}

// Employee falls back to the email when no profile name was set.
func Employee(u model.User) EmployeeOut {
	return EmployeeOut{ID: u.ID, Email: u.Email, Nome: u.DisplayName(), IsActive: u.Active}
}

func Employees(us []model.User) []EmployeeOut {
	out := make([]EmployeeOut, 0, len(us))
	for _, u := range us {
		out = append(out, Employee(u))
	}
	return out
}

type AuthPolicyIn struct {
	AllowPasswordLogin *bool `json:"allow_password_login" binding:"required"`
	AllowFaceLogin     *bool `json:"allow_face_login" binding:"required"`
}

// AuthPolicyOut keeps the clients' field name for device login.
type AuthPolicyOut struct {
	AllowPasswordLogin bool      `json:"allow_password_login"`
	AllowFaceLogin     bool      `json:"allow_face_login"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func AuthPolicy(p *model.AuthPolicy, loc *time.Location) AuthPolicyOut {
	return AuthPolicyOut{
		AllowPasswordLogin: p.AllowPasswordLogin,
		AllowFaceLogin:     p.AllowDeviceLogin,
		UpdatedAt:          p.UpdatedAt.In(loc),
	}
}

// --- settings ---

type SiteIn struct {
	Lat     *float64 `json:"local_lat" binding:"required,min=-90,max=90"`
	Lng     *float64 `json:"local_lng" binding:"required,min=-180,max=180"`
	RadiusM int      `json:"raio_m" binding:"required"`
}

type SiteOut struct {
	Lat       float64   `json:"local_lat"`
	Lng       float64   `json:"local_lng"`
	RadiusM   int       `json:"raio_m"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Site returns nil for an unconfigured site so it encodes as JSON null.
func Site(s *model.SiteConfig, loc *time.Location) *SiteOut {
	if s == nil {
		return nil
	}
	return &SiteOut{Lat: s.Lat, Lng: s.Lng, RadiusM: s.RadiusM, UpdatedAt: s.UpdatedAt.In(loc)}
}

type CorrectionWindowIn struct {
	WindowDays int `json:"window_days" binding:"required"`
}

type CorrectionWindowOut struct {
	WindowDays int       `json:"window_days"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func CorrectionWindow(c *model.CorrectionWindowConfig, loc *time.Location) CorrectionWindowOut {
	return CorrectionWindowOut{WindowDays: c.WindowDays, UpdatedAt: c.UpdatedAt.In(loc)}
}

type ValidationIn struct {
	RequireFour *bool `json:"intervalo_exige_4_batidas_blocking" binding:"required"`
}

type ValidationOut struct {
	RequireFour bool      `json:"intervalo_exige_4_batidas_blocking"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func Validation(c *model.ValidationConfig, loc *time.Location) ValidationOut {
	return ValidationOut{RequireFour: c.RequireFourPunches, UpdatedAt: c.UpdatedAt.In(loc)}
}

// --- punches ---

type PunchIn struct {
	Tipo      string   `json:"tipo" binding:"required"`
	Lat       *float64 `json:"lat" binding:"required,min=-90,max=90"`
	Lng       *float64 `json:"lng" binding:"required,min=-180,max=180"`
	AccuracyM *float64 `json:"accuracy_m"`
}

func (in PunchIn) Location() model.Location {
	return model.Location{Lat: *in.Lat, Lng: *in.Lng, AccuracyM: in.AccuracyM}
}

type AutoPunchIn struct {
	Lat       *float64 `json:"lat" binding:"required,min=-90,max=90"`
	Lng       *float64 `json:"lng" binding:"required,min=-180,max=180"`
	AccuracyM *float64 `json:"accuracy_m"`
}

func (in AutoPunchIn) Location() model.Location {
	return model.Location{Lat: *in.Lat, Lng: *in.Lng, AccuracyM: in.AccuracyM}
}

type PontoOut struct {
	ID           uuid.UUID `json:"id"`
	Tipo         string    `json:"tipo"`
	RegistradoEm time.Time `json:"registrado_em"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	AccuracyM    *float64  `json:"accuracy_m"`
	DistanciaM   *float64  `json:"distancia_m"`
}

func Ponto(e model.ClockEvent, loc *time.Location) PontoOut {
	return PontoOut{
		ID:           e.ID,
		Tipo:         e.Kind.String(),
		RegistradoEm: e.RecordedAt.In(loc),
		Lat:          e.Lat,
		Lng:          e.Lng,
		AccuracyM:    e.AccuracyM,
		DistanciaM:   e.DistanceM,
	}
}

func Pontos(es []model.ClockEvent, loc *time.Location) []PontoOut {
	out := make([]PontoOut, 0, len(es))
	for _, e := range es {
		out = append(out, Ponto(e, loc))
	}
	return out
}

type PontoAdminOut struct {
	PontoOut
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Nome   string    `json:"nome"`
}

func PontoAdmin(e model.ClockEvent, u *model.User, loc *time.Location) PontoAdminOut {
	return PontoAdminOut{PontoOut: Ponto(e, loc), UserID: u.ID, Email: u.Email, Nome: u.DisplayName()}
}

func PontosAdmin(es []model.ClockEvent, u *model.User, loc *time.Location) []PontoAdminOut {
	out := make([]PontoAdminOut, 0, len(es))
	for _, e := range es {
		out = append(out, PontoAdmin(e, u, loc))
	}
	return out
}

// --- corrections ---

type AdminPontoCreateIn struct {
	UserID     uuid.UUID `json:"user_id" binding:"required"`
	Tipo       string    `json:"tipo" binding:"required"`
	Date       string    `json:"date" binding:"required"`
	Time       string    `json:"time" binding:"required"`
	Lat        float64   `json:"lat" binding:"min=-90,max=90"`
	Lng        float64   `json:"lng" binding:"min=-180,max=180"`
	AccuracyM  *float64  `json:"accuracy_m"`
	DistanciaM *float64  `json:"distancia_m"`
	Motivo     string    `json:"motivo"`
}

func (in AdminPontoCreateIn) Correction() service.CorrectionInput {
	return service.CorrectionInput{
		Kind: model.Kind(in.Tipo), Date: in.Date, Time: in.Time,
		Lat: in.Lat, Lng: in.Lng, AccuracyM: in.AccuracyM, DistanceM: in.DistanciaM,
		Reason: in.Motivo,
	}
}

type AdminPontoUpdateIn struct {
	Tipo       string   `json:"tipo" binding:"required"`
	Date       string   `json:"date" binding:"required"`
	Time       string   `json:"time" binding:"required"`
	Lat        *float64 `json:"lat" binding:"required,min=-90,max=90"`
	Lng        *float64 `json:"lng" binding:"required,min=-180,max=180"`
	AccuracyM  *float64 `json:"accuracy_m"`
	DistanciaM *float64 `json:"distancia_m"`
	Motivo     string   `json:"motivo"`
}

func (in AdminPontoUpdateIn) Correction() service.CorrectionInput {
	return service.CorrectionInput{
		Kind: model.Kind(in.Tipo), Date: in.Date, Time: in.Time,
		Lat: *in.Lat, Lng: *in.Lng, AccuracyM: in.AccuracyM, DistanceM: in.DistanciaM,
		Reason: in.Motivo,
	}
}

type AdminPontoDeleteIn struct {
	Motivo string `json:"motivo"`
}

type AuditOut struct {
	ID             uuid.UUID      `json:"id"`
	Action         string         `json:"action"`
	PontoID        *uuid.UUID     `json:"ponto_id"`
	EmployeeUserID uuid.UUID      `json:"employee_user_id"`
	EmployeeEmail  string         `json:"employee_email"`
	EmployeeNome   string         `json:"employee_nome"`
	AdminUserID    uuid.UUID      `json:"admin_user_id"`
	AdminEmail     string         `json:"admin_email"`
	Motivo         string         `json:"motivo"`
	Before         map[string]any `json:"before"`
	After          map[string]any `json:"after"`
	CreatedAt      time.Time      `json:"created_at"`
}

type AuditPageOut struct {
	Items      []AuditOut `json:"items"`
	NextCursor *string    `json:"next_cursor"`
}

func Audit(e model.AuditEntry, loc *time.Location) AuditOut {
	nome := e.EmployeeName
	if nome == "" {
		nome = e.EmployeeEmail
	}
	return AuditOut{
		ID:             e.ID,
		Action:         string(e.Action),
		PontoID:        e.EventID,
		EmployeeUserID: e.EmployeeID,
		EmployeeEmail:  e.EmployeeEmail,
		EmployeeNome:   nome,
		AdminUserID:    e.AdminID,
		AdminEmail:     e.AdminEmail,
		Motivo:         e.Reason,
		Before:         e.Before,
		After:          e.After,
		CreatedAt:      e.CreatedAt.In(loc),
	}
}

// AuditPage encodes an empty continuation token as null.
func AuditPage(p *model.AuditPage, loc *time.Location) AuditPageOut {
	out := AuditPageOut{Items: make([]AuditOut, 0, len(p.Items))}
	for _, e := range p.Items {
		out.Items = append(out.Items, Audit(e, loc))
	}
	if p.NextCursor != "" {
		next := p.NextCursor
		out.NextCursor = &next
	}
	return out
}

// --- jornada ---

type SegmentOut struct {
	Tipo     string    `json:"tipo"`
	Inicio   time.Time `json:"inicio"`
	Fim      time.Time `json:"fim"`
	Segundos int64     `json:"segundos"`
}

type JornadaOut struct {
	Data                    string       `json:"data"`
	TotalTrabalhadoSegundos int64        `json:"total_trabalhado_segundos"`
	TotalTrabalhadoHHMM     string       `json:"total_trabalhado_hhmm"`
	Segmentos               []SegmentOut `json:"segmentos"`
	Alertas                 []string     `json:"alertas"`
}

var segmentTipo = map[workday.SegmentKind]string{
	workday.SegmentWork:  "trabalho",
	workday.SegmentBreak: "intervalo",
}

func Jornada(d workday.Day) JornadaOut {
	out := JornadaOut{
		Data:                    d.Date,
		TotalTrabalhadoSegundos: d.TotalSeconds,
		TotalTrabalhadoHHMM:     d.TotalHHMM(),
		Segmentos:               make([]SegmentOut, 0, len(d.Segments)),
		Alertas:                 append([]string{}, d.Anomalies...),
	}
	for _, s := range d.Segments {
		out.Segmentos = append(out.Segmentos, SegmentOut{
			Tipo:     segmentTipo[s.Kind],
			Inicio:   s.Start,
			Fim:      s.End,
			Segundos: s.Seconds,
		})
	}
	return out
}

type JornadaAdminOut struct {
	JornadaOut
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Nome   string    `json:"nome"`
}

func JornadaAdmin(u *model.User, d workday.Day) JornadaAdminOut {
	return JornadaAdminOut{JornadaOut: Jornada(d), UserID: u.ID, Email: u.Email, Nome: u.DisplayName()}
}
