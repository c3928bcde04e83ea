package yggdrasil

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// AgentPayload identifies the game client making a login request. The
// service accepts and ignores it.
type AgentPayload struct {
	Name    string `json:"name"`
	Version int    `json:"version"`
}

type AuthenticateRequest struct {
	Agent       *AgentPayload `json:"agent,omitempty"`
	ClientToken string        `json:"clientToken,omitempty"`
	Password    string        `json:"password"`
	RequestUser bool          `json:"requestUser,omitempty"`
	Username    string        `json:"username"`
}

func (r AuthenticateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type AuthenticateResponse struct {
	AccessToken       string                  `json:"accessToken"`
	AvailableProfiles []ProfileRepresentation `json:"availableProfiles"`
	ClientToken       string                  `json:"clientToken"`
	SelectedProfile   *ProfileRepresentation  `json:"selectedProfile,omitempty"`
	User              *UserRepresentation     `json:"user,omitempty"`
}

type RefreshRequest struct {
	AccessToken     string                 `json:"accessToken"`
	ClientToken     string                 `json:"clientToken,omitempty"`
	RequestUser     bool                   `json:"requestUser,omitempty"`
	SelectedProfile *ProfileRepresentation `json:"selectedProfile,omitempty"`
}

func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AccessToken, validation.Required),
	)
}

type RefreshResponse struct {
	AccessToken     string                 `json:"accessToken"`
	ClientToken     string                 `json:"clientToken"`
	SelectedProfile *ProfileRepresentation `json:"selectedProfile,omitempty"`
	User            *UserRepresentation    `json:"user,omitempty"`
}

type ValidateRequest struct {
	AccessToken string `json:"accessToken"`
	ClientToken string `json:"clientToken,omitempty"`
}

func (r ValidateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AccessToken, validation.Required),
	)
}

type SignoutRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r SignoutRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type MetadataLinks struct {
	Homepage string `json:"homepage"`
	Register string `json:"register"`
}

type Metadata struct {
	ServerName            string        `json:"serverName"`
	ImplementationName    string        `json:"implementationName"`
	ImplementationVersion string        `json:"implementationVersion"`
	Links                 MetadataLinks `json:"links"`
}

type MetadataResponse struct {
	Meta               Metadata `json:"meta"`
	SkinDomains        []string `json:"skinDomains"`
	SignaturePublickey string   `json:"signaturePublickey"`
}

// ErrorResponse is the Yggdrasil error body game launchers parse.
type ErrorResponse struct {
	Error        string `json:"error"`
	ErrorMessage string `json:"errorMessage"`
	Cause        string `json:"cause,omitempty"`
}

// AuthController exposes the authserver routes.
type AuthController struct {
	Logger    Logger
	Sessions  *SessionService
	Presenter *ProfilePresenter
	Signer    *Signer
	Config    Config
}

func NewAuthController(sessions *SessionService, presenter *ProfilePresenter, signer *Signer, cfg Config) *AuthController {
	return &AuthController{
		Logger:    defLogger{},
		Sessions:  sessions,
		Presenter: presenter,
		Signer:    signer,
		Config:    cfg,
	}
}

func (ctrl *AuthController) WithLogger(logger Logger) *AuthController {
	if logger != nil {
		ctrl.Logger = logger
	}
	return ctrl
}

// RegisterAuthRoutes mounts the Yggdrasil surface on the app.
func RegisterAuthRoutes(app *fiber.App, ctrl *AuthController) {
	app.Get("/", ctrl.Metadata)
	app.Post("/authserver/authenticate", ctrl.Authenticate)
	app.Post("/authserver/refresh", ctrl.Refresh)
	app.Post("/authserver/validate", ctrl.Validate)
	app.Post("/authserver/invalidate", ctrl.Invalidate)
	app.Post("/authserver/signout", ctrl.Signout)
}

func (ctrl *AuthController) Metadata(c *fiber.Ctx) error {
	return c.JSON(MetadataResponse{
		Meta: Metadata{
			ServerName:            ctrl.Config.GetServerName(),
			ImplementationName:    ctrl.Config.GetImplementationName(),
			ImplementationVersion: ctrl.Config.GetImplementationVersion(),
			Links: MetadataLinks{
				Homepage: ctrl.Config.GetHomepageLink(),
				Register: ctrl.Config.GetRegisterLink(),
			},
		},
		SkinDomains:        ctrl.Config.GetSkinDomains(),
		SignaturePublickey: ctrl.Signer.PublicKeyPEM(),
	})
}

func (ctrl *AuthController) Authenticate(c *fiber.Ctx) error {
	var req AuthenticateRequest
	if err := c.BodyParser(&req); err != nil {
		return ctrl.renderBadRequest(c, "malformed request body")
	}

	if err := req.Validate(); err != nil {
		return ctrl.renderBadRequest(c, err.Error())
	}

	result, err := ctrl.Sessions.Login(c.Context(), req.Username, req.Password, req.ClientToken)
	if err != nil {
		return ctrl.renderError(c, err)
	}

	resp := AuthenticateResponse{
		AccessToken:       result.AccessToken,
		ClientToken:       result.ClientToken,
		AvailableProfiles: make([]ProfileRepresentation, 0, len(result.AvailableProfiles)),
	}

	for _, profile := range result.AvailableProfiles {
		resp.AvailableProfiles = append(resp.AvailableProfiles, ctrl.Presenter.Present(profile))
	}

	if result.Profile != nil {
		selected := ctrl.Presenter.PresentWithTextures(result.Profile)
		resp.SelectedProfile = &selected
	}

	if req.RequestUser {
		user := ctrl.Presenter.PresentUser(result.User)
		resp.User = &user
	}

	return c.JSON(resp)
}

func (ctrl *AuthController) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return ctrl.renderBadRequest(c, "malformed request body")
	}

	if err := req.Validate(); err != nil {
		return ctrl.renderBadRequest(c, err.Error())
	}

	selectedUUID := ""
	if req.SelectedProfile != nil {
		selectedUUID = req.SelectedProfile.ID
	}

	result, err := ctrl.Sessions.Refresh(c.Context(), req.AccessToken, req.ClientToken, selectedUUID)
	if err != nil {
		return ctrl.renderError(c, err)
	}

	resp := RefreshResponse{
		AccessToken: result.AccessToken,
		ClientToken: result.ClientToken,
	}

	if result.Profile != nil {
		selected := ctrl.Presenter.PresentWithTextures(result.Profile)
		resp.SelectedProfile = &selected
	}

	if req.RequestUser {
		user := ctrl.Presenter.PresentUser(result.User)
		resp.User = &user
	}

	return c.JSON(resp)
}

func (ctrl *AuthController) Validate(c *fiber.Ctx) error {
	var req ValidateRequest
	if err := c.BodyParser(&req); err != nil {
		return ctrl.renderBadRequest(c, "malformed request body")
	}

	if err := req.Validate(); err != nil {
		return ctrl.renderBadRequest(c, err.Error())
	}

	if err := ctrl.Sessions.Validate(c.Context(), req.AccessToken, req.ClientToken); err != nil {
		return ctrl.renderError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (ctrl *AuthController) Invalidate(c *fiber.Ctx) error {
	var req ValidateRequest
	if err := c.BodyParser(&req); err != nil {
		return ctrl.renderBadRequest(c, "malformed request body")
	}

	if err := req.Validate(); err != nil {
		return ctrl.renderBadRequest(c, err.Error())
	}

	if err := ctrl.Sessions.Invalidate(c.Context(), req.AccessToken); err != nil {
		return ctrl.renderError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (ctrl *AuthController) Signout(c *fiber.Ctx) error {
	var req SignoutRequest
	if err := c.BodyParser(&req); err != nil {
		return ctrl.renderBadRequest(c, "malformed request body")
	}

	if err := req.Validate(); err != nil {
		return ctrl.renderBadRequest(c, err.Error())
	}

	if err := ctrl.Sessions.Signout(c.Context(), req.Username, req.Password); err != nil {
		return ctrl.renderError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (ctrl *AuthController) renderBadRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:        "IllegalArgumentException",
		ErrorMessage: msg,
	})
}

// renderError maps the domain conditions onto the statuses and bodies
// launchers expect; anything else is reported as a generic server failure.
func (ctrl *AuthController) renderError(c *fiber.Ctx, err error) error {
	switch {
	case IsInvalidCredentials(err):
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Error:        "ForbiddenOperationException",
			ErrorMessage: "Invalid credentials. Invalid username or password.",
		})
	case IsInvalidToken(err):
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Error:        "ForbiddenOperationException",
			ErrorMessage: "Invalid token.",
		})
	case IsReassignProfile(err):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:        "IllegalArgumentException",
			ErrorMessage: "Access token already has a profile assigned.",
		})
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		ctrl.Logger.Error("request failed: %s (%s)", richErr.Message, richErr.Category)
	} else {
		ctrl.Logger.Error("request failed: %v", err)
	}

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:        "InternalServerError",
		ErrorMessage: "A database error occurred.",
	})
}
