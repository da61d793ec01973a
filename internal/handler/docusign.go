package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/toshahriar/documenter/internal/apperr"
	"github.com/toshahriar/documenter/internal/config"
	"github.com/toshahriar/documenter/internal/model"
	"github.com/toshahriar/documenter/internal/utils"
)

// DocusignHandler implements the provider OAuth consent flow and the
// webhook receiver.
type DocusignHandler struct {
	cfg          config.Config
	signer       EnvelopeSender
	integrations IntegrationStore
}

func NewDocusignHandler(cfg config.Config, signer EnvelopeSender, integrations IntegrationStore) *DocusignHandler {
	return &DocusignHandler{cfg: cfg, signer: signer, integrations: integrations}
}

// Auth redirects the authenticated user to the provider consent screen.
// The user id rides in the OAuth state parameter and comes back on the
// callback.
func (h *DocusignHandler) Auth(c echo.Context) error {
	uid := currentUserID(c)
	if uid == "" {
		return apperr.Authentication("User not authenticated.")
	}

	authURL := h.signer.AuthURL(h.cfg.APIURL+"/v1/docusign/auth/callback", uid)
	return c.Redirect(http.StatusFound, authURL)
}

// AuthCallback stores the provider's callback payload against the user from
// the state parameter and sends the browser back to the dashboard.
func (h *DocusignHandler) AuthCallback(c echo.Context) error {
	params := c.QueryParams()
	if len(params) == 0 {
		return apperr.BadRequest("DocuSign authentication failed")
	}
	state := c.QueryParam("state")
	if state == "" {
		return apperr.BadRequest("DocuSign authentication failed")
	}

	metadata := model.JSON{}
	for k, v := range params {
		if len(v) == 1 {
			metadata[k] = v[0]
		} else {
			metadata[k] = v
		}
	}

	if err := h.integrations.Upsert(c.Request().Context(), state, metadata); err != nil {
		return apperr.Database("Failed to save integration", err)
	}
	return c.Redirect(http.StatusFound, "/admin/dashboard")
}

// Webhook acknowledges provider status callbacks. Payloads are logged for
// now; status reconciliation is driven by the dashboard polling instead.
func (h *DocusignHandler) Webhook(c echo.Context) error {
	var payload map[string]any
	if err := c.Bind(&payload); err == nil && len(payload) > 0 {
		c.Logger().Infof("docusign webhook: %v", payload)
	}

	return utils.Respond(c).
		Message("Web hook api called!").
		Notify().
		Send()
}
