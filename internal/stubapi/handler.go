package stubapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/udaycodespace/credify/pkg/rest"
)

type Handler struct {
	Service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{Service: service}
}

// BlockchainStatus handles GET /api/blockchain_status.
func (h *Handler) BlockchainStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.Status())
}

// VerifyCredential handles POST /api/verify_credential.
func (h *Handler) VerifyCredential(c *gin.Context) {
	var req struct {
		CredentialID string `json:"credential_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || NormalizeID(req.CredentialID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Credential ID is required"})
		return
	}
	c.JSON(http.StatusOK, h.Service.Verify(req.CredentialID))
}

// SelectiveDisclosure handles POST /api/selective_disclosure.
func (h *Handler) SelectiveDisclosure(c *gin.Context) {
	var req struct {
		CredentialID string   `json:"credential_id"`
		Fields       []string `json:"fields"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || NormalizeID(req.CredentialID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Credential ID is required"})
		return
	}
	if len(req.Fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one field must be selected"})
		return
	}
	c.JSON(http.StatusOK, h.Service.Disclose(req.CredentialID, req.Fields))
}

// Routes lists the endpoints under the api group.
func (h *Handler) Routes() []rest.Route {
	return []rest.Route{
		rest.NewRoute(rest.GET, "api", "/blockchain_status", h.BlockchainStatus),
		rest.NewRoute(rest.POST, "api", "/verify_credential", h.VerifyCredential),
		rest.NewRoute(rest.POST, "api", "/selective_disclosure", h.SelectiveDisclosure),
	}
}
