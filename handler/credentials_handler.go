package handler

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"webasset/dto"
	"webasset/model"
	"webasset/services"
	"webasset/utils"
)

// CredentialLister is the read-only credential metadata surface. Only
// references and names come out of here, never secret values.
type CredentialLister interface {
	ListBySite(siteID string) ([]*model.BankingCredential, error)
}

// SecretLister lists non-sensitive secret metadata from the secret store.
type SecretLister interface {
	ListSecrets(ctx context.Context, environment, path string) ([]services.SecretMeta, error)
}

// ListSiteCredentials returns the credential references registered for a
// banking site.
func ListSiteCredentials(c *gin.Context, credentials CredentialLister) {
	siteID := c.Param("id")
	if siteID == "" {
		utils.BadRequest(c, "Missing site id")
		return
	}

	creds, err := credentials.ListBySite(siteID)
	if err != nil {
		log.Printf("Error listing credentials for site %s: %v", siteID, err)
		utils.InternalError(c, "Failed to fetch credentials")
		return
	}

	responses := make([]dto.CredentialResponse, 0, len(creds))
	for _, cred := range creds {
		responses = append(responses, dto.ToCredentialResponse(cred))
	}

	utils.Success(c, gin.H{"credentials": responses})
}

// ListStoredSecrets returns the secret references available under the
// banking path of the secret store, for wiring new credential records.
func ListStoredSecrets(c *gin.Context, secrets SecretLister, environment string) {
	metas, err := secrets.ListSecrets(c.Request.Context(), environment, "/banking")
	if err != nil {
		log.Printf("Error listing stored secrets: %v", err)
		utils.BadGateway(c, "Failed to fetch secret references")
		return
	}

	utils.Success(c, gin.H{"secrets": metas})
}
