package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"webasset/model"
)

type siteDirectoryStub struct {
	byID   map[string]*model.BankingSite
	byCode map[string]*model.BankingSite
}

func (s *siteDirectoryStub) ListActive() ([]*model.BankingSite, error) {
	var sites []*model.BankingSite
	for _, site := range s.byID {
		if site.IsActive {
			sites = append(sites, site)
		}
	}
	return sites, nil
}

func (s *siteDirectoryStub) FindByID(id string) (*model.BankingSite, error) {
	return s.byID[id], nil
}

func (s *siteDirectoryStub) FindByCode(code string) (*model.BankingSite, error) {
	return s.byCode[code], nil
}

func siteContext(ref string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/banking/sites/"+ref, nil)
	c.Params = gin.Params{{Key: "id", Value: ref}}
	return c, w
}

func TestGetBankingSiteByCodeFallback(t *testing.T) {
	site := &model.BankingSite{ID: "site-1", Code: "FNB", Name: "First National", IsActive: true}
	stub := &siteDirectoryStub{
		byID:   map[string]*model.BankingSite{"site-1": site},
		byCode: map[string]*model.BankingSite{"FNB": site},
	}

	for _, ref := range []string{"site-1", "FNB"} {
		c, w := siteContext(ref)
		GetBankingSite(c, stub)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200 for %q, got %d", ref, w.Code)
		}
		var resp struct {
			Data struct {
				Code string `json:"code"`
			} `json:"data"`
		}
		json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.Data.Code != "FNB" {
			t.Errorf("Expected site FNB for %q, got %q", ref, resp.Data.Code)
		}
	}
}

func TestGetBankingSiteUnknown(t *testing.T) {
	stub := &siteDirectoryStub{byID: map[string]*model.BankingSite{}, byCode: map[string]*model.BankingSite{}}
	c, w := siteContext("nope")
	GetBankingSite(c, stub)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestGetBankingSiteInactive(t *testing.T) {
	site := &model.BankingSite{ID: "site-1", Code: "OLD", IsActive: false}
	stub := &siteDirectoryStub{
		byID:   map[string]*model.BankingSite{"site-1": site},
		byCode: map[string]*model.BankingSite{},
	}
	c, w := siteContext("site-1")
	GetBankingSite(c, stub)
	if w.Code != http.StatusNotFound {
		t.Errorf("Inactive site should be invisible, got %d", w.Code)
	}
}
