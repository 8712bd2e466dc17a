package model

// Capability codes checked by the HTTP boundary.
const (
	CapEditAnyProduct = "product:edit_any"
	CapEditOwnProduct = "product:edit_own"
	CapManageTaxonomy = "taxonomy:manage"
	CapUploadImages   = "media:upload"
	CapSync           = "catalogue:sync"
)

// Capabilities is the set of mutation affordances a role grants.
type Capabilities struct {
	CanEditAnyProduct bool `json:"canEditAnyProduct"`
	CanEditOwnProduct bool `json:"canEditOwnProduct"`
	CanManageTaxonomy bool `json:"canManageTaxonomy"`
	CanUploadImages   bool `json:"canUploadImages"`
	CanSync           bool `json:"canSync"`
}

// CapabilitiesFor derives the capability set of a role. It is the only
// place that maps roles to permissions.
func CapabilitiesFor(r Role) Capabilities {
	switch r {
	case RoleAdmin:
		return Capabilities{
			CanEditAnyProduct: true,
			CanEditOwnProduct: true,
			CanManageTaxonomy: true,
			CanUploadImages:   true,
			CanSync:           true,
		}
	case RoleRetailer:
		return Capabilities{
			CanEditOwnProduct: true,
			CanUploadImages:   true,
		}
	default:
		return Capabilities{}
	}
}

// Has checks a capability by code
func (c Capabilities) Has(code string) bool {
	switch code {
	case CapEditAnyProduct:
		return c.CanEditAnyProduct
	case CapEditOwnProduct:
		return c.CanEditOwnProduct
	case CapManageTaxonomy:
		return c.CanManageTaxonomy
	case CapUploadImages:
		return c.CanUploadImages
	case CapSync:
		return c.CanSync
	}
	return false
}

// Codes returns the granted capability codes.
func (c Capabilities) Codes() []string {
	codes := []string{}
	for _, code := range []string{CapEditAnyProduct, CapEditOwnProduct, CapManageTaxonomy, CapUploadImages, CapSync} {
		if c.Has(code) {
			codes = append(codes, code)
		}
	}
	return codes
}

// CanEditProduct reports whether a holder of c acting as userID may
// change a product owned by retailerID.
func (c Capabilities) CanEditProduct(userID, retailerID string) bool {
	if c.CanEditAnyProduct {
		return true
	}
	return c.CanEditOwnProduct && userID != "" && userID == retailerID
}
