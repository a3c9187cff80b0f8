package httptransport

import "consentadmin/internal/reconcile"

type errorResponse struct {
	Error string `json:"error"`
}

type actionResponse struct {
	IsStored bool `json:"isStored"`
}

type listingEntry struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	ServiceURL  string              `json:"serviceUrl,omitempty"`
	Status      string              `json:"status"`
	Attributes  map[string][]string `json:"attributes"`
}

type listingResponse struct {
	RelyingParties  []listingEntry `json:"relyingParties"`
	ShowDescription bool           `json:"showDescription"`
}

func toListingEntries(entries []reconcile.Entry) []listingEntry {
	out := make([]listingEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, listingEntry{
			ID:          e.RelyingPartyID,
			Name:        e.DisplayName,
			Description: e.Description,
			ServiceURL:  e.ServiceURL,
			Status:      string(e.Status),
			Attributes:  e.ReleasedAttributes,
		})
	}
	return out
}
