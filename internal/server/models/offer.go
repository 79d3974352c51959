package models

import "encoding/json"

// Contract is a deployed token contract.
type Contract struct {
	ID         string `json:"_id"`
	Address    string `json:"contractAddress"`
	Blockchain string `json:"blockchain,omitempty"`
	Title      string `json:"title,omitempty"`
}

// Offer is a sellable range within a token contract.
type Offer struct {
	ID                string    `json:"_id"`
	ContractID        string    `json:"-"`
	Contract          *Contract `json:"contract,omitempty"`
	DiamondRangeIndex int64     `json:"diamondRangeIndex"`
	OfferName         string    `json:"offerName,omitempty"`
}

// MintedToken is a token actually minted from an offer range.
// Offer holds the diamond range index, not an offer id.
type MintedToken struct {
	ID         string `json:"_id"`
	ContractID string `json:"contract"`
	Offer      int64  `json:"offer"`
	Token      int64  `json:"token"`
	Owner      string `json:"ownerAddress"`
}

// Unlock links a file to the offers whose tokens unlock it.
// OfferIDs is an ordered set; Offers is only filled when populated.
type Unlock struct {
	ID       string   `json:"_id"`
	FileID   string   `json:"file"`
	OfferIDs []string `json:"-"`
	Offers   []*Offer `json:"-"`
	Version  int64    `json:"-"`
}

// HasOffer reports whether id is already linked.
func (u *Unlock) HasOffer(id string) bool {
	for _, o := range u.OfferIDs {
		if o == id {
			return true
		}
	}
	return false
}

// MarshalJSON renders offers as populated documents when loaded, ids otherwise.
func (u Unlock) MarshalJSON() ([]byte, error) {
	type unlockJSON struct {
		ID     string `json:"_id"`
		FileID string `json:"file"`
		Offers any    `json:"offers"`
	}
	out := unlockJSON{ID: u.ID, FileID: u.FileID}
	switch {
	case u.Offers != nil:
		out.Offers = u.Offers
	case u.OfferIDs != nil:
		out.Offers = u.OfferIDs
	default:
		out.Offers = []string{}
	}
	return json.Marshal(out)
}
