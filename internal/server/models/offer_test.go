package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnlock_MarshalJSON(t *testing.T) {
	ids := Unlock{ID: "u1", FileID: "f1", OfferIDs: []string{"o1", "o2"}}
	b, err := json.Marshal(ids)
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"u1","file":"f1","offers":["o1","o2"]}`, string(b))

	empty := Unlock{ID: "u1", FileID: "f1"}
	b, err = json.Marshal(&empty)
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"u1","file":"f1","offers":[]}`, string(b))

	populated := Unlock{ID: "u1", FileID: "f1", OfferIDs: []string{"o1"}, Offers: []*Offer{{
		ID: "o1", DiamondRangeIndex: 3, Contract: &Contract{ID: "c1", Address: "0xabc"},
	}}}
	b, err = json.Marshal(populated)
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"u1","file":"f1","offers":[{"_id":"o1","diamondRangeIndex":3,
		"contract":{"_id":"c1","contractAddress":"0xabc"}}]}`, string(b))
}

func TestUnlock_HasOffer(t *testing.T) {
	u := &Unlock{OfferIDs: []string{"a", "b"}}
	assert.True(t, u.HasOffer("b"))
	assert.False(t, u.HasOffer("c"))
}

func TestFile_KeyNeverSerialised(t *testing.T) {
	b, err := json.Marshal(&File{ID: "f1", Title: "t", Key: "secret", CategoryID: "c1"})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret")
}
