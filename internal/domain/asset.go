package domain

import "errors"

// AssetID identifies a fungible asset. The exchange core never interprets
// the id; it only keys registries and ledger calls with it.
type AssetID string

var ErrAssetNotFound = errors.New("asset not found")

// Asset is an asset id plus the decimal scale of its fixed-point unit
// (e.g. 6 for a micro-denominated stable, 18 for a wei-denominated token).
// Immutable once a shard references it.
type Asset struct {
	ID           AssetID `json:"id"`
	DecimalScale uint8   `json:"decimalScale"`
}

// AssetDirectory resolves asset ids to their decimal scale. Supplied by the
// embedding application; the core only consumes it.
type AssetDirectory interface {
	Lookup(id AssetID) (Asset, error)
}
