package router

import (
	"errors"

	"github.com/hxuan190/shard-exchange/internal/domain"
	"github.com/hxuan190/shard-exchange/internal/services/curve"
)

// rejectReason maps a per-candidate quote failure onto a metrics label.
// Unknown errors are still counted; they just land in a catch-all bucket.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, curve.ErrThresholdExceeded):
		return "threshold_exceeded"
	case errors.Is(err, curve.ErrZeroReserve):
		return "zero_reserve"
	case errors.Is(err, curve.ErrOverflow):
		return "overflow"
	case errors.Is(err, curve.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrNotInitialized):
		return "not_initialized"
	case errors.Is(err, domain.ErrUnknownAsset):
		return "unknown_asset"
	default:
		return "other"
	}
}
