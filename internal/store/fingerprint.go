package store

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

const (
	fieldSep  = 0x1f
	recordSep = 0x1e
)

// Fingerprint hashes every field of every record in order. Two sets loaded
// from the same content share a fingerprint in any process.
func (s *RecordSet) Fingerprint() string {
	d := xxhash.New()
	buf := make([]byte, 0, 256)
	for _, r := range s.records {
		buf = buf[:0]
		for _, f := range []string{
			r.OrderID, r.CustomerID, r.SellerID, r.ProductCategory,
			r.CustomerCity, r.CustomerState, r.SellerCity, r.SellerState,
			r.Status, r.ReviewID, r.TotalPrice.String(),
		} {
			buf = append(buf, f...)
			buf = append(buf, fieldSep)
		}
		buf = strconv.AppendInt(buf, r.PurchasedAt.UnixNano(), 10)
		buf = append(buf, fieldSep)
		if !r.DeliveredAt.IsZero() {
			buf = strconv.AppendInt(buf, r.DeliveredAt.UnixNano(), 10)
		}
		buf = append(buf, fieldSep)
		buf = strconv.AppendInt(buf, int64(r.Quantity), 10)
		buf = append(buf, fieldSep)
		if r.HasReviewScore {
			buf = strconv.AppendFloat(buf, r.ReviewScore, 'g', -1, 64)
		}
		buf = append(buf, recordSep)
		_, _ = d.Write(buf)
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
