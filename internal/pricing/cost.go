// Package pricing derives event request totals from their itemized charge
// components.  The calculation is a pure function so callers recompute the
// whole total before persisting instead of patching it incrementally; the
// stored total is therefore always reproducible from the charge columns.
package pricing

// BasisPointDivisor converts basis points to a multiplier: 10% = 1000 bp.
const BasisPointDivisor = 10000

// Total computes the derived cost of an event request in integer cents:
//
//	(venue + service + additional - discount) * (1 + tax)
//
// with tax expressed in basis points.  A discount larger than the charge
// subtotal clamps the taxable base to zero rather than going negative.  The
// final division rounds half-up to the nearest cent; this is a deliberate,
// tested choice since the upstream contract specifies no rounding rule.
func Total(venueCents, serviceCents, additionalCents, discountCents uint64, taxBP uint32) uint64 {
    subtotal := venueCents + serviceCents + additionalCents
    if discountCents >= subtotal {
        return 0
    }
    base := subtotal - discountCents
    gross := base * uint64(BasisPointDivisor+taxBP)
    // Half-up rounding on the basis point division.
    return (gross + BasisPointDivisor/2) / BasisPointDivisor
}
