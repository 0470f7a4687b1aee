package lp

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/dornbi/bltools-go/internal/offers"
	"github.com/dornbi/bltools-go/internal/parts"
)

// ComputeDigest derives a stable hex digest over (parts_needed,
// filtered_offers), adapted from the teacher's pricegroups hashing: a
// canonical sorted string is built and hashed with SHA-256, so identical
// inputs always produce byte-identical artifact filenames (spec.md §4.4,
// invariant 8).
func ComputeDigest(demand parts.Needed, filtered offers.ByItem) string {
	items := demand.Items()

	var sb strings.Builder
	for _, item := range items {
		sb.WriteString(item.Key())
		sb.WriteByte(':')
		fmt.Fprintf(&sb, "%d", demand[item])
		sb.WriteByte('\n')

		offerList := make([]offers.Offer, len(filtered[item]))
		copy(offerList, filtered[item])
		sort.Slice(offerList, func(i, j int) bool { return offerList[i].ShopName < offerList[j].ShopName })
		for _, o := range offerList {
			fmt.Fprintf(&sb, "  %s:%.5f:%d:%.5f\n", o.ShopName, o.UnitPrice, o.QuantityAvail, o.MinBuy)
		}
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])[:8] // 32-bit digest (8 hex chars), per spec.md §6
}

// ArtifactPaths returns the cache paths for the model and solution files
// derived from stem (the input model filename's basename without
// extension) and digest, per spec.md §6: `<stem>.<digest>.ampl` and
// `<stem>.<digest>.solution`.
func ArtifactPaths(cacheDir, stem, digest string) (modelPath, solutionPath string) {
	base := fmt.Sprintf("%s/%s.%s", cacheDir, stem, digest)
	return base + ".ampl", base + ".solution"
}
