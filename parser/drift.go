package parser

import (
	"bytes"
	"hash/fnv"
	"log/slog"
	"math/bits"
	"sort"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// PageKind names a page layout tracked by the DriftDetector.
type PageKind string

const (
	PageSnapshot PageKind = "snapshot"
	PageSector   PageKind = "sector"
)

// DriftDetector keeps a structural fingerprint per page kind and reports when
// a newly fetched page looks structurally different from the first one seen.
// It is safe for concurrent use.
type DriftDetector struct {
	threshold int

	mu        sync.Mutex
	baselines map[PageKind]uint64
}

// NewDriftDetector returns a detector that flags pages whose fingerprint is
// more than threshold bits away from the baseline. A threshold <= 0 disables
// detection and nil is returned; a nil detector never reports drift.
func NewDriftDetector(threshold int) *DriftDetector {
	if threshold <= 0 {
		return nil
	}
	return &DriftDetector{
		threshold: threshold,
		baselines: make(map[PageKind]uint64),
	}
}

// Observe fingerprints doc and compares it with the baseline for kind. The
// first document of each kind becomes the baseline and is never drifted.
func (d *DriftDetector) Observe(kind PageKind, doc []byte) (distance int, drifted bool) {
	if d == nil {
		return 0, false
	}
	fp := StructureFingerprint(doc)

	d.mu.Lock()
	base, ok := d.baselines[kind]
	if !ok {
		d.baselines[kind] = fp
	}
	d.mu.Unlock()

	if !ok {
		return 0, false
	}
	distance = bits.OnesCount64(base ^ fp)
	if distance > d.threshold {
		slog.Warn("page layout drift detected",
			"kind", string(kind),
			"distance", distance,
			"threshold", d.threshold,
		)
		return distance, true
	}
	return distance, false
}

// StructureFingerprint is a 64-bit SimHash over 3-shingles of the page's
// start tags, each tag annotated with its sorted class list. Text content is
// ignored, so quote pages for different tickers fingerprint alike.
func StructureFingerprint(doc []byte) uint64 {
	tags := structureTokens(doc)
	if len(tags) == 0 {
		return 0
	}
	if len(tags) < 3 {
		return simhash(tags)
	}
	shingles := make([]string, 0, len(tags)-2)
	for i := 0; i+3 <= len(tags); i++ {
		shingles = append(shingles, tags[i]+"_"+tags[i+1]+"_"+tags[i+2])
	}
	return simhash(shingles)
}

func structureTokens(doc []byte) []string {
	z := html.NewTokenizer(bytes.NewReader(doc))
	var tokens []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			return tokens
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tok := string(name)
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if string(key) == "class" {
					classes := strings.Fields(string(val))
					sort.Strings(classes)
					tok += "." + strings.Join(classes, ".")
				}
			}
			tokens = append(tokens, tok)
		}
	}
}

func simhash(tokens []string) uint64 {
	var weights [64]int
	for _, tok := range tokens {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()
		for bit := 0; bit < 64; bit++ {
			if sum&(1<<uint(bit)) != 0 {
				weights[bit]++
			} else {
				weights[bit]--
			}
		}
	}

	var fp uint64
	for bit, w := range weights {
		if w > 0 {
			fp |= 1 << uint(bit)
		}
	}
	return fp
}
