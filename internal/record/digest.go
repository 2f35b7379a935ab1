package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// DomainSnapshot separates snapshot digests from any other hash the tool
// may compute over the same bytes. The version suffix allows migration.
const DomainSnapshot = "brancheval/snapshot/v1"

// snapshotNamespace is the UUIDv5 namespace for snapshot identifiers.
var snapshotNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/roach88/brancheval/snapshot"))

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Canonical returns the record as plain maps for canonical encoding.
func (r RunRecord) Canonical() any {
	var branch any
	if r.HasBranch {
		branch = r.Branch
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	summary := r.Summary
	if summary == nil {
		summary = Values{}
	}
	config := r.Config
	if config == nil {
		config = Values{}
	}
	return map[string]any{
		"id":         r.ID,
		"name":       r.Name,
		"project":    r.Project,
		"branch":     branch,
		"state":      string(r.State),
		"created_at": r.CreatedAt,
		"last_step":  r.LastStep,
		"summary":    summary,
		"config":     config,
		"tags":       tags,
		"notes":      r.Notes,
	}
}

// SnapshotDigest computes a content digest of runs that is independent of
// input order. Records are sorted by ID, then creation time.
func SnapshotDigest(runs []RunRecord) (string, error) {
	sorted := slices.Clone(runs)
	slices.SortFunc(sorted, func(a, b RunRecord) int {
		if c := strings.Compare(a.ID, b.ID); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	list := make([]any, len(sorted))
	for i, r := range sorted {
		list[i] = r
	}
	canonical, err := MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("SnapshotDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}

// SnapshotID returns a name-based UUID (v5) for the snapshot. Identical
// snapshots always get the same ID.
func SnapshotID(runs []RunRecord) (string, error) {
	digest, err := SnapshotDigest(runs)
	if err != nil {
		return "", err
	}
	return uuid.NewSHA1(snapshotNamespace, []byte(digest)).String(), nil
}
