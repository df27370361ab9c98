package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content-addressed identity. The version suffix
// enables future algorithm migration without ambiguity.
const (
	DomainIntent = "repoql/intent/v1"
	DomainSchema = "repoql/schema/v1"
)

// HashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null separator prevents
// domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SchemaFingerprint computes a stable identity for a record spec. Two specs
// with the same name, table, and field list (order included) share a
// fingerprint.
func SchemaFingerprint(r RecordSpec) (string, error) {
	fields := make([]any, len(r.Fields))
	for i, f := range r.Fields {
		fields[i] = map[string]any{
			"name":        f.Name,
			"type":        string(f.Type),
			"primary_key": f.PrimaryKey,
		}
	}
	canonical, err := MarshalCanonical(map[string]any{
		"name":   r.Name,
		"table":  r.Table,
		"fields": fields,
	})
	if err != nil {
		return "", err
	}
	return HashWithDomain(DomainSchema, canonical), nil
}
