package metadata

// GUIDTypeDiscovery is the record type assigned to every entry produced by
// the normalization pipeline.
const GUIDTypeDiscovery = "discovery_metadata"

// DiscoveryField is the key under which normalized study fields live
// inside a stored document.
const DiscoveryField = "gen3_discovery"

// Record is a single canonical metadata entry as persisted in the store.
//
// Every record carries a non-empty GUIDType and a Discovery map holding the
// normalized (flat or nested, JSON-compatible) study fields.
type Record struct {
	GUIDType  string         `json:"_guid_type"`
	Discovery map[string]any `json:"gen3_discovery"`
}

// RecordSet maps GUIDs to canonical records. It is the output of adapter
// normalization and the input to the population load step.
type RecordSet map[string]Record

// NewRecord wraps a set of normalized discovery fields into a Record with
// the standard discovery GUID type.
func NewRecord(discovery map[string]any) Record {
	return Record{
		GUIDType:  GUIDTypeDiscovery,
		Discovery: discovery,
	}
}

// Document returns the record in stored-document form, the shape written to
// and read back from the store.
func (r Record) Document() map[string]any {
	return map[string]any{
		"_guid_type":    r.GUIDType,
		DiscoveryField:  r.Discovery,
	}
}
