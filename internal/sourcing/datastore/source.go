// Package datastore fetches vendor and part records for scoring.
//
// Three sources share one contract: a Notion-style database API, a local
// YAML/JSON dataset file, and the same dataset file stored in a GitHub
// repository. Every failure is returned as a *SourceError, and a source never
// returns a partial dataset alongside an error.
package datastore

import (
	"context"

	"github.com/build-flow-labs/vendorscore/schema"
)

// Source loads a complete dataset.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (*Dataset, error)
}

// Dataset is the unit exchanged with the scoring pipeline.
type Dataset struct {
	Vendors []schema.Vendor `json:"vendors" yaml:"vendors"`
	Parts   []schema.Part   `json:"parts" yaml:"parts"`
}

// PartsByVendor groups parts by VendorID.
func (d *Dataset) PartsByVendor() map[string][]schema.Part {
	out := make(map[string][]schema.Part, len(d.Vendors))
	for _, p := range d.Parts {
		out[p.VendorID] = append(out[p.VendorID], p)
	}
	return out
}

// Vendor returns the vendor with the given ID.
func (d *Dataset) Vendor(id string) (schema.Vendor, bool) {
	for _, v := range d.Vendors {
		if v.ID == id {
			return v, true
		}
	}
	return schema.Vendor{}, false
}

// clean drops records that cannot be keyed and fills vendor names on parts.
// It returns how many records were dropped.
func (d *Dataset) clean() int {
	dropped := 0
	names := make(map[string]string, len(d.Vendors))
	vendors := d.Vendors[:0]
	for _, v := range d.Vendors {
		if v.ID == "" {
			dropped++
			continue
		}
		names[v.ID] = v.Name
		vendors = append(vendors, v)
	}
	d.Vendors = vendors

	parts := d.Parts[:0]
	for _, p := range d.Parts {
		if p.VendorID == "" {
			dropped++
			continue
		}
		if p.VendorName == "" {
			p.VendorName = names[p.VendorID]
		}
		parts = append(parts, p)
	}
	d.Parts = parts
	return dropped
}
