// Package sightings decodes the wildlife sighting dataset and filters it by
// date range and species.
//
// The dataset is a plain comma-delimited file with a fixed 43-column layout.
// Columns are addressed by position, not by header name, so any change to the
// upstream column order silently breaks decoding.
package sightings

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SpeciesNames lists the species flags in dataset column order (columns 24..42).
var SpeciesNames = [NumSpecies]string{
	"blueWildebeest",
	"buffalo",
	"bushbuck",
	"bushpig",
	"commonReedbuck",
	"duikerGrey",
	"duikerRed",
	"eland",
	"elephant",
	"hartebeest",
	"hippo",
	"impala",
	"kudu",
	"nyala",
	"oribi",
	"sable",
	"warthog",
	"waterbuck",
	"zebra",
}

const NumSpecies = 19

// SpeciesIndex returns the position of name in SpeciesNames.
func SpeciesIndex(name string) (int, bool) {
	for i, s := range SpeciesNames {
		if s == name {
			return i, true
		}
	}
	return 0, false
}

// Species holds one presence flag per entry of SpeciesNames. It always
// encodes as a JSON object carrying every key.
type Species [NumSpecies]bool

// Has reports whether the named species is flagged. Unknown names are false.
func (s Species) Has(name string) bool {
	i, ok := SpeciesIndex(name)
	return ok && s[i]
}

func (s Species) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range SpeciesNames {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:%t", name, s[i])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *Species) UnmarshalJSON(data []byte) error {
	var m map[string]bool
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("invalid species: %w", err)
	}
	*s = Species{}
	for name, v := range m {
		i, ok := SpeciesIndex(name)
		if !ok {
			return fmt.Errorf("unknown species %v", name)
		}
		s[i] = v
	}
	return nil
}

// Record is one decoded row of the dataset. Numeric fields are nil when the
// source column is missing or has no numeric prefix.
type Record struct {
	ID        string   `json:"id"`
	Year      *int     `json:"year"`
	Month     *int     `json:"month"`
	Date      string   `json:"date"`
	Time      string   `json:"time"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Number    *int     `json:"number"`
	Species   Species  `json:"species"`
}

// MonthIndex returns year*12+month, or false when either part is unknown.
func (r Record) MonthIndex() (int, bool) {
	if r.Year == nil || r.Month == nil {
		return 0, false
	}
	return *r.Year*12 + *r.Month, true
}
