package sightings

import (
	"strconv"
	"strings"
)

// column positions in the source file
const (
	colID        = 1
	colYear      = 2
	colMonth     = 3
	colDate      = 4
	colTime      = 5
	colLatitude  = 9
	colLongitude = 10
	colNumber    = 13
	colSpecies   = 24
)

// Decode parses the full dataset. The first line is a header and is skipped.
// Blank lines are skipped. Fields are split on commas with no quoting support.
func Decode(data []byte) []Record {
	lines := strings.Split(string(data), "\n")
	if len(lines) < 2 {
		return nil
	}

	records := make([]Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, DecodeLine(line))
	}
	return records
}

// DecodeLine parses one data line by column position.
func DecodeLine(line string) Record {
	fields := strings.Split(line, ",")
	field := func(i int) (string, bool) {
		if i < len(fields) {
			return fields[i], true
		}
		return "", false
	}

	var r Record
	r.ID, _ = field(colID)
	r.Date, _ = field(colDate)
	r.Time, _ = field(colTime)
	r.Year = looseInt(field(colYear))
	r.Month = looseInt(field(colMonth))
	r.Latitude = looseFloat(field(colLatitude))
	r.Longitude = looseFloat(field(colLongitude))
	r.Number = looseInt(field(colNumber))
	for i := range r.Species {
		v, _ := field(colSpecies + i)
		r.Species[i] = v == "True"
	}
	return r
}

func looseInt(s string, ok bool) *int {
	if !ok {
		return nil
	}
	n, ok := ParseLooseInt(s)
	if !ok {
		return nil
	}
	return &n
}

func looseFloat(s string, ok bool) *float64 {
	if !ok {
		return nil
	}
	f, ok := ParseLooseFloat(s)
	if !ok {
		return nil
	}
	return &f
}

// ParseLooseInt parses the leading base-10 integer of s, ignoring leading
// whitespace and anything after the digits ("12abc" is 12, "3.7" is 3).
func ParseLooseInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseLooseFloat parses the longest leading decimal number of s, ignoring
// leading whitespace ("-25.1x" is -25.1).
func ParseLooseFloat(s string) (float64, bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	mantissa := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
		mantissa++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
			mantissa++
		}
	}
	if mantissa == 0 {
		return 0, false
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		start := exp
		for exp < len(s) && s[exp] >= '0' && s[exp] <= '9' {
			exp++
		}
		if exp > start {
			end = exp
		}
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
