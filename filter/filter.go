package filter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ftl/ais-nmea/ais"
	"github.com/ftl/ais-nmea/message"
)

// The filter names.
const (
	BaseStation   = "basestation"
	Region        = "region"
	Country       = "country"
	TargetCountry = "targetCountry"
)

var filterNames = map[string]bool{
	BaseStation:   true,
	Region:        true,
	Country:       true,
	TargetCountry: true,
}

// SourceTag describes where a message was received.
type SourceTag struct {
	BaseStation ais.MMSI
	Region      string
	Country     string
}

// CountryLookup returns the country code of the given MMSI, or the empty string if it is unknown.
type CountryLookup func(ais.MMSI) string

// MIDLookup creates a CountryLookup from a table of maritime identification digits to country codes.
func MIDLookup(table map[string]string) CountryLookup {
	return func(mmsi ais.MMSI) string {
		return table[mmsi.MID()]
	}
}

// SourceFilter accepts messages based on their source tag. A message is accepted if, for every
// configured filter, the corresponding value of the message is one of the accepted values.
// An empty filter accepts every message.
type SourceFilter struct {
	values map[string]map[string]bool
	lookup CountryLookup
}

// NewSourceFilter creates an empty filter. The lookup is used for the targetCountry filter and may be nil.
func NewSourceFilter(lookup CountryLookup) *SourceFilter {
	return &SourceFilter{
		values: make(map[string]map[string]bool),
		lookup: lookup,
	}
}

// Add an accepted value for the given filter.
func (f *SourceFilter) Add(name, value string) error {
	if !filterNames[name] {
		return fmt.Errorf("unknown filter %q", name)
	}
	values, ok := f.values[name]
	if !ok {
		values = make(map[string]bool)
		f.values[name] = values
	}
	values[value] = true
	return nil
}

// Parse adds the accepted values from a definition like "region=north,country=DNK".
func (f *SourceFilter) Parse(definition string) error {
	for _, item := range strings.Split(definition, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid filter %q, expected name=value", item)
		}
		if err := f.Add(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])); err != nil {
			return err
		}
	}
	return nil
}

// Empty reports whether no filter is configured.
func (f *SourceFilter) Empty() bool {
	return len(f.values) == 0
}

// Accept reports whether the message from the given source passes the filter. Messages without
// source tag only pass an empty filter.
func (f *SourceFilter) Accept(m message.Message, tag *SourceTag) bool {
	if f.Empty() {
		return true
	}
	if tag == nil {
		return false
	}

	tagValues := make(map[string]string)
	if tag.BaseStation != ais.Broadcast {
		tagValues[BaseStation] = strconv.FormatUint(uint64(tag.BaseStation), 10)
	}
	if tag.Region != "" {
		tagValues[Region] = tag.Region
	}
	if tag.Country != "" {
		tagValues[Country] = tag.Country
	}
	if f.lookup != nil {
		if country := f.lookup(m.MessageHeader().UserID); country != "" {
			tagValues[TargetCountry] = country
		}
	}

	for name, values := range f.values {
		value, ok := tagValues[name]
		if !ok || !values[value] {
			return false
		}
	}
	return true
}

func (f *SourceFilter) String() string {
	items := make([]string, 0)
	for name, values := range f.values {
		for value := range values {
			items = append(items, name+"="+value)
		}
	}
	sort.Strings(items)
	return strings.Join(items, ",")
}
