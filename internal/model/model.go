// Package model defines the data structures used in the craigsBot application, including Query, Posting, and Listing. These represent a search against the classifieds site, a raw posting returned by that search, and a posting stored in the database, respectively.
package model

import "time"

const SortNewest = "newest"

type Query struct {
	Site      string
	Category  string
	MinPrice  int
	MaxPrice  int
	HasImage  bool
	SortBy    string
	Geotagged bool
	Limit     int
}

type Geotag struct {
	Lat float64
	Lon float64
}

// Posting is a posting exactly as the source reports it. Datetime and Price
// keep their raw text.
type Posting struct {
	ID       int64
	URL      string
	Datetime string
	Name     string
	Price    string
	Where    string
	HasImage bool
	Geotag   *Geotag
}

// Listing is a posting that has been seen. CLID is the dedupe key.
// Price is nil when the source price text could not be parsed.
type Listing struct {
	ID       int64
	Link     string
	Created  time.Time
	Name     string
	Price    *float64
	Location string
	CLID     int64
}
