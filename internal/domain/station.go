package domain

// RawTable is a fetched CSV slice before normalization: a header and the rows
// underneath it, both kept as strings.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// Station is one charging point after normalization. Optional numeric fields
// are pointers so "absent" and "zero" stay distinguishable.
type Station struct {
	ID         string            `json:"id,omitempty"`
	Operator   string            `json:"operator"`
	PowerKW    *float64          `json:"power_kw,omitempty"`
	Latitude   *float64          `json:"latitude,omitempty"`
	Longitude  *float64          `json:"longitude,omitempty"`
	InseeCode  string            `json:"insee_code,omitempty"`
	Address    string            `json:"address,omitempty"`
	Department string            `json:"department,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Table is an ordered sequence of stations. Duplicates are not deduplicated;
// a row has no identity beyond its position.
type Table []Station

// FilterSelection is the ephemeral, session-scoped user selection.
// An empty Departments slice means no department filtering. PowerMax of
// +Inf (or math.MaxFloat64) leaves the upper bound open.
type FilterSelection struct {
	Departments []string
	PowerMin    float64
	PowerMax    float64
}

// OperatorCount is one entry of the "top operators" summary.
type OperatorCount struct {
	Operator string `json:"operator"`
	Count    int    `json:"count"`
}

// Aggregates are the display summaries computed from a filtered table.
type Aggregates struct {
	Count       int             `json:"count"`
	MeanPowerKW float64         `json:"mean_power_kw"`
	Operators   []OperatorCount `json:"operators"`
	Departments []string        `json:"departments"`
}
