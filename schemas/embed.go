// Package schemas holds the JSON Schema documents for parser output.
package schemas

import _ "embed"

// RecordFile is the file name of the Record schema
const RecordFile = "record.schema.json"

// Record is the Record schema document
//
//go:embed record.schema.json
var Record []byte
