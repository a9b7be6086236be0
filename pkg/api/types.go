package api

import (
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/codec"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/varint"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port        int
	Bind        string
	APIKey      string   // empty disables authentication
	CORSOrigins []string // defaults to any origin
	MaxBodySize int64
}

// FieldInfo describes one schema field
type FieldInfo struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Kind        string   `json:"kind"`
	Start       int      `json:"start"`
	End         int      `json:"end"`
	Bits        int      `json:"bits"`
	Charset     string   `json:"charset,omitempty"`
	Values      []string `json:"values,omitempty"`
	Description string   `json:"description,omitempty"`
}

// SchemaResponse describes the compiled schema the server codes with
type SchemaResponse struct {
	Name       string      `json:"name"`
	ByteOrder  string      `json:"byte_order"`
	TotalBits  int         `json:"total_bits"`
	RecordSize int         `json:"record_size"`
	CRCField   string      `json:"crc_field,omitempty"`
	CRCRange   [2]int      `json:"crc_range,omitempty"`
	Fields     []FieldInfo `json:"fields"`
}

// EncodeRequest carries field values to encode
type EncodeRequest struct {
	Values map[string]interface{} `json:"values"`
}

// EncodeResponse is an encoded record
type EncodeResponse struct {
	Hex    string `json:"hex"`
	Base64 string `json:"base64"`
	Size   int    `json:"size"`
}

// DecodeRequest carries one encoded record, hex or base64
type DecodeRequest struct {
	Hex    string `json:"hex,omitempty"`
	Base64 string `json:"base64,omitempty"`
}

// DecodeResponse holds decoded values; Fields lists names in bit order
type DecodeResponse struct {
	Values   codec.Record `json:"values"`
	Fields   []string     `json:"fields"`
	CRCValid *bool        `json:"crc_valid,omitempty"`
}

// EstimateRequest lists integers to size as LEB128
type EstimateRequest struct {
	Unsigned []uint64 `json:"unsigned,omitempty"`
	Signed   []int64  `json:"signed,omitempty"`
}

// EstimateResponse compares LEB128 with fixed-width encodings
type EstimateResponse struct {
	varint.Estimate
	Ratio32 float64 `json:"ratio32"`
	Ratio64 float64 `json:"ratio64"`
}
