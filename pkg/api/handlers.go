package api

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/codec"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/logging"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/varint"
)

const defaultMaxBodySize = 1 << 20

// Server holds the API server state
type Server struct {
	enc     *codec.Encoder
	dec     *codec.Decoder
	config  ServerConfig
	metrics *Metrics
	log     logrus.FieldLogger
}

// NewServer creates a new API server. enc and dec must share a schema.
func NewServer(enc *codec.Encoder, dec *codec.Decoder, config ServerConfig, metrics *Metrics, logger logrus.FieldLogger) *Server {
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = defaultMaxBodySize
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Server{
		enc:     enc,
		dec:     dec,
		config:  config,
		metrics: metrics,
		log:     logger.WithField("component", "api"),
	}
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodySize))
}

// handleHealth godoc
//
//	@Summary		Health check
//	@Description	Get the health status of the API
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/health [get]
//	@Security		ApiKeyAuth
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy", "schema": s.enc.Schema().Name})
}

// handleSchema godoc
//
//	@Summary		Describe the schema
//	@Tags			schema
//	@Produce		json
//	@Success		200	{object}	SchemaResponse
//	@Router			/schema [get]
//	@Security		ApiKeyAuth
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	sch := s.enc.Schema()
	resp := SchemaResponse{
		Name:       sch.Name,
		ByteOrder:  sch.ByteOrder.String(),
		TotalBits:  sch.TotalBits,
		RecordSize: sch.Size(),
		Fields:     make([]FieldInfo, 0, len(sch.Fields)),
	}
	if sch.CRC != nil {
		resp.CRCField = sch.CRC.Field
		resp.CRCRange = [2]int{sch.CRC.Start, sch.CRC.End}
	}
	for i := range sch.Fields {
		f := &sch.Fields[i]
		info := FieldInfo{
			Name:        f.Name,
			Type:        f.Type,
			Kind:        f.Kind.String(),
			Start:       f.Start,
			End:         f.End,
			Bits:        f.Bits,
			Charset:     string(f.Charset),
			Description: f.Description,
		}
		if f.Enum != nil {
			info.Values = f.Enum.Values()
		}
		resp.Fields = append(resp.Fields, info)
	}
	sendSuccess(w, resp)
}

// handleEncode godoc
//
//	@Summary		Encode a record
//	@Description	Encode field values into a fixed-size record. Values are coerced and masked, never rejected.
//	@Tags			codec
//	@Accept			json
//	@Produce		json
//	@Param			body	body		EncodeRequest	true	"Field values"
//	@Success		200		{object}	EncodeResponse
//	@Failure		400		{object}	APIResponse
//	@Router			/encode [post]
//	@Security		ApiKeyAuth
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	body, err := s.readBody(w, r)
	if err != nil {
		s.metrics.RecordCodecOperation("encode", false, 0, time.Since(start))
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req EncodeRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		s.metrics.RecordCodecOperation("encode", false, 0, time.Since(start))
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	buf, err := s.enc.Encode(codec.RecordFromMap(req.Values))
	if err != nil {
		s.metrics.RecordCodecOperation("encode", false, 0, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to encode record: %v", err), http.StatusInternalServerError)
		return
	}

	s.metrics.RecordCodecOperation("encode", true, len(buf), time.Since(start))
	sendSuccess(w, EncodeResponse{
		Hex:    hex.EncodeToString(buf),
		Base64: base64.StdEncoding.EncodeToString(buf),
		Size:   len(buf),
	})
}

// handleDecode godoc
//
//	@Summary		Decode a record
//	@Description	Decode one record given as raw bytes or as hex/base64 JSON. verify=true also checks the CRC.
//	@Tags			codec
//	@Accept			octet-stream,json
//	@Produce		json
//	@Param			verify	query		bool			false	"Verify CRC"
//	@Success		200		{object}	DecodeResponse
//	@Failure		400		{object}	APIResponse
//	@Router			/decode [post]
//	@Security		ApiKeyAuth
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	body, err := s.readBody(w, r)
	if err != nil {
		s.metrics.RecordCodecOperation("decode", false, 0, time.Since(start))
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	data := body
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/octet-stream") {
		data, err = parseDecodeRequest(body)
		if err != nil {
			s.metrics.RecordCodecOperation("decode", false, 0, time.Since(start))
			sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	rec, err := s.dec.Decode(data)
	if err != nil {
		s.metrics.RecordCodecOperation("decode", false, 0, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to decode record: %v", err), http.StatusBadRequest)
		return
	}
	s.metrics.RecordCodecOperation("decode", true, len(data), time.Since(start))

	resp := DecodeResponse{Values: rec, Fields: s.dec.Schema().Names()}
	if r.URL.Query().Get("verify") == "true" && s.dec.Schema().CRC != nil {
		vstart := time.Now()
		err := s.dec.Verify(data)
		valid := err == nil
		s.metrics.RecordCodecOperation("verify", valid, len(data), time.Since(vstart))
		if err != nil && !errors.Is(err, codec.ErrCRCMismatch) {
			sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp.CRCValid = &valid
	}
	sendSuccess(w, resp)
}

func parseDecodeRequest(body []byte) ([]byte, error) {
	var req DecodeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.New("invalid JSON in request body")
	}
	switch {
	case req.Hex != "":
		data, err := hex.DecodeString(strings.ReplaceAll(req.Hex, " ", ""))
		if err != nil {
			return nil, errors.New("invalid hex record")
		}
		return data, nil
	case req.Base64 != "":
		data, err := base64.StdEncoding.DecodeString(req.Base64)
		if err != nil {
			return nil, errors.New("invalid base64 record")
		}
		return data, nil
	}
	return nil, errors.New("request needs hex or base64")
}

// handleVarintEstimate godoc
//
//	@Summary		Size integers as LEB128
//	@Tags			varint
//	@Accept			json
//	@Produce		json
//	@Param			body	body		EstimateRequest	true	"Values"
//	@Success		200		{object}	EstimateResponse
//	@Router			/varint/estimate [post]
//	@Security		ApiKeyAuth
func (s *Server) handleVarintEstimate(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	var req EstimateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	var est varint.Estimate
	est.Add(varint.EstimateUnsigned(req.Unsigned))
	est.Add(varint.EstimateSigned(req.Signed))
	sendSuccess(w, EstimateResponse{Estimate: est, Ratio32: est.Ratio32(), Ratio64: est.Ratio64()})
}
