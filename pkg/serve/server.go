package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/praetorian-inc/suppcheck/pkg/checker"
	"github.com/praetorian-inc/suppcheck/pkg/reportlog"
	"github.com/praetorian-inc/suppcheck/pkg/types"
)

// Version is the server protocol version
const Version = "1.0.0"

// Server answers check requests over NDJSON streams
type Server struct {
	checker      *checker.Checker
	suppressions int
	logger       *slog.Logger
	encoder      *json.Encoder
	decoder      *json.Decoder
}

// NewServer creates a new streaming server. suppressions is the number of
// loaded suppressions announced in the ready message.
func NewServer(c *checker.Checker, suppressions int, in io.Reader, out io.Writer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		checker:      c,
		suppressions: suppressions,
		logger:       logger,
		encoder:      json.NewEncoder(out),
		decoder:      json.NewDecoder(bufio.NewReader(in)),
	}
}

// Run starts the server main loop
func (s *Server) Run(ctx context.Context) error {
	// Send ready signal
	s.sendReady()

	// Use buffered channels for incoming requests
	reqChan := make(chan Request, 1)
	errChan := make(chan error, 1)

	go func() {
		for {
			var req Request
			if err := s.decoder.Decode(&req); err != nil {
				errChan <- err
				return
			}
			select {
			case reqChan <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Process requests until stdin closes or context cancels
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errChan:
			// Drain any pending requests before handling EOF
			for {
				select {
				case req := <-reqChan:
					if s.processRequest(ctx, req) {
						return nil
					}
				default:
					// No more pending requests
					if err == io.EOF {
						return nil
					}
					s.sendError("decode", err.Error())
					return nil
				}
			}
		case req := <-reqChan:
			if s.processRequest(ctx, req) {
				return nil
			}
		}
	}
}

// processRequest handles a single request and returns true if the server should exit
func (s *Server) processRequest(ctx context.Context, req Request) bool {
	s.logger.Debug("request", "type", req.Type)
	switch req.Type {
	case "check":
		s.handleCheck(ctx, req.Payload)
	case "check_log":
		s.handleCheckLog(ctx, req.Payload)
	case "stats":
		s.handleStats()
	case "close":
		return true
	default:
		s.sendError("unknown", "unknown request type: "+req.Type)
	}
	return false
}

func (s *Server) sendReady() {
	s.send("ready", ReadyData{Version: Version, Suppressions: s.suppressions})
}

func (s *Server) handleCheck(ctx context.Context, payload json.RawMessage) {
	var p CheckPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("check", err.Error())
		return
	}

	collection := reportlog.NewCollection()
	for _, item := range p.Reports {
		if len(item.Origins) == 0 {
			collection.Add(item.Hash, item.Text, "")
		}
		for _, origin := range item.Origins {
			collection.Add(item.Hash, item.Text, origin)
		}
	}

	s.check(ctx, "check", collection.Reports())
}

func (s *Server) handleCheckLog(ctx context.Context, payload json.RawMessage) {
	var p CheckLogPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("check_log", err.Error())
		return
	}

	log, err := reportlog.ParseBytes([]byte(p.Content), p.Source)
	if err != nil {
		s.sendError("check_log", err.Error())
		return
	}
	collection := reportlog.NewCollection()
	collection.AddLog(log)

	s.check(ctx, "check_log", collection.Reports())
}

func (s *Server) check(ctx context.Context, respType string, reports []*types.Report) {
	result, err := s.checker.Check(ctx, reports)
	if err != nil {
		s.sendError(respType, err.Error())
		return
	}

	data := CheckData{
		Verdicts:  make([]VerdictData, 0, len(result.Verdicts)),
		Unmatched: len(result.Unmatched),
	}
	for _, v := range result.Verdicts {
		vd := VerdictData{
			Hash:       v.Report.Hash,
			Text:       v.Report.Text,
			Origins:    v.Report.Origins,
			Route:      v.Route,
			Suppressed: v.Suppressed(),
		}
		if v.Suppression != nil {
			vd.Suppression = v.Suppression.Name
			vd.SuppressionID = v.Suppression.ID()
		}
		data.Verdicts = append(data.Verdicts, vd)
	}
	s.send(respType, data)
}

func (s *Server) handleStats() {
	var data StatsData
	for _, h := range s.checker.TotalHits() {
		data.Hits = append(data.Hits, HitData{
			ID:    h.Suppression.ID(),
			Name:  h.Suppression.Name,
			Count: h.Count,
		})
	}
	s.send("stats", data)
}

func (s *Server) send(respType string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.sendError(respType, err.Error())
		return
	}
	if err := s.encoder.Encode(Response{
		Success: true,
		Type:    respType,
		Data:    data,
	}); err != nil {
		s.logger.Error("failed to write response", "type", respType, "error", err)
	}
}

func (s *Server) sendError(reqType, msg string) {
	if err := s.encoder.Encode(Response{
		Success: false,
		Type:    reqType,
		Error:   msg,
	}); err != nil {
		s.logger.Error("failed to write response", "type", reqType, "error", err)
	}
}
